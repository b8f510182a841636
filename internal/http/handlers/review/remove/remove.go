// Package remove удаляет собственный отзыв работодателя.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/request"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
)

type Service interface {
	Delete(ctx context.Context, reviewID, reviewerID int64) (rating.Stats, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить свой отзыв
// @Tags Reviews
// @Produce  json
// @Param id path int true "ID отзыва"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Чужой отзыв"
// @Failure 404 {object} response.ErrorResponse
// @Router /employer/reviews/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reviewerID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := request.IDParam(r, "id")
	if err != nil {
		log.Warn("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	stats, err := h.service.Delete(r.Context(), id, reviewerID)
	if err != nil {
		log.Warn("failed to delete review", slog.Int64("review_id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("review deleted", slog.Int64("review_id", id))
	render.JSON(w, r, response.StatusOKWithData(stats))
}
