// Package create реализует HTTP-обработчик создания отзыва работодателем.
//
// Ответ отправляется только после того, как агрегированный рейтинг техника
// пересчитан, поэтому клиент сразу видит актуальные значения.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/request"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// Service описывает бизнес-логику отзывов.
type Service interface {
	Create(ctx context.Context, technicianID, reviewerID int64, req models.DummyReview) (*models.Review, rating.Stats, error)
}

// Handler обрабатывает запросы на создание отзыва.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оставить отзыв
// @Description Сохраняет отзыв и возвращает пересчитанный рейтинг техника.
// @Tags Reviews
// @Accept  json
// @Produce  json
// @Param id path int true "ID профиля техника"
// @Param request body models.DummyReview true "Оценка и комментарий"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /employer/technicians/{id}/reviews [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.create"

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

	technicianID, err := request.IDParam(r, "id")
	if err != nil {
		log.Warn("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	var req models.DummyReview
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	review, stats, err := h.service.Create(r.Context(), technicianID, reviewerID, req)
	if err != nil {
		log.Error("failed to create review", slog.Int64("technician_id", technicianID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("review created", slog.Int64("review_id", review.ID), slog.Int64("technician_id", technicianID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"review":       review,
		"rating_avg":   stats.Avg,
		"rating_count": stats.Count,
	}))
}
