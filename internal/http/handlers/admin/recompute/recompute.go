package recompute

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/request"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
)

type Service interface {
	Recompute(ctx context.Context, technicianID int64) (rating.Stats, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пересчитать рейтинг техника
// @Tags Admin
// @Produce  json
// @Param id path int true "ID профиля техника"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/technicians/{id}/recompute-rating [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.recompute"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.IDParam(r, "id")
	if err != nil {
		log.Warn("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	stats, err := h.service.Recompute(r.Context(), id)
	if err != nil {
		log.Error("failed to recompute rating", slog.Int64("technician_id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"rating_avg":   stats.Avg,
		"rating_count": stats.Count,
	}))
}
