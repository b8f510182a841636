package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type Service interface {
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка площадки
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response
// @Router /admin/analytics/summary [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.analytics"

	sum, err := h.service.Summary(r.Context())
	if err != nil {
		h.log.Error("failed to build analytics summary",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(sum))
}
