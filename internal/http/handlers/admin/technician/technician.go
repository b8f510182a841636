package technician

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/request"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type Service interface {
	Technician(ctx context.Context, id int64) (*models.TechnicianView, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль техника для администратора
// @Description Возвращает профиль независимо от одобрения и паузы.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID профиля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/technicians/{id} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.technician"

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

	view, err := h.service.Technician(r.Context(), id)
	if err != nil {
		log.Warn("failed to read technician", slog.Int64("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
