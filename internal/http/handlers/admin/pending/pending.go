package pending

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
	Pending(ctx context.Context, page models.Page) (*models.PageResult[*models.TechnicianView], error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Техники, ожидающие одобрения
// @Tags Admin
// @Produce  json
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Router /admin/technicians/pending [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pending"

	res, err := h.service.Pending(r.Context(), request.Page(r))
	if err != nil {
		h.log.Error("failed to list pending technicians",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
