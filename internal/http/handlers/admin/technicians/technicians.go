// Package technicians отдаёт администратору все профили техников с фильтрами.
package technicians

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
	Technicians(ctx context.Context, f models.AdminTechnicianFilter) (*models.PageResult[*models.TechnicianView], error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Все техники
// @Tags Admin
// @Produce  json
// @Param is_approved query bool false "Фильтр по одобрению"
// @Param location query string false "Местоположение, точное совпадение"
// @Param years_experience query int false "Опыт в годах, точное совпадение"
// @Param search query string false "Поиск по имени, email, местоположению и навыкам"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/technicians [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.technicians"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := request.AdminTechnicianFilter(r)
	if err != nil {
		log.Warn("invalid filter", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	res, err := h.service.Technicians(r.Context(), filter)
	if err != nil {
		log.Error("failed to list technicians", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
