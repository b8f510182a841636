// Package list отдаёт страницу техников, видимых работодателям.
package list

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
	ListVisible(ctx context.Context, f models.TechnicianFilter) (*models.PageResult[*models.TechnicianView], error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список техников
// @Description Одобренные техники без паузы, у которых идёт пробный период или есть активная подписка.
// @Tags Technicians
// @Produce  json
// @Param location query string false "Подстрока местоположения"
// @Param skill query string false "Подстрока названия навыка"
// @Param skill_id query int false "ID навыка"
// @Param search query string false "Поиск по имени, описанию, местоположению и навыкам"
// @Param ordering query string false "rating_avg, -rating_avg, years_experience, -years_experience"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы, не больше 50"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /technicians [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.technician.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := request.TechnicianFilter(r)
	res, err := h.service.ListVisible(r.Context(), filter)
	if err != nil {
		log.Error("failed to list technicians", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Debug("technicians listed", slog.Int("count", res.Count), slog.Int("page", res.Page))
	render.JSON(w, r, response.StatusOKWithData(res))
}
