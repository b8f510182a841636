// Package subscriptions отдаёт администратору подписки всех пользователей.
package subscriptions

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
	List(ctx context.Context, f models.SubscriptionFilter) (*models.PageResult[*models.Subscription], error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписки пользователей
// @Tags Admin
// @Produce  json
// @Param status query string false "ACTIVE, EXPIRED или CANCELED"
// @Param plan query int false "ID тарифа"
// @Param user query int false "ID пользователя"
// @Param search query string false "Поиск по имени пользователя и названию тарифа"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/subscriptions [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := request.SubscriptionFilter(r)
	if err != nil {
		log.Warn("invalid filter", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Warn("failed to list subscriptions", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Debug("subscriptions listed", slog.Int("count", res.Count))
	render.JSON(w, r, response.StatusOKWithData(res))
}
