// Package transition реализует административные переходы профиля техника.
package transition

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/request"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
)

// Действия администратора.
const (
	ActionApprove = "approve"
	ActionRevoke  = "revoke"
	ActionPause   = "pause"
	ActionResume  = "resume"
)

// Статусы профиля после перехода.
const (
	StatusApproved = "approved"
	StatusRevoked  = "revoked"
	StatusPaused   = "paused"
	StatusResumed  = "resumed"
)

type Service interface {
	Approve(ctx context.Context, id int64) (time.Time, error)
	Revoke(ctx context.Context, id int64) error
	Pause(ctx context.Context, id int64) error
	Resume(ctx context.Context, id int64) error
}

// Result ответ на переход. TrialEndsAt заполняется только при одобрении.
type Result struct {
	ID          int64      `json:"id"`
	Action      string     `json:"action"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Одобрить, отозвать, приостановить или возобновить техника
// @Tags Admin
// @Produce  json
// @Param id path int true "ID профиля техника"
// @Param action path string true "approve, revoke, pause или resume"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/technicians/{id}/{action} [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.transition"

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

	action := chi.URLParam(r, "action")
	res := Result{ID: id, Action: action}

	switch action {
	case ActionApprove:
		var trialEnd time.Time
		trialEnd, err = h.service.Approve(r.Context(), id)
		res.TrialEndsAt = &trialEnd
		res.Status = StatusApproved
	case ActionRevoke:
		err = h.service.Revoke(r.Context(), id)
		res.Status = StatusRevoked
	case ActionPause:
		err = h.service.Pause(r.Context(), id)
		res.Status = StatusPaused
	case ActionResume:
		err = h.service.Resume(r.Context(), id)
		res.Status = StatusResumed
	default:
		err = apperr.Validation("unknown action: " + action)
	}
	if err != nil {
		log.Warn("technician transition failed",
			slog.Int64("technician_id", id),
			slog.String("action", action),
			sl.Err(err),
		)
		response.Fail(w, r, err)
		return
	}

	log.Info("technician transitioned", slog.Int64("technician_id", id), slog.String("action", action))
	render.JSON(w, r, response.StatusOKWithData(res))
}
