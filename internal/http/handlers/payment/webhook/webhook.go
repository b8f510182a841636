// Package webhook принимает уведомления платёжного провайдера.
//
// Ответ 200 означает, что уведомление принято и повторять доставку не нужно,
// даже если ссылки в нём не удалось разрешить. 500 возвращается только при
// сбое хранилища, чтобы провайдер повторил попытку.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/response"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	"github.com/magabrotheeeer/technician-marketplace/internal/services/payment"
)

// SignatureHeader заголовок с подписью провайдера "t=<unix>,v1=<hex>".
const SignatureHeader = "Stripe-Signature"

const maxBodyBytes = 1 << 20

type Service interface {
	Reconcile(ctx context.Context, event models.WebhookEvent) (string, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
	clock   clock.Clock
}

// New создаёт обработчик. Пустой secret отключает проверку подписи, clock
// задаёт время, с которым сравнивается метка подписи.
func New(log *slog.Logger, service Service, secret string, clk clock.Clock) *Handler {
	return &Handler{log: log, service: service, secret: secret, clock: clk}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного провайдера
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string false "t=<unix>,v1=<hex HMAC-SHA256 от t.body>"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if h.secret != "" {
		err := payment.VerifySignature(h.secret, body, r.Header.Get(SignatureHeader), h.clock.Now(), payment.SignatureTolerance)
		if err != nil {
			log.Warn("invalid webhook signature", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	outcome, err := h.service.Reconcile(r.Context(), event)
	if err != nil {
		log.Error("failed to reconcile webhook", slog.String("event_type", event.Type), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]string{"outcome": outcome}))
}
