package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/metrics"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	"github.com/magabrotheeeer/technician-marketplace/internal/services/subscription"
)

// Итоги обработки уведомления провайдера.
const (
	OutcomeActivated  = "activated"
	OutcomeReplayed   = "replayed"
	OutcomeFailed     = "failed"
	OutcomeIgnored    = "ignored"
	OutcomeUnresolved = "unresolved"
)

// Типы событий успешной оплаты. Все остальные считаются неуспешными.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
)

// IsCompletion сообщает, означает ли событие успешную оплату.
func IsCompletion(eventType string) bool {
	return eventType == EventCheckoutCompleted || eventType == EventInvoicePaymentSucceeded
}

// SignatureTolerance допустимое расхождение метки времени подписи с часами
// сервера. Более старые доставки отклоняются как повтор.
const SignatureTolerance = 5 * time.Minute

// Ошибки проверки подписи уведомления.
var (
	ErrNoSignature       = errors.New("no valid signature in header")
	ErrSignatureMismatch = errors.New("signature does not match payload")
	ErrSignatureExpired  = errors.New("signature timestamp is outside tolerance")
)

// Sign возвращает значение заголовка подписи в формате провайдера:
// "t=<unix>,v1=<hex HMAC-SHA256 от "<unix>.<body>">".
func Sign(secret string, body []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(secret, ts, body)))
}

// VerifySignature проверяет заголовок подписи провайдера. Подходит любая из
// подписей v1, метка времени t должна отличаться от now не больше чем на
// tolerance.
func VerifySignature(secret string, body []byte, header string, now time.Time, tolerance time.Duration) error {
	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	signedAt := time.Unix(ts, 0)
	if diff := now.Sub(signedAt); diff > tolerance || diff < -tolerance {
		return ErrSignatureExpired
	}

	expected := computeSignature(secret, ts, body)
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func computeSignature(secret string, ts int64, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var (
		ts         int64
		haveTS     bool
		signatures [][]byte
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrNoSignature
			}
			ts, haveTS = parsed, true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return 0, nil, ErrNoSignature
	}
	return ts, signatures, nil
}

// Reconcile применяет уведомление провайдера к платежу с tx_ref = data.object.id.
//
// Успешная оплата переводит платёж PENDING в COMPLETED и создаёт подписку одной
// транзакцией; повтор того же уведомления ничего не меняет. Неразрешимые
// ссылки (платёж, metadata, тариф, пользователь) принимаются без изменений,
// чтобы провайдер не повторял доставку. Ошибка возвращается только при
// отсутствии id и при сбое хранилища.
func (s *Service) Reconcile(ctx context.Context, event models.WebhookEvent) (string, error) {
	const op = "payment.Reconcile"

	obj := event.Data.Object
	if obj.ID == "" {
		return "", apperr.Validation("data.object.id is required")
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("event_type", event.Type),
		slog.String("tx_ref", obj.ID),
	)

	var (
		outcome string
		err     error
	)
	if IsCompletion(event.Type) {
		outcome, err = s.complete(ctx, log, obj)
	} else {
		outcome, err = s.fail(ctx, event.Type, obj)
	}
	if err != nil {
		metrics.RecordWebhookOutcome("error")
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordWebhookOutcome(outcome)
	log.Info("webhook processed", slog.String("outcome", outcome))
	return outcome, nil
}

func (s *Service) complete(ctx context.Context, log *slog.Logger, obj models.WebhookObject) (string, error) {
	payment, err := s.repo.GetPaymentByTxRef(ctx, obj.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Warn("payment not found")
			return OutcomeUnresolved, nil
		}
		return "", err
	}

	userID, err := obj.MetadataID("user_id")
	if err != nil {
		log.Warn("unresolved webhook metadata", sl.Err(err))
		return OutcomeUnresolved, nil
	}
	planID, err := obj.MetadataID("plan_id")
	if err != nil {
		log.Warn("unresolved webhook metadata", sl.Err(err))
		return OutcomeUnresolved, nil
	}
	if userID != payment.PayerID {
		log.Warn("webhook user does not match payer",
			slog.Int64("user_id", userID),
			slog.Int64("payer_id", payment.PayerID),
		)
		return OutcomeUnresolved, nil
	}

	plan, err := s.plans.Plan(ctx, planID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Warn("plan not found", slog.Int64("plan_id", planID))
			return OutcomeUnresolved, nil
		}
		return "", err
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Warn("user not found", slog.Int64("user_id", userID))
			return OutcomeUnresolved, nil
		}
		return "", err
	}

	start := s.clock.Now()
	sub, err := s.repo.CompleteSubscriptionPayment(ctx, models.PaymentCompletion{
		TxRef:        obj.ID,
		ProviderTxID: obj.ProviderTxID(),
		UserID:       userID,
		PlanID:       plan.ID,
		Start:        start,
		End:          subscription.EndDate(start, plan.DurationMonths),
	})
	if err != nil {
		return "", err
	}
	if sub == nil {
		return OutcomeReplayed, nil
	}

	event := models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		TxRef:          obj.ID,
		EndDate:        sub.EndDate,
		OccurredAt:     start,
	}
	if err := s.events.Publish(ctx, rabbitmq.KeySubscriptionActivated, event); err != nil {
		log.Warn("failed to publish subscription event", sl.Err(err))
	}
	return OutcomeActivated, nil
}

func (s *Service) fail(ctx context.Context, eventType string, obj models.WebhookObject) (string, error) {
	changed, err := s.repo.FailPayment(ctx, obj.ID)
	if err != nil {
		return "", err
	}
	if !changed {
		return OutcomeIgnored, nil
	}

	event := models.PaymentEvent{
		TxRef:      obj.ID,
		EventType:  eventType,
		OccurredAt: s.clock.Now(),
	}
	if err := s.events.Publish(ctx, rabbitmq.KeyPaymentFailed, event); err != nil {
		s.log.Warn("failed to publish payment event", sl.Err(err))
	}
	return OutcomeFailed, nil
}
