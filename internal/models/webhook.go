package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// WebhookEvent уведомление платёжного провайдера.
type WebhookEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Data WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	Object WebhookObject `json:"object"`
}

// WebhookObject сессия оплаты или счёт. ID объекта совпадает с tx_ref
// локального платежа.
type WebhookObject struct {
	ID            string                     `json:"id"`
	PaymentIntent string                     `json:"payment_intent"`
	Invoice       string                     `json:"invoice"`
	Subscription  string                     `json:"subscription"`
	Metadata      map[string]json.RawMessage `json:"metadata"`
}

// ProviderTxID идентификатор транзакции провайдера: payment_intent, затем
// invoice, затем subscription.
func (o WebhookObject) ProviderTxID() string {
	switch {
	case o.PaymentIntent != "":
		return o.PaymentIntent
	case o.Invoice != "":
		return o.Invoice
	default:
		return o.Subscription
	}
}

// MetadataID читает положительный идентификатор из metadata. Провайдер
// присылает значения строками, ручные вызовы могут прислать числа.
func (o WebhookObject) MetadataID(key string) (int64, error) {
	raw, ok := o.Metadata[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("metadata %s is missing", key)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("metadata %s is invalid: %q", key, s)
	}
	return id, nil
}
