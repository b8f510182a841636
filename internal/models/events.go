package models

import "time"

// TechnicianEvent событие жизненного цикла одобрения техника.
type TechnicianEvent struct {
	TechnicianID int64      `json:"technician_id"`
	Action       string     `json:"action"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// SubscriptionEvent событие активации или отмены подписки.
type SubscriptionEvent struct {
	SubscriptionID int64     `json:"subscription_id"`
	UserID         int64     `json:"user_id"`
	PlanID         int64     `json:"plan_id"`
	TxRef          string    `json:"tx_ref,omitempty"`
	EndDate        time.Time `json:"end_date"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PaymentEvent событие неуспешной оплаты.
type PaymentEvent struct {
	TxRef      string    `json:"tx_ref"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Виды напоминаний.
const (
	ReminderTrialEnding        = "trial_ending"
	ReminderSubscriptionEnding = "subscription_ending"
	ReminderDocumentExpiring   = "document_expiring"
)

// Reminder напоминание, публикуемое планировщиком.
type Reminder struct {
	Kind     string    `json:"kind"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Deadline time.Time `json:"deadline"`
}
