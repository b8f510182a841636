package models

import "time"

// Статусы подписки.
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionExpired  = "EXPIRED"
	SubscriptionCanceled = "CANCELED"
)

// Статусы платежа.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentRefunded  = "REFUNDED"
	PaymentFailed    = "FAILED"
)

// Plan тарифный план подписки.
type Plan struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	DurationMonths  int     `json:"duration_months"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	ProviderPriceID string  `json:"-"`
}

// Subscription оплаченная подписка пользователя. Активной считается запись со
// статусом ACTIVE и EndDate не раньше текущего момента.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	PlanID    int64     `json:"plan_id"`
	PlanName  string    `json:"plan_name,omitempty"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"is_active"`
}

// IsActive сообщает, действует ли подписка в момент now.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.EndDate.Before(now)
}

// Payment платёж пользователя.
type Payment struct {
	ID            int64      `json:"id"`
	PayerID       int64      `json:"payer_id"`
	PayeeID       *int64     `json:"payee_id,omitempty"`
	JobID         *int64     `json:"job_id,omitempty"`
	ApplicationID *int64     `json:"application_id,omitempty"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	TxRef         string     `json:"tx_ref"`
	ProviderTxID  string     `json:"provider_tx_id"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// DummySubscribe тело запроса на оформление подписки.
type DummySubscribe struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

// Checkout результат инициализации оплаты.
type Checkout struct {
	TxRef       string `json:"tx_ref"`
	CheckoutURL string `json:"checkout_url"`
	PaymentID   int64  `json:"payment_id"`
}

// PaymentCompletion данные для завершения оплаты подписки.
type PaymentCompletion struct {
	TxRef        string
	ProviderTxID string
	UserID       int64
	PlanID       int64
	Start        time.Time
	End          time.Time
}

// AnalyticsSummary сводка для администратора.
type AnalyticsSummary struct {
	TotalUsers       int     `json:"total_users"`
	PendingApprovals int     `json:"pending_approvals"`
	CompletedRevenue float64 `json:"completed_revenue"`
}
