package rabbitmq

// EventsExchange обменник доменных событий маркетплейса.
const EventsExchange = "marketplace.events"

// Ключи маршрутизации доменных событий.
const (
	KeyTechnicianApproved = "technician.approved"
	KeyTechnicianRevoked  = "technician.revoked"
	KeyTechnicianPaused   = "technician.paused"
	KeyTechnicianResumed  = "technician.resumed"

	KeySubscriptionActivated = "subscription.activated"
	KeySubscriptionCancelled = "subscription.cancelled"
	KeyPaymentFailed         = "payment.failed"

	KeyReminderTrialEnding        = "reminder.trial_ending"
	KeyReminderSubscriptionEnding = "reminder.subscription_ending"
	KeyReminderDocumentExpiring   = "reminder.document_expiring"
)

type QueueConfig struct {
	QueueName   string
	BindingKeys []string
}

// EventQueues очереди, которые слушают внешние потребители событий.
func EventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "marketplace.technicians", BindingKeys: []string{"technician.*"}},
		{QueueName: "marketplace.billing", BindingKeys: []string{"subscription.*", "payment.*"}},
		{QueueName: "marketplace.reminders", BindingKeys: []string{"reminder.#"}},
	}
}
