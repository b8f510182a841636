package rabbitmq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueues(t *testing.T) {
	queues := EventQueues()

	require.NotEmpty(t, queues, "queues list should not be empty")

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
		assert.NotEmptyf(t, q.BindingKeys, "queue %s has no bindings", q.QueueName)
	}
}

func TestEventQueues_CoverRoutingKeys(t *testing.T) {
	keys := []string{
		KeyTechnicianApproved,
		KeyTechnicianRevoked,
		KeyTechnicianPaused,
		KeyTechnicianResumed,
		KeySubscriptionActivated,
		KeySubscriptionCancelled,
		KeyPaymentFailed,
		KeyReminderTrialEnding,
		KeyReminderSubscriptionEnding,
		KeyReminderDocumentExpiring,
	}

	for _, key := range keys {
		matched := false
		for _, q := range EventQueues() {
			for _, b := range q.BindingKeys {
				if topicMatch(b, key) {
					matched = true
				}
			}
		}
		assert.Truef(t, matched, "routing key %s is not bound to any queue", key)
	}
}

// topicMatch упрощённое сопоставление topic-ключей для "*" и "#" в конце шаблона.
func topicMatch(pattern, key string) bool {
	pp := strings.Split(pattern, ".")
	kk := strings.Split(key, ".")
	for i, p := range pp {
		if p == "#" {
			return true
		}
		if i >= len(kk) {
			return false
		}
		if p != "*" && p != kk[i] {
			return false
		}
	}
	return len(pp) == len(kk)
}
