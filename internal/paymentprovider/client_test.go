package paymentprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCheckoutSession(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		errMessage string
	}{
		{
			name:   "session created",
			status: http.StatusOK,
			body:   `{"id":"cs_test_1","url":"https://checkout.example/cs_test_1","payment_intent":""}`,
		},
		{
			name:       "provider error",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"No such price","type":"invalid_request_error"}}`,
			wantErr:    true,
			errMessage: "No such price",
		},
		{
			name:    "incomplete session",
			status:  http.StatusOK,
			body:    `{"id":"cs_test_2"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
				assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

				require.NoError(t, r.ParseForm())
				assert.Equal(t, "subscription", r.PostForm.Get("mode"))
				assert.Equal(t, "price_1", r.PostForm.Get("line_items[0][price]"))
				assert.Equal(t, "7", r.PostForm.Get("metadata[user_id]"))
				assert.Equal(t, "2", r.PostForm.Get("metadata[plan_id]"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("sk_test", srv.URL+"/")
			session, err := c.CreateCheckoutSession(context.Background(), CheckoutRequest{
				PriceID:    "price_1",
				SuccessURL: "https://app/success",
				CancelURL:  "https://app/cancel",
				UserID:     7,
				PlanID:     2,
			})
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMessage != "" {
					assert.Contains(t, err.Error(), tt.errMessage)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "cs_test_1", session.ID)
			assert.Equal(t, "https://checkout.example/cs_test_1", session.URL)
		})
	}
}
