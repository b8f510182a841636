package create

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, technicianID, reviewerID int64, req models.DummyReview) (*models.Review, rating.Stats, error) {
	args := m.Called(ctx, technicianID, reviewerID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Review), args.Get(1).(rating.Stats), args.Error(2)
	}
	return nil, rating.Stats{}, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCreateHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "review created with fresh rating",
			url:  "/employer/technicians/5/reviews",
			body: `{"rating":4,"comment":"on time"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(5), int64(11), models.DummyReview{Rating: 4, Comment: "on time"}).
					Return(&models.Review{ID: 1, TechnicianID: 5, ReviewerID: 11, Rating: 4}, rating.Stats{Avg: 4.5, Count: 2}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rating out of range",
			url:            "/employer/technicians/5/reviews",
			body:           `{"rating":6}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "field Rating must be at most 5",
		},
		{
			name:           "missing rating",
			url:            "/employer/technicians/5/reviews",
			body:           `{"comment":"meh"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "field Rating is a required field",
		},
		{
			name: "unknown technician",
			url:  "/employer/technicians/404/reviews",
			body: `{"rating":3}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(404), int64(11), mock.Anything).
					Return(nil, rating.Stats{}, apperr.NotFound("technician")).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "technician not found",
		},
		{
			name: "store failure",
			url:  "/employer/technicians/5/reviews",
			body: `{"rating":3}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(5), int64(11), mock.Anything).
					Return(nil, rating.Stats{}, errors.New("deadlock detected")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			router := chi.NewRouter()
			router.Method(http.MethodPost, "/employer/technicians/{id}/reviews", New(newNoopLogger(), svc))

			req := httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, int64(11)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, got["error"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, 4.5, data["rating_avg"])
				assert.Equal(t, float64(2), data["rating_count"])
			}
			svc.AssertExpectations(t)
		})
	}
}
