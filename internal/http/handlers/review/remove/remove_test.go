package remove

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, reviewID, reviewerID int64) (rating.Stats, error) {
	args := m.Called(ctx, reviewID, reviewerID)
	return args.Get(0).(rating.Stats), args.Error(1)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "own review",
			url:  "/employer/reviews/3",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(3), int64(8)).Return(rating.Stats{Avg: 2, Count: 1}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"rating_count":1`,
		},
		{
			name: "someone else's review",
			url:  "/employer/reviews/4",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(4), int64(8)).
					Return(rating.Stats{}, apperr.Forbidden("review belongs to another user")).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `review belongs to another user`,
		},
		{
			name: "missing review",
			url:  "/employer/reviews/5",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(5), int64(8)).Return(rating.Stats{}, apperr.NotFound("review")).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `review not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			router := chi.NewRouter()
			router.Method(http.MethodDelete, "/employer/reviews/{id}", New(logger, svc))

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, int64(8)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
