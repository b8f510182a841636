package detail

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

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Detail(ctx context.Context, id int64) (*models.TechnicianView, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.TechnicianView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestDetailHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "approved technician",
			url:  "/technicians/12",
			setupMock: func(m *MockService) {
				m.On("Detail", mock.Anything, int64(12)).Return(&models.TechnicianView{
					TechnicianProfile: &models.TechnicianProfile{ID: 12, Username: "tech", IsApproved: true, IsPaused: true},
					DocumentStatus:    "valid",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_paused":true`,
		},
		{
			name:           "invalid id",
			url:            "/technicians/abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid id`,
		},
		{
			name: "not approved",
			url:  "/technicians/13",
			setupMock: func(m *MockService) {
				m.On("Detail", mock.Anything, int64(13)).Return(nil, apperr.NotFound("technician")).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"technician not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Method(http.MethodGet, "/technicians/{id}", New(logger, svc))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
