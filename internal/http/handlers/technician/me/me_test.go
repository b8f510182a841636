package me

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MyProfile(ctx context.Context, userID int64) (*models.TechnicianView, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.TechnicianView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		userID         any
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "paused profile",
			userID: int64(12),
			setupMock: func(m *MockService) {
				m.On("MyProfile", mock.Anything, int64(12)).Return(&models.TechnicianView{
					TechnicianProfile: &models.TechnicianProfile{ID: 3, UserID: 12, IsApproved: true, IsPaused: true},
					DocumentExpired:   true,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_paused":true`,
		},
		{
			name:           "no user in context",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:   "store failure is hidden",
			userID: int64(12),
			setupMock: func(m *MockService) {
				m.On("MyProfile", mock.Anything, int64(12)).Return(nil, errors.New("pq: relation missing")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal server error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(logger, svc)

			req := httptest.NewRequest(http.MethodGet, "/technicians/me", nil)
			if tt.userID != nil {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.NotContains(t, rec.Body.String(), "relation missing")
			svc.AssertExpectations(t)
		})
	}
}
