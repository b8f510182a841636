package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ApproveTechnician(ctx context.Context, id int64, trialEnd time.Time) (time.Time, error) {
	args := m.Called(ctx, id, trialEnd)
	return args.Get(0).(time.Time), args.Error(1)
}
func (m *RepoMock) SetApproved(ctx context.Context, id int64, approved bool) error {
	return m.Called(ctx, id, approved).Error(0)
}
func (m *RepoMock) SetPaused(ctx context.Context, id int64, paused bool) error {
	return m.Called(ctx, id, paused).Error(0)
}
func (m *RepoMock) EnsureTechnicianProfiles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) ListPendingTechnicians(ctx context.Context, page models.Page) (*models.PageResult[*models.TechnicianProfile], error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PageResult[*models.TechnicianProfile]), args.Error(1)
}

func (m *RepoMock) ListTechnicians(ctx context.Context, f models.AdminTechnicianFilter) (*models.PageResult[*models.TechnicianProfile], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PageResult[*models.TechnicianProfile]), args.Error(1)
}
func (m *RepoMock) GetProfileByID(ctx context.Context, id int64) (*models.TechnicianProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TechnicianProfile), args.Error(1)
}

type EventsMock struct{ mock.Mock }

func (m *EventsMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var now = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

func TestService_Approve(t *testing.T) {
	existingTrial := now.Add(5 * 24 * time.Hour)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, e *EventsMock)
		want       time.Time
		wantKind   apperr.Kind
		wantErr    bool
	}{
		{
			name: "first approval grants thirty day trial",
			setupMocks: func(r *RepoMock, e *EventsMock) {
				r.On("ApproveTechnician", mock.Anything, int64(7), now.Add(TrialPeriod)).
					Return(now.Add(TrialPeriod), nil).Once()
				e.On("Publish", mock.Anything, rabbitmq.KeyTechnicianApproved, mock.Anything).Return(nil).Once()
			},
			want: now.Add(TrialPeriod),
		},
		{
			name: "re-approval keeps existing trial",
			setupMocks: func(r *RepoMock, e *EventsMock) {
				r.On("ApproveTechnician", mock.Anything, int64(7), now.Add(TrialPeriod)).
					Return(existingTrial, nil).Once()
				e.On("Publish", mock.Anything, rabbitmq.KeyTechnicianApproved, mock.MatchedBy(func(ev models.TechnicianEvent) bool {
					return ev.TrialEndsAt != nil && ev.TrialEndsAt.Equal(existingTrial)
				})).Return(nil).Once()
			},
			want: existingTrial,
		},
		{
			name: "publish failure does not fail approval",
			setupMocks: func(r *RepoMock, e *EventsMock) {
				r.On("ApproveTechnician", mock.Anything, int64(7), now.Add(TrialPeriod)).
					Return(now.Add(TrialPeriod), nil).Once()
				e.On("Publish", mock.Anything, rabbitmq.KeyTechnicianApproved, mock.Anything).
					Return(errors.New("broker down")).Once()
			},
			want: now.Add(TrialPeriod),
		},
		{
			name: "unknown technician",
			setupMocks: func(r *RepoMock, _ *EventsMock) {
				r.On("ApproveTechnician", mock.Anything, int64(7), now.Add(TrialPeriod)).
					Return(time.Time{}, apperr.NotFound("technician")).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(RepoMock)
			e := new(EventsMock)
			tt.setupMocks(r, e)

			svc := New(newNoopLogger(), r, e, clock.Fixed(now))
			got, err := svc.Approve(context.Background(), 7)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, tt.wantKind))
			} else {
				require.NoError(t, err)
				assert.True(t, tt.want.Equal(got))
			}
			r.AssertExpectations(t)
			e.AssertExpectations(t)
		})
	}
}

func TestService_FlagTransitions(t *testing.T) {
	tests := []struct {
		name   string
		call   func(s *Service) error
		method string
		value  bool
		key    string
	}{
		{name: "revoke", call: func(s *Service) error { return s.Revoke(context.Background(), 3) }, method: "SetApproved", value: false, key: rabbitmq.KeyTechnicianRevoked},
		{name: "pause", call: func(s *Service) error { return s.Pause(context.Background(), 3) }, method: "SetPaused", value: true, key: rabbitmq.KeyTechnicianPaused},
		{name: "resume", call: func(s *Service) error { return s.Resume(context.Background(), 3) }, method: "SetPaused", value: false, key: rabbitmq.KeyTechnicianResumed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(RepoMock)
			e := new(EventsMock)
			r.On(tt.method, mock.Anything, int64(3), tt.value).Return(nil).Once()
			e.On("Publish", mock.Anything, tt.key, mock.Anything).Return(nil).Once()

			err := tt.call(New(newNoopLogger(), r, e, clock.Fixed(now)))
			require.NoError(t, err)
			r.AssertExpectations(t)
			e.AssertExpectations(t)
		})

		t.Run(tt.name+" unknown id", func(t *testing.T) {
			r := new(RepoMock)
			e := new(EventsMock)
			r.On(tt.method, mock.Anything, int64(3), tt.value).Return(apperr.NotFound("technician")).Once()

			err := tt.call(New(newNoopLogger(), r, e, clock.Fixed(now)))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
			e.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_Pending(t *testing.T) {
	r := new(RepoMock)
	e := new(EventsMock)
	page := models.Page{Number: 1, Size: 10}

	r.On("EnsureTechnicianProfiles", mock.Anything).Return(int64(2), nil).Once()
	r.On("ListPendingTechnicians", mock.Anything, page).Return(&models.PageResult[*models.TechnicianProfile]{
		Count:    1,
		Page:     1,
		PageSize: 10,
		Results:  []*models.TechnicianProfile{{ID: 9, UserID: 4}},
	}, nil).Once()

	res, err := New(newNoopLogger(), r, e, clock.Fixed(now)).Pending(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(9), res.Results[0].ID)
	assert.True(t, res.Results[0].DocumentExpired)
	r.AssertExpectations(t)
}

func TestService_Pending_EnsureFails(t *testing.T) {
	r := new(RepoMock)
	r.On("EnsureTechnicianProfiles", mock.Anything).Return(int64(0), errors.New("db down")).Once()

	_, err := New(newNoopLogger(), r, new(EventsMock), clock.Fixed(now)).Pending(context.Background(), models.Page{})
	require.Error(t, err)
	r.AssertNotCalled(t, "ListPendingTechnicians", mock.Anything, mock.Anything)
}

func TestService_Technicians(t *testing.T) {
	r := new(RepoMock)
	approved := true
	filter := models.AdminTechnicianFilter{IsApproved: &approved, Location: "Kigali", Page: models.Page{Number: 1, Size: 6}}
	docExpires := now.Add(24 * time.Hour)

	r.On("ListTechnicians", mock.Anything, filter).Return(&models.PageResult[*models.TechnicianProfile]{
		Count:    1,
		Page:     1,
		PageSize: 6,
		Results:  []*models.TechnicianProfile{{ID: 3, IsApproved: true, IsPaused: true, DocumentExpiresAt: &docExpires}},
	}, nil).Once()

	res, err := New(newNoopLogger(), r, new(EventsMock), clock.Fixed(now)).Technicians(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].IsPaused)
	assert.False(t, res.Results[0].DocumentExpired)
	r.AssertExpectations(t)
}

func TestService_Technician(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r := new(RepoMock)
		r.On("GetProfileByID", mock.Anything, int64(3)).Return(&models.TechnicianProfile{ID: 3}, nil).Once()

		view, err := New(newNoopLogger(), r, new(EventsMock), clock.Fixed(now)).Technician(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), view.ID)
		assert.True(t, view.DocumentExpired)
	})

	t.Run("missing", func(t *testing.T) {
		r := new(RepoMock)
		r.On("GetProfileByID", mock.Anything, int64(4)).Return(nil, apperr.NotFound("technician")).Once()

		_, err := New(newNoopLogger(), r, new(EventsMock), clock.Fixed(now)).Technician(context.Background(), 4)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
