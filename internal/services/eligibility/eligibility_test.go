package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

type LedgerMock struct{ mock.Mock }

func (m *LedgerMock) HasActiveSubscription(ctx context.Context, userID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, now)
	return args.Bool(0), args.Error(1)
}

func ptr(t time.Time) *time.Time { return &t }

func TestEngine_IsVisibleToEmployers(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		profile    models.TechnicianProfile
		setupMocks func(l *LedgerMock)
		want       bool
		wantErr    bool
	}{
		{
			name:       "approved on trial",
			profile:    models.TechnicianProfile{UserID: 1, IsApproved: true, TrialEndsAt: ptr(now.Add(24 * time.Hour))},
			setupMocks: func(_ *LedgerMock) {},
			want:       true,
		},
		{
			name:       "trial ends exactly now",
			profile:    models.TechnicianProfile{UserID: 1, IsApproved: true, TrialEndsAt: ptr(now)},
			setupMocks: func(_ *LedgerMock) {},
			want:       true,
		},
		{
			name:    "expired trial with active subscription",
			profile: models.TechnicianProfile{UserID: 2, IsApproved: true, TrialEndsAt: ptr(now.Add(-time.Hour))},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(2), now).Return(true, nil).Once()
			},
			want: true,
		},
		{
			name:    "no trial and no subscription",
			profile: models.TechnicianProfile{UserID: 3, IsApproved: true},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(3), now).Return(false, nil).Once()
			},
			want: false,
		},
		{
			name:       "not approved despite trial",
			profile:    models.TechnicianProfile{UserID: 4, TrialEndsAt: ptr(now.Add(time.Hour))},
			setupMocks: func(_ *LedgerMock) {},
			want:       false,
		},
		{
			name:       "paused despite trial",
			profile:    models.TechnicianProfile{UserID: 5, IsApproved: true, IsPaused: true, TrialEndsAt: ptr(now.Add(time.Hour))},
			setupMocks: func(_ *LedgerMock) {},
			want:       false,
		},
		{
			name:    "ledger failure propagates",
			profile: models.TechnicianProfile{UserID: 6, IsApproved: true},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(6), now).Return(false, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(LedgerMock)
			tt.setupMocks(l)

			got, err := New(l).IsVisibleToEmployers(context.Background(), &tt.profile, now)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			l.AssertExpectations(t)
		})
	}
}

func TestEngine_ComputeAutoPause(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		profile    models.TechnicianProfile
		setupMocks func(l *LedgerMock)
		want       bool
		wantErr    bool
	}{
		{
			name:       "on trial is not paused",
			profile:    models.TechnicianProfile{UserID: 1, TrialEndsAt: ptr(now.Add(time.Minute))},
			setupMocks: func(_ *LedgerMock) {},
			want:       false,
		},
		{
			name:    "expired trial with subscription is not paused",
			profile: models.TechnicianProfile{UserID: 2, IsPaused: true, TrialEndsAt: ptr(now.Add(-time.Minute))},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(2), now).Return(true, nil).Once()
			},
			want: false,
		},
		{
			name:    "neither trial nor subscription is paused",
			profile: models.TechnicianProfile{UserID: 3},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(3), now).Return(false, nil).Once()
			},
			want: true,
		},
		{
			name:    "ledger error is not swallowed",
			profile: models.TechnicianProfile{UserID: 4},
			setupMocks: func(l *LedgerMock) {
				l.On("HasActiveSubscription", mock.Anything, int64(4), now).Return(false, errors.New("timeout")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(LedgerMock)
			tt.setupMocks(l)

			got, err := New(l).ComputeAutoPause(context.Background(), &tt.profile, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			l.AssertExpectations(t)
		})
	}
}

func TestIsDocumentExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsDocumentExpired(&models.TechnicianProfile{}, now))
	assert.True(t, IsDocumentExpired(&models.TechnicianProfile{DocumentExpiresAt: ptr(now)}, now))
	assert.False(t, IsDocumentExpired(&models.TechnicianProfile{DocumentExpiresAt: ptr(now.Add(time.Second))}, now))
}

func TestView(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ref := "docs/record.pdf"

	v := View(&models.TechnicianProfile{DocumentRef: &ref, DocumentExpiresAt: ptr(now.Add(48 * time.Hour))}, now)
	assert.False(t, v.DocumentExpired)
	assert.Equal(t, "valid", v.DocumentStatus)

	v = View(&models.TechnicianProfile{}, now)
	assert.True(t, v.DocumentExpired)
	assert.Equal(t, "missing", v.DocumentStatus)
}
