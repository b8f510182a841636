package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/technician-marketplace/internal/migrations"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и накатывает миграции проекта.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	projectRoot, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(projectRoot, "migrations")))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

var userSeq atomic.Int64

// TestDataFactory создаёт тестовые данные напрямую в БД.
type TestDataFactory struct {
	t       *testing.T
	storage *Storage
}

func newFactory(t *testing.T, storage *Storage) *TestDataFactory {
	return &TestDataFactory{t: t, storage: storage}
}

// User создаёт пользователя с ролью role и возвращает его ID.
func (f *TestDataFactory) User(role string) int64 {
	n := userSeq.Add(1)
	id, err := f.storage.CreateUser(context.Background(), models.User{
		Username:     fmt.Sprintf("%s_%d", role, n),
		Email:        fmt.Sprintf("%s_%d@example.com", role, n),
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(f.t, err)
	return id
}

// Technician создаёт техника и возвращает ID пользователя и профиля.
func (f *TestDataFactory) Technician() (userID, profileID int64) {
	userID = f.User(models.RoleTechnician)
	p, err := f.storage.GetOrCreateProfile(context.Background(), userID)
	require.NoError(f.t, err)
	return userID, p.ID
}

// SetProfileState выставляет флаги профиля и конец пробного периода.
func (f *TestDataFactory) SetProfileState(profileID int64, approved, paused bool, trialEnd *time.Time) {
	_, err := f.storage.DB.Exec(`UPDATE technician_profiles
		SET is_approved = $2, is_paused = $3, trial_ends_at = $4 WHERE id = $1`,
		profileID, approved, paused, trialEnd)
	require.NoError(f.t, err)
}

// Plan создаёт тариф и возвращает его ID.
func (f *TestDataFactory) Plan(name string, months int, price float64) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_plans (name, duration_months, price, currency)
		VALUES ($1, $2, $3, 'RWF') RETURNING id`, name, months, price).Scan(&id)
	require.NoError(f.t, err)
	return id
}

// Subscription создаёт подписку.
func (f *TestDataFactory) Subscription(userID, planID int64, status string, start, end time.Time) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions (user_id, plan_id, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, userID, planID, status, start, end).Scan(&id)
	require.NoError(f.t, err)
	return id
}

// Payment создаёт платёж в статусе PENDING.
func (f *TestDataFactory) Payment(payerID int64, txRef string, amount float64) *models.Payment {
	p, err := f.storage.CreatePayment(context.Background(), models.Payment{
		PayerID:  payerID,
		Amount:   amount,
		Currency: "RWF",
		TxRef:    txRef,
	})
	require.NoError(f.t, err)
	return p
}

func (f *TestDataFactory) countRows(query string, args ...any) int {
	var n int
	require.NoError(f.t, f.storage.DB.QueryRow(query, args...).Scan(&n))
	return n
}

func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func ptr[T any](v T) *T {
	return &v
}
