// Package payment оформляет оплату подписки и сверяет уведомления платёжного
// провайдера с локальными платежами.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	"github.com/magabrotheeeer/technician-marketplace/internal/paymentprovider"
)

const mockCheckoutURL = "https://stripe.mock/checkout/"

// Repository хранилище платежей.
type Repository interface {
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	GetPaymentByTxRef(ctx context.Context, txRef string) (*models.Payment, error)
	ListPaymentsByPayer(ctx context.Context, payerID int64) ([]*models.Payment, error)
	CompleteSubscriptionPayment(ctx context.Context, c models.PaymentCompletion) (*models.Subscription, error)
	FailPayment(ctx context.Context, txRef string) (bool, error)
}

// Plans каталог тарифов.
type Plans interface {
	Plan(ctx context.Context, id int64) (*models.Plan, error)
}

// Users поиск пользователей.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// CheckoutProvider создаёт сессии оплаты у провайдера.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, r paymentprovider.CheckoutRequest) (*paymentprovider.CheckoutSession, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// RedirectURLs адреса возврата пользователя после оплаты.
type RedirectURLs struct {
	Success string
	Cancel  string
}

// Service оформление и сверка платежей.
type Service struct {
	repo     Repository
	plans    Plans
	users    Users
	provider CheckoutProvider
	events   EventPublisher
	clock    clock.Clock
	urls     RedirectURLs
	log      *slog.Logger
}

// New создаёт сервис платежей. Если provider равен nil, оплата работает в
// тестовом режиме со ссылкой-заглушкой.
func New(
	log *slog.Logger,
	repo Repository,
	plans Plans,
	users Users,
	provider CheckoutProvider,
	events EventPublisher,
	clk clock.Clock,
	urls RedirectURLs,
) *Service {
	return &Service{
		repo:     repo,
		plans:    plans,
		users:    users,
		provider: provider,
		events:   events,
		clock:    clk,
		urls:     urls,
		log:      log,
	}
}

// NewTxRef генерирует ссылку транзакции для тестового режима оплаты.
func NewTxRef(userID int64) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sub-%d-%s", userID, hex[:10])
}

// Subscribe создаёт платёж в статусе PENDING по тарифу planID и возвращает
// ссылку на оплату. Тестовый режим используется, когда провайдер не настроен
// или у тарифа нет идентификатора цены.
func (s *Service) Subscribe(ctx context.Context, userID, planID int64) (*models.Checkout, error) {
	const op = "payment.Subscribe"

	plan, err := s.plans.Plan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var txRef, providerTxID, checkoutURL string
	if s.provider == nil || plan.ProviderPriceID == "" {
		txRef = NewTxRef(userID)
		checkoutURL = mockCheckoutURL + txRef
	} else {
		session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutRequest{
			PriceID:    plan.ProviderPriceID,
			SuccessURL: s.urls.Success,
			CancelURL:  s.urls.Cancel,
			UserID:     userID,
			PlanID:     plan.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: create checkout session: %w", op, err)
		}
		txRef = session.ID
		providerTxID = session.PaymentIntent
		checkoutURL = session.URL
	}

	created, err := s.repo.CreatePayment(ctx, models.Payment{
		PayerID:      userID,
		Amount:       plan.Price,
		Currency:     plan.Currency,
		TxRef:        txRef,
		ProviderTxID: providerTxID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout created",
		slog.Int64("user_id", userID),
		slog.Int64("plan_id", plan.ID),
		slog.String("tx_ref", txRef),
	)
	return &models.Checkout{
		TxRef:       txRef,
		CheckoutURL: checkoutURL,
		PaymentID:   created.ID,
	}, nil
}

// Mine возвращает платежи пользователя.
func (s *Service) Mine(ctx context.Context, userID int64) ([]*models.Payment, error) {
	const op = "payment.Mine"

	payments, err := s.repo.ListPaymentsByPayer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
