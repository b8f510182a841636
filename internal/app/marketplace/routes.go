package marketplace

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/analytics"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/pending"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/recompute"
	adminsubs "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/subscriptions"
	admintech "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/technician"
	admintechs "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/technicians"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/admin/transition"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/health"
	paymentmine "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/payment/mine"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/payment/subscribe"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/payment/webhook"
	reviewcreate "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/review/create"
	reviewlist "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/review/list"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/review/remove"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/subscription/cancel"
	submine "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/subscription/mine"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/technician/detail"
	techlist "github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/technician/list"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/technician/me"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/handlers/technician/update"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/metrics"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	analyticsservice "github.com/magabrotheeeer/technician-marketplace/internal/services/analytics"
	approvalservice "github.com/magabrotheeeer/technician-marketplace/internal/services/approval"
	authservice "github.com/magabrotheeeer/technician-marketplace/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/technician-marketplace/internal/services/payment"
	reviewservice "github.com/magabrotheeeer/technician-marketplace/internal/services/review"
	subservice "github.com/magabrotheeeer/technician-marketplace/internal/services/subscription"
	techservice "github.com/magabrotheeeer/technician-marketplace/internal/services/technician"
)

// Services набор сервисов, которые обслуживают HTTP-маршруты.
type Services struct {
	Auth          *authservice.AuthService
	Technicians   *techservice.Service
	Reviews       *reviewservice.Service
	Subscriptions *subservice.Ledger
	Payments      *paymentservice.Service
	Approval      *approvalservice.Service
	Analytics     *analyticsservice.Service
	DB            health.Pinger
}

// RouteOptions параметры маршрутизации, не относящиеся к сервисам.
type RouteOptions struct {
	WebhookSecret string
	Limiter       *middlewarectx.ClientLimiter
	Clock         clock.Clock
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouteOptions) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook endpoint (без аутентификации и без лимита запросов, подпись проверяет обработчик)
		r.Post("/payments/webhook", webhook.New(logger, svc.Payments, opts.WebhookSecret, clk).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, opts.Limiter))

			// Открытые конечные точки
			r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
			r.Get("/technicians", techlist.New(logger, svc.Technicians).ServeHTTP)
			r.Get("/technicians/{id}", detail.New(logger, svc.Technicians).ServeHTTP)
			r.Get("/technicians/{id}/reviews", reviewlist.New(logger, svc.Reviews).ServeHTTP)
			r.Get("/plans", plans.New(logger, svc.Subscriptions).ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, opts.Limiter))
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleTechnician))
				r.Get("/technicians/me", me.New(logger, svc.Technicians).ServeHTTP)
				r.Put("/technicians/me", update.New(logger, svc.Technicians).ServeHTTP)
				r.Post("/payments/subscribe", subscribe.New(logger, svc.Payments).ServeHTTP)
				r.Get("/payments/mine", paymentmine.New(logger, svc.Payments).ServeHTTP)
				r.Get("/subscriptions/mine", submine.New(logger, svc.Subscriptions).ServeHTTP)
				r.Post("/subscriptions/{id}/cancel", cancel.New(logger, svc.Subscriptions).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleEmployer))
				r.Get("/employer/technicians", techlist.New(logger, svc.Technicians).ServeHTTP)
				r.Post("/employer/technicians/{id}/reviews", reviewcreate.New(logger, svc.Reviews).ServeHTTP)
				r.Delete("/employer/reviews/{id}", remove.New(logger, svc.Reviews).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/admin/technicians", admintechs.New(logger, svc.Approval).ServeHTTP)
				r.Get("/admin/technicians/pending", pending.New(logger, svc.Approval).ServeHTTP)
				r.Get("/admin/technicians/{id}", admintech.New(logger, svc.Approval).ServeHTTP)
				r.Post("/admin/technicians/{id}/recompute-rating", recompute.New(logger, svc.Reviews).ServeHTTP)
				r.Post("/admin/technicians/{id}/{action}", transition.New(logger, svc.Approval).ServeHTTP)
				r.Get("/admin/subscriptions", adminsubs.New(logger, svc.Subscriptions).ServeHTTP)
				r.Get("/admin/analytics/summary", analytics.New(logger, svc.Analytics).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, svc.DB).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
