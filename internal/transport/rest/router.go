package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-payments/internal/auth"
	"github.com/frahmantamala/school-payments/internal/payment"
	"github.com/frahmantamala/school-payments/internal/transaction"
	"github.com/frahmantamala/school-payments/internal/transport/middleware"
	"github.com/frahmantamala/school-payments/internal/transport/swagger"
	"github.com/frahmantamala/school-payments/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, transactionHandler *transaction.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway-facing routes stay open: the gateway authenticates
		// with its payload signature, not a bearer token.
		if webhookHandler != nil {
			r.Post("/payment/webhook", webhookHandler.HandleWebhook)
			r.Post("/payment/callback/{orderId}", webhookHandler.HandleCallback)
		}

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/register", authHandler.Register)
				sr.Post("/refresh", authHandler.RefreshToken)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				if paymentHandler != nil {
					pr.Route("/payment", func(pmr chi.Router) {
						pmr.Post("/create-payment", paymentHandler.CreatePayment)
						pmr.Get("/status/{collectRequestID}", paymentHandler.CheckPaymentStatus)
						pmr.Get("/order/{orderId}", paymentHandler.GetOrder)
					})
				}

				if transactionHandler != nil {
					pr.Get("/transactions", transactionHandler.ListTransactions)
					pr.Get("/transactions/school/{schoolId}", transactionHandler.ListSchoolTransactions)
					pr.Get("/transaction-status/{custom_order_id}", transactionHandler.GetTransactionStatus)
				}
			})
		}
	})
}
