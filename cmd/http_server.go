package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/internal/auth"
	authpostgres "github.com/frahmantamala/school-payments/internal/auth/postgres"
	"github.com/frahmantamala/school-payments/internal/core/events"
	"github.com/frahmantamala/school-payments/internal/gateway"
	"github.com/frahmantamala/school-payments/internal/payment"
	paymentpostgres "github.com/frahmantamala/school-payments/internal/payment/postgres"
	"github.com/frahmantamala/school-payments/internal/transaction"
	transactionpostgres "github.com/frahmantamala/school-payments/internal/transaction/postgres"
	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/frahmantamala/school-payments/internal/transport/rest"
	"github.com/frahmantamala/school-payments/internal/user"
	userpostgres "github.com/frahmantamala/school-payments/internal/user/postgres"
	"github.com/frahmantamala/school-payments/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := registerHandlers(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register handlers: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func registerHandlers(deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Logger

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.AccessTokenSecret, cfg.Security.RefreshTokenSecret)
	if cfg.Security.AccessTokenDuration > 0 {
		tokenGen.AccessTokenTTL = cfg.Security.AccessTokenDuration
	}
	if cfg.Security.RefreshTokenDuration > 0 {
		tokenGen.RefreshTokenTTL = cfg.Security.RefreshTokenDuration
	}
	authRepo := authpostgres.NewRepository(deps.GormDB)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)

	// Current user profile
	userRepo := userpostgres.NewRepository(deps.GormDB)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Gateway client
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		PGKey:   cfg.Gateway.PGKey,
		APIKey:  cfg.Gateway.APIKey,
		Timeout: cfg.Gateway.Timeout,
	}, log)

	// Event bus with audit subscribers
	eventBus := events.NewEventBus(log)
	eventBus.Subscribe(events.EventTypePaymentCompleted, func(ctx context.Context, event events.Event) error {
		log.Info("payment completed", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})
	eventBus.Subscribe(events.EventTypePaymentFailed, func(ctx context.Context, event events.Event) error {
		log.Warn("payment failed", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	// Payment reconciliation
	orderRepo := paymentpostgres.NewOrderRepository(deps.GormDB)
	statusRepo := paymentpostgres.NewStatusRepository(deps.GormDB)
	webhookLogRepo := paymentpostgres.NewWebhookLogRepository(deps.GormDB)

	verifier := payment.WebhookVerifier{
		Enabled: cfg.Gateway.VerifyWebhookSignature,
		Secret:  cfg.Gateway.WebhookSecret,
	}
	paymentService := payment.NewService(orderRepo, statusRepo, gatewayClient, eventBus, verifier, cfg.Server.FrontendURL, log)
	paymentHandler := payment.NewHandler(paymentService)
	webhookHandler := payment.NewWebhookHandler(transport.NewBaseHandler(log), paymentService, webhookLogRepo, log)

	// Transactions listing
	transactionRepo := transactionpostgres.NewTransactionRepository(deps.GormDB)
	transactionService := transaction.NewService(transactionRepo, log)
	transactionHandler := transaction.NewHandler(transactionService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, authHandler, userHandler, paymentHandler, webhookHandler, transactionHandler, log)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
