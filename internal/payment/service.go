package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/school-payments/internal/core/events"
	"github.com/frahmantamala/school-payments/internal/gateway"
)

// OrderRepository persists immutable order records.
type OrderRepository interface {
	Create(o *order.Order) error
	GetByID(id string) (*order.Order, error)
}

// StatusRepository persists the single mutable status record per
// order. Upsert must be atomic at the storage layer: concurrent
// writes for the same collect id serialize in the engine, never in
// application code.
type StatusRepository interface {
	// Upsert inserts the status row or, when a row for the collect id
	// already exists, overwrites exactly the named columns.
	Upsert(s *order.OrderStatus, updateColumns ...string) error
	GetByCollectID(collectID string) (*order.OrderStatus, error)
}

// GatewayAPI is the outbound payment gateway surface used by the
// reconciliation service.
type GatewayAPI interface {
	CreateCollectRequest(ctx context.Context, schoolID, amount, callbackURL string) (*gateway.CollectRequest, error)
	GetCollectRequestStatus(ctx context.Context, collectRequestID, schoolID string) (*gateway.CollectStatus, error)
}

// WebhookVerifier gates inbound webhook authenticity checks.
// Disabled matches the gateway's current behavior of not signing
// deliveries; see DESIGN.md.
type WebhookVerifier struct {
	Enabled bool
	Secret  string
}

// Service orchestrates order creation, status seeding, webhook-driven
// status updates and status queries.
type Service struct {
	orders      OrderRepository
	statuses    StatusRepository
	gateway     GatewayAPI
	eventBus    *events.EventBus
	verifier    WebhookVerifier
	frontendURL string
	logger      *slog.Logger
}

func NewService(orders OrderRepository, statuses StatusRepository, gw GatewayAPI, eventBus *events.EventBus, verifier WebhookVerifier, frontendURL string, logger *slog.Logger) *Service {
	return &Service{
		orders:      orders,
		statuses:    statuses,
		gateway:     gw,
		eventBus:    eventBus,
		verifier:    verifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// statusUpsertColumns are the columns a full webhook upsert overwrites.
var statusUpsertColumns = []string{
	"status", "transaction_amount", "payment_mode", "payment_details",
	"bank_reference", "payment_message", "payment_time", "updated_at",
}

// callbackUpsertColumns are the columns a redirect callback overwrites.
// Callbacks carry less data than webhooks, so the partial update
// leaves amounts and references intact.
var callbackUpsertColumns = []string{
	"status", "payment_details", "payment_time", "updated_at",
}

// CreatePayment persists a new order, asks the gateway to open a
// collect request and seeds the initial status record. A gateway
// failure after the order insert is not rolled back: the order
// remains without a status row and surfaces as null status in the
// transactions listing.
func (s *Service) CreatePayment(ctx context.Context, dto *CreatePaymentDTO) (*CreatePaymentResult, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("create payment validation failed", "error", err)
		return nil, err
	}

	gatewayName := dto.GatewayName
	if gatewayName == "" {
		gatewayName = DefaultGatewayName
	}

	ord := &order.Order{
		SchoolID:  dto.SchoolID,
		TrusteeID: dto.TrusteeID,
		StudentInfo: order.StudentInfo{
			Name:  dto.StudentInfo.Name,
			ID:    dto.StudentInfo.ID,
			Email: dto.StudentInfo.Email,
		},
		GatewayName: gatewayName,
	}

	if err := s.orders.Create(ord); err != nil {
		s.logger.Error("failed to create order", "error", err, "school_id", dto.SchoolID)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/payment-status/%s", s.frontendURL, ord.ID)

	collect, err := s.gateway.CreateCollectRequest(ctx, dto.SchoolID, dto.Amount, callbackURL)
	if err != nil {
		s.logger.Error("gateway collect request failed",
			"error", err,
			"order_id", ord.ID,
			"school_id", dto.SchoolID)
		return nil, errors.NewExternalError("Payment creation failed", err)
	}

	amount, err := strconv.ParseFloat(dto.Amount, 64)
	if err != nil {
		// Validate already checked the amount; a parse failure here
		// means the DTO bypassed validation.
		return nil, fmt.Errorf("invalid amount %q: %w", dto.Amount, err)
	}

	seed := &order.OrderStatus{
		CollectID:         ord.ID,
		OrderAmount:       amount,
		TransactionAmount: amount,
		PaymentMode:       "online",
		PaymentDetails:    "Payment initiated",
		BankReference:     collect.CollectRequestID,
		PaymentMessage:    "Payment request created",
		Status:            StatusPending,
		PaymentTime:       time.Now(),
	}
	if err := s.statuses.Upsert(seed, statusUpsertColumns...); err != nil {
		s.logger.Error("failed to seed order status", "error", err, "order_id", ord.ID)
		return nil, fmt.Errorf("failed to seed order status: %w", err)
	}

	s.logger.Info("payment created",
		"order_id", ord.ID,
		"collect_request_id", collect.CollectRequestID,
		"school_id", dto.SchoolID,
		"amount", dto.Amount)

	return &CreatePaymentResult{
		OrderID:          ord.ID,
		CollectRequestID: collect.CollectRequestID,
		PaymentURL:       collect.PaymentURL,
		Sign:             collect.Sign,
	}, nil
}

// CheckPaymentStatus queries the gateway for the live collect-request
// status. Local stores are never consulted.
func (s *Service) CheckPaymentStatus(ctx context.Context, collectRequestID, schoolID string) (*gateway.CollectStatus, error) {
	status, err := s.gateway.GetCollectRequestStatus(ctx, collectRequestID, schoolID)
	if err != nil {
		s.logger.Error("status check failed",
			"error", err,
			"collect_request_id", collectRequestID,
			"school_id", schoolID)
		return nil, errors.NewExternalError("Status check failed", err)
	}
	return status, nil
}

// HandleWebhook maps the gateway's order_info payload onto the status
// record and upserts it keyed by the order id. Re-applying the same
// payload yields the same final state.
func (s *Service) HandleWebhook(ctx context.Context, dto *WebhookDTO) (*order.OrderStatus, error) {
	if s.verifier.Enabled {
		if err := s.verifySignature(dto); err != nil {
			return nil, err
		}
	}

	if dto.OrderInfo == nil || dto.OrderInfo.OrderID == "" {
		return nil, errors.ErrMissingOrderID
	}
	info := dto.OrderInfo

	status := strings.ToLower(info.Status)
	if status == "" {
		status = StatusCompleted
	}

	paymentMode := info.PaymentMethod
	if paymentMode == "" {
		paymentMode = "online"
	}

	paymentMessage := info.StatusMessage
	if paymentMessage == "" {
		paymentMessage = "Payment completed"
	}

	details, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize order_info: %w", err)
	}

	update := &order.OrderStatus{
		CollectID:         info.OrderID,
		OrderAmount:       info.Amount,
		TransactionAmount: info.Amount,
		PaymentMode:       paymentMode,
		PaymentDetails:    string(details),
		BankReference:     info.TransactionID,
		PaymentMessage:    paymentMessage,
		Status:            status,
		PaymentTime:       time.Now(),
	}

	if err := s.statuses.Upsert(update, statusUpsertColumns...); err != nil {
		s.logger.Error("failed to upsert order status", "error", err, "order_id", info.OrderID)
		return nil, fmt.Errorf("failed to upsert order status: %w", err)
	}

	s.logger.Info("webhook processed",
		"order_id", info.OrderID,
		"status", status,
		"amount", info.Amount)

	s.publishStatusEvent(ctx, info.OrderID, status, info.Amount, info.TransactionID, info.StatusMessage)

	return s.statuses.GetByCollectID(info.OrderID)
}

// HandleCallback applies a gateway redirect callback: the same upsert
// keyed by order id, but only status, payment_details and
// payment_time are touched.
func (s *Service) HandleCallback(ctx context.Context, orderID string, data *OrderInfoDTO) (*order.OrderStatus, error) {
	if orderID == "" {
		return nil, errors.ErrMissingOrderID
	}

	status := strings.ToLower(data.Status)
	if status == "" {
		status = StatusCompleted
	}

	details, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize callback data: %w", err)
	}

	update := &order.OrderStatus{
		CollectID:      orderID,
		Status:         status,
		PaymentMode:    "online",
		PaymentDetails: string(details),
		PaymentTime:    time.Now(),
	}

	if err := s.statuses.Upsert(update, callbackUpsertColumns...); err != nil {
		s.logger.Error("failed to apply callback", "error", err, "order_id", orderID)
		return nil, fmt.Errorf("failed to apply callback: %w", err)
	}

	s.logger.Info("callback processed", "order_id", orderID, "status", status)

	return s.statuses.GetByCollectID(orderID)
}

// GetOrderByID returns the immutable order record.
func (s *Service) GetOrderByID(ctx context.Context, orderID string) (*order.Order, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		s.logger.Error("order lookup failed", "error", err, "order_id", orderID)
		return nil, errors.ErrOrderNotFound
	}
	return ord, nil
}

func (s *Service) publishStatusEvent(ctx context.Context, orderID, status string, amount float64, bankReference, message string) {
	if s.eventBus == nil {
		return
	}

	switch status {
	case StatusCompleted, "success":
		event := events.NewPaymentCompletedEvent(orderID, "", amount, status, bankReference)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish payment completed event", "error", err, "order_id", orderID)
		}
	case StatusFailed:
		event := events.NewPaymentFailedEvent(orderID, "", amount, message)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish payment failed event", "error", err, "order_id", orderID)
		}
	}
}

// verifySignature checks the HMAC-SHA256 signature the gateway is
// expected to attach to webhook deliveries: hex(HMAC(secret,
// order_id + "|" + timestamp)).
func (s *Service) verifySignature(dto *WebhookDTO) error {
	if dto.Signature == "" || dto.OrderInfo == nil {
		return errors.NewUnauthorizedError("Missing webhook signature", errors.ErrCodeInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.verifier.Secret))
	mac.Write([]byte(dto.OrderInfo.OrderID + "|" + dto.Timestamp))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(dto.Signature))) {
		s.logger.Warn("webhook signature mismatch", "order_id", dto.OrderInfo.OrderID)
		return errors.NewUnauthorizedError("Invalid webhook signature", errors.ErrCodeInvalidSignature)
	}

	return nil
}
