package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/school-payments/internal/gateway"
	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/frahmantamala/school-payments/pkg/logger"
	"github.com/go-chi/chi"
)

// ServiceAPI is the reconciliation service surface consumed by the
// HTTP handlers.
type ServiceAPI interface {
	CreatePayment(ctx context.Context, dto *CreatePaymentDTO) (*CreatePaymentResult, error)
	CheckPaymentStatus(ctx context.Context, collectRequestID, schoolID string) (*gateway.CollectStatus, error)
	HandleWebhook(ctx context.Context, dto *WebhookDTO) (*order.OrderStatus, error)
	HandleCallback(ctx context.Context, orderID string, data *OrderInfoDTO) (*order.OrderStatus, error)
	GetOrderByID(ctx context.Context, orderID string) (*order.Order, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreatePayment handles POST /payment/create-payment
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePayment: invalid request body", "error", err)
		h.WriteFailure(w, http.StatusBadRequest, "Failed to create payment request", err)
		return
	}

	result, err := h.Service.CreatePayment(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("CreatePayment: service error", "error", err, "school_id", dto.SchoolID)
		h.HandleServiceError(w, err, "Failed to create payment request")
		return
	}

	h.Logger.Info("CreatePayment: payment request created",
		"order_id", result.OrderID,
		"collect_request_id", result.CollectRequestID)

	h.WriteSuccess(w, http.StatusCreated, "Payment request created successfully", result)
}

// CheckPaymentStatus handles GET /payment/status/{collectRequestID}
func (h *Handler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	collectRequestID := chi.URLParam(r, "collectRequestID")
	schoolID := r.URL.Query().Get("school_id")

	if schoolID == "" {
		h.WriteFailure(w, http.StatusBadRequest, "school_id is required", nil)
		return
	}

	status, err := h.Service.CheckPaymentStatus(r.Context(), collectRequestID, schoolID)
	if err != nil {
		h.Logger.Error("CheckPaymentStatus: service error",
			"error", err,
			"collect_request_id", collectRequestID)
		h.HandleServiceError(w, err, "Failed to check payment status")
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Payment status retrieved successfully", status)
}

// GetOrder handles GET /payment/order/{orderId}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ord, err := h.Service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("GetOrder: service error", "error", err, "order_id", orderID)
		h.WriteFailure(w, http.StatusNotFound, "Failed to retrieve order details", err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Order details retrieved successfully", ord)
}
