package payment

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/go-chi/chi"
)

// WebhookLogRepository appends audit rows for inbound deliveries.
type WebhookLogRepository interface {
	Append(log *order.WebhookLog) error
}

// WebhookHandler serves the unauthenticated gateway-to-server surface:
// asynchronous webhooks and redirect callbacks. Every delivery is
// recorded in the webhook log regardless of outcome.
type WebhookHandler struct {
	*transport.BaseHandler
	service     ServiceAPI
	webhookLogs WebhookLogRepository
	logger      *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, webhookLogs WebhookLogRepository, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		webhookLogs: webhookLogs,
		logger:      logger,
	}
}

type webhookResult struct {
	UpdatedStatus *order.OrderStatus `json:"updated_status"`
}

// HandleWebhook handles POST /payment/webhook
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("webhook: failed to read request body", "error", err)
		h.WriteFailure(w, http.StatusBadRequest, "Webhook processing failed", err)
		return
	}

	var dto WebhookDTO
	if err := json.Unmarshal(rawBody, &dto); err != nil {
		h.logger.Error("webhook: invalid payload", "error", err)
		h.appendLog("/payment/webhook", string(rawBody), http.StatusBadRequest, "", err)
		h.WriteFailure(w, http.StatusBadRequest, "Webhook processing failed", err)
		return
	}

	updated, err := h.service.HandleWebhook(r.Context(), &dto)
	if err != nil {
		status := http.StatusInternalServerError
		if appErr, ok := errors.IsAppError(err); ok && appErr.Type == errors.ErrorTypeUnauthorized {
			status = http.StatusUnauthorized
		}
		h.logger.Error("webhook: processing failed", "error", err)
		h.appendLog("/payment/webhook", string(rawBody), status, "", err)
		h.WriteFailure(w, status, "Webhook processing failed", err)
		return
	}

	h.logger.Info("webhook: processed",
		"order_id", updated.CollectID,
		"status", updated.Status)

	h.appendLog("/payment/webhook", string(rawBody), http.StatusOK, updated.Status, nil)
	h.WriteSuccess(w, http.StatusOK, "Webhook processed successfully", webhookResult{UpdatedStatus: updated})
}

// HandleCallback handles POST /payment/callback/{orderId}. The path
// order id keys the upsert; redirect callbacks carry less data than
// webhooks so only status, payment_details and payment_time change.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	endpoint := "/payment/callback/" + orderID

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("callback: failed to read request body", "error", err, "order_id", orderID)
		h.WriteFailure(w, http.StatusBadRequest, "Callback processing failed", err)
		return
	}

	var info OrderInfoDTO
	if len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, &info); err != nil {
			h.logger.Error("callback: invalid payload", "error", err, "order_id", orderID)
			h.appendLog(endpoint, string(rawBody), http.StatusBadRequest, "", err)
			h.WriteFailure(w, http.StatusBadRequest, "Callback processing failed", err)
			return
		}
	}
	info.OrderID = orderID

	updated, err := h.service.HandleCallback(r.Context(), orderID, &info)
	if err != nil {
		h.logger.Error("callback: processing failed", "error", err, "order_id", orderID)
		h.appendLog(endpoint, string(rawBody), http.StatusInternalServerError, "", err)
		h.WriteFailure(w, http.StatusInternalServerError, "Callback processing failed", err)
		return
	}

	h.logger.Info("callback: processed", "order_id", orderID, "status", updated.Status)

	h.appendLog(endpoint, string(rawBody), http.StatusOK, updated.Status, nil)
	h.WriteSuccess(w, http.StatusOK, "Callback processed successfully", webhookResult{UpdatedStatus: updated})
}

func (h *WebhookHandler) appendLog(endpoint, payload string, statusCode int, response string, cause error) {
	if h.webhookLogs == nil {
		return
	}

	entry := &order.WebhookLog{
		Endpoint:   endpoint,
		Payload:    payload,
		StatusCode: statusCode,
		Response:   response,
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}

	if err := h.webhookLogs.Append(entry); err != nil {
		// Audit failures never block delivery processing.
		h.logger.Error("failed to append webhook log", "error", err, "endpoint", endpoint)
	}
}
