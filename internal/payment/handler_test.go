package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/school-payments/internal/gateway"
	paymentPkg "github.com/frahmantamala/school-payments/internal/payment"
	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/go-chi/chi"
)

// Mock service for handler tests
type mockPaymentService struct {
	createResult *paymentPkg.CreatePaymentResult
	createErr    error
	status       *gateway.CollectStatus
	statusErr    error
	webhookOut   *order.OrderStatus
	webhookErr   error
	order        *order.Order
	orderErr     error
	lastWebhook  *paymentPkg.WebhookDTO

	lastCallbackOrderID string
	lastCallbackData    *paymentPkg.OrderInfoDTO
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, dto *paymentPkg.CreatePaymentDTO) (*paymentPkg.CreatePaymentResult, error) {
	return m.createResult, m.createErr
}

func (m *mockPaymentService) CheckPaymentStatus(ctx context.Context, collectRequestID, schoolID string) (*gateway.CollectStatus, error) {
	return m.status, m.statusErr
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, dto *paymentPkg.WebhookDTO) (*order.OrderStatus, error) {
	m.lastWebhook = dto
	return m.webhookOut, m.webhookErr
}

func (m *mockPaymentService) HandleCallback(ctx context.Context, orderID string, data *paymentPkg.OrderInfoDTO) (*order.OrderStatus, error) {
	m.lastCallbackOrderID = orderID
	m.lastCallbackData = data
	return m.webhookOut, m.webhookErr
}

func (m *mockPaymentService) GetOrderByID(ctx context.Context, orderID string) (*order.Order, error) {
	return m.order, m.orderErr
}

type mockWebhookLogRepo struct {
	entries []*order.WebhookLog
}

func (m *mockWebhookLogRepo) Append(log *order.WebhookLog) error {
	m.entries = append(m.entries, log)
	return nil
}

var _ = Describe("Payment Handlers", func() {
	var (
		service     *mockPaymentService
		webhookLogs *mockWebhookLogRepo
		router      *chi.Mux
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		service = &mockPaymentService{}
		webhookLogs = &mockWebhookLogRepo{}

		handler := paymentPkg.NewHandler(service)
		webhookHandler := paymentPkg.NewWebhookHandler(transport.NewBaseHandler(testLogger), service, webhookLogs, testLogger)

		router = chi.NewRouter()
		router.Post("/payment/create-payment", handler.CreatePayment)
		router.Get("/payment/status/{collectRequestID}", handler.CheckPaymentStatus)
		router.Get("/payment/order/{orderId}", handler.GetOrder)
		router.Post("/payment/webhook", webhookHandler.HandleWebhook)
		router.Post("/payment/callback/{orderId}", webhookHandler.HandleCallback)
	})

	Describe("POST /payment/create-payment", func() {
		It("returns 201 with the uniform success envelope", func() {
			service.createResult = &paymentPkg.CreatePaymentResult{
				OrderID:          "order-1",
				CollectRequestID: "CR1",
				PaymentURL:       "https://pay.example.com/CR1",
			}

			payload := `{"school_id":"sch-1","amount":"2000","trustee_id":"t-1","student_info":{"name":"A","id":"S1","email":"a@b.com"}}`
			req := httptest.NewRequest(http.MethodPost, "/payment/create-payment", strings.NewReader(payload))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))
			body := decode(rec)
			Expect(body["success"]).To(BeTrue())
			Expect(body["message"]).To(Equal("Payment request created successfully"))

			data := body["data"].(map[string]interface{})
			Expect(data["collect_request_id"]).To(Equal("CR1"))
			Expect(data["payment_url"]).To(Equal("https://pay.example.com/CR1"))
		})

		It("returns 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/payment/create-payment", strings.NewReader("{not json"))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)["success"]).To(BeFalse())
		})

		It("uses the AppError status for service failures", func() {
			service.createErr = apperrors.NewExternalError("Payment creation failed", nil)

			payload := `{"school_id":"sch-1","amount":"2000"}`
			req := httptest.NewRequest(http.MethodPost, "/payment/create-payment", strings.NewReader(payload))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)["success"]).To(BeFalse())
		})
	})

	Describe("GET /payment/status/{collectRequestID}", func() {
		It("requires school_id", func() {
			req := httptest.NewRequest(http.MethodGet, "/payment/status/CR1", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)["message"]).To(Equal("school_id is required"))
		})

		It("returns the gateway status", func() {
			service.status = &gateway.CollectStatus{Status: "SUCCESS", Amount: 2000}

			req := httptest.NewRequest(http.MethodGet, "/payment/status/CR1?school_id=sch-1", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			data := decode(rec)["data"].(map[string]interface{})
			Expect(data["status"]).To(Equal("SUCCESS"))
		})
	})

	Describe("GET /payment/order/{orderId}", func() {
		It("returns 404 when the order is unknown", func() {
			service.orderErr = apperrors.ErrOrderNotFound

			req := httptest.NewRequest(http.MethodGet, "/payment/order/missing", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /payment/webhook", func() {
		It("returns 200 and records the delivery", func() {
			service.webhookOut = &order.OrderStatus{CollectID: "order-1", Status: "success"}

			payload := `{"order_info":{"order_id":"order-1","status":"SUCCESS","amount":2000}}`
			req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader([]byte(payload)))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)["success"]).To(BeTrue())

			Expect(webhookLogs.entries).To(HaveLen(1))
			Expect(webhookLogs.entries[0].Endpoint).To(Equal("/payment/webhook"))
			Expect(webhookLogs.entries[0].StatusCode).To(Equal(http.StatusOK))
		})

		It("returns 500 for processing failures and still logs the delivery", func() {
			service.webhookErr = apperrors.ErrMissingOrderID

			req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(webhookLogs.entries).To(HaveLen(1))
			Expect(webhookLogs.entries[0].StatusCode).To(Equal(http.StatusInternalServerError))
		})

		It("returns 401 when signature verification fails", func() {
			service.webhookErr = apperrors.NewUnauthorizedError("Invalid webhook signature", apperrors.ErrCodeInvalidSignature)

			req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(`{"order_info":{"order_id":"order-1"}}`))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /payment/callback/{orderId}", func() {
		It("merges the path order id into the payload", func() {
			service.webhookOut = &order.OrderStatus{CollectID: "order-7", Status: "completed"}

			req := httptest.NewRequest(http.MethodPost, "/payment/callback/order-7", strings.NewReader(`{"status":"SUCCESS"}`))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.lastCallbackOrderID).To(Equal("order-7"))
			Expect(service.lastCallbackData).NotTo(BeNil())
			Expect(service.lastCallbackData.OrderID).To(Equal("order-7"))
			Expect(service.lastCallbackData.Status).To(Equal("SUCCESS"))
		})

		It("handles an empty body", func() {
			service.webhookOut = &order.OrderStatus{CollectID: "order-7", Status: "completed"}

			req := httptest.NewRequest(http.MethodPost, "/payment/callback/order-7", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.lastCallbackOrderID).To(Equal("order-7"))
			Expect(service.lastCallbackData.OrderID).To(Equal("order-7"))
		})
	})
})
