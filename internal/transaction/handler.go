package transaction

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/frahmantamala/school-payments/pkg/logger"
	"github.com/go-chi/chi"
)

// ServiceAPI is the listing surface consumed by the HTTP handlers.
type ServiceAPI interface {
	List(ctx context.Context, filters Filters) ([]*View, Pagination, error)
	ListBySchool(ctx context.Context, schoolID string, filters Filters) ([]*View, Pagination, error)
	GetTransactionStatus(ctx context.Context, orderID string) (*StatusView, error)
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

type listResponse struct {
	Transactions []*View    `json:"transactions"`
	Pagination   Pagination `json:"pagination"`
}

func filtersFromQuery(r *http.Request) Filters {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return Filters{
		Page:     page,
		Limit:    limit,
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
		Status:   q.Get("status"),
		SchoolID: q.Get("school_id"),
	}
}

// ListTransactions handles GET /transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	rows, pagination, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.Logger.Error("ListTransactions: service error", "error", err)
		h.HandleServiceError(w, err, "Failed to retrieve transactions")
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Transactions retrieved successfully", listResponse{
		Transactions: rows,
		Pagination:   pagination,
	})
}

// ListSchoolTransactions handles GET /transactions/school/{schoolId}
func (h *Handler) ListSchoolTransactions(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "schoolId")
	filters := filtersFromQuery(r)

	rows, pagination, err := h.Service.ListBySchool(r.Context(), schoolID, filters)
	if err != nil {
		h.Logger.Error("ListSchoolTransactions: service error", "error", err, "school_id", schoolID)
		h.HandleServiceError(w, err, "Failed to retrieve school transactions")
		return
	}

	h.WriteSuccess(w, http.StatusOK, "School transactions retrieved successfully", listResponse{
		Transactions: rows,
		Pagination:   pagination,
	})
}

// GetTransactionStatus handles GET /transaction-status/{custom_order_id}
func (h *Handler) GetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "custom_order_id")

	view, err := h.Service.GetTransactionStatus(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("GetTransactionStatus: service error", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err, "Failed to retrieve transaction status")
		return
	}

	// A missing order is reported as a successful lookup with a null
	// payload.
	h.WriteSuccess(w, http.StatusOK, "Transaction status retrieved successfully", view)
}
