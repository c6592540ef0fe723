package transaction

import (
	"errors"
	"time"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
)

// View is the flat projection of Order left-joined with its status.
// Status fields are pointers: an order whose gateway call failed has
// no status row and surfaces with nulls, not an error.
type View struct {
	CollectID         string            `json:"collect_id"`
	SchoolID          string            `json:"school_id"`
	Gateway           string            `json:"gateway"`
	OrderAmount       *float64          `json:"order_amount"`
	TransactionAmount *float64          `json:"transaction_amount"`
	Status            *string           `json:"status"`
	CustomOrderID     string            `json:"custom_order_id"`
	StudentInfo       order.StudentInfo `json:"student_info"`
	PaymentTime       *time.Time        `json:"payment_time"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// StatusView is the narrower projection returned by the
// transaction-status lookup.
type StatusView struct {
	CollectID         string     `json:"collect_id"`
	Status            *string    `json:"status"`
	TransactionAmount *float64   `json:"transaction_amount"`
	PaymentTime       *time.Time `json:"payment_time"`
	CustomOrderID     string     `json:"custom_order_id"`
}

// Filters narrows and orders the transactions listing.
type Filters struct {
	Page     int
	Limit    int
	Sort     string
	Order    string
	Status   string
	SchoolID string
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	DefaultSort  = "createdAt"
)

// Normalize clamps pagination inputs and applies listing defaults.
func (f *Filters) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	if f.Order != "desc" {
		f.Order = "asc"
	}
}

// Offset is the number of rows skipped for the requested page.
func (f Filters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination is the listing metadata block.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(total int64, page, limit int) Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

var ErrTransactionNotFound = errors.New("transaction not found")
