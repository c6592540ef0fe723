package postgres

import (
	"fmt"
	"time"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/school-payments/internal/transaction"
	"gorm.io/gorm"
)

// sortColumns whitelists the sortable projection fields against their
// underlying columns.
var sortColumns = map[string]string{
	"createdAt":          "orders.created_at",
	"payment_time":       "order_statuses.payment_time",
	"status":             "order_statuses.status",
	"order_amount":       "order_statuses.order_amount",
	"transaction_amount": "order_statuses.transaction_amount",
	"school_id":          "orders.school_id",
	"collect_id":         "orders.id",
	"custom_order_id":    "orders.id",
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &TransactionRepository{db: db}
}

type joinedRow struct {
	CollectID         string
	SchoolID          string
	Gateway           string
	OrderAmount       *float64
	TransactionAmount *float64
	Status            *string
	StudentName       string
	StudentID         string
	StudentEmail      string
	PaymentTime       *time.Time
	CreatedAt         time.Time
}

const joinSelect = `orders.id AS collect_id, orders.school_id, orders.gateway_name AS gateway,
	order_statuses.order_amount, order_statuses.transaction_amount, order_statuses.status,
	orders.student_name, orders.student_id, orders.student_email,
	order_statuses.payment_time, orders.created_at`

func (r *TransactionRepository) base(filters transaction.Filters) *gorm.DB {
	q := r.db.Table("orders").
		Joins("LEFT JOIN order_statuses ON order_statuses.collect_id = orders.id")

	if filters.SchoolID != "" {
		q = q.Where("orders.school_id = ?", filters.SchoolID)
	}
	if filters.Status != "" {
		// Equality on status excludes orders with no status row: a
		// NULL never matches.
		q = q.Where("order_statuses.status = ?", filters.Status)
	}

	return q
}

// List returns one page of joined rows plus the total count of orders
// matching the same filters.
func (r *TransactionRepository) List(filters transaction.Filters) ([]*transaction.View, int64, error) {
	var total int64
	if err := r.base(filters).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	sortColumn, ok := sortColumns[filters.Sort]
	if !ok {
		sortColumn = sortColumns[transaction.DefaultSort]
	}
	direction := "ASC"
	if filters.Order == "desc" {
		direction = "DESC"
	}

	var rows []joinedRow
	err := r.base(filters).
		Select(joinSelect).
		Order(fmt.Sprintf("%s %s", sortColumn, direction)).
		Offset(filters.Offset()).
		Limit(filters.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	views := make([]*transaction.View, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView())
	}
	return views, total, nil
}

// GetStatusByOrderID returns the joined status projection for one
// order. Orders without a status row come back with null status
// fields; a missing order is ErrTransactionNotFound.
func (r *TransactionRepository) GetStatusByOrderID(orderID string) (*transaction.StatusView, error) {
	var rows []joinedRow
	err := r.db.Table("orders").
		Joins("LEFT JOIN order_statuses ON order_statuses.collect_id = orders.id").
		Select(joinSelect).
		Where("orders.id = ?", orderID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}
	if len(rows) == 0 {
		return nil, transaction.ErrTransactionNotFound
	}

	row := rows[0]
	return &transaction.StatusView{
		CollectID:         row.CollectID,
		Status:            row.Status,
		TransactionAmount: row.TransactionAmount,
		PaymentTime:       row.PaymentTime,
		CustomOrderID:     row.CollectID,
	}, nil
}

func (row joinedRow) toView() *transaction.View {
	return &transaction.View{
		CollectID:         row.CollectID,
		SchoolID:          row.SchoolID,
		Gateway:           row.Gateway,
		OrderAmount:       row.OrderAmount,
		TransactionAmount: row.TransactionAmount,
		Status:            row.Status,
		CustomOrderID:     row.CollectID,
		StudentInfo: order.StudentInfo{
			Name:  row.StudentName,
			ID:    row.StudentID,
			Email: row.StudentEmail,
		},
		PaymentTime: row.PaymentTime,
		CreatedAt:   row.CreatedAt,
	}
}
