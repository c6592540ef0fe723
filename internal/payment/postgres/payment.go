package postgres

import (
	"time"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	paymentpkg "github.com/frahmantamala/school-payments/internal/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) paymentpkg.OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *order.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id string) (*order.Order, error) {
	var o order.Order
	err := r.db.Where("id = ?", id).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) paymentpkg.StatusRepository {
	return &StatusRepository{db: db}
}

// Upsert writes the status row with INSERT ... ON CONFLICT
// (collect_id) DO UPDATE restricted to updateColumns. The conditional
// write serializes concurrent webhook and callback deliveries for the
// same order inside the storage engine.
func (r *StatusRepository) Upsert(s *order.OrderStatus, updateColumns ...string) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collect_id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(s).Error
}

func (r *StatusRepository) GetByCollectID(collectID string) (*order.OrderStatus, error) {
	var s order.OrderStatus
	err := r.db.Where("collect_id = ?", collectID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) paymentpkg.WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Append writes one audit row per delivery. Rows are immutable once
// written.
func (r *WebhookLogRepository) Append(log *order.WebhookLog) error {
	return r.db.Create(log).Error
}
