package order

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentInfo is embedded in Order; all fields are required at
// creation and immutable afterward.
type StudentInfo struct {
	Name  string `json:"name" gorm:"column:student_name;not null"`
	ID    string `json:"id" gorm:"column:student_id;not null"`
	Email string `json:"email" gorm:"column:student_email;not null"`
}

// Order is an initiated payment request. Created once by the
// reconciliation service, never mutated afterward.
type Order struct {
	ID          string      `json:"_id" gorm:"primaryKey;column:id;type:uuid"`
	SchoolID    string      `json:"school_id" gorm:"column:school_id;not null;index"`
	TrusteeID   string      `json:"trustee_id" gorm:"column:trustee_id;not null"`
	StudentInfo StudentInfo `json:"student_info" gorm:"embedded"`
	GatewayName string      `json:"gateway_name" gorm:"column:gateway_name;not null"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" gorm:"column:updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderStatus is the single mutable status record tracking an order's
// payment lifecycle. collect_id is unique: there is exactly one status
// row per order and every write is an upsert keyed on it.
type OrderStatus struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	CollectID         string    `json:"collect_id" gorm:"column:collect_id;type:uuid;not null;uniqueIndex"`
	OrderAmount       float64   `json:"order_amount" gorm:"column:order_amount;not null"`
	TransactionAmount float64   `json:"transaction_amount" gorm:"column:transaction_amount;not null"`
	PaymentMode       string    `json:"payment_mode" gorm:"column:payment_mode;not null"`
	PaymentDetails    string    `json:"payment_details" gorm:"column:payment_details;not null"`
	BankReference     string    `json:"bank_reference" gorm:"column:bank_reference;not null"`
	PaymentMessage    string    `json:"payment_message" gorm:"column:payment_message;not null"`
	Status            string    `json:"status" gorm:"column:status;not null;index"`
	ErrorMessage      *string   `json:"error_message,omitempty" gorm:"column:error_message"`
	PaymentTime       time.Time `json:"payment_time" gorm:"column:payment_time;not null;index:,sort:desc"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (OrderStatus) TableName() string {
	return "order_statuses"
}

// WebhookLog is an append-only audit record of inbound webhook and
// callback deliveries. Rows are never updated or deleted.
type WebhookLog struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Endpoint     string    `json:"endpoint" gorm:"column:endpoint;not null"`
	Payload      string    `json:"payload" gorm:"column:payload;not null"`
	StatusCode   int       `json:"status_code" gorm:"column:status_code;not null"`
	Response     string    `json:"response" gorm:"column:response"`
	ErrorMessage string    `json:"error_message,omitempty" gorm:"column:error_message"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
