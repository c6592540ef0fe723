package payment

import (
	"github.com/frahmantamala/school-payments/internal/core/common/validation"
)

// Order status values. Gateway-supplied free text is stored
// lower-cased alongside these.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const DefaultGatewayName = "cashfree"

// StudentInfoDTO carries the student fields of a create-payment
// request. All fields are required.
type StudentInfoDTO struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreatePaymentDTO is the request payload for POST /payment/create-payment.
// Amount stays a string end to end: the gateway wire contract carries
// it as a string.
type CreatePaymentDTO struct {
	SchoolID    string         `json:"school_id"`
	Amount      string         `json:"amount"`
	TrusteeID   string         `json:"trustee_id"`
	StudentInfo StudentInfoDTO `json:"student_info"`
	GatewayName string         `json:"gateway_name,omitempty"`
}

func (d *CreatePaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("school_id", d.SchoolID).Required()
	validator.Field("amount", d.Amount).Required().PositiveAmount()
	validator.Field("trustee_id", d.TrusteeID).Required()
	validator.Field("student_info.name", d.StudentInfo.Name).Required()
	validator.Field("student_info.id", d.StudentInfo.ID).Required()
	validator.Field("student_info.email", d.StudentInfo.Email).Required().Email()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CreatePaymentResult is returned to the caller after a successful
// create-collect-request round trip.
type CreatePaymentResult struct {
	OrderID          string `json:"order_id"`
	CollectRequestID string `json:"collect_request_id"`
	PaymentURL       string `json:"payment_url"`
	Sign             string `json:"sign"`
}

// OrderInfoDTO is the gateway's webhook order_info block. Every field
// is optional; defaults are applied during mapping.
type OrderInfoDTO struct {
	OrderID       string  `json:"order_id,omitempty"`
	Status        string  `json:"status,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	StatusMessage string  `json:"status_message,omitempty"`
}

// WebhookDTO is the inbound webhook envelope. signature/timestamp are
// only consulted when webhook verification is enabled.
type WebhookDTO struct {
	OrderInfo *OrderInfoDTO `json:"order_info,omitempty"`
	Signature string        `json:"signature,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
}
