package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

type PaymentCompletedEvent struct {
	BaseEvent
	OrderID       string  `json:"order_id"`
	SchoolID      string  `json:"school_id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	BankReference string  `json:"bank_reference"`
}

func NewPaymentCompletedEvent(orderID, schoolID string, amount float64, status, bankReference string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"school_id":      schoolID,
				"amount":         amount,
				"status":         status,
				"bank_reference": bankReference,
			},
		},
		OrderID:       orderID,
		SchoolID:      schoolID,
		Amount:        amount,
		Status:        status,
		BankReference: bankReference,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID       string  `json:"order_id"`
	SchoolID      string  `json:"school_id"`
	Amount        float64 `json:"amount"`
	FailureReason string  `json:"failure_reason"`
}

func NewPaymentFailedEvent(orderID, schoolID string, amount float64, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"school_id":      schoolID,
				"amount":         amount,
				"failure_reason": failureReason,
			},
		},
		OrderID:       orderID,
		SchoolID:      schoolID,
		Amount:        amount,
		FailureReason: failureReason,
	}
}
