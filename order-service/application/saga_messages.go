package application

import (
	"time"

	"github.com/draftea/food-ordering/shared/models"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the outcome reported by the payment context
type PaymentStatus string

const (
	// PaymentStatusCompleted means the customer was charged
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	// PaymentStatusCancelled means a charge was refunded or voided
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	// PaymentStatusFailed means the charge was rejected
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// PaymentResponse is delivered on the payment.response topic
type PaymentResponse struct {
	ID              models.ID       `json:"id"`
	OrderID         models.ID       `json:"order_id"`
	PaymentID       models.ID       `json:"payment_id"`
	CustomerID      models.ID       `json:"customer_id"`
	Price           decimal.Decimal `json:"price"`
	Status          PaymentStatus   `json:"status"`
	FailureMessages []string        `json:"failure_messages"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ApprovalStatus is the outcome reported by the restaurant context
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalResponse is delivered on the restaurant.approval.response topic
type ApprovalResponse struct {
	ID              models.ID      `json:"id"`
	OrderID         models.ID      `json:"order_id"`
	RestaurantID    models.ID      `json:"restaurant_id"`
	Status          ApprovalStatus `json:"status"`
	FailureMessages []string       `json:"failure_messages"`
	CreatedAt       time.Time      `json:"created_at"`
}
