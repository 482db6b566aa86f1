// Package sagalog keeps an append-only audit trail of every saga step the
// order service applies, correlated with the trace that applied it.
package sagalog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Status is the lifecycle state recorded by one entry
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompensating Status = "COMPENSATING"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
)

// Saga names
const (
	OrderSaga    = "order"
	PaymentSaga  = "payment"
	ApprovalSaga = "approval"
)

// Entry is one row of the saga log. OrderID identifies the saga instance.
type Entry struct {
	ID            int64     `db:"id"`
	OrderID       string    `db:"order_id"`
	Saga          string    `db:"saga"`
	Status        Status    `db:"status"`
	Step          string    `db:"step"`
	OrderStatus   string    `db:"order_status"`
	ErrorMessages string    `db:"error_messages"`
	TraceID       string    `db:"trace_id"`
	SpanID        string    `db:"span_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Repository persists saga log entries
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	FindByOrderID(ctx context.Context, orderID string) ([]*Entry, error)
}

// NewEntry builds an entry stamped with the trace of the active span in ctx
func NewEntry(ctx context.Context, orderID, saga string, status Status, step, orderStatus string, errs []string) *Entry {
	sc := trace.SpanFromContext(ctx).SpanContext()

	entry := &Entry{
		OrderID:       orderID,
		Saga:          saga,
		Status:        status,
		Step:          step,
		OrderStatus:   orderStatus,
		ErrorMessages: "[]",
		CreatedAt:     time.Now().UTC(),
	}

	if sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}

	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			entry.ErrorMessages = string(b)
		}
	}

	return entry
}

// Errors decodes ErrorMessages
func (e *Entry) Errors() []string {
	var errs []string
	if err := json.Unmarshal([]byte(e.ErrorMessages), &errs); err != nil {
		return nil
	}
	return errs
}
