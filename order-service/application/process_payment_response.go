package application

import (
	"context"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/shared/saga"
	"github.com/draftea/food-ordering/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProcessPaymentResponse use case routes a payment response to the payment
// saga. Events the step produces were stored with the order and leave
// through the outbox relay.
type ProcessPaymentResponse struct {
	step    saga.Step[PaymentResponse, *domain.OrderPaidEvent, saga.EmptyEvent]
	sagaLog sagalog.Repository
}

// NewProcessPaymentResponse creates a new ProcessPaymentResponse use case
func NewProcessPaymentResponse(
	step saga.Step[PaymentResponse, *domain.OrderPaidEvent, saga.EmptyEvent],
	sagaLog sagalog.Repository,
) *ProcessPaymentResponse {
	return &ProcessPaymentResponse{
		step:    step,
		sagaLog: sagaLog,
	}
}

// Execute applies a payment response
func (uc *ProcessPaymentResponse) Execute(ctx context.Context, response *PaymentResponse) error {
	ctx, span := telemetry.StartSpan(ctx, "process_payment_response",
		trace.WithAttributes(
			attribute.String("order_id", response.OrderID.String()),
			attribute.String("payment_status", string(response.Status)),
		),
	)
	defer span.End()

	switch response.Status {
	case PaymentStatusCompleted:
		return uc.complete(ctx, response, span)
	case PaymentStatusCancelled, PaymentStatusFailed:
		return uc.cancel(ctx, response, span)
	default:
		err := invalidCommand("unknown payment status " + string(response.Status))
		span.RecordError(err)
		return err
	}
}

func (uc *ProcessPaymentResponse) complete(ctx context.Context, response *PaymentResponse, span trace.Span) error {
	paidEvent, err := uc.step.Process(ctx, *response)
	if err != nil {
		span.RecordError(err)
		recordSagaStep(ctx, sagalog.PaymentSaga, "process", err)
		appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.PaymentSaga,
			sagalog.StatusFailed, "process", "", []string{err.Error()}))
		return err
	}

	if paidEvent == nil {
		recordSagaStep(ctx, sagalog.PaymentSaga, "process", nil, "skipped")
		return nil
	}

	appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.PaymentSaga,
		sagalog.StatusStepDone, "process", string(paidEvent.Order.Status), nil))

	recordSagaStep(ctx, sagalog.PaymentSaga, "process", nil)
	return nil
}

func (uc *ProcessPaymentResponse) cancel(ctx context.Context, response *PaymentResponse, span trace.Span) error {
	if _, err := uc.step.Rollback(ctx, *response); err != nil {
		span.RecordError(err)
		recordSagaStep(ctx, sagalog.PaymentSaga, "rollback", err)
		appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.PaymentSaga,
			sagalog.StatusFailed, "rollback", "", append([]string{err.Error()}, response.FailureMessages...)))
		return err
	}

	appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.PaymentSaga,
		sagalog.StatusCompleted, "rollback", string(domain.OrderStatusCancelled), response.FailureMessages))

	recordSagaStep(ctx, sagalog.PaymentSaga, "rollback", nil)
	return nil
}

// recordSagaStep counts a saga step by outcome: success, skipped or the kind
// of error that stopped it
func recordSagaStep(ctx context.Context, sagaName, step string, err error, outcome ...string) {
	result := "success"
	switch {
	case len(outcome) > 0:
		result = outcome[0]
	case err == nil:
	case domain.IsDomainError(err):
		result = "rejected"
	case domain.IsNotFound(err):
		result = "not_found"
	default:
		result = "error"
	}

	telemetry.RecordCounter(ctx, "saga_steps_total", "Total saga steps applied", 1,
		attribute.String("saga", sagaName),
		attribute.String("step", step),
		attribute.String("outcome", result),
	)
}
