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

// ProcessApprovalResponse use case routes a restaurant approval response to
// the approval saga
type ProcessApprovalResponse struct {
	step    saga.Step[ApprovalResponse, *domain.OrderApprovedEvent, *domain.OrderCancelledEvent]
	sagaLog sagalog.Repository
}

// NewProcessApprovalResponse creates a new ProcessApprovalResponse use case
func NewProcessApprovalResponse(
	step saga.Step[ApprovalResponse, *domain.OrderApprovedEvent, *domain.OrderCancelledEvent],
	sagaLog sagalog.Repository,
) *ProcessApprovalResponse {
	return &ProcessApprovalResponse{
		step:    step,
		sagaLog: sagaLog,
	}
}

// Execute applies an approval response
func (uc *ProcessApprovalResponse) Execute(ctx context.Context, response *ApprovalResponse) error {
	ctx, span := telemetry.StartSpan(ctx, "process_approval_response",
		trace.WithAttributes(
			attribute.String("order_id", response.OrderID.String()),
			attribute.String("approval_status", string(response.Status)),
		),
	)
	defer span.End()

	var (
		stepName    string
		status      sagalog.Status
		orderStatus domain.OrderStatus
		event       domain.OrderEvent
		err         error
	)

	switch response.Status {
	case ApprovalStatusApproved:
		stepName, status, orderStatus = "process", sagalog.StatusCompleted, domain.OrderStatusApproved
		var approved *domain.OrderApprovedEvent
		approved, err = uc.step.Process(ctx, *response)
		if approved != nil {
			event = approved
		}
	case ApprovalStatusRejected:
		stepName, status, orderStatus = "rollback", sagalog.StatusCompensating, domain.OrderStatusCancelling
		var cancelled *domain.OrderCancelledEvent
		cancelled, err = uc.step.Rollback(ctx, *response)
		if cancelled != nil {
			event = cancelled
		}
	default:
		err := invalidCommand("unknown approval status " + string(response.Status))
		span.RecordError(err)
		return err
	}

	if err != nil {
		span.RecordError(err)
		recordSagaStep(ctx, sagalog.ApprovalSaga, stepName, err)
		appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.ApprovalSaga,
			sagalog.StatusFailed, stepName, "", []string{err.Error()}))
		return err
	}

	if event == nil {
		recordSagaStep(ctx, sagalog.ApprovalSaga, stepName, nil, "skipped")
		return nil
	}

	appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, response.OrderID.String(), sagalog.ApprovalSaga,
		status, stepName, string(orderStatus), response.FailureMessages))

	recordSagaStep(ctx, sagalog.ApprovalSaga, stepName, nil)
	return nil
}
