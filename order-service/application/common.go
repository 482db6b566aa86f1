package application

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
)

// ErrInvalidCommand marks malformed client input
var ErrInvalidCommand = errors.New("invalid command")

// maxConflictAttempts bounds how often a step is re-run after a concurrent save
const maxConflictAttempts = 3

func invalidCommand(msg string) error {
	return errors.Wrap(ErrInvalidCommand, msg)
}

// IsInvalidCommand reports whether err was caused by malformed client input
func IsInvalidCommand(err error) bool {
	return errors.Is(err, ErrInvalidCommand)
}

// retryOnConflict re-runs fn, which must reload the order itself, while the
// repository reports a concurrent modification
func retryOnConflict(ctx context.Context, orderID models.ID, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictAttempts; attempt++ {
		err = fn()
		if !domain.IsConcurrencyConflict(err) {
			return err
		}
		slog.WarnContext(ctx, "order was modified concurrently, retrying",
			"order_id", orderID.String(),
			"attempt", attempt,
		)
	}
	return err
}

// loadOrder finds an order by id and turns a miss into OrderNotFoundError
func loadOrder(ctx context.Context, repository domain.OrderRepository, orderID models.ID) (*domain.Order, error) {
	order, err := repository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, &domain.OrderNotFoundError{Key: orderID.String()}
	}
	return order, nil
}

// appendSagaLog records a saga transition. The log is an audit trail, so a
// write failure is logged and otherwise ignored.
func appendSagaLog(ctx context.Context, repository sagalog.Repository, entry *sagalog.Entry) {
	if repository == nil {
		return
	}
	if err := repository.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to write saga log",
			"order_id", entry.OrderID,
			"saga", entry.Saga,
			"error", err,
		)
	}
}
