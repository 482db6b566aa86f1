package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConcurrencyConflict is returned by repositories when the stored version
// moved on between load and save.
var ErrConcurrencyConflict = errors.New("order was modified concurrently")

// OrderDomainError is a business-rule or state-transition violation. It is a
// local rejection of the current request or message and never worth retrying.
type OrderDomainError struct {
	Message string
}

func (e *OrderDomainError) Error() string {
	return e.Message
}

// NewOrderDomainError creates a formatted OrderDomainError
func NewOrderDomainError(format string, args ...interface{}) *OrderDomainError {
	return &OrderDomainError{Message: fmt.Sprintf(format, args...)}
}

// OrderNotFoundError reports a lookup miss by order id or tracking id
type OrderNotFoundError struct {
	Key string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order not found: %s", e.Key)
}

// IsDomainError reports whether err (or its cause) is an OrderDomainError
func IsDomainError(err error) bool {
	var target *OrderDomainError
	return errors.As(err, &target)
}

// IsNotFound reports whether err (or its cause) is an OrderNotFoundError
func IsNotFound(err error) bool {
	var target *OrderNotFoundError
	return errors.As(err, &target)
}

// IsConcurrencyConflict reports whether err was caused by a stale version
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
