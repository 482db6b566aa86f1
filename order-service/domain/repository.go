package domain

import (
	"context"

	"github.com/draftea/food-ordering/shared/models"
)

// OrderRepository persists the Order aggregate. Save inserts an order at its
// first version and otherwise updates it only if the stored version is the
// one the order was loaded with, returning ErrConcurrencyConflict when not.
// The given events are stored in the outbox atomically with the order and
// delivered later by the outbox relay.
// Finders return nil, nil when nothing matches.
type OrderRepository interface {
	Save(ctx context.Context, order *Order, orderEvents ...OrderEvent) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByTrackingID(ctx context.Context, trackingID models.ID) (*Order, error)
}

// RestaurantRepository reads the restaurant context's catalog. Only the
// requested products are returned. A missing restaurant is nil, nil.
type RestaurantRepository interface {
	FindRestaurantInformation(ctx context.Context, restaurantID models.ID, productIDs []models.ID) (*Restaurant, error)
}
