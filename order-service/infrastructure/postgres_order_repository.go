package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/events"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents order in database
type postgresOrder struct {
	ID              string          `db:"id"`
	TrackingID      string          `db:"tracking_id"`
	CustomerID      string          `db:"customer_id"`
	RestaurantID    string          `db:"restaurant_id"`
	Price           decimal.Decimal `db:"price"`
	Status          string          `db:"status"`
	FailureMessages pq.StringArray  `db:"failure_messages"`
	AddressID       string          `db:"address_id"`
	Street          string          `db:"street"`
	PostalCode      string          `db:"postal_code"`
	City            string          `db:"city"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	Version         int             `db:"version"`
}

// postgresOrderItem represents order item in database
type postgresOrderItem struct {
	OrderID   string          `db:"order_id"`
	ID        int64           `db:"id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
	SubTotal  decimal.Decimal `db:"sub_total"`
}

const selectOrder = `
	SELECT id, tracking_id, customer_id, restaurant_id, price, status,
		   failure_messages, address_id, street, postal_code, city,
		   created_at, updated_at, version
	FROM orders`

// Save inserts a first-version order with its items, or updates status and
// failure messages of a loaded one. orderEvents go to the outbox table in the
// same transaction.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order, orderEvents ...domain.OrderEvent) error {
	if order.ID.IsEmpty() {
		return errors.New("cannot save an order without ID")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if order.Version.Value <= 1 {
		err = r.insertOrder(ctx, tx, order)
	} else {
		err = r.updateOrder(ctx, tx, order)
	}
	if err != nil {
		return err
	}

	envelopes := make([]*events.Event, 0, len(orderEvents))
	for _, e := range orderEvents {
		envelopes = append(envelopes, e.Envelope())
	}
	if err := sharedinfra.InsertOutboxEvents(ctx, tx, envelopes...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit order")
}

// insertOrder inserts a new order and its items
func (r *PostgresOrderRepository) insertOrder(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, tracking_id, customer_id, restaurant_id, price, status,
			failure_messages, address_id, street, postal_code, city,
			created_at, updated_at, version
		) VALUES (
			:id, :tracking_id, :customer_id, :restaurant_id, :price, :status,
			:failure_messages, :address_id, :street, :postal_code, :city,
			:created_at, :updated_at, :version
		)`

	_, err := tx.NamedExecContext(ctx, query, r.toPostgres(order))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errors.Wrapf(domain.ErrConcurrencyConflict, "order %s already exists", order.ID)
		}
		return errors.Wrap(err, "failed to insert order")
	}

	itemQuery := `
		INSERT INTO order_items (order_id, id, product_id, quantity, price, sub_total)
		VALUES (:order_id, :id, :product_id, :quantity, :price, :sub_total)`

	for _, item := range order.Items {
		_, err = tx.NamedExecContext(ctx, itemQuery, &postgresOrderItem{
			OrderID:   order.ID.String(),
			ID:        int64(item.ID),
			ProductID: item.Product.ID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price.Amount,
			SubTotal:  item.SubTotal.Amount,
		})
		if err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	return nil
}

// updateOrder updates an existing order
func (r *PostgresOrderRepository) updateOrder(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, failure_messages = :failure_messages,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	res, err := tx.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               order.ID.String(),
		"status":           string(order.Status),
		"failure_messages": pq.StringArray(nonNil(order.FailureMessages)),
		"updated_at":       order.Timestamps.UpdatedAt,
		"version":          order.Version.Value,
		"old_version":      order.Version.Previous().Value, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrConcurrencyConflict, "order %s version %d", order.ID, order.Version.Value)
	}

	return nil
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	return r.findOne(ctx, selectOrder+" WHERE id = $1", id)
}

// FindByTrackingID finds an order by its customer-facing tracking ID
func (r *PostgresOrderRepository) FindByTrackingID(ctx context.Context, trackingID models.ID) (*domain.Order, error) {
	return r.findOne(ctx, selectOrder+" WHERE tracking_id = $1", trackingID)
}

func (r *PostgresOrderRepository) findOne(ctx context.Context, query string, id models.ID) (*domain.Order, error) {
	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	var pgItems []postgresOrderItem
	err = r.db.SelectContext(ctx, &pgItems, `
		SELECT order_id, id, product_id, quantity, price, sub_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`, pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}

	return r.toDomain(&pgOrder, pgItems), nil
}

// toPostgres converts domain order to postgres model
func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:              order.ID.String(),
		TrackingID:      order.TrackingID.String(),
		CustomerID:      order.CustomerID.String(),
		RestaurantID:    order.RestaurantID.String(),
		Price:           order.Price.Amount,
		Status:          string(order.Status),
		FailureMessages: pq.StringArray(nonNil(order.FailureMessages)),
		AddressID:       order.DeliveryAddress.ID.String(),
		Street:          order.DeliveryAddress.Street,
		PostalCode:      order.DeliveryAddress.PostalCode,
		City:            order.DeliveryAddress.City,
		CreatedAt:       order.Timestamps.CreatedAt,
		UpdatedAt:       order.Timestamps.UpdatedAt,
		Version:         order.Version.Value,
	}
}

// toDomain converts postgres model to domain order. Items carry the price
// they were ordered at as their product price.
func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder, pgItems []postgresOrderItem) *domain.Order {
	items := make([]domain.OrderItem, len(pgItems))
	for i, pgItem := range pgItems {
		price := models.NewMoney(pgItem.Price)
		product := domain.NewProduct(models.ID(pgItem.ProductID))
		product.Price = price

		items[i] = domain.NewOrderItem(product, pgItem.Quantity, price, models.NewMoney(pgItem.SubTotal))
		items[i].ID = domain.OrderItemID(pgItem.ID)
	}

	return &domain.Order{
		ID:           models.ID(pgOrder.ID),
		TrackingID:   models.ID(pgOrder.TrackingID),
		CustomerID:   models.ID(pgOrder.CustomerID),
		RestaurantID: models.ID(pgOrder.RestaurantID),
		DeliveryAddress: domain.StreetAddress{
			ID:         models.ID(pgOrder.AddressID),
			Street:     pgOrder.Street,
			PostalCode: pgOrder.PostalCode,
			City:       pgOrder.City,
		},
		Price:           models.NewMoney(pgOrder.Price),
		Items:           items,
		Status:          domain.OrderStatus(pgOrder.Status),
		FailureMessages: nonNil(pgOrder.FailureMessages),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt.UTC(),
			UpdatedAt: pgOrder.UpdatedAt.UTC(),
		},
		Version: models.Version{Value: pgOrder.Version},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
