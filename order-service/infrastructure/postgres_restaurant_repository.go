package infrastructure

import (
	"context"
	"database/sql"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var _ domain.RestaurantRepository = (*PostgresRestaurantRepository)(nil)

// PostgresRestaurantRepository reads the restaurant catalog projection the
// restaurant context maintains in the order database
type PostgresRestaurantRepository struct {
	db *sqlx.DB
}

// NewPostgresRestaurantRepository creates a new PostgresRestaurantRepository
func NewPostgresRestaurantRepository(db *sqlx.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{db: db}
}

type postgresRestaurantProduct struct {
	RestaurantID     string          `db:"restaurant_id"`
	RestaurantActive bool            `db:"restaurant_active"`
	ProductID        string          `db:"product_id"`
	ProductName      string          `db:"product_name"`
	ProductPrice     decimal.Decimal `db:"product_price"`
	ProductAvailable bool            `db:"product_available"`
}

// FindRestaurantInformation returns the restaurant with whichever of the
// requested products it sells, or nil when the restaurant is unknown. The
// active flag is read on its own so an inactive restaurant is reported as
// such even when none of the products match.
func (r *PostgresRestaurantRepository) FindRestaurantInformation(ctx context.Context, restaurantID models.ID, productIDs []models.ID) (*domain.Restaurant, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, `
		SELECT restaurant_active
		FROM restaurant_products
		WHERE restaurant_id = $1
		LIMIT 1`, restaurantID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find restaurant")
	}

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	var rows []postgresRestaurantProduct
	err = r.db.SelectContext(ctx, &rows, `
		SELECT restaurant_id, restaurant_active, product_id, product_name,
			   product_price, product_available
		FROM restaurant_products
		WHERE restaurant_id = $1 AND product_id = ANY($2)
		ORDER BY product_id`, restaurantID.String(), pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find restaurant products")
	}

	return toRestaurant(restaurantID, active, rows), nil
}

func toRestaurant(restaurantID models.ID, active bool, rows []postgresRestaurantProduct) *domain.Restaurant {
	restaurant := &domain.Restaurant{
		ID:       restaurantID,
		Active:   active,
		Products: make([]domain.Product, len(rows)),
	}
	for i, row := range rows {
		restaurant.Products[i] = domain.Product{
			ID:        models.ID(row.ProductID),
			Name:      row.ProductName,
			Price:     models.NewMoney(row.ProductPrice),
			Available: row.ProductAvailable,
		}
	}
	return restaurant
}
