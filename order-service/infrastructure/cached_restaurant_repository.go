package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/cache"
	"github.com/draftea/food-ordering/shared/models"
)

var _ domain.RestaurantRepository = (*CachedRestaurantRepository)(nil)

const (
	DefaultRestaurantTTL = 30 * time.Second
	// MaxRestaurantTTL bounds how long a deactivated restaurant or a price
	// change can go unnoticed by order validation
	MaxRestaurantTTL = time.Minute
)

// CachedRestaurantRepository is a read-through cache in front of a
// RestaurantRepository. Snapshots are cached per restaurant and product set
// for at most MaxRestaurantTTL. Cache errors fall back to the wrapped
// repository.
type CachedRestaurantRepository struct {
	next  domain.RestaurantRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRestaurantRepository creates a new CachedRestaurantRepository. A
// non-positive ttl uses DefaultRestaurantTTL, longer ones are capped.
func NewCachedRestaurantRepository(next domain.RestaurantRepository, c cache.Cache, ttl time.Duration) *CachedRestaurantRepository {
	switch {
	case ttl <= 0:
		ttl = DefaultRestaurantTTL
	case ttl > MaxRestaurantTTL:
		ttl = MaxRestaurantTTL
	}

	return &CachedRestaurantRepository{
		next:  next,
		cache: c,
		ttl:   ttl,
	}
}

func (r *CachedRestaurantRepository) FindRestaurantInformation(ctx context.Context, restaurantID models.ID, productIDs []models.ID) (*domain.Restaurant, error) {
	key := r.cache.GenerateKey("restaurant", restaurantKey(restaurantID, productIDs))

	cached, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "restaurant cache read failed", "restaurant_id", restaurantID, "error", err)
	}
	if cached != "" {
		var restaurant domain.Restaurant
		if err := json.Unmarshal([]byte(cached), &restaurant); err == nil {
			return &restaurant, nil
		}
		slog.WarnContext(ctx, "discarding corrupt restaurant cache entry", "key", key)
	}

	restaurant, err := r.next.FindRestaurantInformation(ctx, restaurantID, productIDs)
	if err != nil || restaurant == nil {
		return restaurant, err
	}

	if raw, err := json.Marshal(restaurant); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			slog.WarnContext(ctx, "restaurant cache write failed", "restaurant_id", restaurantID, "error", err)
		}
	}

	return restaurant, nil
}

func restaurantKey(restaurantID models.ID, productIDs []models.ID) string {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return restaurantID.String() + ":" + strings.Join(ids, ",")
}
