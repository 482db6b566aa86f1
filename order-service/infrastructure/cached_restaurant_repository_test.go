package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/mocks"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failSet {
		return errors.New("redis down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.values[key] = string(v)
	default:
		c.values[key] = fmt.Sprint(v)
	}
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	if c.failGet {
		return "", errors.New("redis down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *fakeCache) GenerateKey(operation, key string) string {
	return "order-service:" + operation + ":" + key
}

func newSnapshot(restaurantID models.ID, productIDs ...models.ID) *domain.Restaurant {
	restaurant := &domain.Restaurant{ID: restaurantID, Active: true}
	for i, id := range productIDs {
		restaurant.Products = append(restaurant.Products, domain.Product{
			ID:        id,
			Name:      fmt.Sprintf("product-%d", i),
			Price:     models.MustMoney("12.50"),
			Available: true,
		})
	}
	return restaurant
}

func TestCachedRestaurantRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	restaurantID := models.GenerateUUID()
	p1, p2 := models.GenerateUUID(), models.GenerateUUID()
	snapshot := newSnapshot(restaurantID, p1, p2)

	next := mocks.NewMockRestaurantRepository(t)
	next.EXPECT().FindRestaurantInformation(mock.Anything, restaurantID, mock.Anything).Return(snapshot, nil).Once()

	c := newFakeCache()
	repo := NewCachedRestaurantRepository(next, c, 30*time.Second)

	first, err := repo.FindRestaurantInformation(ctx, restaurantID, []models.ID{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, snapshot, first)

	// same product set in another order hits the cache
	second, err := repo.FindRestaurantInformation(ctx, restaurantID, []models.ID{p2, p1})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, snapshot.ID, second.ID)
	require.Len(t, second.Products, 2)
	assert.True(t, snapshot.Products[0].Price.Equal(second.Products[0].Price))
	assert.Equal(t, snapshot.Products[1].Name, second.Products[1].Name)

	require.Len(t, c.ttls, 1)
	for _, ttl := range c.ttls {
		assert.Equal(t, 30*time.Second, ttl)
	}
}

func TestNewCachedRestaurantRepository_TTLBounds(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		expected time.Duration
	}{
		{name: "unset uses default", ttl: 0, expected: DefaultRestaurantTTL},
		{name: "within bound is kept", ttl: 10 * time.Second, expected: 10 * time.Second},
		{name: "long ttl is capped", ttl: 5 * time.Minute, expected: MaxRestaurantTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restaurantID := models.GenerateUUID()
			productID := models.GenerateUUID()
			next := mocks.NewMockRestaurantRepository(t)
			next.EXPECT().FindRestaurantInformation(mock.Anything, restaurantID, mock.Anything).
				Return(newSnapshot(restaurantID, productID), nil).Once()

			c := newFakeCache()
			_, err := NewCachedRestaurantRepository(next, c, tt.ttl).
				FindRestaurantInformation(context.Background(), restaurantID, []models.ID{productID})
			require.NoError(t, err)

			require.Len(t, c.ttls, 1)
			for _, ttl := range c.ttls {
				assert.Equal(t, tt.expected, ttl)
			}
		})
	}
}

func TestCachedRestaurantRepository_Fallbacks(t *testing.T) {
	restaurantID := models.GenerateUUID()
	productID := models.GenerateUUID()

	tests := []struct {
		name          string
		cache         *fakeCache
		result        *domain.Restaurant
		resultErr     error
		calls         int
		expectedError string
		expectCached  bool
	}{
		{
			name:         "cache read failure falls through",
			cache:        &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}, failGet: true},
			result:       newSnapshot(restaurantID, productID),
			calls:        2,
			expectCached: true,
		},
		{
			name:   "cache write failure still returns",
			cache:  &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}, failSet: true},
			result: newSnapshot(restaurantID, productID),
			calls:  2,
		},
		{
			name:  "missing restaurant is not cached",
			cache: newFakeCache(),
			calls: 2,
		},
		{
			name:          "repository error is returned",
			cache:         newFakeCache(),
			resultErr:     errors.New("database error"),
			calls:         1,
			expectedError: "database error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := mocks.NewMockRestaurantRepository(t)
			next.EXPECT().FindRestaurantInformation(mock.Anything, restaurantID, mock.Anything).Return(tt.result, tt.resultErr).Times(tt.calls)

			repo := NewCachedRestaurantRepository(next, tt.cache, time.Minute)

			for i := 0; i < tt.calls; i++ {
				restaurant, err := repo.FindRestaurantInformation(context.Background(), restaurantID, []models.ID{productID})
				if tt.expectedError != "" {
					require.Error(t, err)
					assert.Contains(t, err.Error(), tt.expectedError)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, tt.result, restaurant)
			}

			assert.Equal(t, tt.expectCached, len(tt.cache.values) > 0)
		})
	}
}

func TestCachedRestaurantRepository_CorruptEntry(t *testing.T) {
	restaurantID := models.GenerateUUID()
	productID := models.GenerateUUID()
	snapshot := newSnapshot(restaurantID, productID)

	c := newFakeCache()
	c.values[c.GenerateKey("restaurant", restaurantKey(restaurantID, []models.ID{productID}))] = "{not json"

	next := mocks.NewMockRestaurantRepository(t)
	next.EXPECT().FindRestaurantInformation(mock.Anything, restaurantID, mock.Anything).Return(snapshot, nil).Once()

	restaurant, err := NewCachedRestaurantRepository(next, c, time.Minute).
		FindRestaurantInformation(context.Background(), restaurantID, []models.ID{productID})
	require.NoError(t, err)
	assert.Equal(t, snapshot, restaurant)
}
