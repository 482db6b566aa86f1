package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_InjectsTelemetry(t *testing.T) {
	tel := NewTelemetry(OrderServiceConfig)

	var (
		seen  *Telemetry
		route string
	)

	r := chi.NewRouter()
	r.Use(Middleware(tel))
	r.Get("/api/v1/orders/{tracking_id}", func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/other", func(w http.ResponseWriter, r *http.Request) {
		route = routePattern(r)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Same(t, tel, seen)
	assert.Equal(t, "order-service", GetServiceName(WithTelemetry(context.Background(), seen)))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, "/other", route)
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	SetDefault(nil)
	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, "unknown", GetServiceName(context.Background()))

	tel := NewTelemetry(OrderServiceConfig.WithServiceName("order-worker"))
	SetDefault(tel)
	defer SetDefault(nil)

	assert.Same(t, tel, FromContext(context.Background()))
	assert.Equal(t, "order-worker", GetServiceName(context.Background()))
}

func TestGetStatusClass(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{code: 101, expected: "1xx"},
		{code: 201, expected: "2xx"},
		{code: 302, expected: "3xx"},
		{code: 422, expected: "4xx"},
		{code: 503, expected: "5xx"},
		{code: 0, expected: "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, getStatusClass(tt.code))
	}
}
