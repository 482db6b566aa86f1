package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/draftea/food-ordering/order-service/application"
	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder *application.CreateOrder
	trackOrder  *application.TrackOrder
	cancelOrder *application.CancelOrder
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	trackOrder *application.TrackOrder,
	cancelOrder *application.CancelOrder,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder: createOrder,
		trackOrder:  trackOrder,
		cancelOrder: cancelOrder,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// TrackOrder handles order status requests
func (h *OrderHandlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	response, err := h.trackOrder.Execute(r.Context(), &application.TrackOrderQuery{
		OrderTrackingID: chi.URLParam(r, "tracking_id"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// CancelOrder handles customer cancellation requests. The body is optional.
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.cancelOrder.Execute(r.Context(), &application.CancelOrderCommand{
		OrderTrackingID: chi.URLParam(r, "tracking_id"),
		Reason:          req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{tracking_id}", h.TrackOrder)
		r.Post("/{tracking_id}/cancel", h.CancelOrder)
	})
}

// statusFor maps use case errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case application.IsInvalidCommand(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsDomainError(err):
		return http.StatusUnprocessableEntity
	case domain.IsConcurrencyConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
