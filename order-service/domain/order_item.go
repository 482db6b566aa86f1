package domain

import (
	"github.com/draftea/food-ordering/shared/models"
)

// OrderItemID is scoped to its order: items are numbered 1..n on initialization
type OrderItemID int64

// OrderItem is owned by an Order and not addressable on its own
type OrderItem struct {
	ID       OrderItemID  `json:"id"`
	Product  Product      `json:"product"`
	Quantity int          `json:"quantity"`
	Price    models.Money `json:"price"`
	SubTotal models.Money `json:"sub_total"`
}

// NewOrderItem creates an item as submitted by a client. Price is the unit
// price the client saw; SubTotal is what the client computed from it.
func NewOrderItem(product Product, quantity int, price, subTotal models.Money) OrderItem {
	return OrderItem{
		Product:  product,
		Quantity: quantity,
		Price:    price,
		SubTotal: subTotal,
	}
}

// isPriceValid checks the unit price against the confirmed product price and
// the sub total against price × quantity
func (i OrderItem) isPriceValid() bool {
	return i.Price.IsGreaterThanZero() &&
		i.Price.Equal(i.Product.Price) &&
		i.Price.Multiply(i.Quantity).Equal(i.SubTotal)
}
