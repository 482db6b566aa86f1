package domain

import (
	"github.com/draftea/food-ordering/shared/models"
)

// Product is the order-side copy of a restaurant catalog entry. Identity is
// the product id; name and price are overwritten from the restaurant
// snapshot when the order is validated.
type Product struct {
	ID        models.ID    `json:"id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	Available bool         `json:"available"`
}

// NewProduct creates a product reference carrying only its identity
func NewProduct(id models.ID) Product {
	return Product{ID: id}
}

// SameAs reports whether both products refer to the same catalog entry
func (p Product) SameAs(other Product) bool {
	return p.ID == other.ID
}

func (p *Product) updateWithConfirmedNameAndPrice(name string, price models.Money) {
	p.Name = name
	p.Price = price
}

// Restaurant is a read-only snapshot of the restaurant context supplied at
// order creation time. The order context never mutates it.
type Restaurant struct {
	ID       models.ID `json:"id"`
	Active   bool      `json:"active"`
	Products []Product `json:"products"`
}

// FindProduct returns the snapshot entry with the same identity
func (r *Restaurant) FindProduct(product Product) (Product, bool) {
	for _, p := range r.Products {
		if p.SameAs(product) {
			return p, true
		}
	}
	return Product{}, false
}
