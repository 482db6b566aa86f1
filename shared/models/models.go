package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ID represents a unique identifier
type ID string

// GenerateUUID creates a new UUID
func GenerateUUID() ID {
	return ID(uuid.New().String())
}

// NewID creates an ID from string
func NewID(id string) (ID, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty reports whether the id was never assigned
func (id ID) IsEmpty() bool {
	return id == ""
}

// Timestamps represents creation and update times
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTimestamps creates new timestamps
func NewTimestamps() Timestamps {
	now := time.Now().UTC()
	return Timestamps{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update updates the UpdatedAt timestamp
func (t Timestamps) Update() Timestamps {
	t.UpdatedAt = time.Now().UTC()
	return t
}

// Version represents entity version for optimistic locking
type Version struct {
	Value int
}

// NewVersion creates new version
func NewVersion() Version {
	return Version{Value: 1}
}

// Update increments version
func (v Version) Update() Version {
	v.Value++
	return v
}

// Previous returns the version the entity had before its last update
func (v Version) Previous() Version {
	v.Value--
	return v
}

const moneyScale = 2

// Money represents a non-floating monetary amount, kept at two decimal places
type Money struct {
	Amount decimal.Decimal `json:"amount"`
}

// ZeroMoney is the zero amount
var ZeroMoney = Money{Amount: decimal.Zero}

// NewMoney creates a new money value rounded to the money scale
func NewMoney(amount decimal.Decimal) Money {
	return Money{Amount: amount.RoundBank(moneyScale)}
}

// MustMoney parses a decimal string, panicking on malformed input.
// Intended for constants and tests.
func MustMoney(amount string) Money {
	return NewMoney(decimal.RequireFromString(amount))
}

// ParseMoney parses a decimal string
func ParseMoney(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d), nil
}

// IsZero checks if money is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsGreaterThanZero checks if money is strictly positive
func (m Money) IsGreaterThanZero() bool {
	return m.Amount.IsPositive()
}

// Equal compares two amounts ignoring representation differences (10 == 10.00)
func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// Add adds two money values
func (m Money) Add(other Money) Money {
	return NewMoney(m.Amount.Add(other.Amount))
}

// Multiply multiplies the amount by an integer factor
func (m Money) Multiply(factor int) Money {
	return NewMoney(m.Amount.Mul(decimal.NewFromInt(int64(factor))))
}

// String returns the amount with two decimal places
func (m Money) String() string {
	return m.Amount.StringFixedBank(moneyScale)
}
