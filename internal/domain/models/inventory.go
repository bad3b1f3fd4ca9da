package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The API speaks plain JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

// InventoryItem is a stocked product owned by one user account.
type InventoryItem struct {
	ID        ID              `json:"id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
}

// Validate checks presence and range of every field.
func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if i.Quantity < 0 {
		return NewValidationError("quantity", "must not be negative")
	}
	if i.BuyPrice.IsNegative() {
		return NewValidationError("buy price", "must not be negative")
	}
	if i.SellPrice.IsNegative() {
		return NewValidationError("sell price", "must not be negative")
	}
	return nil
}
