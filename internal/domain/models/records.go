package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SaleRecord is one sold line on a given day. Prices are snapshotted server-side
// from inventory at sale time.
type SaleRecord struct {
	ID           ID              `json:"id,omitempty"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantitySold"`
	BuyPrice     decimal.Decimal `json:"buyPrice"`
	SellPrice    decimal.Decimal `json:"sellPrice"`
	Date         Date            `json:"date"`
}

// Validate checks the editable fields of a sale.
func (s SaleRecord) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if s.QuantitySold < 1 {
		return NewValidationError("quantity sold", "must be at least 1")
	}
	if s.BuyPrice.IsNegative() || s.SellPrice.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	return nil
}

// DamageRecord logs inventory lost without a sale.
type DamageRecord struct {
	ID              ID              `json:"id,omitempty"`
	Name            string          `json:"name"`
	QuantityDamaged int             `json:"quantityDamaged"`
	BuyPrice        decimal.Decimal `json:"buyPrice"`
	Date            Date            `json:"date"`
}

// Validate checks the editable fields of a damage record.
func (d DamageRecord) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if d.QuantityDamaged < 1 {
		return NewValidationError("quantity damaged", "must be at least 1")
	}
	if d.BuyPrice.IsNegative() {
		return NewValidationError("buy price", "must not be negative")
	}
	return nil
}

// SaleLine is the body element of a sales submission.
type SaleLine struct {
	Name         string `json:"name"`
	QuantitySold int    `json:"quantitySold"`
}

// Validate rejects blank names and non-positive quantities.
func (l SaleLine) Validate() error {
	return SaleRecord{Name: l.Name, QuantitySold: l.QuantitySold}.Validate()
}

// DamageLine is the body element of a damage report.
type DamageLine struct {
	Name            string `json:"name"`
	QuantityDamaged int    `json:"quantityDamaged"`
}

// Validate rejects blank names and non-positive quantities.
func (l DamageLine) Validate() error {
	return DamageRecord{Name: l.Name, QuantityDamaged: l.QuantityDamaged}.Validate()
}
