package forms

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// InventoryDraft is the raw input of the inventory form. An empty ID means
// add; otherwise the item with that ID is updated.
type InventoryDraft struct {
	ID        string
	Name      string
	Quantity  string
	BuyPrice  string
	SellPrice string
}

// NewInventoryDraft returns the form defaults.
func NewInventoryDraft() InventoryDraft {
	return InventoryDraft{Quantity: "0", BuyPrice: "0", SellPrice: "0"}
}

// InventoryDraftOf pre-fills the form from an existing item.
func InventoryDraftOf(item models.InventoryItem) InventoryDraft {
	return InventoryDraft{
		ID:        item.ID.String(),
		Name:      item.Name,
		Quantity:  strconv.Itoa(item.Quantity),
		BuyPrice:  item.BuyPrice.String(),
		SellPrice: item.SellPrice.String(),
	}
}

// Updating reports whether the draft edits an existing item.
func (d InventoryDraft) Updating() bool { return strings.TrimSpace(d.ID) != "" }

// Item parses and validates the draft.
func (d InventoryDraft) Item() (models.InventoryItem, error) {
	qty, err := parseInt("quantity", d.Quantity)
	if err != nil {
		return models.InventoryItem{}, err
	}
	buy, err := parseMoney("buy price", d.BuyPrice)
	if err != nil {
		return models.InventoryItem{}, err
	}
	sell, err := parseMoney("sell price", d.SellPrice)
	if err != nil {
		return models.InventoryItem{}, err
	}
	item := models.InventoryItem{
		ID:        models.ID(strings.TrimSpace(d.ID)),
		Name:      strings.TrimSpace(d.Name),
		Quantity:  qty,
		BuyPrice:  buy,
		SellPrice: sell,
	}
	if err := item.Validate(); err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// ValidateInventory is the local check run before an inventory submit.
func ValidateInventory(d InventoryDraft) error {
	_, err := d.Item()
	return err
}

// LineDraft is the raw input of the add-sale and add-damage forms.
type LineDraft struct {
	Date     string
	Name     string
	Quantity string
}

// NewLineDraftFunc returns a defaults builder that pre-selects today's date.
func NewLineDraftFunc(now func() time.Time) func() LineDraft {
	return func() LineDraft {
		return LineDraft{Date: models.DateOf(now()).String()}
	}
}

func (d LineDraft) parse() (models.Date, string, int, error) {
	if strings.TrimSpace(d.Date) == "" {
		return models.Date{}, "", 0, models.NewValidationError("date", "is required")
	}
	date, err := models.ParseDate(d.Date)
	if err != nil {
		return models.Date{}, "", 0, models.NewValidationError("date", "must be YYYY-MM-DD")
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return models.Date{}, "", 0, models.NewValidationError("name", "is required")
	}
	qty, err := parseInt("quantity", d.Quantity)
	if err != nil {
		return models.Date{}, "", 0, err
	}
	return date, name, qty, nil
}

// SaleLine parses and validates the draft as a sale.
func (d LineDraft) SaleLine() (models.Date, models.SaleLine, error) {
	date, name, qty, err := d.parse()
	if err != nil {
		return models.Date{}, models.SaleLine{}, err
	}
	line := models.SaleLine{Name: name, QuantitySold: qty}
	if err := line.Validate(); err != nil {
		return models.Date{}, models.SaleLine{}, err
	}
	return date, line, nil
}

// DamageLine parses and validates the draft as a damage report.
func (d LineDraft) DamageLine() (models.Date, models.DamageLine, error) {
	date, name, qty, err := d.parse()
	if err != nil {
		return models.Date{}, models.DamageLine{}, err
	}
	line := models.DamageLine{Name: name, QuantityDamaged: qty}
	if err := line.Validate(); err != nil {
		return models.Date{}, models.DamageLine{}, err
	}
	return date, line, nil
}

// ValidateSale is the local check run before an add-sale submit.
func ValidateSale(d LineDraft) error {
	_, _, err := d.SaleLine()
	return err
}

// ValidateDamage is the local check run before an add-damage submit.
func ValidateDamage(d LineDraft) error {
	_, _, err := d.DamageLine()
	return err
}

func parseInt(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, models.NewValidationError(field, "is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(field, "must be a whole number")
	}
	return n, nil
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, models.NewValidationError(field, "is required")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, models.NewValidationError(field, "must be a number")
	}
	return v, nil
}
