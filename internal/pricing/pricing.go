// Package pricing turns a catalog row plus a requested package weight
// into the unit price and display name captured on an order line.
package pricing

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/nutribowl/storefront/internal/models"
)

// DefaultWeightGrams is used when a weighted cart line names no weight.
const DefaultWeightGrams = 1000

var allowedWeights = map[int]bool{250: true, 500: true, 1000: true}

var (
	// ErrInvalidQuantity is returned for a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidWeight is returned for a weighted line asking for an unsupported pack size.
	ErrInvalidWeight = errors.New("weight must be 250, 500 or 1000 grams")
)

// Line is a priced cart line, ready to be stored as an order item.
type Line struct {
	ItemID      string
	Name        string
	Qty         int
	WeightGrams int // 0 for flat-priced items
	UnitPrice   int64
	Total       int64
}

// IsAllowedWeight reports whether grams is one of the sellable pack sizes.
func IsAllowedWeight(grams int) bool {
	return allowedWeights[grams]
}

// ResolveWeight applies the default to an absent or non-positive weight.
func ResolveWeight(requested *int) int {
	if requested == nil || *requested <= 0 {
		return DefaultWeightGrams
	}
	return *requested
}

// WeightLabel is the human suffix stored on weighted order lines.
func WeightLabel(grams int) string {
	if grams >= 1000 {
		return fmt.Sprintf("%s kg", decimal.NewFromInt(int64(grams)).Div(decimal.NewFromInt(1000)).String())
	}
	return fmt.Sprintf("%d gm", grams)
}

// PriceLine prices qty units of item. weightGrams is only consulted for
// weighted categories; flat-priced items ignore it.
func PriceLine(item *models.InventoryItem, qty int, weightGrams *int) (*Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	if !item.IsWeighted() {
		return &Line{
			ItemID:    item.ID,
			Name:      item.Name,
			Qty:       qty,
			UnitPrice: item.Price,
			Total:     item.Price * int64(qty),
		}, nil
	}

	grams := ResolveWeight(weightGrams)
	if !IsAllowedWeight(grams) {
		return nil, ErrInvalidWeight
	}

	// price * grams / reference is computed in one step so the rounding
	// happens once, on the exact value.
	unit := unitPrice(item, grams)

	return &Line{
		ItemID:      item.ID,
		Name:        fmt.Sprintf("%s (%s)", item.Name, WeightLabel(grams)),
		Qty:         qty,
		WeightGrams: grams,
		UnitPrice:   unit,
		Total:       unit * int64(qty),
	}, nil
}

func unitPrice(item *models.InventoryItem, grams int) int64 {
	reference := int64(1000)
	if item.WeightGrams != nil && *item.WeightGrams > 0 {
		reference = int64(*item.WeightGrams)
	}
	exact := decimal.NewFromInt(item.Price).Mul(decimal.NewFromInt(int64(grams))).Div(decimal.NewFromInt(reference))
	return exact.Round(0).IntPart()
}

// Sum adds up the line totals.
func Sum(lines []*Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Total
	}
	return total
}
