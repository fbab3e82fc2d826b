package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
)

// LineItem is the pricing view of an order line: either the garment prices
// drive the line total, or quantity x unit price does.
type LineItem struct {
	Quantity      int
	UnitPrice     decimal.Decimal
	GarmentPrices []decimal.Decimal
}

// TotalsInput carries everything ComputeTotals needs. Tax and DeliveryFee
// are overrides; nil means apply the configured default.
type TotalsInput struct {
	Items       []LineItem
	Tax         *decimal.Decimal
	DeliveryFee *decimal.Decimal
	Discount    decimal.Decimal
	Urgent      bool
}

// Totals is the full money breakdown for an order. Total is always
// Subtotal + Tax + DeliveryFee - Discount.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	LineTotals  []decimal.Decimal
}

// Calculator computes order money breakdowns. It is pure: the stored totals
// on an order are a cache of this computation, never a trusted input.
type Calculator struct {
	cfg config.PricingConfig
}

func NewCalculator(cfg config.PricingConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// ComputeTotals derives subtotal, tax, delivery fee and total from the line
// items. Negative monetary components are rejected at this boundary.
func (c *Calculator) ComputeTotals(input TotalsInput) (*Totals, error) {
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if input.Tax != nil && input.Tax.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax must not be negative")
	}
	if input.DeliveryFee != nil && input.DeliveryFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}

	subtotal := decimal.Zero
	lineTotals := make([]decimal.Decimal, 0, len(input.Items))
	for i, item := range input.Items {
		lineTotal, err := lineTotalFor(i, item)
		if err != nil {
			return nil, err
		}
		lineTotals = append(lineTotals, lineTotal)
		subtotal = subtotal.Add(lineTotal)
	}

	tax := c.cfg.TaxRateDecimal().Mul(subtotal).Round(2)
	if input.Tax != nil {
		tax = *input.Tax
	}
	fee := c.cfg.DeliveryFee(input.Urgent)
	if input.DeliveryFee != nil {
		fee = *input.DeliveryFee
	}

	total := subtotal.Add(tax).Add(fee).Sub(input.Discount)
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
	}

	return &Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Discount:    input.Discount,
		Total:       total,
		LineTotals:  lineTotals,
	}, nil
}

func lineTotalFor(index int, item LineItem) (decimal.Decimal, error) {
	if item.UnitPrice.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("item %d: unit price must not be negative", index))
	}

	if len(item.GarmentPrices) > 0 {
		sum := decimal.Zero
		for _, price := range item.GarmentPrices {
			if price.IsNegative() {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("item %d: garment price must not be negative", index))
			}
			sum = sum.Add(price)
		}
		return sum, nil
	}

	if item.Quantity <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("item %d: quantity must be positive", index))
	}
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))), nil
}

// GenerateItemID builds a garment code unique within the order: the order's
// display number plus a zero-padded running garment count. Callers serialize
// per order (the order row lock) so concurrent appends cannot collide.
func GenerateItemID(orderNumber int64, existingGarmentCount int) string {
	return fmt.Sprintf("%d-%03d", orderNumber, existingGarmentCount+1)
}
