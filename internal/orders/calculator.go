package orders

import (
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// CalcItem is one line of an order as the calculator sees it.
type CalcItem struct {
	Quantity     int
	UnitPrice    decimal.Decimal
	UnitBuyPrice decimal.Decimal
}

// CalcConfig is the discount/VAT/previous-due configuration of an order.
type CalcConfig struct {
	DiscountType            enums.DiscountType
	DiscountPercentage      decimal.Decimal
	DiscountFlatAmount      decimal.Decimal
	VATPercentage           decimal.Decimal
	ApplyPreviousDueToTotal bool
	PreviousDue             decimal.Decimal
	IncentiveAmount         decimal.Decimal
}

// Totals holds every derived monetary figure of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	AfterDiscount  decimal.Decimal
	VATAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	TotalBuyPrice  decimal.Decimal
	GrossProfit    decimal.Decimal
	NetProfit      decimal.Decimal
}

// CalculateTotals derives all order totals from the line items and config.
// It is a pure function: running it again with unchanged inputs produces
// identical outputs, so it can be re-run freely whenever items or config
// change. A flat discount larger than the subtotal is intentionally not
// clamped; the total can go negative and validation stays with the caller.
func CalculateTotals(items []CalcItem, cfg CalcConfig) Totals {
	subtotal := decimal.Zero
	totalBuy := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
		totalBuy = totalBuy.Add(item.UnitBuyPrice.Mul(qty))
	}
	subtotal = subtotal.Round(2)
	totalBuy = totalBuy.Round(2)

	var discount decimal.Decimal
	switch cfg.DiscountType {
	case enums.DiscountTypeFlat:
		discount = cfg.DiscountFlatAmount
	default:
		discount = subtotal.Mul(cfg.DiscountPercentage).Div(oneHundred)
	}
	discount = discount.Round(2)

	afterDiscount := subtotal.Sub(discount)
	vat := afterDiscount.Mul(cfg.VATPercentage).Div(oneHundred).Round(2)

	total := afterDiscount.Add(vat)
	if cfg.ApplyPreviousDueToTotal {
		total = total.Add(cfg.PreviousDue)
	}

	// Profit excludes any carried-forward previous due: it measures this
	// order's sale value against its cost basis.
	gross := afterDiscount.Add(vat).Sub(totalBuy)
	net := gross.Sub(cfg.IncentiveAmount)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		AfterDiscount:  afterDiscount,
		VATAmount:      vat,
		TotalAmount:    total.Round(2),
		TotalBuyPrice:  totalBuy,
		GrossProfit:    gross.Round(2),
		NetProfit:      net.Round(2),
	}
}
