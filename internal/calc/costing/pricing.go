package costing

import "math"

type PriceOptions struct {
	// Целевая наценка в процентах; игнорируется, если задана ручная цена
	TargetMarginPercent float64
	// Ручная отпускная цена — если задана, она первична, наценка считается от неё
	ManualSellingPrice *float64
	VATRatePercent     float64
}

type PricingBreakdown struct {
	TotalCost     float64 `json:"total_cost"`
	SellingPrice  float64 `json:"selling_price"`
	MarginPercent float64 `json:"margin_percent"`
	VATAmount     float64 `json:"vat_amount"`
	PriceWithVAT  float64 `json:"price_with_vat"`
}

// Price выводит отпускную цену и наценку из себестоимости.
// Денежные значения округляются до копеек только здесь, на выходе.
func Price(totalCost float64, opts PriceOptions) PricingBreakdown {
	var sellingPrice, margin float64

	if opts.ManualSellingPrice != nil {
		sellingPrice = *opts.ManualSellingPrice
		if totalCost > 0 {
			margin = (sellingPrice - totalCost) / totalCost * 100
		}
		// при нулевой себестоимости наценка не определена — отдаём 0, не NaN
	} else {
		sellingPrice = totalCost * (1 + opts.TargetMarginPercent/100)
		margin = opts.TargetMarginPercent
	}

	vatAmount := sellingPrice * opts.VATRatePercent / 100

	return PricingBreakdown{
		TotalCost:     Round2(totalCost),
		SellingPrice:  Round2(sellingPrice),
		MarginPercent: Round2(margin),
		VATAmount:     Round2(vatAmount),
		PriceWithVAT:  Round2(sellingPrice + vatAmount),
	}
}

// Round2 — округление денежных значений до двух знаков.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
