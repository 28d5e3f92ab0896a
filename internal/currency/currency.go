// Package currency converts stored USD amounts into a user's display
// currency and formats prices for presentation.
//
// Collection values (market prices, purchase prices) are stored in USD and
// converted on the way out. Marketplace listing prices are the exception:
// they are authored and stored directly in PHP and are never converted.
package currency

import (
	"github.com/Rhymond/go-money"
)

// Currency is a user's display currency preference.
type Currency string

const (
	USD Currency = "USD"
	PHP Currency = "PHP"
)

// DefaultUSDToPHP is the fixed conversion rate applied to stored USD values.
const DefaultUSDToPHP = 56.5

// Valid reports whether c is a supported display currency.
func (c Currency) Valid() bool {
	return c == USD || c == PHP
}

// Convert converts a stored USD amount to the target display currency.
// USD amounts pass through unchanged.
func Convert(amountUSD float64, target Currency, rate float64) float64 {
	if target == PHP {
		return amountUSD * rate
	}
	return amountUSD
}

// FormatPrice renders an amount already denominated in c, with the currency
// symbol, thousands separators, and two decimal places.
func FormatPrice(amount float64, c Currency) string {
	code := money.USD
	if c == PHP {
		code = money.PHP
	}
	return money.NewFromFloat(amount, code).Display()
}

// ProfitLoss returns the converted gain or loss for a holding: current
// market value minus purchase cost, both converted to the target currency.
func ProfitLoss(marketUSD, purchaseUSD float64, quantity int, target Currency, rate float64) float64 {
	market := Convert(marketUSD, target, rate) * float64(quantity)
	cost := Convert(purchaseUSD, target, rate) * float64(quantity)
	return market - cost
}

// ProfitLossPercent returns the percentage gain or loss against the
// converted purchase cost. The second return is false when the purchase
// cost is zero and the percentage is undefined; callers guard the display.
func ProfitLossPercent(marketUSD, purchaseUSD float64, quantity int, target Currency, rate float64) (float64, bool) {
	cost := Convert(purchaseUSD, target, rate) * float64(quantity)
	if cost == 0 {
		return 0, false
	}
	return ProfitLoss(marketUSD, purchaseUSD, quantity, target, rate) / cost * 100, true
}
