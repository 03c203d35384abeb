// Package format renders amounts, percentages and timestamps for display.
package format

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders a USD amount. Amounts below one cent keep six
// decimals and amounts below one dollar keep four, so small prices stay readable.
func FormatCurrency(amount float64) string {
	return FormatCurrencyIn(amount, money.USD)
}

// FormatCurrencyIn is FormatCurrency for any ISO 4217 code go-money knows.
// Unknown codes fall back to USD.
func FormatCurrencyIn(amount float64, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}

	d := decimal.NewFromFloat(amount)
	switch {
	case d.IsZero():
		return money.New(0, cur.Code).Display()
	case amount < 0.01:
		return cur.Grapheme + d.StringFixed(6)
	case amount < 1:
		return cur.Grapheme + d.StringFixed(4)
	}

	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatPercentage renders a signed percentage with two decimals, e.g. "+1.23%".
func FormatPercentage(pct float64) string {
	d := decimal.NewFromFloat(pct)
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

// FormatTime renders epoch milliseconds as a wall clock time in loc.
func FormatTime(epochMillis int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(epochMillis).In(loc).Format("15:04:05")
}
