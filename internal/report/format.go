package report

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"VND": "₫",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatCurrency renders an amount with its symbol. VND has no minor unit and puts
// the symbol last.
func FormatCurrency(value float64, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	if currency == "VND" {
		return humanize.FormatFloat("#,###.", value) + " " + symbol
	}
	return symbol + humanize.FormatFloat("#,###.##", value)
}

// FormatNumber renders a plain figure with two decimals and thousands separators.
func FormatNumber(value float64) string {
	return humanize.FormatFloat("#,###.##", value)
}

// FormatRate renders an exchange rate with four decimals.
func FormatRate(value float64) string {
	return humanize.FormatFloat("#,###.####", value)
}

// FormatPercentage renders a signed percentage.
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

func formatValue(display, currency string, value float64) string {
	switch display {
	case "currency":
		return FormatCurrency(value, currency)
	case "rate":
		return FormatRate(value)
	default:
		return FormatNumber(value)
	}
}
