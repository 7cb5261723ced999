// Package format centralises currency rendering so presentation layers
// never branch on currency codes themselves.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Symbol returns the display symbol for a currency region. USC is a
// platform credit unit, not an ISO currency, so it renders as a plain
// dollar sign.
func Symbol(currency string) string {
	switch currency {
	case "MYR":
		return "RM"
	case "SGD":
		return "S$"
	case "USC":
		return "$"
	default:
		return currency
	}
}

// Amount renders a monetary value with its region symbol and grouped
// thousands, e.g. "RM 1,234,567.89".
func Amount(currency string, value float64) string {
	return Symbol(currency) + " " + printer.Sprintf("%.2f", value)
}

// Percent renders a ratio KPI, e.g. "66.67%".
func Percent(value float64) string {
	return printer.Sprintf("%.2f%%", value)
}
