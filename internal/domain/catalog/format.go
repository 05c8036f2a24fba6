package catalog

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders a price with a dollar sign, grouping and two decimals
func FormatPrice(price decimal.Decimal) string {
	return pricePrinter.Sprintf("$%.2f", price.Round(2).InexactFloat64())
}
