package view

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders a USD amount with grouping and exactly two decimals, e.g. "$93,759.48".
func FormatPrice(price float64) string {
	cur := money.New(0, money.USD).Currency()
	cents := decimal.NewFromFloat(price).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatPercent renders a change such as "-1.20%".
func FormatPercent(change float64) string {
	return formatNumber(change, 2) + "%"
}

// FormatBillions renders market cap and volume, e.g. "$1,861.6B".
func FormatBillions(v float64) string {
	return "$" + formatNumber(v/1e9, 1) + "B"
}

// FormatMillions renders a supply already expressed in millions, e.g. "19.85M".
func FormatMillions(v float64) string {
	return formatNumber(v, 2) + "M"
}

func formatNumber(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}
