// Package core provides money parsing and formatting utilities.
//
// This file contains functions for parsing user supplied amounts and
// rendering per-currency totals for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type currencyFormat struct {
	symbol         string
	fractionDigits int32
}

var currencyFormats = map[Currency]currencyFormat{
	USD: {"$", 2},
	INR: {"₹", 2},
	EUR: {"€", 2},
	GBP: {"£", 2},
	JPY: {"¥", 0},
	CAD: {"CA$", 2},
	AUD: {"A$", 2},
	CHF: {"CHF ", 2},
	CNY: {"CN¥", 2},
	SGD: {"S$", 2},
}

// FractionDigits returns how many decimals are displayed for the currency.
func (c Currency) FractionDigits() int32 {
	if f, ok := currencyFormats[c.OrDefault()]; ok {
		return f.fractionDigits
	}
	return 2
}

// Symbol returns the display prefix for the currency.
func (c Currency) Symbol() string {
	if f, ok := currencyFormats[c.OrDefault()]; ok {
		return f.symbol
	}
	return string(c) + " "
}

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs, exponents, zero and malformed input are rejected.
//
// Examples:
//
//	ParseAmount("4.50")  -> 4.5, nil
//	ParseAmount("4,50")  -> 4.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatMoney renders an amount with the currency symbol, thousands
// separators and the currency's fraction digits (e.g. "$1,234.50", "¥1,235").
func FormatMoney(amount decimal.Decimal, c Currency) string {
	c = c.OrDefault()
	fixed := amount.Abs().StringFixed(c.FractionDigits())

	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")
	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(c.Symbol())
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
