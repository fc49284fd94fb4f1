// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user text
// and the payroll deduction applied to incoming salary.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to a positive amount with two decimal
// places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Returns ErrInvalidAmount for invalid
// formats, signed values or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ApplyDeduction returns gross minus rate percent, rounded to cents.
func ApplyDeduction(gross, ratePercent decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(ratePercent).Div(hundred)
	return gross.Mul(factor).Round(2)
}

// FormatAmount renders an amount with exactly two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
