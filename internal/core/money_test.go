package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"12.344", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestApplyDeduction(t *testing.T) {
	cases := []struct {
		gross, rate, want string
	}{
		{"1000", "11.37", "886.3"},
		{"100", "0", "100"},
		{"100", "100", "0"},
		{"33.33", "10", "30"},
	}
	for _, tc := range cases {
		got := ApplyDeduction(decimal.RequireFromString(tc.gross), decimal.RequireFromString(tc.rate))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ApplyDeduction(%s, %s) = %s, want %s", tc.gross, tc.rate, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("12.5")); got != "12.50" {
		t.Fatalf("expected 12.50, got %s", got)
	}
	if got := FormatAmount(decimal.RequireFromString("-3")); got != "-3.00" {
		t.Fatalf("expected -3.00, got %s", got)
	}
}
