package coursebooks

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, "₹0"},
		{7, "₹7"},
		{999, "₹999"},
		{5400, "₹5,400"},
		{35400, "₹35,400"},
		{100000, "₹1,00,000"},
		{12345678, "₹1,23,45,678"},
		{1000000000, "₹1,00,00,00,000"},
		{999.5, "₹1,000"},
		{5399.49, "₹5,399"},
		{2.5, "₹3"},
		{-5000, "-₹5,000"},
		{-1234567.8, "-₹12,34,568"},
		{math.NaN(), "₹NaN"},
		{math.Inf(1), "₹∞"},
	}
	for _, tc := range testCases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got, want := FormatAmount(1234567, "USD"), "$1,234,567"; got != want {
		t.Errorf("FormatAmount(USD) = %q, want %q", got, want)
	}
	if got, want := FormatAmount(100000, "USD"), "$100,000"; got != want {
		t.Errorf("FormatAmount(USD) = %q, want %q", got, want)
	}
	// unknown currencies fall back to the book currency
	if got, want := FormatAmount(1234567, "???"), "₹12,34,567"; got != want {
		t.Errorf("FormatAmount(???) = %q, want %q", got, want)
	}
}
