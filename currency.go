package coursebooks

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	xnumber "golang.org/x/text/number"
)

// Digit grouping: thousands then lakhs and crores for INR, groups of three otherwise.
var (
	indian  = message.NewPrinter(language.MustParse("en-IN"))
	western = message.NewPrinter(language.English)
)

// Currency is the currency of the book.
const Currency = money.INR

// FormatCurrency renders amount in rupees with no decimals and Indian digit
// grouping, e.g. "₹1,23,456" or "-₹5,000".
func FormatCurrency(amount float64) string {
	return FormatAmount(amount, Currency)
}

// FormatAmount renders amount in the given currency with no decimals.
//
// The symbol and its placement come from the go-money currency table. INR
// amounts use the Indian grouping (thousands, then lakhs and crores), other
// currencies are grouped by three.
func FormatAmount(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		cur = money.GetCurrency(Currency)
	}

	var digits string
	switch {
	case math.IsNaN(amount):
		digits = "NaN"
	case math.IsInf(amount, 0):
		digits = "∞"
	default:
		// decimal rounds half away from zero, like the browser formatter.
		rounded := decimal.NewFromFloat(math.Abs(amount)).Round(0).InexactFloat64()
		p := western
		if cur.Code == money.INR {
			p = indian
		}
		digits = p.Sprint(xnumber.Decimal(rounded, xnumber.MaxFractionDigits(0)))
		if cur.Thousand != "," {
			digits = strings.ReplaceAll(digits, ",", cur.Thousand)
		}
	}

	s := strings.Replace(cur.Template, "1", digits, 1)
	s = strings.Replace(s, "$", cur.Grapheme, 1)
	if math.Signbit(amount) && !math.IsNaN(amount) {
		s = "-" + s
	}
	return s
}
