package coursebooks

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

// invoiceSlots is the number of distinct invoice numbers available in a month.
const invoiceSlots = 1000

// randomDraws is how many random numbers are drawn before scanning for a free one.
const randomDraws = 32

// ErrInvoiceNumbersExhausted is returned when every invoice number of a month has been issued.
var ErrInvoiceNumbersExhausted = errors.New("all invoice numbers for the month are issued")

var invoicePattern = regexp.MustCompile(`^INV-(\d{4})(\d{2})-(\d{3})$`)

// formatInvoiceNumber formats INV-<yyyy><mm>-<nnn>.
func formatInvoiceNumber(year int, month time.Month, seq int) string {
	return fmt.Sprintf("INV-%04d%02d-%03d", year, int(month), seq)
}

// GenerateInvoiceNumber returns an invoice number for the current month with a
// random three digit suffix.
//
// Nothing guarantees it has not been issued before, use InvoiceNumbers for that.
func GenerateInvoiceNumber() string {
	now := time.Now()
	return formatInvoiceNumber(now.Year(), now.Month(), rand.IntN(invoiceSlots))
}

// ParseInvoiceNumber splits an invoice number into its year, month and sequence.
func ParseInvoiceNumber(s string) (year int, month time.Month, seq int, err error) {
	m := invoicePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid invoice number %q, want INV-YYYYMM-NNN", s)
	}
	year, _ = strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 {
		return 0, 0, 0, fmt.Errorf("invalid invoice number %q: month %02d out of range", s, mm)
	}
	seq, _ = strconv.Atoi(m[3])
	return year, time.Month(mm), seq, nil
}

// InvoiceNumbers issues invoice numbers that were never issued before.
//
// Numbers are still random within the month, a collision triggers a new draw.
// After a few unlucky draws the month is scanned for a free number so that
// Next only fails when the month is really full.
type InvoiceNumbers struct {
	issued map[string]bool
	now    func() time.Time
	rand   *rand.Rand
}

// NewInvoiceNumbers returns a generator that will never return one of the issued numbers.
func NewInvoiceNumbers(issued ...string) *InvoiceNumbers {
	g := &InvoiceNumbers{
		issued: make(map[string]bool, len(issued)),
		now:    time.Now,
		rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, n := range issued {
		g.issued[n] = true
	}
	return g
}

// WithClock replaces the wall clock, mostly for tests.
func (g *InvoiceNumbers) WithClock(now func() time.Time) *InvoiceNumbers {
	g.now = now
	return g
}

// WithRand replaces the random source, mostly for tests.
func (g *InvoiceNumbers) WithRand(r *rand.Rand) *InvoiceNumbers {
	g.rand = r
	return g
}

// Issued reports whether the number n has already been issued.
func (g *InvoiceNumbers) Issued(n string) bool { return g.issued[n] }

// Reserve marks n as issued. It fails if n was already issued.
func (g *InvoiceNumbers) Reserve(n string) error {
	if g.issued[n] {
		return fmt.Errorf("invoice number %s already issued", n)
	}
	g.issued[n] = true
	return nil
}

// Next returns a fresh invoice number for the current month and marks it issued.
func (g *InvoiceNumbers) Next() (string, error) { return g.NextAt(g.now()) }

// NextAt returns a fresh invoice number for the month of t and marks it issued.
func (g *InvoiceNumbers) NextAt(t time.Time) (string, error) {
	y, m := t.Year(), t.Month()

	for range randomDraws {
		n := formatInvoiceNumber(y, m, g.rand.IntN(invoiceSlots))
		if !g.issued[n] {
			g.issued[n] = true
			return n, nil
		}
	}

	start := g.rand.IntN(invoiceSlots)
	for i := range invoiceSlots {
		n := formatInvoiceNumber(y, m, (start+i)%invoiceSlots)
		if !g.issued[n] {
			g.issued[n] = true
			return n, nil
		}
	}
	return "", fmt.Errorf("%04d-%02d: %w", y, int(m), ErrInvoiceNumbersExhausted)
}
