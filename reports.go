package coursebooks

import (
	"cmp"
	"slices"
	"time"

	"github.com/etnz/coursebooks/date"
)

// Summary holds the headline figures of a set of records.
type Summary struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalExpenses float64 `json:"totalExpenses"`
	NetProfit     float64 `json:"netProfit"`
	Students      int     `json:"students"`
	Expenses      int     `json:"expenses"`
}

// CategoryAmount is the amount spent in an expense category.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Audit is the financial report of a period.
type Audit struct {
	Range       date.Range       `json:"-"`
	Summary                      // totals of the period
	Enrollments []Student        `json:"-"` // students enrolled in the period
	ByCategory  []CategoryAmount `json:"byCategory"`
}

// MonthlyAudit is the audit of a calendar month.
type MonthlyAudit struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Audit
}

// Label is the short month name used in charts, e.g. "Jan".
func (m MonthlyAudit) Label() string { return m.Month.String()[:3] }

// Summary returns the headline figures of the whole book.
func (b *Book) Summary() Summary {
	return b.Audit(date.Range{}).Summary
}

// Audit reports on students enrolled and expenses dated within r.
// The zero range covers the whole book.
func (b *Book) Audit(r date.Range) Audit {
	a := Audit{Range: r, Enrollments: make([]Student, 0)}
	for _, s := range b.Students(StudentsIn(r)) {
		a.Enrollments = append(a.Enrollments, s)
		a.TotalRevenue += s.TotalFee
	}
	byCategory := make(map[string]float64)
	for _, e := range b.Expenses(ExpensesIn(r)) {
		a.Expenses++
		a.TotalExpenses += e.Amount
		byCategory[e.Category] += e.Amount
	}
	a.Students = len(a.Enrollments)
	a.NetProfit = a.TotalRevenue - a.TotalExpenses

	a.ByCategory = make([]CategoryAmount, 0, len(byCategory))
	for cat, amount := range byCategory {
		a.ByCategory = append(a.ByCategory, CategoryAmount{Category: cat, Amount: amount})
	}
	// biggest spending first
	slices.SortFunc(a.ByCategory, func(x, y CategoryAmount) int {
		if c := cmp.Compare(y.Amount, x.Amount); c != 0 {
			return c
		}
		return cmp.Compare(x.Category, y.Category)
	})
	return a
}

// MonthlyAudits returns the audits of the n months ending with end's month, oldest first.
// A negative n gives no audits.
func (b *Book) MonthlyAudits(end date.Date, n int) []MonthlyAudit {
	audits := make([]MonthlyAudit, 0, max(n, 0))
	for r := range date.Months(end, n) {
		audits = append(audits, MonthlyAudit{
			Year:  r.From.Year(),
			Month: r.From.Month(),
			Audit: b.Audit(r),
		})
	}
	return audits
}

// Dashboard is the overview of the book.
type Dashboard struct {
	Summary
	ByCategory     []CategoryAmount // whole book, biggest first
	Months         []MonthlyAudit
	RecentStudents []Student // most recent last
	RecentExpenses []Expense // most recent last
}

// Number of recent records shown on the dashboard.
const (
	RecentStudents = 5
	RecentExpenses = 3
)

// Dashboard returns the overview of the book with the monthly figures of
// the n months ending with end's month.
func (b *Book) Dashboard(end date.Date, months int) Dashboard {
	all := b.Audit(date.Range{})
	return Dashboard{
		Summary:        all.Summary,
		ByCategory:     all.ByCategory,
		Months:         b.MonthlyAudits(end, months),
		RecentStudents: last(b.students, RecentStudents),
		RecentExpenses: last(b.expenses, RecentExpenses),
	}
}

// last returns a copy of the last n elements of list.
func last[T any](list []T, n int) []T {
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return slices.Clone(list)
}
