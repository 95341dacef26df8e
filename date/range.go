package date

import (
	"fmt"
	"iter"
)

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange return the well known period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsZero reports whether r is the zero range, which callers treat as "everything".
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Period return the period of this range if it's a standard one.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From == r.To:
		return Daily, true
	case r.From == r.From.StartOf(Weekly) && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// Name the period range
func (r Range) Name() string {
	if p, ok := r.Period(); ok {
		return p.String()
	}
	return "special"
}

// Identifier compute a unique identifier for the Range.
// If the period is defined, use a short insighful name
func (r Range) Identifier() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", r.From, r.To)
	}

	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		_, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", r.From.Year(), week)
	case Monthly:
		return r.From.Format(MonthFormat)
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	default:
		return r.From.Format("2006")
	}
}

// Months yields the monthly ranges of the n months ending with the month of end, oldest first.
func Months(end Date, n int) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for i := n - 1; i >= 0; i-- {
			if !yield(NewRange(end.AddMonths(-i), Monthly)) {
				return
			}
		}
	}
}
