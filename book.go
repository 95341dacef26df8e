package coursebooks

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/etnz/coursebooks/date"
	log "github.com/sirupsen/logrus"
)

// ErrUnknownStudent is returned when a student cannot be found by id or invoice number.
var ErrUnknownStudent = errors.New("unknown student")

// Book holds the students and expenses of the business, in recording order.
//
// Students are append-only. Expenses can be deleted. Lists are never
// modified in place: every mutation builds a new list and replaces the old
// one.
type Book struct {
	students []Student
	expenses []Expense
	invoices *InvoiceNumbers
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		students: make([]Student, 0),
		expenses: make([]Expense, 0),
		invoices: NewInvoiceNumbers(),
	}
}

// newBookFrom creates a book from persisted lists.
func newBookFrom(students []Student, expenses []Expense) *Book {
	b := &Book{
		students: students,
		expenses: expenses,
		invoices: NewInvoiceNumbers(),
	}
	for _, s := range students {
		if err := b.invoices.Reserve(s.InvoiceNumber); err != nil {
			// legacy books could contain duplicates, they stay as they are.
			log.WithField("student", s.ID).Warnf("duplicate invoice number: %v", err)
		}
	}
	return b
}

// InvoiceNumbers returns the invoice number generator of the book.
func (b *Book) InvoiceNumbers() *InvoiceNumbers { return b.invoices }

// Enroll validates the form, computes the fees with rates and appends the
// new student to the book. The invoice number is one of now's month.
func (b *Book) Enroll(form Enrollment, rates Rates, now time.Time) (Student, error) {
	if err := form.Validate(); err != nil {
		return Student{}, err
	}
	invoice, err := b.invoices.NextAt(now)
	if err != nil {
		return Student{}, fmt.Errorf("cannot issue an invoice number: %w", err)
	}
	bill := rates.Breakdown(form.BaseFee)
	s := Student{
		ID:            newID(),
		Name:          form.Name,
		Email:         form.Email,
		CourseName:    form.CourseName,
		BaseFee:       bill.BaseFee,
		LMSFee:        bill.LMSFee,
		GST:           bill.GST,
		TotalFee:      bill.Total,
		CreatedAt:     now.Truncate(time.Millisecond),
		InvoiceNumber: invoice,
	}
	b.students = append(slices.Clip(b.students), s)
	log.WithFields(log.Fields{"student": s.ID, "invoice": s.InvoiceNumber, "total": s.TotalFee}).Info("student enrolled")
	return s, nil
}

// RecordExpense validates the form and appends the new expense to the book.
func (b *Book) RecordExpense(entry ExpenseEntry, now time.Time) (Expense, error) {
	if err := entry.Validate(); err != nil {
		return Expense{}, err
	}
	e := Expense{
		ID:          newID(),
		Date:        entry.Date,
		Category:    entry.Category,
		Amount:      entry.Amount,
		Notes:       entry.Notes,
		Attachments: slices.Clone(entry.Attachments),
		CreatedAt:   now.Truncate(time.Millisecond),
	}
	b.expenses = append(slices.Clip(b.expenses), e)
	log.WithFields(log.Fields{"expense": e.ID, "category": e.Category, "amount": e.Amount}).Info("expense recorded")
	return e, nil
}

// DeleteExpense removes the expense with this id. The other expenses keep
// their relative order. It returns false if there is no such expense.
func (b *Book) DeleteExpense(id string) bool {
	i := slices.IndexFunc(b.expenses, func(e Expense) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	b.expenses = slices.Delete(slices.Clone(b.expenses), i, i+1)
	log.WithField("expense", id).Info("expense deleted")
	return true
}

// Student returns the student with this id or invoice number.
func (b *Book) Student(key string) (Student, error) {
	for _, s := range b.students {
		if s.ID == key || s.InvoiceNumber == key {
			return s, nil
		}
	}
	return Student{}, fmt.Errorf("%w: %q", ErrUnknownStudent, key)
}

// Expense returns the expense with this id.
func (b *Book) Expense(id string) (Expense, bool) {
	i := slices.IndexFunc(b.expenses, func(e Expense) bool { return e.ID == id })
	if i < 0 {
		return Expense{}, false
	}
	return b.expenses[i], true
}

// Students returns an iterator over the students accepted by all filters, in recording order.
func (b *Book) Students(filters ...func(Student) bool) iter.Seq2[int, Student] {
	return filtered(b.students, filters)
}

// Expenses returns an iterator over the expenses accepted by all filters, in recording order.
func (b *Book) Expenses(filters ...func(Expense) bool) iter.Seq2[int, Expense] {
	return filtered(b.expenses, filters)
}

// NumStudents returns the number of students in the book.
func (b *Book) NumStudents() int { return len(b.students) }

// NumExpenses returns the number of expenses in the book.
func (b *Book) NumExpenses() int { return len(b.expenses) }

func filtered[T any](list []T, filters []func(T) bool) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range list {
			accept := true
			for _, filter := range filters {
				if !filter(v) {
					accept = false
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(i, v) {
				return
			}
		}
	}
}

// Categories returns the expense categories in use, in order of first use.
func (b *Book) Categories() []string {
	var cats []string
	for _, e := range b.expenses {
		if !slices.Contains(cats, e.Category) {
			cats = append(cats, e.Category)
		}
	}
	return cats
}

// TotalRevenue is the sum of the total fees of the selected students.
func (b *Book) TotalRevenue(filters ...func(Student) bool) float64 {
	var sum float64
	for _, s := range b.Students(filters...) {
		sum += s.TotalFee
	}
	return sum
}

// TotalExpenses is the sum of the selected expenses.
func (b *Book) TotalExpenses(filters ...func(Expense) bool) float64 {
	var sum float64
	for _, e := range b.Expenses(filters...) {
		sum += e.Amount
	}
	return sum
}

// NetProfit is the total revenue minus the total expenses.
func (b *Book) NetProfit() float64 { return b.TotalRevenue() - b.TotalExpenses() }

// StudentMatching accepts students whose name, email or course contains term, ignoring case.
func StudentMatching(term string) func(Student) bool {
	term = strings.ToLower(term)
	return func(s Student) bool {
		return strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.Email), term) ||
			strings.Contains(strings.ToLower(s.CourseName), term)
	}
}

// ExpenseMatching accepts expenses whose notes or category contains term, ignoring case.
func ExpenseMatching(term string) func(Expense) bool {
	term = strings.ToLower(term)
	return func(e Expense) bool {
		return strings.Contains(strings.ToLower(e.Notes), term) ||
			strings.Contains(strings.ToLower(e.Category), term)
	}
}

// InCategory accepts expenses of this category. The empty category accepts all.
func InCategory(category string) func(Expense) bool {
	return func(e Expense) bool { return category == "" || e.Category == category }
}

// StudentsIn accepts students enrolled within r. The zero range accepts all.
func StudentsIn(r date.Range) func(Student) bool {
	return func(s Student) bool { return r.IsZero() || r.Contains(s.Day()) }
}

// ExpensesIn accepts expenses dated within r. The zero range accepts all.
func ExpensesIn(r date.Range) func(Expense) bool {
	return func(e Expense) bool { return r.IsZero() || r.Contains(e.Date) }
}
