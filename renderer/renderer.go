// Package renderer turns the book reports into markdown documents, and
// markdown into HTML or styled terminal output.
package renderer

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"currency": coursebooks.FormatCurrency,
	"day":      func(t time.Time) string { return date.Of(t).String() },
	"percent":  func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "%" },
	"cell":     cell,
	"onoff":    onoff,
	"inc":      func(i int) int { return i + 1 },
	"title":    rangeTitle,
}

// parsed holds every template, partials included, keyed by file name.
var parsed = template.Must(template.New("").Funcs(funcs).ParseFS(templates, "templates/*.md"))

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func onoff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// rangeTitle names a report period: "January 2025", "2025-Q1", "All Time", "2025-01-01 to 2025-01-15".
func rangeTitle(r date.Range) string {
	if r.IsZero() {
		return "All Time"
	}
	p, ok := r.Period()
	switch {
	case ok && p == date.Daily:
		return r.From.String()
	case ok && p == date.Weekly:
		return "Week " + r.Identifier()
	case ok && p == date.Monthly:
		return r.From.Format("January 2006")
	case ok && p == date.Quarterly:
		return r.Identifier()
	case ok && p == date.Yearly:
		return r.From.Format("2006")
	default:
		return fmt.Sprintf("%s to %s", r.From, r.To)
	}
}

// renderTemplate executes one of the embedded templates.
func renderTemplate(file string, data any) string {
	var b strings.Builder
	if err := parsed.ExecuteTemplate(&b, file, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", file, err)
	}
	return b.String()
}

// Quote is a billing preview.
type Quote struct {
	coursebooks.Breakdown
	GSTRate float64
}

// RenderQuote renders the fee breakdown of a course before enrollment.
func RenderQuote(q Quote) string { return renderTemplate("quote.md", q) }

// RenderDashboard renders the overview of the book.
func RenderDashboard(company string, d coursebooks.Dashboard) string {
	return renderTemplate("dashboard.md", struct {
		Company string
		coursebooks.Dashboard
	}{company, d})
}

// RenderStudents renders the student list with its fee breakdown.
func RenderStudents(students []coursebooks.Student) string {
	var total float64
	for _, s := range students {
		total += s.TotalFee
	}
	return renderTemplate("students.md", struct {
		Students []coursebooks.Student
		Total    float64
	}{students, total})
}

// RenderStudent renders the details of a student and their invoice.
func RenderStudent(s coursebooks.Student) string { return renderTemplate("student.md", s) }

// RenderExpenses renders the expense list.
func RenderExpenses(expenses []coursebooks.Expense) string {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return renderTemplate("expenses.md", struct {
		Expenses []coursebooks.Expense
		Total    float64
	}{expenses, total})
}

// RenderExpense renders the details of an expense.
func RenderExpense(e coursebooks.Expense) string { return renderTemplate("expense.md", e) }

// RenderAudit renders the audit report of a period.
func RenderAudit(a coursebooks.Audit) string { return renderTemplate("audit.md", a) }

// RenderSettings renders the business settings.
func RenderSettings(s coursebooks.Settings) string { return renderTemplate("settings.md", s) }
