package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"google.golang.org/genai"
)

func testBook(t *testing.T) *coursebooks.Book {
	t.Helper()
	b := coursebooks.NewBook()
	at := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	if _, err := b.Enroll(coursebooks.Enrollment{Name: "Asha Rao", Email: "asha@example.com", CourseName: "Go Basics", BaseFee: 25000}, coursebooks.DefaultRates, at); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Enroll(coursebooks.Enrollment{Name: "Vikram Singh", Email: "vikram@example.com", CourseName: "Data Science", BaseFee: 40000}, coursebooks.DefaultRates, at.AddDate(0, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.RecordExpense(coursebooks.ExpenseEntry{Date: date.New(2025, time.January, 2), Category: "Rent", Amount: 20000}, at); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAccountant(t *testing.T) {
	lib := NewLibrary(Accountant(testBook(t), coursebooks.DefaultSettings()))

	testCases := []struct {
		name      string
		args      map[string]any
		want      []string
		wantError bool
	}{
		{name: "summary", args: nil, want: []string{`"totalRevenue":88500`, `"totalExpenses":20000`, `"students":2`}},
		{name: "summary", args: map[string]any{"month": "2025-02"}, want: []string{`"totalRevenue":53100`, `"expenses":0`}},
		{name: "summary", args: map[string]any{"month": "February"}, wantError: true},
		{name: "students", args: map[string]any{"search": "data"}, want: []string{"1 student(s)", "Vikram Singh"}},
		{name: "students", args: map[string]any{"search": 3.0}, wantError: true},
		{name: "expenses", args: map[string]any{"category": "Rent"}, want: []string{"| 2025-01-02 | Rent | ₹20,000 |"}},
		{name: "expenses", args: map[string]any{"category": "Travel"}, want: []string{"No expenses found."}},
		{name: "quote", args: map[string]any{"baseFee": 25000.0}, want: []string{"**₹35,400**", "GST (18%)"}},
		{name: "quote", args: map[string]any{"baseFee": "a lot"}, wantError: true},
		{name: "documentation", args: map[string]any{"topic": "invoices"}, want: []string{"INV-YYYYMM-NNN"}},
		{name: "documentation", args: map[string]any{"topic": "payroll"}, wantError: true},
		{name: "unknown", args: nil, wantError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: tc.name, Args: tc.args})
			if resp.ID != "1" || resp.Name != tc.name {
				t.Errorf("response id/name = %q/%q, want 1/%q", resp.ID, resp.Name, tc.name)
			}
			if _, isError := resp.Response["error"]; isError != tc.wantError {
				t.Fatalf("response = %v, want error %v", resp.Response, tc.wantError)
			}
			if tc.wantError {
				return
			}
			out, _ := resp.Response["output"].(string)
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("output does not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestDeclarations(t *testing.T) {
	decls := NewDeclaration(Accountant(coursebooks.NewBook(), coursebooks.DefaultSettings()))
	var names []string
	for _, d := range decls {
		names = append(names, d.Name)
	}
	if got, want := strings.Join(names, ","), "summary,students,expenses,quote,documentation"; got != want {
		t.Errorf("declarations = %s, want %s", got, want)
	}
}
