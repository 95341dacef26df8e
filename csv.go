package coursebooks

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// StudentCSVHeader is the header row of the student billing report.
var StudentCSVHeader = []string{"Student Name", "Email", "Course", "Base Fee", "LMS Fee", "GST", "Total Fee", "Invoice Number", "Date"}

// ExpenseCSVHeader is the header row of the expense report.
var ExpenseCSVHeader = []string{"Date", "Category", "Amount", "Notes", "Attachments"}

// Default file names of the CSV reports.
const (
	StudentCSVFilename = "student-billing-report.csv"
	ExpenseCSVFilename = "expense-report.csv"
)

// number formats an amount in its shortest exact form: 5400, 5399.5.
func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteStudentsCSV writes the student billing report, one row per student.
// Fields containing commas, quotes or newlines are quoted.
func WriteStudentsCSV(w io.Writer, students iter.Seq2[int, Student]) (rows int, err error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(StudentCSVHeader); err != nil {
		return 0, fmt.Errorf("cannot write student report: %w", err)
	}
	for _, s := range students {
		err := cw.Write([]string{
			s.Name,
			s.Email,
			s.CourseName,
			number(s.BaseFee),
			number(s.LMSFee),
			number(s.GST),
			number(s.TotalFee),
			s.InvoiceNumber,
			s.Day().String(),
		})
		if err != nil {
			return rows, fmt.Errorf("cannot write student report: %w", err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("cannot write student report: %w", err)
	}
	return rows, nil
}

// WriteExpensesCSV writes the expense report, one row per expense. The
// attachments column holds the number of attachments.
func WriteExpensesCSV(w io.Writer, expenses iter.Seq2[int, Expense]) (rows int, err error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExpenseCSVHeader); err != nil {
		return 0, fmt.Errorf("cannot write expense report: %w", err)
	}
	for _, e := range expenses {
		err := cw.Write([]string{
			e.Date.String(),
			e.Category,
			number(e.Amount),
			e.Notes,
			strconv.Itoa(len(e.Attachments)),
		})
		if err != nil {
			return rows, fmt.Errorf("cannot write expense report: %w", err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("cannot write expense report: %w", err)
	}
	return rows, nil
}
