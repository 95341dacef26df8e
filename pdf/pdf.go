// Package pdf prints invoices and audit reports as A4 PDF documents.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"github.com/jung-kurt/gofpdf"
)

// AuditFilename is the default file name of the audit report.
const AuditFilename = "Monthly-Audit-Report.pdf"

// AuditFilenameFor is the default file name of the audit report of r,
// e.g. "Audit-2025-Q1.pdf". The whole book uses AuditFilename.
func AuditFilenameFor(r date.Range) string {
	if r.IsZero() {
		return AuditFilename
	}
	return fmt.Sprintf("Audit-%s.pdf", r.Identifier())
}

// pageBottom is the lowest baseline, in mm, before a new page is started.
const pageBottom = 270

// InvoiceFilename is the file name of a student invoice.
func InvoiceFilename(s coursebooks.Student) string {
	return fmt.Sprintf("Invoice-%s.pdf", s.InvoiceNumber)
}

// amount formats money for the core fonts, which have no rupee glyph.
func amount(v float64) string {
	return strings.Replace(coursebooks.FormatCurrency(v), "₹", "Rs. ", 1)
}

type document struct {
	*gofpdf.Fpdf
	tr func(string) string
}

func newDocument() *document {
	f := gofpdf.New("P", "mm", "A4", "")
	f.SetAutoPageBreak(false, 0)
	f.AddPage()
	return &document{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

// text writes s with its baseline at (x, y).
func (d *document) text(x, y float64, s string) { d.Text(x, y, d.tr(s)) }

func (d *document) title(s string) {
	d.SetFont("Helvetica", "", 20)
	d.SetTextColor(37, 99, 235)
	d.text(20, 30, s)
	d.SetFont("Helvetica", "", 12)
	d.SetTextColor(0, 0, 0)
}

func (d *document) output(w io.Writer) error {
	if err := d.Output(w); err != nil {
		return fmt.Errorf("cannot write pdf: %w", err)
	}
	return nil
}

// invoice lays out the invoice of s.
func invoice(s coursebooks.Student, company string, gstRate float64) *document {
	d := newDocument()
	d.title(company)
	d.text(20, 45, "Invoice")

	d.text(20, 60, "Invoice #: "+s.InvoiceNumber)
	d.text(20, 70, "Date: "+s.Day().String())

	d.text(20, 90, "Bill To:")
	d.text(20, 100, s.Name)
	d.text(20, 110, s.Email)

	d.text(20, 130, "Course Details:")
	d.text(20, 140, "Course: "+s.CourseName)

	y := 160.0
	d.text(20, y, "Billing Breakdown:")
	y += 15
	lines := []string{
		"Course Fee: " + amount(s.BaseFee),
		"LMS Fee: " + amount(s.LMSFee),
		"Subtotal: " + amount(s.Subtotal()),
		fmt.Sprintf("GST (%g%%): %s", gstRate, amount(s.GST)),
	}
	for _, l := range lines {
		d.text(20, y, l)
		y += 10
	}
	y += 5

	d.SetFont("Helvetica", "B", 14)
	d.text(20, y, "Total Amount: "+amount(s.TotalFee))

	d.SetFont("Helvetica", "", 10)
	d.text(20, 280, "Thank you for choosing our training courses!")
	return d
}

// Invoice writes the invoice of s. gstRate is only used in the GST label,
// amounts are the ones recorded on the student.
func Invoice(w io.Writer, s coursebooks.Student, company string, gstRate float64) error {
	return invoice(s, company, gstRate).output(w)
}

// audit lays out the audit report of a.
func audit(a coursebooks.Audit, generated date.Date) *document {
	d := newDocument()
	d.title("Monthly Audit Report")
	d.text(20, 45, "Generated on: "+generated.String())
	if !a.Range.IsZero() {
		d.text(20, 55, fmt.Sprintf("Period: %s to %s", a.Range.From, a.Range.To))
	}

	y := 70.0
	d.SetFontSize(16)
	d.text(20, y, "Financial Summary")
	y += 20
	d.SetFontSize(12)
	d.text(20, y, "Total Revenue: "+amount(a.TotalRevenue))
	y += 10
	d.text(20, y, "Total Expenses: "+amount(a.TotalExpenses))
	y += 10
	d.text(20, y, "Net Profit: "+amount(a.NetProfit))

	y += 30
	d.SetFontSize(16)
	d.text(20, y, "Student Billing Breakdown")
	y += 15
	d.SetFontSize(10)
	for i, s := range a.Enrollments {
		if y > pageBottom {
			d.AddPage()
			y = 20
		}
		d.text(20, y, fmt.Sprintf("%d. %s - %s: %s", i+1, s.Name, s.CourseName, amount(s.TotalFee)))
		y += 8
	}
	return d
}

// Audit writes the audit report of a, generated on the given day.
func Audit(w io.Writer, a coursebooks.Audit, generated date.Date) error {
	return audit(a, generated).output(w)
}
