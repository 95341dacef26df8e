package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
)

var at = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func enroll(t *testing.T, b *coursebooks.Book, name string, fee float64) coursebooks.Student {
	t.Helper()
	s, err := b.Enroll(coursebooks.Enrollment{Name: name, Email: "student@example.com", CourseName: "Go Basics", BaseFee: fee}, coursebooks.DefaultRates, at)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// content renders d uncompressed so that its text can be searched.
func content(t *testing.T, d *document) string {
	t.Helper()
	d.SetCompression(false)
	var buf bytes.Buffer
	if err := d.output(&buf); err != nil {
		t.Fatalf("output() unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Fatalf("output is not a PDF: %q", buf.String()[:min(20, buf.Len())])
	}
	return buf.String()
}

func TestInvoice(t *testing.T) {
	s := enroll(t, coursebooks.NewBook(), "Asha Rao", 25000)
	got := content(t, invoice(s, "Acme Training", 18))
	for _, want := range []string{
		"Acme Training",
		"Invoice #: " + s.InvoiceNumber,
		"Date: 2025-01-15",
		"Course Fee: Rs. 25,000",
		"Subtotal: Rs. 30,000",
		"GST \\(18%\\): Rs. 5,400",
		"Total Amount: Rs. 35,400",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("invoice does not contain %q", want)
		}
	}

	if got, want := InvoiceFilename(s), "Invoice-"+s.InvoiceNumber+".pdf"; got != want {
		t.Errorf("InvoiceFilename() = %q, want %q", got, want)
	}

	var buf bytes.Buffer
	if err := Invoice(&buf, s, "Acme Training", 18); err != nil {
		t.Fatalf("Invoice() unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("Invoice() did not write a PDF")
	}
}

func TestAudit(t *testing.T) {
	testCases := []struct {
		students int
		pages    int
	}{
		{0, 1},
		{10, 1},
		{40, 2},
		{100, 4},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.students), func(t *testing.T) {
			b := coursebooks.NewBook()
			for i := range tc.students {
				enroll(t, b, fmt.Sprintf("Student %d", i+1), 10000)
			}
			d := audit(b.Audit(date.NewRange(date.Of(at), date.Monthly)), date.New(2025, time.February, 1))
			if got := d.PageCount(); got != tc.pages {
				t.Errorf("audit of %d students has %d pages, want %d", tc.students, got, tc.pages)
			}
			got := content(t, d)
			for _, want := range []string{"Monthly Audit Report", "Generated on: 2025-02-01", "Period: 2025-01-01 to 2025-01-31"} {
				if !strings.Contains(got, want) {
					t.Errorf("audit does not contain %q", want)
				}
			}
			if tc.students > 0 {
				last := fmt.Sprintf("%d. Student %d - Go Basics: Rs. 17,700", tc.students, tc.students)
				if !strings.Contains(got, last) {
					t.Errorf("audit does not contain %q", last)
				}
			}
		})
	}
}

func TestAuditFilenameFor(t *testing.T) {
	on := date.New(2025, time.February, 20)
	testCases := []struct {
		r    date.Range
		want string
	}{
		{date.Range{}, AuditFilename},
		{date.NewRange(on, date.Daily), "Audit-2025-02-20.pdf"},
		{date.NewRange(on, date.Weekly), "Audit-2025-W08.pdf"},
		{date.NewRange(on, date.Monthly), "Audit-2025-02.pdf"},
		{date.NewRange(on, date.Quarterly), "Audit-2025-Q1.pdf"},
		{date.NewRange(on, date.Yearly), "Audit-2025.pdf"},
	}
	for _, tc := range testCases {
		if got := AuditFilenameFor(tc.r); got != tc.want {
			t.Errorf("AuditFilenameFor(%v) = %q, want %q", tc.r, got, tc.want)
		}
	}
}
