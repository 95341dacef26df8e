package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"github.com/etnz/coursebooks/pdf"
	"github.com/etnz/coursebooks/renderer"
	"github.com/google/subcommands"
)

// monthRange parses an optional YYYY-MM flag. The empty month is the whole book.
func monthRange(month string) (date.Range, error) {
	if month == "" {
		return date.Range{}, nil
	}
	d, err := date.ParseMonth(month)
	if err != nil {
		return date.Range{}, err
	}
	return date.NewRange(d, date.Monthly), nil
}

type quoteCmd struct {
	fee float64
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "preview the fees of a course" }
func (*quoteCmd) Usage() string {
	return `cbk quote -fee <amount>

  Displays the billing breakdown of a course: course fee, LMS fee, subtotal,
  GST and total, with the current settings.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.fee, "fee", 0, "Course fee in rupees.")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.fee < 0 {
		fmt.Fprintf(os.Stderr, "Error: fee must be positive, got %v\n", c.fee)
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	rates := b.settings.Rates()
	printMarkdown(renderer.RenderQuote(renderer.Quote{Breakdown: rates.Breakdown(c.fee), GSTRate: rates.GSTRate}))
	return subcommands.ExitSuccess
}

type enrollCmd struct {
	name   string
	email  string
	course string
	fee    float64
}

func (*enrollCmd) Name() string     { return "enroll" }
func (*enrollCmd) Synopsis() string { return "enroll a student and issue their invoice" }
func (*enrollCmd) Usage() string {
	return `cbk enroll -name <name> -email <email> -course <course> -fee <amount>

  Records a new student. The LMS fee and GST are computed from the current
  settings and an invoice number is issued.
`
}

func (c *enrollCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Student name.")
	f.StringVar(&c.email, "email", "", "Student email address.")
	f.StringVar(&c.course, "course", "", "Course name.")
	f.Float64Var(&c.fee, "fee", 0, "Course fee in rupees.")
}

func (c *enrollCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	form := coursebooks.Enrollment{Name: c.name, Email: c.email, CourseName: c.course, BaseFee: c.fee}
	s, err := b.book.Enroll(form, b.settings.Rates(), now())
	if err != nil {
		return exitStatus("enrolling student", err)
	}
	if err := b.save(ctx); err != nil {
		return exitStatus("saving", err)
	}
	printMarkdown(renderer.RenderStudent(s))
	return subcommands.ExitSuccess
}

type studentsCmd struct {
	query string
	month string
}

func (*studentsCmd) Name() string     { return "students" }
func (*studentsCmd) Synopsis() string { return "list the enrolled students" }
func (*studentsCmd) Usage() string {
	return `cbk students [-q <search>] [-month <YYYY-MM>]

  Lists the students with their fee breakdown, in enrollment order.
`
}

func (c *studentsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "Only students whose name, email or course contains this text.")
	f.StringVar(&c.month, "month", "", "Only students enrolled this month.")
}

func (c *studentsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := monthRange(c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing month: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	var list []coursebooks.Student
	for _, s := range b.book.Students(coursebooks.StudentMatching(c.query), coursebooks.StudentsIn(r)) {
		list = append(list, s)
	}
	printMarkdown(renderer.RenderStudents(list))
	return subcommands.ExitSuccess
}

type studentCmd struct{}

func (*studentCmd) Name() string     { return "student" }
func (*studentCmd) Synopsis() string { return "display a student and their invoice" }
func (*studentCmd) Usage() string {
	return `cbk student <id or invoice number>

  Displays the details and the fee breakdown of a student.
`
}

func (*studentCmd) SetFlags(*flag.FlagSet) {}

func (c *studentCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: student requires exactly one id or invoice number")
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	s, err := b.book.Student(f.Arg(0))
	if err != nil {
		return exitStatus("finding student", err)
	}
	printMarkdown(renderer.RenderStudent(s))
	return subcommands.ExitSuccess
}

type invoiceCmd struct {
	output  string
	company string
}

func (*invoiceCmd) Name() string     { return "invoice" }
func (*invoiceCmd) Synopsis() string { return "print the invoice of a student as PDF" }
func (*invoiceCmd) Usage() string {
	return `cbk invoice [-o <file>] [-company <name>] <id or invoice number>

  Writes the PDF invoice of a student, by default to Invoice-<invoice number>.pdf.
`
}

func (c *invoiceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to Invoice-<invoice number>.pdf.")
	f.StringVar(&c.company, "company", "", "Company name in the invoice header. Defaults to $CBK_COMPANY.")
}

func (c *invoiceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: invoice requires exactly one id or invoice number")
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	s, err := b.book.Student(f.Arg(0))
	if err != nil {
		return exitStatus("finding student", err)
	}
	company := c.company
	if company == "" {
		company = cfg.Company
	}
	output := c.output
	if output == "" {
		output = pdf.InvoiceFilename(s)
	}

	// the GST rate label follows the recorded amounts, settings may have changed since.
	rate := b.settings.GSTRate
	if sub := s.Subtotal(); sub != 0 {
		rate = math.Round(s.GST/sub*10000) / 100
	}
	if err := writeFile(output, func(w io.Writer) error { return pdf.Invoice(w, s, company, rate) }); err != nil {
		return exitStatus("writing invoice", err)
	}
	fmt.Fprintf(stdout, "Invoice %s written to %s\n", s.InvoiceNumber, output)
	return subcommands.ExitSuccess
}

// writeFile creates filename and writes it with write. A file that could not
// be fully written is removed.
func writeFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(filename)
		return err
	}
	return nil
}
