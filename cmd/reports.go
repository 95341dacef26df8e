package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/agent"
	"github.com/etnz/coursebooks/date"
	"github.com/etnz/coursebooks/pdf"
	"github.com/etnz/coursebooks/renderer"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

type dashboardCmd struct {
	months int
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display the business overview" }
func (*dashboardCmd) Usage() string {
	return `cbk dashboard [-months <n>]

  Displays the totals, the revenue and expenses of the last months, the
  expenses by category and the recent activity.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "months", 6, "Number of months in the revenue vs expenses table.")
}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.months < 1 {
		fmt.Fprintf(os.Stderr, "Error: months must be at least 1, got %d\n", c.months)
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	printMarkdown(renderer.RenderDashboard(cfg.Company, b.book.Dashboard(date.Of(now()), c.months)))
	return subcommands.ExitSuccess
}

type auditCmd struct {
	month  string
	period string
	on     string
	output string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "print the audit report as PDF" }
func (*auditCmd) Usage() string {
	return `cbk audit [-month <YYYY-MM> | -period <period> [-on <date>]] [-o <file>]

  Displays the audit report, totals and per student billing, and writes it
  as PDF. Without -month or -period the report covers the whole book.

  -period day|week|month|quarter|year selects the period containing the
  date given with -on, today by default.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Only this month (YYYY-MM).")
	f.StringVar(&c.period, "period", "", "Only this period: day, week, month, quarter or year.")
	f.StringVar(&c.on, "on", "", "A date in the period (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.output, "o", "", "Output PDF file, '-' to skip it. Defaults to Audit-<period>.pdf, or "+pdf.AuditFilename+" for the whole book.")
}

// reportRange returns the range selected by the flags.
func (c *auditCmd) reportRange() (date.Range, error) {
	if c.period == "" {
		if c.on != "" {
			return date.Range{}, fmt.Errorf("-on needs -period")
		}
		return monthRange(c.month)
	}
	if c.month != "" {
		return date.Range{}, fmt.Errorf("-month and -period cannot be used together")
	}
	p, err := date.ParsePeriod(c.period)
	if err != nil {
		return date.Range{}, err
	}
	on := date.Of(now())
	if c.on != "" {
		if on, err = date.Parse(c.on); err != nil {
			return date.Range{}, err
		}
	}
	return date.NewRange(on, p), nil
}

func (c *auditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := c.reportRange()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	output := c.output
	if output == "" {
		output = pdf.AuditFilenameFor(r)
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	a := b.book.Audit(r)
	printMarkdown(renderer.RenderAudit(a))
	if output == "-" {
		return subcommands.ExitSuccess
	}
	if err := writeFile(output, func(w io.Writer) error { return pdf.Audit(w, a, date.Of(now())) }); err != nil {
		return exitStatus("writing audit report", err)
	}
	period := r.Name()
	if r.IsZero() {
		period = "all"
	}
	log.WithFields(log.Fields{"period": period, "file": output}).Info("audit report written")
	fmt.Fprintf(stdout, "Audit report written to %s\n", output)
	return subcommands.ExitSuccess
}

type exportCSVCmd struct {
	what     string
	query    string
	category string
	month    string
	output   string
}

func (*exportCSVCmd) Name() string     { return "export-csv" }
func (*exportCSVCmd) Synopsis() string { return "export students or expenses as CSV" }
func (*exportCSVCmd) Usage() string {
	return `cbk export-csv -what students|expenses [-q <search>] [-c <category>] [-month <YYYY-MM>] [-o <file>]

  Writes the student billing report or the expense report as CSV. Filters
  are the ones of the students and expenses commands.
`
}

func (c *exportCSVCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.what, "what", "students", "Report to export: students or expenses.")
	f.StringVar(&c.query, "q", "", "Only records containing this text.")
	f.StringVar(&c.category, "c", "", "Only expenses of this category.")
	f.StringVar(&c.month, "month", "", "Only records of this month (YYYY-MM).")
	f.StringVar(&c.output, "o", "", "Output file, '-' for stdout. Defaults to student-billing-report.csv or expense-report.csv.")
}

func (c *exportCSVCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := monthRange(c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing month: %v\n", err)
		return subcommands.ExitUsageError
	}
	var write func(*coursebooks.Book, io.Writer) (int, error)
	output := c.output
	switch c.what {
	case "students":
		if output == "" {
			output = coursebooks.StudentCSVFilename
		}
		write = func(b *coursebooks.Book, w io.Writer) (int, error) {
			return coursebooks.WriteStudentsCSV(w, b.Students(coursebooks.StudentMatching(c.query), coursebooks.StudentsIn(r)))
		}
	case "expenses":
		if output == "" {
			output = coursebooks.ExpenseCSVFilename
		}
		write = func(b *coursebooks.Book, w io.Writer) (int, error) {
			return coursebooks.WriteExpensesCSV(w, b.Expenses(coursebooks.ExpenseMatching(c.query), coursebooks.InCategory(c.category), coursebooks.ExpensesIn(r)))
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown report %q, want students or expenses\n", c.what)
		return subcommands.ExitUsageError
	}

	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	if output == "-" {
		if _, err := write(b.book, stdout); err != nil {
			return exitStatus("exporting CSV", err)
		}
		return subcommands.ExitSuccess
	}
	var rows int
	err = writeFile(output, func(w io.Writer) (err error) {
		rows, err = write(b.book, w)
		return err
	})
	if err != nil {
		return exitStatus("exporting CSV", err)
	}
	fmt.Fprintf(stdout, "%d %s exported to %s\n", rows, c.what, output)
	return subcommands.ExitSuccess
}

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "query the books with a JSONPath expression" }
func (*queryCmd) Usage() string {
	return `cbk query <jsonpath>

  Evaluates a JSONPath expression against the backup document of the books
  and prints the result as JSON. For instance:

    cbk query '$.students[?(@.totalFee > 30000)].name'
    cbk query '$.expenses[?(@.category == "Rent")].amount'
`
}

func (*queryCmd) SetFlags(*flag.FlagSet) {}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: query requires exactly one JSONPath expression")
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	v, err := b.book.Backup(b.settings, now()).Query(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitStatus("printing result", err)
	}
	return subcommands.ExitSuccess
}

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `cbk assist [question...]

  Starts an interactive session with the AI assistant. It needs the Gemini
  API key in $GEMINI_API_KEY or $GOOGLE_API_KEY.
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return exitStatus("initializing Gemini's client", err)
	}

	a := agent.New(stdout, os.Stdin, agent.NewAccountant(b.book, b.settings), agent.NewAdvisor())
	a.Print = func(w io.Writer, md string) {
		out, err := glamour.Render(md, "auto")
		if err != nil {
			out = md
		}
		fmt.Fprint(w, out)
	}
	if err := a.Run(ctx, client, strings.Join(f.Args(), " ")); err != nil {
		return exitStatus("running the assistant", err)
	}
	return subcommands.ExitSuccess
}
