package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"github.com/etnz/coursebooks/renderer"
	"github.com/google/subcommands"
)

type expenseCmd struct {
	date     string
	category string
	amount   float64
	notes    string
	attach   string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record a business expense" }
func (*expenseCmd) Usage() string {
	return `cbk expense -c <category> -a <amount> [-d <date>] [-n <notes>] [-attach <file,...>]

  Records an expense. Suggested categories are:

    ` + strings.Join(coursebooks.ExpenseCategories, "\n    ") + `

  Attachments are recorded by file name only.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the expense (YYYY-MM-DD).")
	f.StringVar(&c.category, "c", "", "Expense category.")
	f.Float64Var(&c.amount, "a", 0, "Amount in rupees.")
	f.StringVar(&c.notes, "n", "", "Free text notes.")
	f.StringVar(&c.attach, "attach", "", "Comma separated attachment file names.")
}

func (c *expenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var attachments []string
	if c.attach != "" {
		for _, a := range strings.Split(c.attach, ",") {
			attachments = append(attachments, strings.TrimSpace(a))
		}
	}

	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	entry := coursebooks.ExpenseEntry{Date: on, Category: c.category, Amount: c.amount, Notes: c.notes, Attachments: attachments}
	e, err := b.book.RecordExpense(entry, now())
	if err != nil {
		return exitStatus("recording expense", err)
	}
	if err := b.save(ctx); err != nil {
		return exitStatus("saving", err)
	}
	printMarkdown(renderer.RenderExpense(e))
	return subcommands.ExitSuccess
}

type expensesCmd struct {
	query    string
	category string
	month    string
}

func (*expensesCmd) Name() string     { return "expenses" }
func (*expensesCmd) Synopsis() string { return "list the business expenses" }
func (*expensesCmd) Usage() string {
	return `cbk expenses [-q <search>] [-c <category>] [-month <YYYY-MM>]

  Lists the expenses in recording order. Filters combine.
`
}

func (c *expensesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "Only expenses whose notes or category contains this text.")
	f.StringVar(&c.category, "c", "", "Only expenses of this category.")
	f.StringVar(&c.month, "month", "", "Only expenses dated this month.")
}

func (c *expensesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var list []coursebooks.Expense
	for _, e := range b.book.Expenses(coursebooks.ExpenseMatching(c.query), coursebooks.InCategory(c.category), coursebooks.ExpensesIn(r)) {
		list = append(list, e)
	}
	printMarkdown(renderer.RenderExpenses(list))
	return subcommands.ExitSuccess
}

type deleteExpenseCmd struct{}

func (*deleteExpenseCmd) Name() string     { return "delete-expense" }
func (*deleteExpenseCmd) Synopsis() string { return "delete an expense" }
func (*deleteExpenseCmd) Usage() string {
	return `cbk delete-expense <id>

  Deletes an expense. The other expenses keep their order.
`
}

func (*deleteExpenseCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteExpenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: delete-expense requires exactly one expense id")
		return subcommands.ExitUsageError
	}
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	id := f.Arg(0)
	if !b.book.DeleteExpense(id) {
		fmt.Fprintf(os.Stderr, "Error: no expense %q\n", id)
		return subcommands.ExitFailure
	}
	if err := b.save(ctx); err != nil {
		return exitStatus("saving", err)
	}
	fmt.Fprintf(stdout, "Expense %s deleted\n", id)
	return subcommands.ExitSuccess
}
