package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/config"
	"github.com/etnz/coursebooks/store"
	"github.com/google/subcommands"
)

var testNow = time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

// useTempBooks points the commands to an empty dir store and captures their output as HTML.
func useTempBooks(t *testing.T) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	oldCfg, oldStdout, oldNow, oldHTML := cfg, stdout, now, *htmlOutput
	oldKind, oldPath := *storeKind, *storePath
	t.Cleanup(func() {
		cfg, stdout, now, *htmlOutput = oldCfg, oldStdout, oldNow, oldHTML
		*storeKind, *storePath = oldKind, oldPath
	})

	cfg = config.Config{Store: "dir", StorePath: filepath.Join(dir, "books"), Company: "Acme Training", Width: 80}
	out = &bytes.Buffer{}
	stdout = out
	now = func() time.Time { return testNow }
	*htmlOutput = true
	*storeKind, *storePath = "", ""
	return dir, out
}

// execute runs c with args as if called from the command line.
func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("cannot parse %v: %v", args, err)
	}
	return c.Execute(context.Background(), f)
}

// loadBook reads the book the commands saved.
func loadBook(t *testing.T, dir string) *coursebooks.Book {
	t.Helper()
	kv, err := store.OpenDir(filepath.Join(dir, "books"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := coursebooks.Load(context.Background(), kv)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return b
}

func enrollAsha(t *testing.T) {
	t.Helper()
	status := execute(t, &enrollCmd{}, "-name", "Asha Rao", "-email", "asha@example.com", "-course", "Go Basics", "-fee", "25000")
	if status != subcommands.ExitSuccess {
		t.Fatalf("enroll: expected ExitSuccess, got %v", status)
	}
}

func TestEnroll(t *testing.T) {
	dir, out := useTempBooks(t)
	enrollAsha(t)

	b := loadBook(t, dir)
	if b.NumStudents() != 1 {
		t.Fatalf("NumStudents() = %d, want 1", b.NumStudents())
	}
	var s coursebooks.Student
	for _, s = range b.Students() {
	}
	if s.TotalFee != 35400 || !strings.HasPrefix(s.InvoiceNumber, "INV-202501-") {
		t.Errorf("student = %+v, want a total of 35400 and a January 2025 invoice", s)
	}
	if !strings.Contains(out.String(), "Invoice "+s.InvoiceNumber) {
		t.Errorf("output does not show the invoice:\n%s", out)
	}

	// the default settings enable the automatic backup.
	if _, err := os.Stat(filepath.Join(dir, "books", "backup.json")); err != nil {
		t.Errorf("automatic backup not saved: %v", err)
	}
}

func TestEnrollInvalid(t *testing.T) {
	dir, _ := useTempBooks(t)
	status := execute(t, &enrollCmd{}, "-name", "Asha Rao", "-email", "not an email", "-course", "Go Basics", "-fee", "25000")
	if status != subcommands.ExitUsageError {
		t.Errorf("Expected ExitUsageError, got %v", status)
	}
	if n := loadBook(t, dir).NumStudents(); n != 0 {
		t.Errorf("NumStudents() = %d after an invalid enrollment, want 0", n)
	}
}

func TestSettingsApplyToEnrollment(t *testing.T) {
	dir, out := useTempBooks(t)
	if status := execute(t, &settingsCmd{}, "-lms-fee", "3000", "-auto-backup=false"); status != subcommands.ExitSuccess {
		t.Fatalf("settings: expected ExitSuccess, got %v", status)
	}
	if !strings.Contains(out.String(), "₹3,000") {
		t.Errorf("settings output does not show the new LMS fee:\n%s", out)
	}

	enrollAsha(t)
	for _, s := range loadBook(t, dir).Students() {
		if s.LMSFee != 3000 || s.TotalFee != 33040 {
			t.Errorf("student fees = %v LMS %v total, want 3000 and 33040", s.LMSFee, s.TotalFee)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "books", "backup.json")); !os.IsNotExist(err) {
		t.Errorf("automatic backup saved while disabled: %v", err)
	}

	if status := execute(t, &settingsCmd{}, "-gst-rate", "150"); status != subcommands.ExitUsageError {
		t.Errorf("settings -gst-rate 150: expected ExitUsageError, got %v", status)
	}
	if status := execute(t, &settingsCmd{}, "-lms-fee", "Inf"); status != subcommands.ExitUsageError {
		t.Errorf("settings -lms-fee Inf: expected ExitUsageError, got %v", status)
	}
	if status := execute(t, &enrollCmd{}, "-name", "A", "-email", "a@example.com", "-course", "Go", "-fee", "Inf"); status != subcommands.ExitUsageError {
		t.Errorf("enroll -fee Inf: expected ExitUsageError, got %v", status)
	}
}

func TestExpenses(t *testing.T) {
	dir, out := useTempBooks(t)
	for _, args := range [][]string{
		{"-d", "2025-01-02", "-c", "Rent", "-a", "20000", "-n", "January rent"},
		{"-d", "2025-01-05", "-c", "Technology", "-a", "1500", "-attach", "receipt.pdf, invoice.png"},
		{"-d", "2025-01-09", "-c", "Rent", "-a", "500", "-n", "parking"},
	} {
		if status := execute(t, &expenseCmd{}, args...); status != subcommands.ExitSuccess {
			t.Fatalf("expense %v: expected ExitSuccess, got %v", args, status)
		}
	}
	if status := execute(t, &expenseCmd{}, "-d", "2025-01-09", "-a", "500"); status != subcommands.ExitUsageError {
		t.Errorf("expense without category: expected ExitUsageError, got %v", status)
	}

	b := loadBook(t, dir)
	var ids []string
	for _, e := range b.Expenses() {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 {
		t.Fatalf("NumExpenses() = %d, want 3", len(ids))
	}
	if e, _ := b.Expense(ids[1]); len(e.Attachments) != 2 || e.Attachments[1] != "invoice.png" {
		t.Errorf("attachments = %q, want [receipt.pdf invoice.png]", e.Attachments)
	}

	out.Reset()
	if status := execute(t, &expensesCmd{}, "-c", "Rent"); status != subcommands.ExitSuccess {
		t.Fatalf("expenses: expected ExitSuccess, got %v", status)
	}
	if !strings.Contains(out.String(), "2 expense(s), ₹20,500 in total.") {
		t.Errorf("expenses output:\n%s", out)
	}

	if status := execute(t, &deleteExpenseCmd{}, ids[1]); status != subcommands.ExitSuccess {
		t.Fatalf("delete-expense: expected ExitSuccess, got %v", status)
	}
	if status := execute(t, &deleteExpenseCmd{}, ids[1]); status != subcommands.ExitFailure {
		t.Errorf("delete-expense twice: expected ExitFailure, got %v", status)
	}
	var left []string
	for _, e := range loadBook(t, dir).Expenses() {
		left = append(left, e.ID)
	}
	if len(left) != 2 || left[0] != ids[0] || left[1] != ids[2] {
		t.Errorf("expenses after deletion = %v, want %v", left, []string{ids[0], ids[2]})
	}
}

func TestExportCSV(t *testing.T) {
	dir, _ := useTempBooks(t)
	enrollAsha(t)
	output := filepath.Join(dir, "students.csv")
	if status := execute(t, &exportCSVCmd{}, "-what", "students", "-o", output); status != subcommands.ExitSuccess {
		t.Fatalf("export-csv: expected ExitSuccess, got %v", status)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[1], "Asha Rao,asha@example.com,Go Basics,25000,5000,5400,35400,INV-202501-") {
		t.Errorf("CSV row = %q", lines[1])
	}

	if status := execute(t, &exportCSVCmd{}, "-what", "courses"); status != subcommands.ExitUsageError {
		t.Errorf("export-csv -what courses: expected ExitUsageError, got %v", status)
	}
}

func TestBackupRestore(t *testing.T) {
	dir, _ := useTempBooks(t)
	enrollAsha(t)
	if status := execute(t, &expenseCmd{}, "-d", "2025-01-02", "-c", "Rent", "-a", "20000"); status != subcommands.ExitSuccess {
		t.Fatalf("expense: expected ExitSuccess, got %v", status)
	}

	output := filepath.Join(dir, "backup.json")
	if status := execute(t, &backupCmd{}, "-o", output); status != subcommands.ExitSuccess {
		t.Fatalf("backup: expected ExitSuccess, got %v", status)
	}

	// restore into a new store.
	cfg.StorePath = filepath.Join(dir, "other")
	if status := execute(t, &restoreCmd{}, output); status != subcommands.ExitSuccess {
		t.Fatalf("restore: expected ExitSuccess, got %v", status)
	}
	kv, err := store.OpenDir(cfg.StorePath)
	if err != nil {
		t.Fatal(err)
	}
	b, err := coursebooks.Load(context.Background(), kv)
	if err != nil {
		t.Fatal(err)
	}
	if b.NumStudents() != 1 || b.NumExpenses() != 1 {
		t.Errorf("restored book = %d students %d expenses, want 1 1", b.NumStudents(), b.NumExpenses())
	}

	// a book that is not empty is only replaced with -f.
	if status := execute(t, &restoreCmd{}, output); status != subcommands.ExitUsageError {
		t.Errorf("restore over a book: expected ExitUsageError, got %v", status)
	}
	if status := execute(t, &restoreCmd{}, "-f", output); status != subcommands.ExitSuccess {
		t.Errorf("restore -f: expected ExitSuccess, got %v", status)
	}
}

func TestQuery(t *testing.T) {
	_, out := useTempBooks(t)
	enrollAsha(t)
	out.Reset()
	if status := execute(t, &queryCmd{}, "$.students[?(@.totalFee > 30000)].name"); status != subcommands.ExitSuccess {
		t.Fatalf("query: expected ExitSuccess, got %v", status)
	}
	if got, want := strings.Join(strings.Fields(out.String()), ""), `["AshaRao"]`; got != want {
		t.Errorf("query output = %s, want %s", got, want)
	}
	if status := execute(t, &queryCmd{}); status != subcommands.ExitUsageError {
		t.Errorf("query without path: expected ExitUsageError, got %v", status)
	}
}

func TestReports(t *testing.T) {
	dir, out := useTempBooks(t)
	enrollAsha(t)

	out.Reset()
	if status := execute(t, &dashboardCmd{}, "-months", "3"); status != subcommands.ExitSuccess {
		t.Fatalf("dashboard: expected ExitSuccess, got %v", status)
	}
	for _, want := range []string{"Acme Training Dashboard", "Nov 2024", "Jan 2025", "₹35,400"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dashboard output does not contain %q:\n%s", want, out)
		}
	}

	output := filepath.Join(dir, "audit.pdf")
	if status := execute(t, &auditCmd{}, "-month", "2025-01", "-o", output); status != subcommands.ExitSuccess {
		t.Fatalf("audit: expected ExitSuccess, got %v", status)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("audit did not write a PDF")
	}
	if status := execute(t, &auditCmd{}, "-month", "January"); status != subcommands.ExitUsageError {
		t.Errorf("audit -month January: expected ExitUsageError, got %v", status)
	}

	out.Reset()
	if status := execute(t, &auditCmd{}, "-period", "quarter", "-on", "2025-02-20", "-o", "-"); status != subcommands.ExitSuccess {
		t.Fatalf("audit -period quarter: expected ExitSuccess, got %v", status)
	}
	if !strings.Contains(out.String(), "2025-Q1") {
		t.Errorf("quarterly audit output does not name the quarter:\n%s", out)
	}
	for _, args := range [][]string{
		{"-period", "fortnight"},
		{"-period", "week", "-month", "2025-01"},
		{"-on", "2025-01-15"},
		{"-period", "week", "-on", "15/01/2025"},
	} {
		if status := execute(t, &auditCmd{}, append(args, "-o", "-")...); status != subcommands.ExitUsageError {
			t.Errorf("audit %v: expected ExitUsageError, got %v", args, status)
		}
	}

	var invoice string
	for _, s := range loadBook(t, dir).Students() {
		invoice = s.InvoiceNumber
	}
	output = filepath.Join(dir, "invoice.pdf")
	if status := execute(t, &invoiceCmd{}, "-o", output, invoice); status != subcommands.ExitSuccess {
		t.Fatalf("invoice: expected ExitSuccess, got %v", status)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("invoice not written: %v", err)
	}
	if status := execute(t, &invoiceCmd{}, "INV-209901-001"); status != subcommands.ExitFailure {
		t.Errorf("invoice of an unknown student: expected ExitFailure, got %v", status)
	}
}

func TestOpenStore(t *testing.T) {
	dir, _ := useTempBooks(t)
	testCases := []struct {
		kind    string
		path    string
		wantErr bool
	}{
		{"dir", filepath.Join(dir, "d"), false},
		{"sqlite", filepath.Join(dir, "s"), false},
		{"sqlite", filepath.Join(dir, "books.db"), false},
		{"postgres", "", true}, // no DSN
		{"ftp", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			*storeKind, *storePath = tc.kind, tc.path
			kv, err := OpenStore(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("OpenStore() error = %v, wantErr %v", err, tc.wantErr)
			}
			if kv != nil {
				kv.Close()
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("cbk", flag.ContinueOnError), "cbk")
	Register(commander)
	global := flag.NewFlagSet("cbk", flag.ContinueOnError)
	global.String("store", "", "")
	global.Bool("html", false, "")

	c := Completion(commander, global)
	for _, name := range []string{"enroll", "students", "expense", "audit", "restore", "settings"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("no completion for %q", name)
		}
	}
	if _, ok := c.Sub["enroll"].Flags["email"]; !ok {
		t.Error("no completion for enroll -email")
	}
	if _, ok := c.Flags["store"]; !ok {
		t.Error("no completion for -store")
	}
}

func TestTopic(t *testing.T) {
	_, out := useTempBooks(t)
	if status := execute(t, &topicCmd{}); status != subcommands.ExitSuccess {
		t.Fatalf("topic: expected ExitSuccess, got %v", status)
	}
	if !strings.Contains(out.String(), "billing") {
		t.Errorf("topic without argument does not list the topics:\n%s", out)
	}
	if status := execute(t, &topicCmd{}, "payroll"); status != subcommands.ExitUsageError {
		t.Errorf("topic payroll: expected ExitUsageError, got %v", status)
	}
}

func TestMigrate(t *testing.T) {
	dir, out := useTempBooks(t)
	enrollAsha(t)

	if status := execute(t, &migrateCmd{}, "-to", "dir"); status != subcommands.ExitUsageError {
		t.Errorf("migrate to the current store: expected ExitUsageError, got %v", status)
	}
	target := filepath.Join(dir, "copy")
	if status := execute(t, &migrateCmd{}, "-to", "dir", "-to-path", target); status != subcommands.ExitSuccess {
		t.Fatalf("migrate: expected ExitSuccess, got %v", status)
	}
	// students, expenses and the automatic backup, settings were never saved.
	if !strings.Contains(out.String(), "3 documents copied") {
		t.Errorf("migrate output:\n%s", out)
	}
	kv, err := store.OpenDir(target)
	if err != nil {
		t.Fatal(err)
	}
	b, err := coursebooks.Load(context.Background(), kv)
	if err != nil {
		t.Fatal(err)
	}
	if b.NumStudents() != 1 {
		t.Errorf("NumStudents() in the target store = %d, want 1", b.NumStudents())
	}

	if status := execute(t, &migrateCmd{}, "-to", "dir", "-to-path", target); status != subcommands.ExitUsageError {
		t.Errorf("migrate over a book: expected ExitUsageError, got %v", status)
	}
	if status := execute(t, &migrateCmd{}, "-to", "dir", "-to-path", target, "-f"); status != subcommands.ExitSuccess {
		t.Errorf("migrate -f: expected ExitSuccess, got %v", status)
	}
}

func TestWriteFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.pdf")
	err := writeFile(filename, func(w io.Writer) error {
		if _, err := io.WriteString(w, "%PDF-1.3 truncated"); err != nil {
			return err
		}
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("writeFile() expected an error")
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Errorf("partially written file left on disk: %v", err)
	}

	if err := writeFile(filename, func(w io.Writer) error {
		_, err := io.WriteString(w, "%PDF-1.3")
		return err
	}); err != nil {
		t.Fatalf("writeFile() unexpected error: %v", err)
	}
	if data, _ := os.ReadFile(filename); string(data) != "%PDF-1.3" {
		t.Errorf("file content = %q, want %%PDF-1.3", data)
	}
}
