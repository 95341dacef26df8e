package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"github.com/etnz/coursebooks/renderer"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

type backupCmd struct {
	output string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "export all the data as a JSON backup" }
func (*backupCmd) Usage() string {
	return `cbk backup [-o <file>]

  Writes the students, expenses and settings in a single JSON document, by
  default accounting-data-backup-<today>.json.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, '-' for stdout. Defaults to accounting-data-backup-<today>.json.")
}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	t := now()
	bk := b.book.Backup(b.settings, t)
	output := c.output
	if output == "" {
		output = coursebooks.BackupFilename(date.Of(t))
	}
	if output == "-" {
		if err := coursebooks.EncodeBackup(stdout, bk); err != nil {
			return exitStatus("writing backup", err)
		}
		return subcommands.ExitSuccess
	}
	if err := writeFile(output, func(w io.Writer) error { return coursebooks.EncodeBackup(w, bk) }); err != nil {
		return exitStatus("writing backup", err)
	}
	fmt.Fprintf(stdout, "%d students and %d expenses backed up to %s\n", len(bk.Students), len(bk.Expenses), output)
	return subcommands.ExitSuccess
}

type restoreCmd struct {
	force bool
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace all the data with a JSON backup" }
func (*restoreCmd) Usage() string {
	return `cbk restore [-f] <backup file>

  Replaces the students, expenses and settings with the content of a backup.
  A book that is not empty is only replaced with -f.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Replace a book that is not empty.")
}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: restore requires exactly one backup file")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return exitStatus("opening backup", err)
	}
	defer file.Close()
	bk, err := coursebooks.DecodeBackup(file)
	if err != nil {
		return exitStatus("reading backup", err)
	}

	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	if !c.force && (b.book.NumStudents() > 0 || b.book.NumExpenses() > 0) {
		fmt.Fprintf(os.Stderr, "Error: the book has %d students and %d expenses, use -f to replace them\n", b.book.NumStudents(), b.book.NumExpenses())
		return subcommands.ExitUsageError
	}

	b.book, b.settings = bk.Restore(), bk.Settings
	if err := coursebooks.SaveSettings(ctx, b.kv, b.settings); err != nil {
		return exitStatus("saving settings", err)
	}
	if err := b.save(ctx); err != nil {
		return exitStatus("saving", err)
	}
	log.WithField("exportDate", bk.ExportDate).Info("backup restored")
	fmt.Fprintf(stdout, "%d students and %d expenses restored from %s\n", len(bk.Students), len(bk.Expenses), f.Arg(0))
	return subcommands.ExitSuccess
}

type settingsCmd struct {
	lmsFee             float64
	gstRate            float64
	emailNotifications bool
	autoBackup         bool
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "display or change the business settings" }
func (*settingsCmd) Usage() string {
	return `cbk settings [-lms-fee <amount>] [-gst-rate <percent>] [-email-notifications=<bool>] [-auto-backup=<bool>]

  Displays the settings, after changing the ones given as flags. The LMS fee
  and GST rate apply to the students enrolled afterwards.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.lmsFee, "lms-fee", 0, "LMS fee added to every course, in rupees.")
	f.Float64Var(&c.gstRate, "gst-rate", 0, "GST rate in percent.")
	f.BoolVar(&c.emailNotifications, "email-notifications", false, "Enable email notifications.")
	f.BoolVar(&c.autoBackup, "auto-backup", false, "Save a backup in the store on every change.")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks(ctx)
	if err != nil {
		return exitStatus("opening books", err)
	}
	defer b.Close()

	s := b.settings
	changed := false
	f.Visit(func(fl *flag.Flag) {
		changed = true
		switch fl.Name {
		case "lms-fee":
			s.LMSFee = c.lmsFee
		case "gst-rate":
			s.GSTRate = c.gstRate
		case "email-notifications":
			s.EmailNotifications = c.emailNotifications
		case "auto-backup":
			s.AutoBackup = c.autoBackup
		}
	})
	if changed {
		if err := coursebooks.SaveSettings(ctx, b.kv, s); err != nil {
			return exitStatus("saving settings", err)
		}
		log.WithField("settings", s).Info("settings saved")
	}
	printMarkdown(renderer.RenderSettings(s))
	return subcommands.ExitSuccess
}

type migrateCmd struct {
	to     string
	toPath string
	force  bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "copy the books to another store" }
func (*migrateCmd) Usage() string {
	return `cbk migrate -to <store> [-to-path <path>] [-f]

  Copies the books and settings from the current store to another one, e.g.
  from the dir store to sqlite. The books are checked before anything is
  copied. The postgres and redis stores are configured by the environment.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.to, "to", "", "Target store: dir, sqlite, postgres or redis.")
	f.StringVar(&c.toPath, "to-path", "", "Path of the target dir or sqlite store. Defaults to the current store path.")
	f.BoolVar(&c.force, "f", false, "Replace a book that is not empty in the target store.")
}

func (c *migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.to == "" {
		fmt.Fprintln(os.Stderr, "Error: -to is required")
		return subcommands.ExitUsageError
	}
	kind, path := storeSettings()
	toPath := c.toPath
	if toPath == "" {
		toPath = path
	}
	if c.to == kind && toPath == path {
		fmt.Fprintln(os.Stderr, "Error: the target store is the current store")
		return subcommands.ExitUsageError
	}

	from, err := OpenStore(ctx)
	if err != nil {
		return exitStatus("opening store", err)
	}
	defer from.Close()
	to, err := openStore(ctx, c.to, toPath)
	if err != nil {
		return exitStatus("opening target store", err)
	}
	defer to.Close()

	if !c.force {
		target, err := coursebooks.Load(ctx, to)
		if err != nil {
			return exitStatus("reading target store", err)
		}
		if target.NumStudents() > 0 || target.NumExpenses() > 0 {
			fmt.Fprintf(os.Stderr, "Error: the target store has %d students and %d expenses, use -f to replace them\n", target.NumStudents(), target.NumExpenses())
			return subcommands.ExitUsageError
		}
	}

	n, err := coursebooks.Migrate(ctx, from, to)
	if err != nil {
		return exitStatus("migrating", err)
	}
	log.WithFields(log.Fields{"from": kind, "to": c.to, "documents": n}).Info("books migrated")
	fmt.Fprintf(stdout, "%d documents copied from the %s store to the %s store\n", n, kind, c.to)
	return subcommands.ExitSuccess
}
