// Package cmd implements the cbk command line application that keeps the
// books of a training company.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/config"
	"github.com/etnz/coursebooks/renderer"
	"github.com/etnz/coursebooks/store"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&quoteCmd{}, "billing")
	c.Register(&enrollCmd{}, "billing")
	c.Register(&studentsCmd{}, "billing")
	c.Register(&studentCmd{}, "billing")
	c.Register(&invoiceCmd{}, "billing")

	c.Register(&expenseCmd{}, "expenses")
	c.Register(&expensesCmd{}, "expenses")
	c.Register(&deleteExpenseCmd{}, "expenses")

	c.Register(&dashboardCmd{}, "reports")
	c.Register(&auditCmd{}, "reports")
	c.Register(&exportCSVCmd{}, "reports")
	c.Register(&queryCmd{}, "reports")
	c.Register(&assistCmd{}, "reports")

	c.Register(&backupCmd{}, "data")
	c.Register(&restoreCmd{}, "data")
	c.Register(&settingsCmd{}, "data")
	c.Register(&migrateCmd{}, "data")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var cfg = config.Config{Store: "dir", StorePath: ".coursebooks", Company: "Training Company", Width: 100}

var storeKind = flag.String("store", "", "Store backend: dir, sqlite, postgres or redis. Defaults to $"+config.EnvStore+" or dir.")
var storePath = flag.String("store-path", "", "Directory of the dir store, or of the sqlite store unless it ends with .db. Defaults to $"+config.EnvStorePath+" or .coursebooks.")
var htmlOutput = flag.Bool("html", false, "Print reports as HTML instead of styled markdown.")

// stdout receives the command output.
var stdout io.Writer = os.Stdout

// now is the clock of the commands.
var now = time.Now

// Configure sets the configuration used when flags are not given.
func Configure(c config.Config) { cfg = c }

func storeSettings() (kind, path string) {
	kind, path = cfg.Store, cfg.StorePath
	if *storeKind != "" {
		kind = *storeKind
	}
	if *storePath != "" {
		path = *storePath
	}
	return kind, path
}

// OpenStore opens the store selected by the flags and the configuration.
func OpenStore(ctx context.Context) (store.KV, error) {
	kind, path := storeSettings()
	return openStore(ctx, kind, path)
}

func openStore(ctx context.Context, kind, path string) (store.KV, error) {
	switch kind {
	case "dir":
		return opened(store.OpenDir(path))
	case "sqlite":
		if !strings.HasSuffix(path, ".db") {
			path = filepath.Join(path, "books.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		return opened(store.OpenSQLite(path))
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("the postgres store needs $%s", config.EnvPostgresDSN)
		}
		return opened(store.OpenPostgres(cfg.PostgresDSN))
	case "redis":
		return opened(store.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix))
	default:
		return nil, fmt.Errorf("unknown store %q, want dir, sqlite, postgres or redis", kind)
	}
}

// opened avoids returning a typed nil store on error.
func opened[T store.KV](kv T, err error) (store.KV, error) {
	if err != nil {
		return nil, err
	}
	return kv, nil
}

// books is an opened store with the book and settings it holds.
type books struct {
	kv       store.KV
	book     *coursebooks.Book
	settings coursebooks.Settings
}

// openBooks opens the store and loads the book and settings.
func openBooks(ctx context.Context) (*books, error) {
	kv, err := OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}
	book, err := coursebooks.Load(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("cannot load book: %w", err)
	}
	settings, err := coursebooks.LoadSettings(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}
	return &books{kv: kv, book: book, settings: settings}, nil
}

// save writes the book back, and the automatic backup when enabled.
func (b *books) save(ctx context.Context) error {
	if err := b.book.Save(ctx, b.kv); err != nil {
		return fmt.Errorf("cannot save book: %w", err)
	}
	if b.settings.AutoBackup {
		if err := coursebooks.SaveBackup(ctx, b.kv, b.book.Backup(b.settings, now())); err != nil {
			return fmt.Errorf("cannot save automatic backup: %w", err)
		}
		log.Debug("automatic backup saved")
	}
	return nil
}

func (b *books) Close() error { return b.kv.Close() }

// printMarkdown prints a markdown document as HTML or styled for the terminal.
func printMarkdown(md string) {
	if *htmlOutput || cfg.HTML {
		html, err := renderer.HTML(md)
		if err != nil {
			log.Warn(err)
			html = md
		}
		fmt.Fprint(stdout, html)
		return
	}
	out, err := renderer.Terminal(md, cfg.Width)
	if err != nil {
		log.Warn(err)
		out = md
	}
	fmt.Fprint(stdout, out)
}

// exitStatus reports err on stderr and maps it to an exit status.
func exitStatus(what string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if errors.Is(err, coursebooks.ErrInvalidForm) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
