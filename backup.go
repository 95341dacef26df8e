package coursebooks

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/coursebooks/date"
)

// Backup is the full export of a book and its settings.
type Backup struct {
	Students   []Student `json:"students"`
	Expenses   []Expense `json:"expenses"`
	Settings   Settings  `json:"settings"`
	ExportDate time.Time `json:"exportDate"`
}

// BackupFilename is the default file name of a backup made on day.
func BackupFilename(day date.Date) string {
	return fmt.Sprintf("accounting-data-backup-%s.json", day)
}

// Backup returns a snapshot of the book and settings taken at now.
func (b *Book) Backup(settings Settings, now time.Time) Backup {
	return Backup{
		Students:   append(make([]Student, 0, len(b.students)), b.students...),
		Expenses:   append(make([]Expense, 0, len(b.expenses)), b.expenses...),
		Settings:   settings,
		ExportDate: now.UTC().Truncate(time.Millisecond),
	}
}

// EncodeBackup writes the backup as an indented JSON document.
func EncodeBackup(w io.Writer, bk Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bk); err != nil {
		return fmt.Errorf("cannot encode backup: %w", err)
	}
	return nil
}

// DecodeBackup reads a backup document.
func DecodeBackup(r io.Reader) (Backup, error) {
	bk := Backup{Settings: DefaultSettings()}
	if err := json.NewDecoder(r).Decode(&bk); err != nil {
		return Backup{}, fmt.Errorf("%w: backup: %w", ErrCorruptData, err)
	}
	if err := bk.Settings.Validate(); err != nil {
		return Backup{}, fmt.Errorf("%w: backup settings: %w", ErrCorruptData, err)
	}
	return bk, nil
}

// Restore builds the book saved in the backup.
func (bk Backup) Restore() *Book {
	students := append(make([]Student, 0, len(bk.Students)), bk.Students...)
	expenses := append(make([]Expense, 0, len(bk.Expenses)), bk.Expenses...)
	return newBookFrom(students, expenses)
}

// queryLanguage is JSONPath with the comparison and boolean operators of
// filter expressions.
var queryLanguage = gval.NewLanguage(gval.Full(), jsonpath.Language())

// Query evaluates a JSONPath expression against the backup document, e.g.
// "$.students[?(@.totalFee > 30000)].name".
func (bk Backup) Query(path string) (any, error) {
	// jsonpath works on the generic decoding of the document.
	data, err := json.Marshal(bk)
	if err != nil {
		return nil, fmt.Errorf("cannot encode backup: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot decode backup: %w", err)
	}
	v, err := queryLanguage.Evaluate(path, doc)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", path, err)
	}
	return v, nil
}
