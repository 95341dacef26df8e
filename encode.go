package coursebooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/coursebooks/store"
)

// Keys of the documents in the store.
const (
	KeyStudents = "students"
	KeyExpenses = "expenses"
	KeySettings = "settings"
	KeyBackup   = "backup" // latest automatic backup
)

// Keys lists the keys of all the documents of a book.
var Keys = []string{KeyStudents, KeyExpenses, KeySettings, KeyBackup}

// ErrCorruptData is wrapped by errors about documents that cannot be decoded.
var ErrCorruptData = errors.New("corrupt data")

// Load reads the book from kv. Missing documents are read as empty lists.
func Load(ctx context.Context, kv store.KV) (*Book, error) {
	students, err := decodeList[Student](ctx, kv, KeyStudents)
	if err != nil {
		return nil, err
	}
	expenses, err := decodeList[Expense](ctx, kv, KeyExpenses)
	if err != nil {
		return nil, err
	}
	return newBookFrom(students, expenses), nil
}

// Save rewrites both lists of the book into kv.
func (b *Book) Save(ctx context.Context, kv store.KV) error {
	if err := encodeDoc(ctx, kv, KeyStudents, b.students); err != nil {
		return err
	}
	return encodeDoc(ctx, kv, KeyExpenses, b.expenses)
}

// LoadSettings reads the settings from kv, or returns the default settings if none were saved.
func LoadSettings(ctx context.Context, kv store.KV) (Settings, error) {
	data, err := kv.Get(ctx, KeySettings)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %q: %w", ErrCorruptData, KeySettings, err)
	}
	return s, nil
}

// SaveSettings validates and writes the settings into kv.
func SaveSettings(ctx context.Context, kv store.KV, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return encodeDoc(ctx, kv, KeySettings, s)
}

// SaveBackup writes bk into kv, under KeyBackup.
func SaveBackup(ctx context.Context, kv store.KV, bk Backup) error {
	var buf bytes.Buffer
	if err := EncodeBackup(&buf, bk); err != nil {
		return err
	}
	return kv.Put(ctx, KeyBackup, buf.Bytes())
}

// LoadBackup reads the latest automatic backup from kv.
func LoadBackup(ctx context.Context, kv store.KV) (Backup, error) {
	data, err := kv.Get(ctx, KeyBackup)
	if err != nil {
		return Backup{}, err
	}
	return DecodeBackup(bytes.NewReader(data))
}

func decodeList[T any](ctx context.Context, kv store.KV, key string) ([]T, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return make([]T, 0), nil
	}
	if err != nil {
		return nil, err
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCorruptData, key, err)
	}
	if list == nil { // a "null" document
		list = make([]T, 0)
	}
	return list, nil
}

func encodeDoc(ctx context.Context, kv store.KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode %q: %w", key, err)
	}
	return kv.Put(ctx, key, data)
}

// Migrate copies the documents of a book from one store to another, and
// returns the number of documents copied. The documents are checked before
// anything is written: a corrupt book is not copied at all.
func Migrate(ctx context.Context, from, to store.KV) (int, error) {
	if _, err := Load(ctx, from); err != nil {
		return 0, err
	}
	if _, err := LoadSettings(ctx, from); err != nil {
		return 0, err
	}
	if _, err := LoadBackup(ctx, from); err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	n := 0
	for _, key := range Keys {
		data, err := from.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}
		if err := to.Put(ctx, key, data); err != nil {
			return n, fmt.Errorf("cannot write %q: %w", key, err)
		}
		n++
	}
	return n, nil
}
