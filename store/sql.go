package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// document is a row of the documents table.
type document struct {
	Key       string `gorm:"column:doc_key;primaryKey;size:191"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

// SQL stores documents in a single table of a SQL database through gorm.
type SQL struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a sqlite database file.
func OpenSQLite(path string) (*SQL, error) {
	return OpenSQL(sqlite.Open(path))
}

// OpenPostgres connects to a postgres database.
func OpenPostgres(dsn string) (*SQL, error) {
	return OpenSQL(postgres.Open(dsn))
}

// OpenSQL opens a database with any gorm dialector and migrates the documents table.
func OpenSQL(dialector gorm.Dialector) (*SQL, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("cannot migrate database: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := s.db.WithContext(ctx).Where("doc_key = ?", key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", key, err)
	}
	return doc.Value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	doc := document{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("doc_key = ?", key).Delete(&document{}).Error; err != nil {
		return fmt.Errorf("cannot delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
