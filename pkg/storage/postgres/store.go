// Package postgres implements pkg/storage.Store on gorm.io/gorm +
// gorm.io/driver/postgres, grounded on the teacher's
// pkg/storage/postgres/job_store.go (gorm.Config with PrepareStmt,
// connection-pool tuning, AutoMigrate-driven schema).
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

type Store struct {
	db *gorm.DB
}

// New opens the connection, tunes the pool, and AutoMigrates every table
// owned by this module. Schema changes go through gorm's AutoMigrate on
// every start; there is no ordered SQL migration runner and no
// "_migrations" version table.
func New(connString string) (*Store, error) {
	cfg := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
		PrepareStmt: true,
	}

	db, err := gorm.Open(postgres.Open(connString), cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.RawJob{},
		&models.CanonicalJob{},
		&models.FitAnalysis{},
		&models.DiscoveredBoard{},
		&models.AlternateURL{},
		&models.JobDuplicate{},
		&models.RunLog{},
		&models.SourceMetric{},
		&models.RetryQueueItem{},
		&models.ConnectorCheckpoint{},
	); err != nil {
		return nil, fmt.Errorf("postgres: schema migration: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transact runs fn against a store backed by a single transaction, per
// C8's "single writer transaction scope" requirement.
func (s *Store) Transact(ctx context.Context, fn func(storage.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
