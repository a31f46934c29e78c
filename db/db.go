package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type DB struct {
	pool *sql.DB
}

func New(databaseURL string) (*DB, error) {
	dsn := withSSLMode(databaseURL)

	log.Printf("Connecting to database...")
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open failed: %w", err)
	}

	// A run writes from a single goroutine.
	pool.SetMaxOpenConns(2)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(30 * time.Minute)

	// Retry connection up to 5 times (the database may start after the scraper)
	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = pool.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		log.Printf("DB ping attempt %d/5 failed: %v", attempt, pingErr)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	if pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping failed after 5 attempts: %w", pingErr)
	}

	d := &DB{pool: pool}
	migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migCancel()
	if err := d.migrate(migCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: migration failed: %w", err)
	}

	log.Println("Database connected and migrated")
	return d, nil
}

func (d *DB) Close() error {
	return d.pool.Close()
}

// withSSLMode disables SSL unless the DSN chooses a mode itself.
func withSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

func (d *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS lookup_runs (
            id SERIAL PRIMARY KEY,
            portal TEXT NOT NULL,
            first_name TEXT,
            last_name TEXT,
            license_type TEXT,
            license_number TEXT,
            license_status TEXT,
            city TEXT,
            state TEXT,
            county TEXT,
            zipcode TEXT,
            pages INTEGER NOT NULL DEFAULT 0,
            record_count INTEGER NOT NULL DEFAULT 0,
            output_path TEXT,
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS license_records (
            run_id INTEGER NOT NULL REFERENCES lookup_runs(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            first_name TEXT,
            middle_name TEXT,
            last_name TEXT,
            license_number TEXT,
            license_type TEXT,
            status TEXT,
            original_issued_date TEXT,
            expiry TEXT,
            renewed TEXT,
            PRIMARY KEY (run_id, position)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_license_records_license_number ON license_records(license_number)`,
	}

	for _, m := range migrations {
		if _, err := d.pool.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
