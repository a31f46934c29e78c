package db

import (
	"context"
	"fmt"
	"time"

	"license-lookup-go/scrapers"
)

// SaveRun stores a finished run and its records in one transaction.
// Records keep their run order in the position column.
func (d *DB) SaveRun(ctx context.Context, s scrapers.RunSummary, records []scrapers.LicenseRecord) (int64, error) {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("db: begin: %w", err)
	}
	defer tx.Rollback()

	c := s.Criteria
	var runID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO lookup_runs
         (portal, first_name, last_name, license_type, license_number, license_status,
          city, state, county, zipcode, pages, record_count, output_path, started_at, finished_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
         RETURNING id`,
		s.Portal, c.FirstName, c.LastName, c.LicenseType, c.LicenseNumber, c.Status,
		c.City, c.State, c.County, c.Zip, s.Pages, len(records), s.OutputPath,
		s.StartedAt, s.FinishedAt,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("db: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO license_records
         (run_id, position, first_name, middle_name, last_name, license_number,
          license_type, status, original_issued_date, expiry, renewed)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return 0, fmt.Errorf("db: prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, i+1,
			r.FirstName, r.MiddleName, r.LastName, r.LicenseNumber,
			r.LicenseType, r.Status, r.OriginalIssuedDate, r.Expiry, r.Renewed,
		); err != nil {
			return 0, fmt.Errorf("db: insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("db: commit: %w", err)
	}
	return runID, nil
}

// RunHistoryRow is one past lookup run.
type RunHistoryRow struct {
	ID          int64
	Portal      string
	LastName    string
	LicenseType string
	Pages       int
	RecordCount int
	FinishedAt  time.Time
}

// GetRunHistory returns the most recent runs for a portal, newest first.
func (d *DB) GetRunHistory(ctx context.Context, portal string, limit int) ([]RunHistoryRow, error) {
	rows, err := d.pool.QueryContext(ctx,
		`SELECT id, portal, COALESCE(last_name, ''), COALESCE(license_type, ''),
         pages, record_count, finished_at
         FROM lookup_runs
         WHERE portal = $1
         ORDER BY finished_at DESC
         LIMIT $2`, portal, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunHistoryRow
	for rows.Next() {
		var r RunHistoryRow
		if err := rows.Scan(&r.ID, &r.Portal, &r.LastName, &r.LicenseType, &r.Pages, &r.RecordCount, &r.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
