// Package database persists scan summaries and per-site expectation
// overrides in sqlite. Full test output is never stored; reports are
// reconstructed as summaries with an empty test map.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"

	"httpobs/internal/output"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	site_key          TEXT    NOT NULL,
	start_time        INTEGER NOT NULL,
	end_time          INTEGER NOT NULL,
	algorithm_version INTEGER NOT NULL,
	grade             TEXT,
	score             INTEGER,
	status_code       INTEGER,
	error             TEXT,
	tests_passed      INTEGER NOT NULL DEFAULT 0,
	tests_failed      INTEGER NOT NULL DEFAULT 0,
	tests_quantity    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scans_site_end ON scans (site_key, end_time DESC);

CREATE TABLE IF NOT EXISTS expectations (
	site_key    TEXT NOT NULL,
	test_name   TEXT NOT NULL,
	expectation TEXT NOT NULL,
	PRIMARY KEY (site_key, test_name)
);
`

// ScanRow is one persisted scan summary.
type ScanRow struct {
	ID               int64       `db:"id" json:"id"`
	SiteKey          string      `db:"site_key" json:"site_key"`
	StartTime        int64       `db:"start_time" json:"start_time"`
	EndTime          int64       `db:"end_time" json:"end_time"`
	AlgorithmVersion int         `db:"algorithm_version" json:"algorithm_version"`
	Grade            null.String `db:"grade" json:"grade"`
	Score            null.Int    `db:"score" json:"score"`
	StatusCode       null.Int    `db:"status_code" json:"status_code"`
	Error            null.String `db:"error" json:"error"`
	TestsPassed      int         `db:"tests_passed" json:"tests_passed"`
	TestsFailed      int         `db:"tests_failed" json:"tests_failed"`
	TestsQuantity    int         `db:"tests_quantity" json:"tests_quantity"`
}

// DB wraps the sqlite handle.
type DB struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (and if necessary creates) the database at path and applies
// the schema. Use ":memory:" for an ephemeral database.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent scans.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logger.Debug("database ready", "path", path)
	return &DB{db: db, logger: logger}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// SaveScan records a finished scan summary.
func (d *DB) SaveScan(ctx context.Context, siteKey string, report *output.ScanReport) error {
	row := ScanRow{
		SiteKey:          siteKey,
		StartTime:        parseReportTime(report.StartTime),
		EndTime:          parseReportTime(report.EndTime),
		AlgorithmVersion: report.AlgorithmVersion,
		Grade:            report.Grade,
		Score:            report.Score,
		TestsPassed:      report.TestsPassed,
		TestsFailed:      report.TestsFailed,
		TestsQuantity:    report.TestsQuantity,
	}
	if report.StatusCode != 0 {
		row.StatusCode = null.IntFrom(int64(report.StatusCode))
	}
	if report.Error != "" {
		row.Error = null.StringFrom(report.Error)
	}

	_, err := d.db.NamedExecContext(ctx, `
		INSERT INTO scans (site_key, start_time, end_time, algorithm_version,
			grade, score, status_code, error,
			tests_passed, tests_failed, tests_quantity)
		VALUES (:site_key, :start_time, :end_time, :algorithm_version,
			:grade, :score, :status_code, :error,
			:tests_passed, :tests_failed, :tests_quantity)`, row)
	if err != nil {
		return fmt.Errorf("inserting scan for %s: %w", siteKey, err)
	}
	return nil
}

// RecentScan returns the newest stored scan for the site that finished
// within maxAge, or nil when there is none.
func (d *DB) RecentScan(ctx context.Context, siteKey string, maxAge time.Duration) (*output.ScanReport, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	var row ScanRow
	err := d.db.GetContext(ctx, &row, `
		SELECT * FROM scans
		WHERE site_key = ? AND end_time >= ?
		ORDER BY end_time DESC, id DESC
		LIMIT 1`, siteKey, cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up recent scan for %s: %w", siteKey, err)
	}
	return row.Report(), nil
}

// History returns up to limit stored scans for the site, newest first.
func (d *DB) History(ctx context.Context, siteKey string, limit int) ([]ScanRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []ScanRow
	err := d.db.SelectContext(ctx, &rows, `
		SELECT * FROM scans
		WHERE site_key = ?
		ORDER BY end_time DESC, id DESC
		LIMIT ?`, siteKey, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", siteKey, err)
	}
	return rows, nil
}

// Report reconstructs a summary ScanReport from the stored row.
func (r ScanRow) Report() *output.ScanReport {
	report := &output.ScanReport{
		AlgorithmVersion: r.AlgorithmVersion,
		Grade:            r.Grade,
		Score:            r.Score,
		StartTime:        formatReportTime(r.StartTime),
		EndTime:          formatReportTime(r.EndTime),
		StatusCode:       int(r.StatusCode.Int64),
		TestsPassed:      r.TestsPassed,
		TestsFailed:      r.TestsFailed,
		TestsQuantity:    r.TestsQuantity,
		Tests:            map[string]output.TestResult{},
	}
	if r.Error.Valid {
		report.Error = r.Error.String
	}
	return report
}

// Report timestamps are RFC 3339; rows store unix seconds for cheap
// cutoff comparisons.
func parseReportTime(value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now().Unix()
	}
	return t.Unix()
}

func formatReportTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
