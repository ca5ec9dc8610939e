package database

import (
	"context"
	"fmt"
)

// Expectations returns the expectation overrides configured for a site,
// keyed by test name. An empty map means the defaults apply.
func (d *DB) Expectations(ctx context.Context, siteKey string) (map[string]string, error) {
	var rows []struct {
		TestName    string `db:"test_name"`
		Expectation string `db:"expectation"`
	}
	err := d.db.SelectContext(ctx, &rows, `
		SELECT test_name, expectation FROM expectations
		WHERE site_key = ?`, siteKey)
	if err != nil {
		return nil, fmt.Errorf("loading expectations for %s: %w", siteKey, err)
	}

	overrides := make(map[string]string, len(rows))
	for _, row := range rows {
		overrides[row.TestName] = row.Expectation
	}
	return overrides, nil
}

// SetExpectation installs or replaces one expectation override.
func (d *DB) SetExpectation(ctx context.Context, siteKey, testName, expectation string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO expectations (site_key, test_name, expectation)
		VALUES (?, ?, ?)
		ON CONFLICT (site_key, test_name) DO UPDATE SET expectation = excluded.expectation`,
		siteKey, testName, expectation)
	if err != nil {
		return fmt.Errorf("setting expectation for %s/%s: %w", siteKey, testName, err)
	}
	return nil
}

// DeleteExpectation removes one override, restoring the default.
func (d *DB) DeleteExpectation(ctx context.Context, siteKey, testName string) error {
	_, err := d.db.ExecContext(ctx, `
		DELETE FROM expectations WHERE site_key = ? AND test_name = ?`,
		siteKey, testName)
	if err != nil {
		return fmt.Errorf("deleting expectation for %s/%s: %w", siteKey, testName, err)
	}
	return nil
}
