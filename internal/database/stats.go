package database

import (
	"context"
	"fmt"
)

// GradeDistribution counts sites by the grade of their most recent graded
// scan. Sites whose scans all failed do not appear.
func (d *DB) GradeDistribution(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Grade string `db:"grade"`
		Count int    `db:"count"`
	}
	err := d.db.SelectContext(ctx, &rows, `
		SELECT grade, COUNT(*) AS count FROM scans s
		WHERE grade IS NOT NULL
		  AND id = (SELECT MAX(id) FROM scans
		            WHERE site_key = s.site_key AND grade IS NOT NULL)
		GROUP BY grade`)
	if err != nil {
		return nil, fmt.Errorf("computing grade distribution: %w", err)
	}

	distribution := make(map[string]int, len(rows))
	for _, row := range rows {
		distribution[row.Grade] = row.Count
	}
	return distribution, nil
}

// TotalScans returns the number of stored scans.
func (d *DB) TotalScans(ctx context.Context) (int64, error) {
	var total int64
	if err := d.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scans`); err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}
	return total, nil
}
