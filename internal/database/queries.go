package database

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

const selectColumns = `SELECT id, path, filename, category, subcategory, file_size, width, height, format, content_hash, created_at, modified_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*texture.Record, error) {
	var rec texture.Record
	var createdAt, modifiedAt string

	if err := row.Scan(
		&rec.ID, &rec.Path, &rec.Filename, &rec.Category, &rec.Subcategory,
		&rec.FileSize, &rec.Width, &rec.Height, &rec.Format, &rec.ContentHash,
		&createdAt, &modifiedAt,
	); err != nil {
		return nil, err
	}

	rec.CreatedAt = parseTimestamp(createdAt)
	rec.ModifiedAt = parseTimestamp(modifiedAt)
	return &rec, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		logging.Debug("unparseable timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}

// normalizeFormat accepts "png" and ".png" alike; formats are stored with
// the leading dot.
func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return format
}

// Search returns records matching every set predicate, ordered by filename.
// Unset predicates (zero values) do not constrain the result.
func (d *Database) Search(ctx context.Context, opts texture.SearchOptions) ([]texture.Record, error) {
	start := time.Now()
	var err error
	defer func() { observeQuery("search", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := selectColumns + ` FROM textures WHERE 1=1`
	var args []interface{}

	if opts.Filename != "" {
		query += ` AND filename LIKE ?`
		args = append(args, "%"+opts.Filename+"%")
	}
	if opts.Category != "" {
		query += ` AND category = ?`
		args = append(args, opts.Category)
	}
	if opts.Subcategory != "" {
		query += ` AND subcategory LIKE ?`
		args = append(args, "%"+opts.Subcategory+"%")
	}
	if opts.Format != "" {
		query += ` AND format = ?`
		args = append(args, normalizeFormat(opts.Format))
	}
	if opts.MinWidth > 0 {
		query += ` AND width >= ?`
		args = append(args, opts.MinWidth)
	}
	if opts.MaxWidth > 0 {
		query += ` AND width <= ?`
		args = append(args, opts.MaxWidth)
	}
	if opts.MinHeight > 0 {
		query += ` AND height >= ?`
		args = append(args, opts.MinHeight)
	}
	if opts.MaxHeight > 0 {
		query += ` AND height <= ?`
		args = append(args, opts.MaxHeight)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = texture.DefaultSearchLimit
	}
	query += ` ORDER BY filename LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []texture.Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = fmt.Errorf("search scan failed: %w", scanErr)
			return nil, err
		}
		results = append(results, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows error: %w", err)
	}

	return results, nil
}

// All returns every indexed record ordered by path, for export.
func (d *Database) All(ctx context.Context) ([]texture.Record, error) {
	start := time.Now()
	var err error
	defer func() { observeQuery("all", start, err) }()

	// Exports can be much larger than a search page
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, selectColumns+` FROM textures ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("export query failed: %w", err)
	}
	defer rows.Close()

	var results []texture.Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = fmt.Errorf("export scan failed: %w", scanErr)
			return nil, err
		}
		results = append(results, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("export rows error: %w", err)
	}

	return results, nil
}

// Stats calculates current index statistics.
func (d *Database) Stats(ctx context.Context) (*texture.Stats, error) {
	start := time.Now()
	var err error
	defer func() { observeQuery("stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := &texture.Stats{
		ByCategory: make(map[string]int),
		ByFormat:   make(map[string]int),
	}

	if err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM textures`).Scan(&stats.TotalTextures); err != nil {
		return nil, fmt.Errorf("stats count failed: %w", err)
	}

	groups := []struct {
		query string
		dest  map[string]int
	}{
		{`SELECT category, COUNT(*) FROM textures GROUP BY category`, stats.ByCategory},
		{`SELECT format, COUNT(*) FROM textures GROUP BY format`, stats.ByFormat},
	}

	for _, g := range groups {
		rows, queryErr := d.db.QueryContext(ctx, g.query)
		if queryErr != nil {
			err = fmt.Errorf("stats group query failed: %w", queryErr)
			return nil, err
		}

		for rows.Next() {
			var key string
			var count int
			if scanErr := rows.Scan(&key, &count); scanErr != nil {
				rows.Close()
				err = fmt.Errorf("stats group scan failed: %w", scanErr)
				return nil, err
			}
			g.dest[key] = count
		}
		if err = rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("stats group rows error: %w", err)
		}
		rows.Close()
	}

	var avgWidth, avgHeight, avgSize float64
	err = d.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(width), 0), COALESCE(AVG(height), 0), COALESCE(AVG(file_size), 0)
		FROM textures
	`).Scan(&avgWidth, &avgHeight, &avgSize)
	if err != nil {
		return nil, fmt.Errorf("stats averages failed: %w", err)
	}

	stats.AvgWidth = round2(avgWidth)
	stats.AvgHeight = round2(avgHeight)
	stats.AvgFileSize = round2(avgSize)

	return stats, nil
}

// round2 rounds to two decimal places for display-friendly averages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
