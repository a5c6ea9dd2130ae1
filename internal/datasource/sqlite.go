package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonathan/setup-scanner/internal/types"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteSource reads the day's candidates from a SQLite table with the same
// columns as PostgresSource; metadata is JSON text and scan_date is YYYY-MM-DD.
type SQLiteSource struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQLite opens the database file read-only and verifies it.
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLiteSource, error) {
	name := "sqlite:" + path
	if path == "" {
		return nil, failure(name, "database path is empty", nil)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, failure(name, "failed to open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, failure(name, "failed to open database", err)
	}

	return &SQLiteSource{db: db, path: path, table: opts.table()}, nil
}

// Name implements DataSource.
func (s *SQLiteSource) Name() string {
	return "sqlite:" + s.path
}

// Close closes the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// FetchCandidates implements DataSource.
func (s *SQLiteSource) FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error) {
	query := fmt.Sprintf(
		`SELECT id, quantity, target, metadata FROM %s WHERE date(scan_date) = ? ORDER BY id`,
		quoteIdentifier(s.table),
	)

	rows, err := s.db.QueryContext(ctx, query, day.Format(time.DateOnly))
	if err != nil {
		return nil, failure(s.Name(), "failed to query candidates", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := []types.Candidate{}
	for rows.Next() {
		var (
			c        types.Candidate
			quantity sql.NullFloat64
			target   sql.NullFloat64
			metadata sql.NullString
		)
		if err := rows.Scan(&c.ID, &quantity, &target, &metadata); err != nil {
			return nil, failure(s.Name(), "failed to scan candidate", err)
		}
		// A NULL quantity is kept as NaN and reported per candidate.
		c.Quantity = math.NaN()
		if quantity.Valid {
			c.Quantity = quantity.Float64
		}
		if target.Valid {
			v := target.Float64
			c.Target = &v
		}
		if metadata.Valid {
			decodeMetadata([]byte(metadata.String), &c)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, failure(s.Name(), "error iterating candidates", err)
	}

	return candidates, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
