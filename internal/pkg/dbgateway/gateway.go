package dbgateway

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Result carries the outcome of a write statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Gateway is the minimal query-execution surface used by components
// that build their SQL per entity type (the versioning engine). All
// statements are parameterized; callers never interpolate input.
type Gateway interface {
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	FetchOne(ctx context.Context, query string, args ...interface{}) (map[string]string, error)
	FetchAll(ctx context.Context, query string, args ...interface{}) ([]map[string]string, error)
}

type sqlGateway struct {
	db *sql.DB
}

// NewFromGorm derives a Gateway from the shared GORM handle.
func NewFromGorm(db *gorm.DB) (Gateway, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &sqlGateway{db: sqlDB}, nil
}

// New wraps a raw sql.DB (used by tests with a driver fake).
func New(db *sql.DB) Gateway {
	return &sqlGateway{db: db}
}

func (g *sqlGateway) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		lastID = 0
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return Result{LastInsertID: lastID, RowsAffected: affected}, nil
}

// FetchOne returns the first row as column name -> string value, or
// nil when the query matches nothing. NULL columns are omitted.
func (g *sqlGateway) FetchOne(ctx context.Context, query string, args ...interface{}) (map[string]string, error) {
	rows, err := g.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (g *sqlGateway) FetchAll(ctx context.Context, query string, args ...interface{}) ([]map[string]string, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]string
	for rows.Next() {
		raw := make([]sql.RawBytes, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			if raw[i] == nil {
				continue
			}
			row[col] = string(raw[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
