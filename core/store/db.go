package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aibvs/config"
	"aibvs/core/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps database/sql with the driver name so that stores written with `?`
// placeholders run unchanged against both the embedded sqlite store and
// postgres (placeholders are rebound to $n at execution time).
type DB struct {
	*sql.DB
	driver string
}

func (d *DB) Driver() string {
	return d.driver
}

func Open(cfg *config.AppConfig, logger *utils.Logger) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch driver {
	case "", DriverSQLite:
		path := cfg.DBPath
		if path == "" {
			return nil, errors.New("store: db_path required for sqlite")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("store: create db dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
		// The sqlite driver serializes writers; a single connection avoids
		// SQLITE_BUSY churn under concurrent requests.
		db.SetMaxOpenConns(1)
		logger.Printf("store: opened sqlite database at %s", path)
		return &DB{DB: db, driver: DriverSQLite}, nil
	case DriverPostgres:
		if cfg.DBURL == "" {
			return nil, errors.New("store: db_url required for postgres")
		}
		db, err := sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, err
		}
		logger.Printf("store: opened postgres database")
		return &DB{DB: db, driver: DriverPostgres}, nil
	default:
		return nil, fmt.Errorf("store: unsupported db driver %q", driver)
	}
}

// rebind converts `?` placeholders to `$n` for postgres. Queries in this
// package never contain a literal question mark outside a placeholder.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.QueryRowContext(ctx, d.rebind(query), args...)
}

// insert runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so the statement gains a RETURNING clause there.
func (d *DB) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if d.driver == DriverPostgres {
		var id int64
		err := d.QueryRowContext(ctx, d.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := d.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Tx mirrors the DB helpers inside a transaction.
type Tx struct {
	tx     *sql.Tx
	driver string
}

func (d *DB) begin(ctx context.Context) (*Tx, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, driver: d.driver}, nil
}

func (t *Tx) rebind(query string) string {
	if t.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.rebind(query), args...)
}

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.rebind(query), args...)
}

func (t *Tx) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if t.driver == DriverPostgres {
		var id int64
		err := t.tx.QueryRowContext(ctx, t.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }
