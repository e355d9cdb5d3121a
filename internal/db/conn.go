package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"charter/internal/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

type Dialect int

const (
	Postgres Dialect = iota
	MySQL
)

func (d Dialect) String() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgres"
}

// Querier is the subset of *sql.DB the repositories need. Queries are written
// with '?' placeholders; Conn rebinds them for the active dialect.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn wraps the shared pool together with its dialect.
type Conn struct {
	DB      *sql.DB
	Dialect Dialect
}

// Wrap adapts an existing pool (sqlmock in tests).
func Wrap(db *sql.DB, d Dialect) *Conn {
	return &Conn{DB: db, Dialect: d}
}

// Open connects using the configured driver and verifies the pool with a ping.
func Open(ctx context.Context, cfg config.DBConfig) (*Conn, error) {
	var (
		sqlDB   *sql.DB
		dialect Dialect
		err     error
	)

	dsn := cfg.RuntimeDSN()
	switch cfg.Driver {
	case config.DriverMySQL:
		dialect = MySQL
		sqlDB, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	case config.DriverPostgres:
		dialect = Postgres
		clean, pooled := stripPgBouncer(dsn)
		pcfg, perr := pgx.ParseConfig(clean)
		if perr != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", perr)
		}
		// Supabase pooler (PgBouncer) does not support prepared statements.
		if pooled {
			pcfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
			pcfg.StatementCacheCapacity = 0
			pcfg.DescriptionCacheCapacity = 0
		}
		sqlDB = stdlib.OpenDB(*pcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return &Conn{DB: sqlDB, Dialect: dialect}, nil
}

// stripPgBouncer removes the pgbouncer flag, which is a client hint and
// would otherwise be sent to the server as a runtime parameter.
func stripPgBouncer(dsn string) (string, bool) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn, false
	}
	q := u.Query()
	pooled := strings.EqualFold(q.Get("pgbouncer"), "true")
	q.Del("pgbouncer")
	u.RawQuery = q.Encode()
	return u.String(), pooled
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.DB.ExecContext(ctx, c.Rebind(query), args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, c.Rebind(query), args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.DB.QueryRowContext(ctx, c.Rebind(query), args...)
}

func (c *Conn) PingContext(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Rebind turns '?' placeholders into $1..$n for Postgres. Quoted literals are
// left alone.
func (c *Conn) Rebind(query string) string {
	if c.Dialect != Postgres {
		return query
	}
	return Rebind(query)
}

func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
