// Package sqlexec runs relq commands against SQL Server through database/sql
// and the go-mssqldb driver.
//
//	db, err := sqlexec.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	rows, err := db.Session().Query("Customer").WhereOp("Region", relq.Equal, "EU").ToList(ctx)
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/zoobzio/relq"
)

// Conn is the subset of *sql.DB and *sql.Tx the executor needs.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger for failures and slow commands.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// WithCommandTimeout bounds every command. Zero leaves the context alone.
func WithCommandTimeout(d time.Duration) Option {
	return func(db *DB) {
		db.timeout = d
	}
}

// WithSlowThreshold logs commands slower than d at Warn. Zero disables it.
func WithSlowThreshold(d time.Duration) Option {
	return func(db *DB) {
		db.slow = d
	}
}

// DB is a relq.Executor over a database/sql connection.
type DB struct {
	conn    Conn
	closer  func() error
	logger  *slog.Logger
	timeout time.Duration
	slow    time.Duration
	schema  string
}

var _ relq.Executor = (*DB)(nil)

// New wraps conn, typically a *sql.DB or *sql.Tx.
func New(conn Conn, opts ...Option) *DB {
	db := &DB{conn: conn}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	return db
}

// WithTx returns a copy of db running its commands inside tx.
func (db *DB) WithTx(tx *sql.Tx) *DB {
	c := *db
	c.conn = tx
	c.closer = nil
	return &c
}

// Close closes the underlying pool when db owns it.
func (db *DB) Close() error {
	if db.closer == nil {
		return nil
	}
	return db.closer()
}

// Session returns a relq session executing through db.
func (db *DB) Session(opts ...relq.Option) *relq.Session {
	base := []relq.Option{relq.WithLogger(db.logger)}
	if db.schema != "" {
		base = append(base, relq.WithSchema(db.schema))
	}
	return relq.NewSession(db, append(base, opts...)...)
}

// Query implements relq.Executor.
func (db *DB) Query(ctx context.Context, cmd relq.Command) (records []relq.Record, err error) {
	ctx, done := db.begin(ctx, cmd)
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, cmd.SQL, Args(cmd.Parameters)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(relq.Record, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Scalar implements relq.Executor. A NULL or missing value is nil.
func (db *DB) Scalar(ctx context.Context, cmd relq.Command) (value any, err error) {
	ctx, done := db.begin(ctx, cmd)
	defer func() { done(err) }()

	err = db.conn.QueryRowContext(ctx, cmd.SQL, Args(cmd.Parameters)...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

// NonQuery implements relq.Executor.
func (db *DB) NonQuery(ctx context.Context, cmd relq.Command) (affected int64, err error) {
	ctx, done := db.begin(ctx, cmd)
	defer func() { done(err) }()

	res, err := db.conn.ExecContext(ctx, cmd.SQL, Args(cmd.Parameters)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// begin applies the command timeout and returns a func that logs the outcome.
func (db *DB) begin(ctx context.Context, cmd relq.Command) (context.Context, func(error)) {
	cancel := context.CancelFunc(func() {})
	if db.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, db.timeout)
	}
	start := time.Now()
	return ctx, func(err error) {
		defer cancel()
		elapsed := time.Since(start)
		if err != nil {
			db.logger.ErrorContext(ctx, "command failed",
				slog.String("sql", cmd.SQL),
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()),
			)
			return
		}
		if db.slow > 0 && elapsed >= db.slow {
			db.logger.WarnContext(ctx, "slow command",
				slog.String("sql", cmd.SQL),
				slog.Int("params", len(cmd.Parameters)),
				slog.Duration("duration", elapsed),
			)
		}
	}
}

// Args converts parameters to named driver arguments, mapping Guid and
// AnsiString parameters onto the driver's UNIQUEIDENTIFIER and VARCHAR types.
func Args(params []relq.Parameter) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = sql.Named(p.Name, value(p))
	}
	return args
}

func value(p relq.Parameter) any {
	switch p.Type {
	case relq.DBTypeGuid:
		switch u := p.Value.(type) {
		case uuid.UUID:
			return mssql.UniqueIdentifier(u)
		case *uuid.UUID:
			if u == nil {
				return nil
			}
			return mssql.UniqueIdentifier(*u)
		}
	case relq.DBTypeAnsiString:
		switch s := p.Value.(type) {
		case string:
			return mssql.VarChar(s)
		case *string:
			if s == nil {
				return nil
			}
			return mssql.VarChar(*s)
		}
	}
	return p.Value
}

// Open connects to SQL Server with cfg and verifies the connection.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	base := []Option{WithCommandTimeout(cfg.CommandTimeout), WithSlowThreshold(cfg.SlowThreshold)}
	db := New(pool, append(base, opts...)...)
	db.closer = pool.Close
	db.schema = cfg.Schema
	return db, nil
}
