package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 256

var (
	dbTracer           = otel.Tracer("budgetbully.db")
	dbMeter            = otel.Meter("budgetbully.db")
	dbQueryDuration, _ = dbMeter.Float64Histogram("db.client.operation.duration",
		metric.WithDescription("Database statement duration in seconds"),
		metric.WithUnit("s"),
	)
)

type DB struct {
	*sql.DB
}

func New(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Notify publishes payload on a LISTEN channel.
func (db *DB) Notify(ctx context.Context, channel, payload string) error {
	if _, err := db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, payload); err != nil {
		return fmt.Errorf("failed to notify %s: %w", channel, err)
	}
	return nil
}

// QueryContext runs query inside a db.Query span.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, op := startOp(ctx, "db.Query", query)
	rows, err := db.DB.QueryContext(ctx, query, args...)
	op.end(err)
	return rows, err
}

// ExecContext runs query inside a db.Exec span.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, op := startOp(ctx, "db.Exec", query)
	result, err := db.DB.ExecContext(ctx, query, args...)
	op.end(err)
	return result, err
}

// QueryRowContext leaves the span open until Scan, where sql.Row reports
// its errors, sql.ErrNoRows included.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *tracedRow {
	ctx, op := startOp(ctx, "db.QueryRow", query)
	return &tracedRow{row: db.DB.QueryRowContext(ctx, query, args...), op: op}
}

type tracedRow struct {
	row *sql.Row
	op  *dbOp
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.op != nil {
		r.op.end(err)
		r.op = nil
	}
	return err
}

type dbOp struct {
	ctx   context.Context
	span  trace.Span
	verb  string
	start time.Time
}

func startOp(ctx context.Context, name, query string) (context.Context, *dbOp) {
	verb := extractSQLVerb(query)
	ctx, span := dbTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", verb),
		attribute.String("db.statement", sanitizeQuery(query)),
	))
	return ctx, &dbOp{ctx: ctx, span: span, verb: verb, start: time.Now()}
}

// end records err on the span. sql.ErrNoRows is a lookup miss, not a failure.
func (o *dbOp) end(err error) {
	failed := err != nil && !errors.Is(err, sql.ErrNoRows)
	if failed {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	dbQueryDuration.Record(o.ctx, time.Since(o.start).Seconds(), metric.WithAttributes(
		attribute.String("db.operation", o.verb),
		attribute.Bool("error", failed),
	))
	o.span.End()
}

// sanitizeQuery masks string and numeric literals so values never reach
// traces. $N placeholders are kept.
func sanitizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))

	for i := 0; i < len(q); {
		ch := q[i]
		switch {
		case ch == '\'':
			b.WriteString("'?'")
			i = skipStringLiteral(q, i+1)
		case unicode.IsDigit(rune(ch)) && (i == 0 || !isIdentChar(q[i-1])):
			b.WriteByte('?')
			for i < len(q) && (unicode.IsDigit(rune(q[i])) || q[i] == '.') {
				i++
			}
		default:
			b.WriteByte(ch)
			i++
		}
	}

	s := b.String()
	if len(s) > maxStatementLen {
		return s[:maxStatementLen] + "..."
	}
	return s
}

// skipStringLiteral returns the index just past the closing quote of a
// literal whose body starts at i. Doubled quotes are escapes.
func skipStringLiteral(q string, i int) int {
	for i < len(q) {
		if q[i] == '\'' {
			if i+1 < len(q) && q[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '$'
}

// extractSQLVerb returns the first keyword, skipping leading "--" comment lines.
func extractSQLVerb(q string) string {
	for _, line := range strings.Split(q, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return strings.ToUpper(strings.TrimRight(fields[0], ";"))
		}
	}
	return ""
}
