package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

// queryLogger routes gorm's statement hooks into the service logger. Only
// slow statements and unexpected failures are reported; a missing row is
// normal control flow for the repositories.
type queryLogger struct {
	logg      *logger.Logger
	slow      time.Duration
	verbosity gormlogger.LogLevel
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) *queryLogger {
	level := gormlogger.Warn
	if logg == nil {
		level = gormlogger.Silent
	}
	return &queryLogger{logg: logg, slow: slow, verbosity: level}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.verbosity = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, _ ...any) {
	if q.enabled(gormlogger.Info) {
		q.logg.Debug(ctx, "db."+msg)
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, _ ...any) {
	if q.enabled(gormlogger.Warn) {
		q.logg.Warn(ctx, "db."+msg)
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, _ ...any) {
	if q.enabled(gormlogger.Error) {
		q.logg.Error(ctx, "db.error", errors.New(msg))
	}
}

// Trace is called once per statement. SQL text is logged without bound
// values, so no order or guest data leaks into the logs.
func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.verbosity <= gormlogger.Silent || q.logg == nil {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, context.Canceled)
	slow := q.slow > 0 && elapsed > q.slow
	if !failed && !slow {
		return
	}

	statement, rows := fc()
	fields := map[string]any{
		"sql":        statement,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if failed && q.enabled(gormlogger.Error) {
		q.logg.Error(q.logg.WithFields(ctx, fields), "db.query_failed", err)
		return
	}
	if slow && q.enabled(gormlogger.Warn) {
		fields["threshold_ms"] = q.slow.Milliseconds()
		q.logg.Warn(q.logg.WithFields(ctx, fields), "db.slow_query")
	}
}

// ParamsFilter drops bound values before gorm renders the statement.
func (q *queryLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

func (q *queryLogger) enabled(level gormlogger.LogLevel) bool {
	return q.logg != nil && q.verbosity >= level
}
