package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func traceQuery(l *GormLogger, ctx context.Context, elapsed time.Duration, err error) {
	begin := time.Now().Add(-elapsed)
	l.Trace(ctx, begin, func() (string, int64) {
		return "SELECT * FROM invoices WHERE status = 'UNPAID'", 3
	}, err)
}

func TestGormLoggerTraceQuery(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Info)

	traceQuery(gl, context.Background(), time.Millisecond, nil)

	entries := logs.FilterMessage("SQL Query").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["rows"])
	assert.Contains(t, fields["sql"], "FROM invoices")
}

func TestGormLoggerSlowQuery(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

	traceQuery(gl, context.Background(), 50*time.Millisecond, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "warn", entry.Level.String())
	assert.Contains(t, entry.Message, "SLOW SQL")
}

func TestGormLoggerZeroThresholdDisablesSlowFlag(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Warn, WithSlowThreshold(0))

	traceQuery(gl, context.Background(), time.Second, nil)

	assert.Zero(t, logs.Len())
}

func TestGormLoggerError(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Error)

	traceQuery(gl, context.Background(), time.Millisecond, assert.AnError)

	entries := logs.FilterMessage("SQL Error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level.String())
}

func TestGormLoggerIgnoresRecordNotFound(t *testing.T) {
	log, logs := observedLogger()

	gl := NewGormLogger(log, gormlogger.Error)
	traceQuery(gl, context.Background(), time.Millisecond, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	gl = NewGormLogger(log, gormlogger.Error, WithIgnoreRecordNotFoundError(false))
	traceQuery(gl, context.Background(), time.Millisecond, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 1, logs.Len())
}

func TestGormLoggerSilent(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Silent)

	traceQuery(gl, context.Background(), time.Second, assert.AnError)

	assert.Zero(t, logs.Len())
}

func TestGormLoggerRequestCorrelation(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-db")
	traceQuery(gl, ctx, time.Millisecond, nil)

	entries := logs.FilterMessage("SQL Query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-db", entries[0].ContextMap()["request_id"])
}

func TestGormLoggerLogMode(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Silent)

	raised := gl.LogMode(gormlogger.Info)
	traceQuery(raised.(*GormLogger), context.Background(), time.Millisecond, nil)
	assert.Equal(t, 1, logs.Len())

	// the original keeps its level
	traceQuery(gl, context.Background(), time.Millisecond, nil)
	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	for in, want := range map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"debug":  gormlogger.Info,
		"other":  gormlogger.Warn,
	} {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}

func TestGormLoggerInfoWarnError(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Info)

	gl.Info(context.Background(), "migrating %s", "invoices")
	gl.Warn(context.Background(), "retrying %d", 2)
	gl.Error(context.Background(), "connect failed")

	assert.Equal(t, 3, logs.Len())
}
