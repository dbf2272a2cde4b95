package db

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

func loggedSession(t *testing.T, slow time.Duration) (*gorm.DB, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: "json"})
	conn := newTestDB(t).Session(&gorm.Session{Logger: newQueryLogger(logg, slow)})
	return conn, buf
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	conn, buf := loggedSession(t, time.Nanosecond)

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Where("name = ?", "guest-secret").Count(&count).Error)

	out := buf.String()
	assert.Contains(t, out, "db.slow_query")
	assert.Contains(t, out, `"threshold_ms":0`)
	assert.NotContains(t, out, "guest-secret")
}

func TestQueryLoggerIgnoresMissingRows(t *testing.T) {
	conn, buf := loggedSession(t, 0)

	var missing testModel
	err := conn.First(&missing, 404).Error
	require.True(t, IsNotFound(err))
	assert.Empty(t, buf.String())
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	conn, buf := loggedSession(t, 0)

	err := conn.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "db.query_failed")
}

func TestQueryLoggerSilentWithoutLogger(t *testing.T) {
	q := newQueryLogger(nil, time.Nanosecond)
	assert.False(t, q.enabled(gormlogger.Error))
	q.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		t.Fatal("statement should not be rendered")
		return "", 0
	}, nil)
}
