package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

type testModel struct {
	ID   uint
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), GormConfig())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := FromGorm(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPing(t *testing.T) {
	client := FromGorm(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestMapError(t *testing.T) {
	conn := newTestDB(t)
	require.NoError(t, conn.Create(&testModel{Name: "dup"}).Error)
	dupErr := conn.Create(&testModel{Name: "dup"}).Error
	require.Error(t, dupErr)
	assert.True(t, IsUniqueViolation(dupErr, ""))

	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(MapError(dupErr, "vendor")))

	var missing testModel
	notFound := conn.First(&missing, 999).Error
	assert.True(t, IsNotFound(notFound))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(MapError(notFound, "vendor")))

	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(MapError(errors.New("io timeout"), "vendor")))
	assert.NoError(t, MapError(nil, "vendor"))

	typed := pkgerrors.New(pkgerrors.CodeForbidden, "nope")
	assert.Same(t, typed, MapError(typed, "vendor"))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := FromGorm(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&testModel{Name: "half-written"}).Error)
			panic("catering sync crashed")
		})
	})

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "file::memory:", Driver: "mysql"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
