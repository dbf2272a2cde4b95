package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCursorRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: now, ID: 42})

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(now))
	assert.EqualValues(t, 42, decoded.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = ParseCursor(EncodeCursor(Cursor{}))
	assert.ErrorIs(t, err, ErrInvalidCursor, "id zero never points at a row")
}

func TestScopePagesByDescendingID(t *testing.T) {
	type galleyNote struct {
		ID   uint
		Body string
	}
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&galleyNote{}))
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&galleyNote{Body: "note"}).Error)
	}
	cursorOf := func(n galleyNote) Cursor { return Cursor{ID: n.ID} }

	var rows []galleyNote
	require.NoError(t, conn.Scopes(Scope(nil, 2)).Find(&rows).Error)
	first := BuildPage(rows, 2, cursorOf)
	require.Len(t, first.Items, 2)
	assert.EqualValues(t, 5, first.Items[0].ID)

	next, err := ParseCursor(first.NextCursor)
	require.NoError(t, err)
	rows = nil
	require.NoError(t, conn.Scopes(Scope(next, 2)).Find(&rows).Error)
	second := BuildPage(rows, 2, cursorOf)
	assert.EqualValues(t, []uint{3, 2}, []uint{second.Items[0].ID, second.Items[1].ID})
	assert.NotEmpty(t, second.NextCursor)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+5))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestBuildPage(t *testing.T) {
	type row struct{ id uint }
	cursorOf := func(r row) Cursor { return Cursor{ID: r.id} }

	page := BuildPage([]row{{1}, {2}, {3}}, 2, cursorOf)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.ID)

	last := BuildPage([]row{{1}}, 2, cursorOf)
	assert.Empty(t, last.NextCursor)

	none := BuildPage[row](nil, 2, cursorOf)
	assert.NotNil(t, none.Items)
}
