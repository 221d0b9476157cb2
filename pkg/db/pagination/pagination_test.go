package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []string{"a", "b", "c"}
	kept, info, err := BuildCursorPageInfo(rows, 2, func(v string) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, kept)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "b", cursor.ID)

	kept, info, err = BuildCursorPageInfo(rows, 3, func(v string) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Len(t, kept, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}
