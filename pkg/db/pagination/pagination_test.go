package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2025-06-01T12:00:00Z"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2025-06-01T12:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!")
	assert.Error(t, err)

	_, err = DecodeCursor("bm90LWpzb24")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ ID string }
	extract := func(r *row) string { return "cursor-" + r.ID }

	rows := []*row{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	trimmed, info := BuildCursorPageInfo(rows, 2, extract)
	require.Len(t, trimmed, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "cursor-2", info.NextPageToken)

	trimmed, info = BuildCursorPageInfo(rows[:2], 2, extract)
	require.Len(t, trimmed, 2)
	assert.False(t, info.HasMore)
	assert.Equal(t, "cursor-2", info.NextPageToken)

	trimmed, info = BuildCursorPageInfo(nil, 2, extract)
	assert.Empty(t, trimmed)
	assert.False(t, info.HasMore)
}
