package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	processedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	summary := types.SessionSummary{
		Name:           "game-1",
		SessionID:      "id-1",
		Status:         types.StatusSucceeded,
		InputHash:      "abc",
		Title:          "The Gilded Oath",
		DayCount:       28,
		CharacterCount: 3,
		RunID:          "run-1",
		ProcessedAt:    processedAt,
	}
	require.NoError(t, idx.Record(ctx, summary))

	got, err := idx.Get(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.SessionID)
	assert.Equal(t, 28, got.DayCount)
	assert.Equal(t, "The Gilded Oath", got.Title)
	assert.True(t, processedAt.Equal(got.ProcessedAt))

	// Recording again replaces the row
	summary.Status = types.StatusFailed
	summary.Error = "boom"
	require.NoError(t, idx.Record(ctx, summary))

	got, err = idx.Get(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestGetMissing(t *testing.T) {
	_, err := openTestIndex(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndCount(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	for _, s := range []types.SessionSummary{
		{Name: "b", Status: types.StatusSucceeded},
		{Name: "a", Status: types.StatusFailed, Error: "corrupt"},
		{Name: "c", Status: types.StatusSucceeded},
	} {
		require.NoError(t, idx.Record(ctx, s))
	}

	list, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.False(t, list[0].ProcessedAt.IsZero())

	counts, err := idx.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{types.StatusSucceeded: 2, types.StatusFailed: 1}, counts)
}

func TestOpenFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "sessions.db")
	idx, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Close())
}
