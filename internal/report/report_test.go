package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/hundred-acre-realm/internal/scoring"
	"github.com/user/hundred-acre-realm/internal/types"
)

func TestBatch(t *testing.T) {
	out := Batch([]types.SessionSummary{
		{Name: "game-1", Status: types.StatusSucceeded, DayCount: 28, CharacterCount: 2, Title: "The Gilded Oath"},
		{Name: "game-2", Status: types.StatusFailed, Error: "no xml entry found"},
	})

	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "game-1")
	assert.Contains(t, out, "The Gilded Oath")
	assert.Contains(t, out, "no xml entry found")
	assert.Contains(t, out, "2 sessions, 1 succeeded, 1 failed")
	assert.Less(t, strings.Index(out, "game-1"), strings.Index(out, "game-2"))
}

func TestBatchEmpty(t *testing.T) {
	assert.Contains(t, Batch(nil), "0 sessions, 0 succeeded, 0 failed")
}

func TestScores(t *testing.T) {
	records := scoring.ScoreAll([]scoring.Input{
		{Character: "Witch", Gold: 0},
		{Character: "Amazon", Gold: 90},
	})

	out := Scores(records)
	assert.Contains(t, out, "TOTAL")
	assert.Less(t, strings.Index(out, "Amazon"), strings.Index(out, "Witch"), "highest total first")
}
