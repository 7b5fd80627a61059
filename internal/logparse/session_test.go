package logparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

func TestParseSession(t *testing.T) {
	text := `New player joins: Alice
Amazon
Joins the game.
Host has started the game
Month 1, Day 1
Amazon
Starts turn: Bad Valley 1
Amazon
Ends turn: Bad Valley 1
Month 1, Day 2
Amazon
Starts turn: Bad Valley 1
Amazon
Hide - Succeeded
Amazon
Ends turn: Bad Valley 1
`
	parser := NewParser(zap.NewNop())
	session := parser.ParseSession("game-1", "id-1", text)

	assert.Equal(t, "game-1", session.SessionName)
	assert.Equal(t, "id-1", session.SessionID)
	assert.Equal(t, []string{"1_1", "1_2"}, session.DayKeys)
	assert.Equal(t, "Alice", session.CharacterToPlayer["Amazon"])

	day1 := session.Days["1_1"]
	require.NotNil(t, day1)
	assert.Equal(t, 1, day1.Month)
	assert.Equal(t, 1, day1.Day)
	require.Len(t, day1.CharacterTurns, 1)
	assert.Equal(t, "Alice", day1.CharacterTurns[0].Player)
	assert.Equal(t, []types.Action{{Action: "Waited Idly", Result: ""}}, day1.CharacterTurns[0].Actions)

	day2 := session.Days["1_2"]
	assert.Equal(t, []types.Action{{Action: "Hide", Result: "Succeeded"}}, day2.CharacterTurns[0].Actions)
}

func TestNormalizeTurnsFollowLookAhead(t *testing.T) {
	session := &types.Session{
		DayKeys: []string{"1_1", "1_2", "1_3"},
		Days: map[string]*types.DayRecord{
			"1_1": {CharacterTurns: []*types.CharacterTurn{
				{Character: "Swordsman"},
				{Character: "Amazon"},
			}},
			"1_2": {CharacterTurns: []*types.CharacterTurn{
				{Character: "Swordsman", Actions: []types.Action{{Action: "Followed the Amazon"}}},
				{Character: "Amazon", Actions: []types.Action{{Action: "Hide", Result: "Failed"}}},
			}},
			"1_3": {CharacterTurns: []*types.CharacterTurn{
				{Character: "Swordsman"},
			}},
		},
	}

	NormalizeTurns(session)

	day1 := session.Days["1_1"].CharacterTurns
	assert.Equal(t, []types.Action{{Action: "Waited for the arrival of Amazon", Result: ""}}, day1[0].Actions)
	assert.Equal(t, []types.Action{{Action: "Waited Idly", Result: ""}}, day1[1].Actions)

	// The last day has no look-ahead
	assert.Equal(t, []types.Action{{Action: "Waited Idly", Result: ""}}, session.Days["1_3"].CharacterTurns[0].Actions)

	// Non-empty turns are untouched
	assert.Len(t, session.Days["1_2"].CharacterTurns[0].Actions, 1)
}

func TestParseSessionEmptyLog(t *testing.T) {
	session := NewParser(nil).ParseSession("empty", "id", "no markers at all\n")
	assert.Empty(t, session.DayKeys)
	assert.Empty(t, session.Days)
	assert.NotNil(t, session.Players)
}
