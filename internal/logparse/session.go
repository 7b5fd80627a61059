package logparse

import (
	"strings"

	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

const (
	waitedIdly     = "Waited Idly"
	waitedArrival  = "Waited for the arrival of "
	followedPrefix = "Followed the "
)

// Parser turns a decompressed action log into a Session
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new log parser
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ParseSession segments the log, parses every day, attaches owners and
// normalizes empty turns
func (p *Parser) ParseSession(name, sessionID, text string) *types.Session {
	roster := ResolvePlayers(text)
	days := Segment(text).ByKey()

	session := &types.Session{
		SessionName:       name,
		SessionID:         sessionID,
		Players:           roster.Players,
		CharacterToPlayer: roster.CharacterToPlayer,
		DayKeys:           days.Keys(),
		Days:              make(map[string]*types.DayRecord, days.Len()),
	}

	for _, key := range session.DayKeys {
		block, _ := days.Get(key)
		record := ParseDay(Lines(block.Text), roster.CharacterToPlayer)
		record.Month = block.Month
		record.Day = block.Day
		session.Days[key] = record

		if len(record.Unrecognized) > 0 {
			p.logger.Debug("Dropped unrecognized log lines",
				zap.String("session", name),
				zap.String("day", key),
				zap.Int("count", len(record.Unrecognized)))
		}
	}

	NormalizeTurns(session)

	p.logger.Info("Parsed session log",
		zap.String("session", name),
		zap.Int("days", len(session.DayKeys)),
		zap.Int("players", len(session.Players)),
		zap.Int("characters", len(session.CharacterToPlayer)))

	return session
}

// NormalizeTurns replaces the empty action list of a turn with a single
// synthetic wait action. When the same character's turn on the following day
// begins with "Followed the X", the wait names X as the awaited arrival.
func NormalizeTurns(session *types.Session) {
	for i, key := range session.DayKeys {
		record := session.Days[key]
		if record == nil {
			continue
		}
		var nextDay *types.DayRecord
		if i+1 < len(session.DayKeys) {
			nextDay = session.Days[session.DayKeys[i+1]]
		}

		for _, turn := range record.CharacterTurns {
			if len(turn.Actions) > 0 {
				continue
			}
			action := waitedIdly
			if followed, ok := followedOnDay(nextDay, turn.Character); ok {
				action = waitedArrival + followed
			}
			turn.Actions = []types.Action{{Action: action, Result: ""}}
		}
	}
}

// followedOnDay returns X when the character's turn on day starts with "Followed the X"
func followedOnDay(day *types.DayRecord, character string) (string, bool) {
	if day == nil {
		return "", false
	}
	for _, turn := range day.CharacterTurns {
		if turn.Character != character || len(turn.Actions) == 0 {
			continue
		}
		first := turn.Actions[0].Action
		if strings.HasPrefix(first, followedPrefix) {
			return strings.TrimPrefix(first, followedPrefix), true
		}
		return "", false
	}
	return "", false
}
