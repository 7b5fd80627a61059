package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Session represents one played game as derived from its log and game-state snapshot
type Session struct {
	SessionName       string                `json:"sessionName"`
	SessionID         string                `json:"sessionId"`
	Players           map[string]*Player    `json:"players"`
	CharacterToPlayer map[string]string     `json:"characterToPlayer"`
	DayKeys           []string              `json:"dayKeys"`
	Days              map[string]*DayRecord `json:"days"`
}

// Player represents a human player and the characters they joined with
type Player struct {
	Name       string   `json:"name"`
	Characters []string `json:"characters"`
}

// DayRecord represents one in-game day
type DayRecord struct {
	Month          int              `json:"month"`
	Day            int              `json:"day"`
	MonsterDieRoll *int             `json:"monsterDieRoll"`
	CharacterTurns []*CharacterTurn `json:"characterTurns"`
	Battles        []*Battle        `json:"battles"`
	MonsterSpawns  []MonsterSpawn   `json:"monsterSpawns"`
	MonsterBlocks  []MonsterBlock   `json:"monsterBlocks"`

	// Lines that matched no known pattern, kept for diagnostics only
	Unrecognized []string `json:"-"`
}

// NewDayRecord creates an empty day record with initialized lists
func NewDayRecord() *DayRecord {
	return &DayRecord{
		CharacterTurns: make([]*CharacterTurn, 0),
		Battles:        make([]*Battle, 0),
		MonsterSpawns:  make([]MonsterSpawn, 0),
		MonsterBlocks:  make([]MonsterBlock, 0),
	}
}

// CharacterTurn represents one character's turn within a day
type CharacterTurn struct {
	Character     string   `json:"character"`
	Player        string   `json:"player"`
	StartLocation string   `json:"startLocation"`
	EndLocation   string   `json:"endLocation"`
	Actions       []Action `json:"actions"`
}

// Action represents a single recorded action and its result
type Action struct {
	Action string `json:"action"`
	Result string `json:"result"`
}

// MonsterSpawn represents a monster being placed on the map
type MonsterSpawn struct {
	Monster  string `json:"monster"`
	Tile     string `json:"tile"`
	Clearing int    `json:"clearing"`
	Location string `json:"location"`
}

// MonsterBlock represents a monster blocking a character
type MonsterBlock struct {
	Monster   string `json:"monster"`
	Character string `json:"character"`
}

// Battle represents one combat resolution at a location
type Battle struct {
	Location string   `json:"location"`
	Groups   []*Group `json:"groups"`
	Rounds   []*Round `json:"rounds"`
}

// Group represents one side of a battle
type Group struct {
	Number       int      `json:"number"`
	Participants []string `json:"participants"`
}

// Round represents one combat round with its categorized events
type Round struct {
	Number         int            `json:"number"`
	Phase          *string        `json:"phase"`
	Actions        []CombatAction `json:"actions"`
	Attacks        []string       `json:"attacks"`
	Damage         []string       `json:"damage"`
	ArmorDestroyed []string       `json:"armorDestroyed"`
	Deaths         []string       `json:"deaths"`
	FameGains      []CombatAction `json:"fameGains"`
	Spells         []CombatAction `json:"spells"`
	Fatigue        []CombatAction `json:"fatigue"`
	Disengagement  []CombatAction `json:"disengagement"`
}

// NewRound creates an empty round with initialized event lists
func NewRound(number int) *Round {
	return &Round{
		Number:         number,
		Actions:        make([]CombatAction, 0),
		Attacks:        make([]string, 0),
		Damage:         make([]string, 0),
		ArmorDestroyed: make([]string, 0),
		Deaths:         make([]string, 0),
		FameGains:      make([]CombatAction, 0),
		Spells:         make([]CombatAction, 0),
		Fatigue:        make([]CombatAction, 0),
		Disengagement:  make([]CombatAction, 0),
	}
}

// CombatAction pairs a performer with the free-text action they took.
// Performer is empty for system-generated lines.
type CombatAction struct {
	Performer string `json:"performer"`
	Action    string `json:"action"`
}

// DayKey formats the key used to index a session's days
func DayKey(month, day int) string {
	if month == 0 {
		return strconv.Itoa(day)
	}
	return fmt.Sprintf("%d_%d", month, day)
}

// ParseDayKey splits a day key into month and day; bare keys have month 0
func ParseDayKey(key string) (month, day int, err error) {
	monthPart, dayPart, found := strings.Cut(key, "_")
	if !found {
		day, err = strconv.Atoi(key)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid day key %q", key)
		}
		return 0, day, nil
	}
	if month, err = strconv.Atoi(monthPart); err != nil {
		return 0, 0, fmt.Errorf("invalid day key %q", key)
	}
	if day, err = strconv.Atoi(dayPart); err != nil {
		return 0, 0, fmt.Errorf("invalid day key %q", key)
	}
	return month, day, nil
}

// DayBefore reports whether (m1, d1) is strictly earlier than (m2, d2)
func DayBefore(m1, d1, m2, d2 int) bool {
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

// Processing outcomes of a session
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// SessionSummary is the indexed outcome of processing one session
type SessionSummary struct {
	Name           string    `json:"name" db:"name"`
	SessionID      string    `json:"sessionId" db:"session_id"`
	Status         string    `json:"status" db:"status"`
	Error          string    `json:"error,omitempty" db:"error"`
	InputHash      string    `json:"inputHash" db:"input_hash"`
	Title          string    `json:"title,omitempty" db:"title"`
	DayCount       int       `json:"dayCount" db:"day_count"`
	CharacterCount int       `json:"characterCount" db:"character_count"`
	RunID          string    `json:"runId" db:"run_id"`
	ProcessedAt    time.Time `json:"processedAt" db:"processed_at"`
}
