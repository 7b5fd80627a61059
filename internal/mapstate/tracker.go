package mapstate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/user/hundred-acre-realm/internal/types"
)

const spellAction = "Spell"

var enchantedRe = regexp.MustCompile(`enchanted (.+?)(?:[.,;]|$)`)

// EnchantmentEvent records a tile becoming enchanted
type EnchantmentEvent struct {
	Tile      string `json:"tile"`
	DayKey    string `json:"dayKey"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Character string `json:"character"`
}

// FindEnchantments scans "Spell" actions for "enchanted <tile>" results.
// Magic tokens (names containing "chit" or naming the caster) are ignored,
// and when tileNames is non-empty the name must be one of those tiles.
func FindEnchantments(session *types.Session, tileNames []string) []EnchantmentEvent {
	events := make([]EnchantmentEvent, 0)
	for _, key := range session.DayKeys {
		record := session.Days[key]
		if record == nil {
			continue
		}
		for _, turn := range record.CharacterTurns {
			for _, action := range turn.Actions {
				if action.Action != spellAction {
					continue
				}
				m := enchantedRe.FindStringSubmatch(action.Result)
				if m == nil {
					continue
				}
				tile, ok := resolveTile(strings.TrimSpace(m[1]), turn.Character, tileNames)
				if !ok {
					continue
				}
				events = append(events, EnchantmentEvent{
					Tile:      tile,
					DayKey:    key,
					Month:     record.Month,
					Day:       record.Day,
					Character: turn.Character,
				})
			}
		}
	}
	return events
}

func resolveTile(candidate, caster string, tileNames []string) (string, bool) {
	if candidate == "" || candidate == caster || strings.Contains(strings.ToLower(candidate), "chit") {
		return "", false
	}
	if len(tileNames) == 0 {
		return candidate, true
	}

	// Accept "Cliff" as well as a clearing such as "Cliff 6"
	best := ""
	for _, name := range tileNames {
		if candidate == name || strings.HasPrefix(candidate, name+" ") {
			if len(name) > len(best) {
				best = name
			}
		}
	}
	return best, best != ""
}

// Position is where a character started and ended a day
type Position struct {
	StartLocation string `json:"startLocation"`
	EndLocation   string `json:"endLocation"`
}

// DaySnapshot is the map state on one day
type DaySnapshot struct {
	DayKey     string              `json:"dayKey"`
	Tiles      map[string]bool     `json:"tiles"`
	Characters map[string]Position `json:"characters"`
}

type dayPoint struct {
	month int
	day   int
}

// Tracker answers per-day enchantment and position queries for a session
type Tracker struct {
	session *types.Session
	tiles   []string
	events  []EnchantmentEvent

	// earliest enchantment of each tile
	first map[string]dayPoint
}

// NewTracker indexes the enchantment events of a session
func NewTracker(session *types.Session, tiles []MapTile) *Tracker {
	names := TileNames(tiles)
	t := &Tracker{
		session: session,
		tiles:   names,
		events:  FindEnchantments(session, names),
		first:   make(map[string]dayPoint),
	}
	for _, e := range t.events {
		point := dayPoint{month: e.Month, day: e.Day}
		if existing, ok := t.first[e.Tile]; !ok || types.DayBefore(point.month, point.day, existing.month, existing.day) {
			t.first[e.Tile] = point
		}
	}
	return t
}

// Events returns the enchantment events in log order
func (t *Tracker) Events() []EnchantmentEvent {
	return t.events
}

// TileEnchanted reports whether the tile is enchanted on the given day.
// Enchantment never reverts.
func (t *Tracker) TileEnchanted(tile, dayKey string) bool {
	first, ok := t.first[tile]
	if !ok {
		return false
	}
	month, day, err := types.ParseDayKey(dayKey)
	if err != nil {
		return false
	}
	return !types.DayBefore(month, day, first.month, first.day)
}

// Snapshot returns every tile's enchantment and each character's positions on a day
func (t *Tracker) Snapshot(dayKey string) (DaySnapshot, error) {
	if _, _, err := types.ParseDayKey(dayKey); err != nil {
		return DaySnapshot{}, fmt.Errorf("failed to build snapshot: %w", err)
	}

	snap := DaySnapshot{
		DayKey:     dayKey,
		Tiles:      make(map[string]bool),
		Characters: make(map[string]Position),
	}
	for _, name := range t.tiles {
		snap.Tiles[name] = t.TileEnchanted(name, dayKey)
	}
	for name := range t.first {
		snap.Tiles[name] = t.TileEnchanted(name, dayKey)
	}

	if record, ok := t.session.Days[dayKey]; ok {
		for _, turn := range record.CharacterTurns {
			pos, seen := snap.Characters[turn.Character]
			if !seen {
				pos.StartLocation = turn.StartLocation
			}
			if turn.EndLocation != "" {
				pos.EndLocation = turn.EndLocation
			}
			snap.Characters[turn.Character] = pos
		}
	}

	return snap, nil
}

// States returns a snapshot for every day of the session in day order
func (t *Tracker) States() []DaySnapshot {
	states := make([]DaySnapshot, 0, len(t.session.DayKeys))
	for _, key := range t.session.DayKeys {
		snap, err := t.Snapshot(key)
		if err != nil {
			continue
		}
		states = append(states, snap)
	}
	return states
}
