package title

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"sort"

	"github.com/user/hundred-acre-realm/internal/types"
)

var clearingSuffixRe = regexp.MustCompile(`\s+\d+$`)

var (
	adjectives = []string{"Crimson", "Whispering", "Forgotten", "Gilded", "Shattered", "Moonlit", "Restless", "Hollow", "Cursed", "Wandering"}
	nouns      = []string{"Hoard", "Oath", "Vigil", "Bargain", "Crossing", "Ambush", "Pilgrimage", "Reckoning", "Feast", "Gambit"}
	places     = []string{"the Deep Woods", "the Borderland", "the Cavern", "the High Pass", "the Ruins", "the Bad Valley"}
)

// DiceRoller picks random values for the word-list titler
type DiceRoller struct {
	rng *rand.Rand
}

// NewDiceRoller creates a new dice roller seeded with seed
func NewDiceRoller(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Roll rolls a dice with the specified number of sides
func (dr *DiceRoller) Roll(sides int) int {
	return dr.rng.Intn(sides) + 1
}

// Pick returns one of the given words
func (dr *DiceRoller) Pick(words []string) string {
	return words[dr.Roll(len(words))-1]
}

// WordListTitler builds titles from fixed word lists, seeded by the session
// so the same session always gets the same title
type WordListTitler struct{}

// NewWordListTitler creates a new word-list titler
func NewWordListTitler() *WordListTitler {
	return &WordListTitler{}
}

// GenerateTitle returns a title built from the session's characters and places
func (wt *WordListTitler) GenerateTitle(_ context.Context, session *types.Session) (string, error) {
	dice := NewDiceRoller(seedFor(session))

	place := dice.Pick(places)
	if visited := Locations(session); len(visited) > 0 {
		place = dice.Pick(visited)
	}

	characters := sortedCharacters(session)

	switch dice.Roll(3) {
	case 1:
		return fmt.Sprintf("The %s %s of %s", dice.Pick(adjectives), dice.Pick(nouns), place), nil
	case 2:
		if len(characters) > 0 {
			return fmt.Sprintf("%s and the %s %s", dice.Pick(characters), dice.Pick(adjectives), dice.Pick(nouns)), nil
		}
		fallthrough
	default:
		return fmt.Sprintf("%s %s at %s", dice.Pick(adjectives), dice.Pick(nouns), place), nil
	}
}

func seedFor(session *types.Session) int64 {
	h := fnv.New64a()
	h.Write([]byte(session.SessionID))
	h.Write([]byte(session.SessionName))
	return int64(h.Sum64())
}

// Locations returns the distinct tiles where battles were fought, or where
// turns ended when there were no battles, in sorted order
func Locations(session *types.Session) []string {
	battles := make(map[string]bool)
	ends := make(map[string]bool)
	for _, key := range session.DayKeys {
		record := session.Days[key]
		if record == nil {
			continue
		}
		for _, battle := range record.Battles {
			battles[clearingSuffixRe.ReplaceAllString(battle.Location, "")] = true
		}
		for _, turn := range record.CharacterTurns {
			if turn.EndLocation != "" {
				ends[clearingSuffixRe.ReplaceAllString(turn.EndLocation, "")] = true
			}
		}
	}
	if len(battles) > 0 {
		return sortedKeys(battles)
	}
	return sortedKeys(ends)
}

func sortedCharacters(session *types.Session) []string {
	set := make(map[string]bool, len(session.CharacterToPlayer))
	for character := range session.CharacterToPlayer {
		set[character] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
