package logparse

import (
	"regexp"
	"strings"

	"github.com/user/hundred-acre-realm/internal/types"
)

var newPlayerRe = regexp.MustCompile(`New player joins: (.+)$`)

const (
	joinsGameLine   = "Joins the game."
	gameStartedText = "Host has started the game"
)

// Roster maps players to their characters and back
type Roster struct {
	Players           map[string]*types.Player
	CharacterToPlayer map[string]string
}

// ResolvePlayers scans the full log for player and character join markers
func ResolvePlayers(text string) Roster {
	roster := Roster{
		Players:           make(map[string]*types.Player),
		CharacterToPlayer: make(map[string]string),
	}

	lines := trimmedLines(text)
	for i, line := range lines {
		m := newPlayerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		player, ok := roster.Players[name]
		if !ok {
			player = &types.Player{Name: name, Characters: make([]string, 0)}
			roster.Players[name] = player
		}

		// Collect characters until the game starts or the next player joins
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], gameStartedText) || newPlayerRe.MatchString(lines[j]) {
				break
			}
			if j+1 < len(lines) && lines[j+1] == joinsGameLine {
				roster.addCharacter(player, lines[j])
			}
		}
	}

	return roster
}

func (r Roster) addCharacter(player *types.Player, character string) {
	// The first player to join a character keeps it
	if owner, owned := r.CharacterToPlayer[character]; owned && owner != player.Name {
		return
	}
	r.CharacterToPlayer[character] = player.Name
	for _, existing := range player.Characters {
		if existing == character {
			return
		}
	}
	player.Characters = append(player.Characters, character)
}

func trimmedLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
