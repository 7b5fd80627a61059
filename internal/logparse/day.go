package logparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/user/hundred-acre-realm/internal/types"
)

// State is the position of the day scanner in the log grammar
type State int

const (
	StateIdle State = iota
	StateInTurn
	StateInBattle
	StateInRound
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInTurn:
		return "in_turn"
	case StateInBattle:
		return "in_battle"
	case StateInRound:
		return "in_round"
	default:
		return "unknown"
	}
}

// BattleMarker opens battle mode
const BattleMarker = "__battle__"

var (
	dieRollRe     = regexp.MustCompile(`Monster Die roll is Rolled (\d+).`)
	spawnRe       = regexp.MustCompile(`^(.+) is added to (.+), clearing (\d+)`)
	blockRe       = regexp.MustCompile(`^(.+) blocks the (.+)$`)
	startsTurnRe  = regexp.MustCompile(`^Starts turn: (.+)$`)
	endsTurnRe    = regexp.MustCompile(`^Ends turn: (.+)$`)
	revealsRe     = regexp.MustCompile(`^Reveals: (.+)$`)
	tradesRe      = regexp.MustCompile(`^Trades with (.+)$`)
	followedRe    = regexp.MustCompile(`^Followed the (.+)$`)
	actionRe      = regexp.MustCompile(`^(.+?) - (.+)$`)
	locationRe    = regexp.MustCompile(`^Battle resolving at (.+):$`)
	eveningRe     = regexp.MustCompile(`^Evening of (?:Month \d+, )?Day \d+(?:,| at) (.+?):?$`)
	groupRe       = regexp.MustCompile(`^GROUP (\d+)`)
	roundRe       = regexp.MustCompile(`^-- Combat Round (\d+)`)
	phaseRe       = regexp.MustCompile(`^-(?: -){2,}\s+(.+?)\s+-(?: -){2,}$`)
	separatorRe   = regexp.MustCompile(`^(?:-{4,}|={4,})$`)
	battleCloseRe = regexp.MustCompile(`^={20,}$`)
)

// verbRule classifies the second line of a performer pair
type verbRule struct {
	category string
	match    func(string) bool
}

func containsAny(subs ...string) func(string) bool {
	return func(line string) bool {
		for _, sub := range subs {
			if strings.Contains(line, sub) {
				return true
			}
		}
		return false
	}
}

// Categories of a combat round
const (
	categoryActions       = "actions"
	categoryAttacks       = "attacks"
	categoryDamage        = "damage"
	categoryArmor         = "armorDestroyed"
	categoryDeaths        = "deaths"
	categoryFameGains     = "fameGains"
	categorySpells        = "spells"
	categoryFatigue       = "fatigue"
	categoryDisengagement = "disengagement"
)

// Tried in order; the first match wins
var verbRules = []verbRule{
	{categoryFameGains, func(line string) bool {
		lower := strings.ToLower(line)
		return strings.Contains(lower, "gains") &&
			(strings.Contains(lower, "fame") || strings.Contains(lower, "notoriety"))
	}},
	{categoryFatigue, containsAny("Fatigue", "fatigues", "Wound", "wounds")},
	{categoryDisengagement, containsAny("disengages")},
	{categorySpells, containsAny("Casts")},
	{categoryActions, containsAny("Attacks the", "Targets", "Presses the", "Changes tactics", "Lures the", "Wish")},
}

// Raw system lines, tried in order
var systemRules = []verbRule{
	{categoryDeaths, containsAny("was killed", "is killed", "was slain", "dies")},
	{categoryArmor, containsAny("destroyed")},
	{categoryDamage, containsAny("damage", "Harm", "harm")},
	{categoryAttacks, containsAny(" vs. ", " hits ", " misses ", "Attack:")},
	{categoryActions, containsAny("Rolled", "rolled", "roll:")},
}

func classify(rules []verbRule, line string) (string, bool) {
	for _, rule := range rules {
		if rule.match(line) {
			return rule.category, true
		}
	}
	return "", false
}

func isHostLine(line string) bool {
	return line == "Host" || strings.HasPrefix(line, "Host ")
}

// DayParser reconstructs one DayRecord from the lines of a day block
type DayParser struct {
	owners map[string]string

	lines []string
	pos   int
	state State

	record       *types.DayRecord
	turn         *types.CharacterTurn
	battle       *types.Battle
	group        *types.Group
	round        *types.Round
	pendingPhase *string
}

// ParseDay parses pre-trimmed day lines (see Lines). owners maps character
// names to their player and may be nil.
func ParseDay(lines []string, owners map[string]string) *types.DayRecord {
	p := &DayParser{
		owners: owners,
		lines:  lines,
		record: types.NewDayRecord(),
	}
	return p.run()
}

func (p *DayParser) run() *types.DayRecord {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		next, hasNext := p.peek()

		consumed := p.global(line)
		if consumed == 0 {
			switch p.state {
			case StateInBattle, StateInRound:
				consumed = p.battleLine(line, next, hasNext)
			default:
				consumed = p.turnLine(line, next, hasNext)
			}
		}
		if consumed == 0 {
			p.record.Unrecognized = append(p.record.Unrecognized, line)
			consumed = 1
		}
		p.pos += consumed
	}

	// End of block closes anything still open
	p.closeBattle()
	p.turn = nil
	p.state = StateIdle

	return p.record
}

func (p *DayParser) peek() (string, bool) {
	if p.pos+1 < len(p.lines) {
		return p.lines[p.pos+1], true
	}
	return "", false
}

// global handles the transitions tried first in every state
func (p *DayParser) global(line string) int {
	if m := dieRollRe.FindStringSubmatch(line); m != nil {
		if p.record.MonsterDieRoll == nil {
			roll, _ := strconv.Atoi(m[1])
			p.record.MonsterDieRoll = &roll
		}
		return 1
	}

	if m := spawnRe.FindStringSubmatch(line); m != nil {
		clearing, _ := strconv.Atoi(m[3])
		p.record.MonsterSpawns = append(p.record.MonsterSpawns, types.MonsterSpawn{
			Monster:  m[1],
			Tile:     m[2],
			Clearing: clearing,
			Location: m[2] + " " + m[3],
		})
		return 1
	}

	if m := blockRe.FindStringSubmatch(line); m != nil {
		p.record.MonsterBlocks = append(p.record.MonsterBlocks, types.MonsterBlock{
			Monster:   m[1],
			Character: m[2],
		})
		return 1
	}

	if line == BattleMarker {
		p.closeBattle()
		p.battle = &types.Battle{
			Groups: make([]*types.Group, 0),
			Rounds: make([]*types.Round, 0),
		}
		p.state = StateInBattle
		return 1
	}

	return 0
}

// turnLine handles the Idle and InTurn states
func (p *DayParser) turnLine(line, next string, hasNext bool) int {
	// Only a line that is not itself an action can name the character of the next line
	if hasNext && !isActionLine(line) {
		if m := startsTurnRe.FindStringSubmatch(next); m != nil && !isHostLine(line) {
			p.turn = &types.CharacterTurn{
				Character:     line,
				Player:        p.owners[line],
				StartLocation: m[1],
				Actions:       make([]types.Action, 0),
			}
			p.record.CharacterTurns = append(p.record.CharacterTurns, p.turn)
			p.state = StateInTurn
			return 2
		}

		if m := endsTurnRe.FindStringSubmatch(next); m != nil && p.turn != nil && p.turn.Character == line {
			p.closeTurn(m[1])
			return 2
		}
	}

	if m := endsTurnRe.FindStringSubmatch(line); m != nil {
		if p.turn == nil {
			return 0
		}
		p.closeTurn(m[1])
		return 1
	}

	if p.turn == nil {
		return 0
	}

	// Speaker lines in front of an action belong to the open turn
	if line == p.turn.Character || isHostLine(line) {
		return 1
	}

	switch {
	case revealsRe.MatchString(line):
		p.addAction("Reveal", revealsRe.FindStringSubmatch(line)[1])
	case tradesRe.MatchString(line):
		p.addAction("Trade", tradesRe.FindStringSubmatch(line)[1])
	case followedRe.MatchString(line):
		p.addAction(line, "")
	case actionRe.MatchString(line):
		m := actionRe.FindStringSubmatch(line)
		p.addAction(m[1], m[2])
	default:
		return 0
	}
	return 1
}

// isActionLine reports whether line is something a character does during a turn
func isActionLine(line string) bool {
	return revealsRe.MatchString(line) ||
		tradesRe.MatchString(line) ||
		followedRe.MatchString(line) ||
		actionRe.MatchString(line)
}

func (p *DayParser) addAction(action, result string) {
	p.turn.Actions = append(p.turn.Actions, types.Action{Action: action, Result: result})
}

func (p *DayParser) closeTurn(endLocation string) {
	p.turn.EndLocation = endLocation
	p.turn = nil
	p.state = StateIdle
}

// battleLine handles the InBattle and InRound states
func (p *DayParser) battleLine(line, next string, hasNext bool) int {
	if strings.Contains(line, "Combat has ended") || battleCloseRe.MatchString(line) {
		p.closeBattle()
		return 1
	}

	if separatorRe.MatchString(line) || isHostLine(line) {
		return 1
	}

	if m := locationRe.FindStringSubmatch(line); m != nil {
		p.battle.Location = m[1]
		return 1
	}

	if m := eveningRe.FindStringSubmatch(line); m != nil {
		if p.battle.Location == "" {
			p.battle.Location = m[1]
		}
		return 1
	}

	if m := groupRe.FindStringSubmatch(line); m != nil {
		number, _ := strconv.Atoi(m[1])
		p.group = &types.Group{Number: number, Participants: make([]string, 0)}
		p.battle.Groups = append(p.battle.Groups, p.group)
		return 1
	}

	if m := roundRe.FindStringSubmatch(line); m != nil {
		number, _ := strconv.Atoi(m[1])
		p.group = nil
		p.round = types.NewRound(number)
		if p.pendingPhase != nil {
			p.round.Phase = p.pendingPhase
			p.pendingPhase = nil
		}
		p.battle.Rounds = append(p.battle.Rounds, p.round)
		p.state = StateInRound
		return 1
	}

	if m := phaseRe.FindStringSubmatch(line); m != nil {
		label := m[1]
		p.group = nil
		if p.round != nil {
			p.round.Phase = &label
		} else {
			p.pendingPhase = &label
		}
		return 1
	}

	if p.group != nil {
		p.group.Participants = append(p.group.Participants, line)
		return 1
	}

	if p.state == StateInRound {
		return p.roundLine(line, next, hasNext)
	}

	return 0
}

// roundLine classifies one event inside an open combat round
func (p *DayParser) roundLine(line, next string, hasNext bool) int {
	_, lineIsVerb := classify(verbRules, line)
	_, lineIsSystem := classify(systemRules, line)

	if hasNext && !lineIsVerb && !lineIsSystem {
		if category, ok := classify(verbRules, next); ok {
			p.addPair(category, types.CombatAction{Performer: line, Action: next})
			return 2
		}
	}

	if category, ok := classify(systemRules, line); ok {
		if category == categoryActions {
			p.addPair(category, types.CombatAction{Action: line})
		} else {
			p.addRaw(category, line)
		}
		return 1
	}

	return 0
}

func (p *DayParser) addPair(category string, action types.CombatAction) {
	r := p.round
	switch category {
	case categoryActions:
		r.Actions = append(r.Actions, action)
	case categorySpells:
		r.Spells = append(r.Spells, action)
	case categoryFatigue:
		r.Fatigue = append(r.Fatigue, action)
	case categoryDisengagement:
		r.Disengagement = append(r.Disengagement, action)
	case categoryFameGains:
		r.FameGains = append(r.FameGains, action)
	}
}

func (p *DayParser) addRaw(category, line string) {
	r := p.round
	switch category {
	case categoryDeaths:
		r.Deaths = append(r.Deaths, line)
	case categoryArmor:
		r.ArmorDestroyed = append(r.ArmorDestroyed, line)
	case categoryDamage:
		r.Damage = append(r.Damage, line)
	case categoryAttacks:
		r.Attacks = append(r.Attacks, line)
	}
}

// closeBattle keeps the open battle only if it captured a location
func (p *DayParser) closeBattle() {
	if p.battle != nil && p.battle.Location != "" {
		p.record.Battles = append(p.record.Battles, p.battle)
	}
	p.battle = nil
	p.group = nil
	p.round = nil
	p.pendingPhase = nil

	if p.turn != nil {
		p.state = StateInTurn
	} else {
		p.state = StateIdle
	}
}
