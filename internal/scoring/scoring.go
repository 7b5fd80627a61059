package scoring

import "sort"

// Per-unit factors of each victory-point category
const (
	GreatTreasuresFactor = 1
	SpellsFactor         = 2
	FameFactor           = 10
	NotorietyFactor      = 20
	GoldFactor           = 30

	// Shortfalls count triple
	penaltyMultiplier = 3
)

// Targets are the victory-point counts a player committed to at setup
type Targets struct {
	GreatTreasures int `json:"greatTreasures"`
	Spells         int `json:"spells"`
	Fame           int `json:"fame"`
	Notoriety      int `json:"notoriety"`
	Gold           int `json:"gold"`
}

// Input is everything needed to score one character
type Input struct {
	Character           string
	Gold                int
	Fame                int
	Notoriety           int
	StartingGoldDeficit int
	GreatTreasureCount  int
	LearnedSpellCount   int
	ItemFame            int
	ItemNotoriety       int
	Targets             Targets
}

// Category is the computation for one victory-point category
type Category struct {
	Actual     int `json:"actual"`
	Target     int `json:"target"`
	Required   int `json:"required"`
	Factor     int `json:"factor"`
	BasicScore int `json:"basicScore"`
	BonusScore int `json:"bonusScore"`
}

// Record is the final score breakdown of one character
type Record struct {
	Character      string   `json:"character"`
	GreatTreasures Category `json:"greatTreasures"`
	Spells         Category `json:"spells"`
	Fame           Category `json:"fame"`
	Notoriety      Category `json:"notoriety"`
	Gold           Category `json:"gold"`
	BasicScore     int      `json:"basicScore"`
	BonusScore     int      `json:"bonusScore"`
	TotalScore     int      `json:"totalScore"`
}

// FloorDiv divides rounding toward negative infinity
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ScoreCategory computes one category
func ScoreCategory(actual, target, factor int) Category {
	required := target * factor
	raw := actual - required
	if raw < 0 {
		raw *= penaltyMultiplier
	}
	basic := FloorDiv(raw, factor)
	return Category{
		Actual:     actual,
		Target:     target,
		Required:   required,
		Factor:     factor,
		BasicScore: basic,
		BonusScore: basic * target,
	}
}

// Score computes the final score of one character
func Score(in Input) Record {
	rec := Record{
		Character:      in.Character,
		GreatTreasures: ScoreCategory(in.GreatTreasureCount, in.Targets.GreatTreasures, GreatTreasuresFactor),
		Spells:         ScoreCategory(in.LearnedSpellCount, in.Targets.Spells, SpellsFactor),
		Fame:           ScoreCategory(in.Fame+in.ItemFame, in.Targets.Fame, FameFactor),
		Notoriety:      ScoreCategory(in.Notoriety+in.ItemNotoriety, in.Targets.Notoriety, NotorietyFactor),
		Gold:           ScoreCategory(in.Gold-in.StartingGoldDeficit, in.Targets.Gold, GoldFactor),
	}

	for _, c := range rec.categories() {
		rec.BasicScore += c.BasicScore
		rec.BonusScore += c.BonusScore
	}
	rec.TotalScore = rec.BasicScore + rec.BonusScore

	return rec
}

func (r Record) categories() []Category {
	return []Category{r.GreatTreasures, r.Spells, r.Fame, r.Notoriety, r.Gold}
}

// ScoreAll scores every input, keyed by character name
func ScoreAll(inputs []Input) map[string]Record {
	out := make(map[string]Record, len(inputs))
	for _, in := range inputs {
		out[in.Character] = Score(in)
	}
	return out
}

// Ranking returns the records ordered by total score, highest first
func Ranking(records map[string]Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].Character < out[j].Character
	})
	return out
}

// ItemValue is the fame and notoriety an item carries
type ItemValue struct {
	Fame      int
	Notoriety int

	// Native group the item is affine to, "" when none
	Faction string
}

// ItemBonus sums item fame and notoriety. A value counts when the item has no
// faction tag or when the value is negative; positive faction values only pay
// out when sold to that faction.
func ItemBonus(items []ItemValue) (fame, notoriety int) {
	for _, item := range items {
		if item.Faction == "" || item.Fame < 0 {
			fame += item.Fame
		}
		if item.Faction == "" || item.Notoriety < 0 {
			notoriety += item.Notoriety
		}
	}
	return fame, notoriety
}
