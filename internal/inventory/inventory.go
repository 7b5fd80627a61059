package inventory

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/user/hundred-acre-realm/internal/catalog"
	"github.com/user/hundred-acre-realm/internal/gamexml"
)

// Treasure sizes in the treasure catalog
const (
	largeTreasure = "large"
	smallTreasure = "small"
)

// Entry is one held object
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Catalog attributeBlocks, absent for unknown entries
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func (e Entry) attr(key string) gjson.Result {
	if len(e.Attributes) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(e.Attributes, "this."+key)
}

// Fame is the catalog fame value of the entry
func (e Entry) Fame() int { return int(e.attr("fame").Int()) }

// Notoriety is the catalog notoriety value of the entry
func (e Entry) Notoriety() int { return int(e.attr("notoriety").Int()) }

// Faction is the native group the entry is affine to, or ""
func (e Entry) Faction() string { return e.attr("native").String() }

// CharacterInventory classifies everything a character holds
type CharacterInventory struct {
	Weapons        []Entry `json:"weapons"`
	Armor          []Entry `json:"armor"`
	Treasures      []Entry `json:"treasures"`
	GreatTreasures []Entry `json:"great_treasures"`
	Spells         []Entry `json:"spells"`
	Natives        []Entry `json:"natives"`
	Other          []Entry `json:"other"`
	Unknown        []Entry `json:"unknown"`
}

func newInventory() *CharacterInventory {
	return &CharacterInventory{
		Weapons:        make([]Entry, 0),
		Armor:          make([]Entry, 0),
		Treasures:      make([]Entry, 0),
		GreatTreasures: make([]Entry, 0),
		Spells:         make([]Entry, 0),
		Natives:        make([]Entry, 0),
		Other:          make([]Entry, 0),
		Unknown:        make([]Entry, 0),
	}
}

// Categories returns every category list keyed by its JSON name
func (inv *CharacterInventory) Categories() map[string][]Entry {
	return map[string][]Entry{
		"weapons":         inv.Weapons,
		"armor":           inv.Armor,
		"treasures":       inv.Treasures,
		"great_treasures": inv.GreatTreasures,
		"spells":          inv.Spells,
		"natives":         inv.Natives,
		"other":           inv.Other,
		"unknown":         inv.Unknown,
	}
}

// Holdings returns every resolved entry, unknown ones excluded
func (inv *CharacterInventory) Holdings() []Entry {
	out := make([]Entry, 0)
	for _, list := range [][]Entry{inv.Weapons, inv.Armor, inv.Treasures, inv.GreatTreasures, inv.Spells, inv.Natives, inv.Other} {
		out = append(out, list...)
	}
	return out
}

// Build classifies the ids a character contains. Duplicate ids are counted
// once and character chits are skipped; ids the catalog cannot place end up
// in Unknown.
func Build(doc *gamexml.Document, cat *catalog.Catalog, character *gamexml.Object) *CharacterInventory {
	inv := newInventory()
	seen := make(map[string]bool)

	for _, id := range character.Contains {
		if seen[id] {
			continue
		}
		seen[id] = true

		obj, ok := doc.Object(id)
		if !ok {
			inv.Unknown = append(inv.Unknown, Entry{ID: id, Name: id})
			continue
		}
		if obj.IsCharacterChit() {
			continue
		}
		inv.place(cat, Entry{ID: id, Name: obj.Name})
	}

	return inv
}

// place looks the entry up in weapons, armor, treasures, spells then natives
func (inv *CharacterInventory) place(cat *catalog.Catalog, entry Entry) {
	if record, ok := cat.Weapons.Lookup(entry.Name); ok {
		entry.Attributes = record.Attributes()
		inv.Weapons = append(inv.Weapons, entry)
		return
	}
	if record, ok := cat.Armor.Lookup(entry.Name); ok {
		entry.Attributes = record.Attributes()
		inv.Armor = append(inv.Armor, entry)
		return
	}
	if record, ok := cat.Treasures.Lookup(entry.Name); ok {
		entry.Attributes = record.Attributes()
		size, _ := record.Attr("this", "treasure")
		switch size {
		case largeTreasure:
			inv.GreatTreasures = append(inv.GreatTreasures, entry)
		case smallTreasure:
			inv.Treasures = append(inv.Treasures, entry)
		default:
			inv.Other = append(inv.Other, entry)
		}
		return
	}
	if record, ok := cat.Spells.Lookup(entry.Name); ok {
		entry.Attributes = record.Attributes()
		inv.Spells = append(inv.Spells, entry)
		return
	}
	if record, ok := cat.Natives.Lookup(entry.Name); ok {
		entry.Attributes = record.Attributes()
		inv.Natives = append(inv.Natives, entry)
		return
	}
	inv.Unknown = append(inv.Unknown, entry)
}

// BuildAll builds the inventory of every played character, keyed by name
func BuildAll(doc *gamexml.Document, cat *catalog.Catalog) map[string]*CharacterInventory {
	out := make(map[string]*CharacterInventory)
	for _, character := range doc.PlayedCharacters() {
		out[character.Base().Name] = Build(doc, cat, character.Base())
	}
	return out
}
