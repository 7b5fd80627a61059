package gamexml

import "sort"

// Block and key names used by the game-state snapshot
const (
	PlayerBlock  = "RS_PB__"
	VictoryBlock = "RS_VR__"
	MapGridBlock = "mapGrid"
)

// Predicates over the "this" block

func (o *Object) IsCharacter() bool { return o.Has(ThisBlock, "character") }
func (o *Object) IsMonster() bool   { return o.Has(ThisBlock, "monster") }
func (o *Object) IsItem() bool      { return o.Has(ThisBlock, "item") }
func (o *Object) IsSpell() bool     { return o.Has(ThisBlock, "spell") }
func (o *Object) IsTile() bool      { return o.Has(ThisBlock, "tile") }
func (o *Object) IsTreasure() bool  { return o.Has(ThisBlock, "treasure") }
func (o *Object) IsWeapon() bool    { return o.Has(ThisBlock, "weapon") }
func (o *Object) IsArmor() bool     { return o.Has(ThisBlock, "armor") }
func (o *Object) IsDwelling() bool  { return o.Has(ThisBlock, "dwelling") }
func (o *Object) IsWarning() bool   { return o.Has(ThisBlock, "warning") }
func (o *Object) IsSound() bool     { return o.Has(ThisBlock, "sound") }

// IsNative requires the native flag without monster, treasure or spell flags
func (o *Object) IsNative() bool {
	return o.Has(ThisBlock, "native") &&
		!o.Has(ThisBlock, "monster") &&
		!o.Has(ThisBlock, "treasure") &&
		!o.Has(ThisBlock, "spell")
}

// IsCharacterChit marks a character's game-piece token rather than a real item
func (o *Object) IsCharacterChit() bool { return o.Has(ThisBlock, "character_chit") }

// IsTreasureSite marks a treasure location chit
func (o *Object) IsTreasureSite() bool { return o.Has(ThisBlock, "treasure_location") }

// Kind names a member of the closed entity variant set
type Kind string

const (
	KindCharacter Kind = "character"
	KindMonster   Kind = "monster"
	KindNative    Kind = "native"
	KindItem      Kind = "item"
	KindSpell     Kind = "spell"
	KindTile      Kind = "tile"
	KindChit      Kind = "chit"
	KindOther     Kind = "other"
)

// Entity is a classified GameObject. The implementations in this package
// are the complete set.
type Entity interface {
	Kind() Kind
	Base() *Object
	sealed()
}

type entity struct{ obj *Object }

func (e entity) Base() *Object { return e.obj }
func (entity) sealed()         {}

// VictoryTargets are the victory-point counts chosen at setup
type VictoryTargets struct {
	GreatTreasures int `json:"greatTreasures"`
	Spells         int `json:"spells"`
	Fame           int `json:"fame"`
	Notoriety      int `json:"notoriety"`
	Gold           int `json:"gold"`
}

// Character is a character definition, played or not
type Character struct {
	entity
	Gold                int
	Fame                int
	Notoriety           int
	StartingGoldDeficit int
	Targets             VictoryTargets
}

func (Character) Kind() Kind { return KindCharacter }

// Played reports whether the character took part in the session
func (c Character) Played() bool { return c.obj.HasBlock(PlayerBlock) }

// Monster is a monster counter
type Monster struct{ entity }

func (Monster) Kind() Kind { return KindMonster }

// Native is a native leader or henchman
type Native struct{ entity }

func (Native) Kind() Kind { return KindNative }

// Item is a weapon, armor or treasure
type Item struct {
	entity
	Weapon   bool
	Armor    bool
	Treasure bool
}

func (Item) Kind() Kind { return KindItem }

// Spell is a spell card
type Spell struct{ entity }

func (Spell) Kind() Kind { return KindSpell }

// Tile is a map tile with its grid placement
type Tile struct {
	entity
	Position string
	Rotation string
	TileType string
}

func (Tile) Kind() Kind { return KindTile }

// Chit is a character game-piece token
type Chit struct{ entity }

func (Chit) Kind() Kind { return KindChit }

// Other is anything outside the classified kinds
type Other struct{ entity }

func (Other) Kind() Kind { return KindOther }

// Classify assigns an object to exactly one entity kind
func Classify(o *Object) Entity {
	base := entity{obj: o}
	switch {
	case o.IsCharacterChit():
		return Chit{base}
	case o.IsCharacter():
		return newCharacter(o)
	case o.IsTile():
		return Tile{
			entity:   base,
			Position: firstAttr(o, MapGridBlock, "mapPosition", "position"),
			Rotation: firstAttr(o, MapGridBlock, "mapRotation", "rotation"),
			TileType: o.Attr(ThisBlock, "tile_type"),
		}
	case o.IsMonster():
		return Monster{base}
	case o.IsNative():
		return Native{base}
	case o.IsSpell():
		return Spell{base}
	case o.IsItem() || o.IsTreasure() || o.IsWeapon() || o.IsArmor():
		return Item{
			entity:   base,
			Weapon:   o.IsWeapon(),
			Armor:    o.IsArmor(),
			Treasure: o.IsTreasure(),
		}
	default:
		return Other{base}
	}
}

func newCharacter(o *Object) Character {
	return Character{
		entity:              entity{obj: o},
		Gold:                o.Int(PlayerBlock, "gold"),
		Fame:                o.Int(PlayerBlock, "fame"),
		Notoriety:           o.Int(PlayerBlock, "notoriety"),
		StartingGoldDeficit: o.Int(PlayerBlock, "starting_gold_deficit"),
		Targets: VictoryTargets{
			GreatTreasures: o.Int(VictoryBlock, "GT"),
			Spells:         o.Int(VictoryBlock, "US"),
			Fame:           o.Int(VictoryBlock, "F"),
			Notoriety:      o.Int(VictoryBlock, "N"),
			Gold:           o.Int(VictoryBlock, "G"),
		},
	}
}

func firstAttr(o *Object, block string, keys ...string) string {
	for _, key := range keys {
		if value := o.Attr(block, key); value != "" {
			return value
		}
	}
	return ""
}

// Entities classifies every object in document order
func (d *Document) Entities() []Entity {
	out := make([]Entity, 0, len(d.Objects))
	for _, obj := range d.Objects {
		out = append(out, Classify(obj))
	}
	return out
}

// PlayedCharacters returns the characters that took part, sorted by name
func (d *Document) PlayedCharacters() []Character {
	out := make([]Character, 0)
	seen := make(map[string]bool)
	for _, obj := range d.Objects {
		c, ok := Classify(obj).(Character)
		if !ok || !c.Played() || seen[obj.Name] {
			continue
		}
		seen[obj.Name] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().Name < out[j].Base().Name })
	return out
}

// Tiles returns every tile placed on the map grid
func (d *Document) Tiles() []Tile {
	out := make([]Tile, 0)
	for _, obj := range d.Objects {
		if t, ok := Classify(obj).(Tile); ok && obj.HasBlock(MapGridBlock) {
			out = append(out, t)
		}
	}
	return out
}
