package mapstate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/user/hundred-acre-realm/internal/gamexml"
)

// Ref points at another game object by id
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MapTile is a placed map tile and what it holds
type MapTile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Position      string `json:"position"`
	Rotation      string `json:"rotation"`
	TileType      string `json:"tileType"`
	Dwellings     []Ref  `json:"dwellings"`
	Monsters      []Ref  `json:"monsters"`
	TreasureSites []Ref  `json:"treasureSites"`
	Warnings      []Ref  `json:"warnings"`
	Sounds        []Ref  `json:"sounds"`
}

// BuildTiles lists the tiles placed on the map grid, sorted by position
func BuildTiles(doc *gamexml.Document) []MapTile {
	tiles := make([]MapTile, 0)
	for _, t := range doc.Tiles() {
		obj := t.Base()
		tile := MapTile{
			ID:            obj.ID,
			Name:          obj.Name,
			Position:      t.Position,
			Rotation:      t.Rotation,
			TileType:      t.TileType,
			Dwellings:     make([]Ref, 0),
			Monsters:      make([]Ref, 0),
			TreasureSites: make([]Ref, 0),
			Warnings:      make([]Ref, 0),
			Sounds:        make([]Ref, 0),
		}

		for _, id := range obj.Contains {
			held, ok := doc.Object(id)
			if !ok {
				continue
			}
			ref := Ref{ID: id, Name: held.Name}
			switch {
			case held.IsDwelling():
				tile.Dwellings = append(tile.Dwellings, ref)
			case held.IsMonster():
				tile.Monsters = append(tile.Monsters, ref)
			case held.IsTreasureSite():
				tile.TreasureSites = append(tile.TreasureSites, ref)
			case held.IsWarning():
				tile.Warnings = append(tile.Warnings, ref)
			case held.IsSound():
				tile.Sounds = append(tile.Sounds, ref)
			}
		}
		tiles = append(tiles, tile)
	}

	sort.SliceStable(tiles, func(i, j int) bool {
		return positionLess(tiles[i].Position, tiles[j].Position)
	})
	return tiles
}

// positionLess orders "x,y" grid coordinates numerically, falling back to text
func positionLess(a, b string) bool {
	ax, ay, aok := parsePosition(a)
	bx, by, bok := parsePosition(b)
	if aok && bok {
		if ax != bx {
			return ax < bx
		}
		return ay < by
	}
	if aok != bok {
		return aok
	}
	return a < b
}

func parsePosition(pos string) (int, int, bool) {
	xs, ys, found := strings.Cut(pos, ",")
	if !found {
		return 0, 0, false
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

// TileNames returns the names of the given tiles
func TileNames(tiles []MapTile) []string {
	names := make([]string, 0, len(tiles))
	for _, t := range tiles {
		names = append(names, t.Name)
	}
	return names
}
