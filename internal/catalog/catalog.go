package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Section file names under the catalog directory
const (
	WeaponsFile   = "weapons.json"
	ArmorFile     = "armor.json"
	TreasuresFile = "treasures.json"
	SpellsFile    = "spells.json"
	NativesFile   = "natives.json"
	MonstersFile  = "monsters.json"
	TilesFile     = "tiles.json"
)

// idSuffixRe strips the counter id some keys carry, e.g. "Short Sword (20)"
var idSuffixRe = regexp.MustCompile(`\s*(?:\(\d+\)|[_#]\d+)$`)

// Record is one catalog entry with its raw JSON kept for attribute lookups
type Record struct {
	Key  string
	ID   string
	Name string
	Raw  []byte
}

// Attr returns attributeBlocks.<block>.<key> as a string
func (r Record) Attr(block, key string) (string, bool) {
	result := gjson.GetBytes(r.Raw, "attributeBlocks."+escapePath(block)+"."+escapePath(key))
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

// Int returns a numeric attribute, or 0 when absent
func (r Record) Int(block, key string) int {
	result := gjson.GetBytes(r.Raw, "attributeBlocks."+escapePath(block)+"."+escapePath(key))
	if !result.Exists() {
		return 0
	}
	return int(result.Int())
}

// Attributes returns the raw attributeBlocks object, or nil when absent
func (r Record) Attributes() []byte {
	result := gjson.GetBytes(r.Raw, "attributeBlocks")
	if !result.Exists() || !result.IsObject() {
		return nil
	}
	return []byte(result.Raw)
}

func escapePath(component string) string {
	var sb strings.Builder
	for _, c := range component {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Section is one catalog file indexed by normalized name
type Section struct {
	Name    string
	records map[string]Record
	order   []string
}

func newSection(name string) *Section {
	return &Section{
		Name:    name,
		records: make(map[string]Record),
		order:   make([]string, 0),
	}
}

// Lookup finds a record by display name
func (s *Section) Lookup(name string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	record, ok := s.records[Normalize(name)]
	return record, ok
}

// Len returns the number of distinct names
func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Records returns the records in file order
func (s *Section) Records() []Record {
	out := make([]Record, 0, s.Len())
	if s == nil {
		return out
	}
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out
}

// add keeps the first record seen for a normalized name
func (s *Section) add(record Record) {
	key := Normalize(record.Name)
	if key == "" {
		return
	}
	if _, exists := s.records[key]; exists {
		return
	}
	s.records[key] = record
	s.order = append(s.order, key)
}

// Catalog is the read-only static game data shared by every session
type Catalog struct {
	Weapons   *Section
	Armor     *Section
	Treasures *Section
	Spells    *Section
	Natives   *Section
	Monsters  *Section
	Tiles     *Section
}

// Empty returns a catalog with no records
func Empty() *Catalog {
	return &Catalog{
		Weapons:   newSection(WeaponsFile),
		Armor:     newSection(ArmorFile),
		Treasures: newSection(TreasuresFile),
		Spells:    newSection(SpellsFile),
		Natives:   newSection(NativesFile),
		Monsters:  newSection(MonstersFile),
		Tiles:     newSection(TilesFile),
	}
}

// Load reads every section file under dir. A missing file is an empty section.
func Load(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat := Empty()
	for _, section := range cat.sections() {
		path := filepath.Join(dir, section.Name)
		data, err := readJSON(path)
		if err != nil {
			return nil, err
		}
		if data == nil {
			logger.Warn("Catalog file not found", zap.String("path", path))
			continue
		}
		if err := section.parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		logger.Info("Loaded catalog section",
			zap.String("section", section.Name),
			zap.Int("count", section.Len()))
	}

	return cat, nil
}

func (c *Catalog) sections() []*Section {
	return []*Section{c.Weapons, c.Armor, c.Treasures, c.Spells, c.Natives, c.Monsters, c.Tiles}
}

// readJSON returns nil data when the file does not exist
func readJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parse indexes a JSON object keyed by name, keeping file order
func (s *Section) parse(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return errors.New("expected a json object keyed by name")
	}

	root.ForEach(func(key, value gjson.Result) bool {
		s.AddRecord(key.String(), []byte(value.Raw))
		return true
	})
	return nil
}

// AddRecord inserts a record built from raw JSON. The name falls back to the
// key without its id suffix, and the first record for a name wins.
func (s *Section) AddRecord(key string, raw []byte) {
	value := gjson.ParseBytes(raw)
	name := value.Get("name").String()
	if name == "" {
		name = idSuffixRe.ReplaceAllString(key, "")
	}
	s.add(Record{Key: key, ID: value.Get("id").String(), Name: name, Raw: raw})
}
