package inventory

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/hundred-acre-realm/internal/catalog"
	"github.com/user/hundred-acre-realm/internal/gamexml"
)

const inventoryXML = `<game>
  <GameObject id="1" name="Amazon">
    <contains id="10"/><contains id="11"/><contains id="12"/><contains id="13"/>
    <contains id="14"/><contains id="15"/><contains id="16"/><contains id="17"/>
    <contains id="18"/><contains id="19"/><contains id="10"/><contains id="99"/>
    <AttributeBlock blockName="this"><attribute character=""/></AttributeBlock>
    <AttributeBlock blockName="RS_PB__"><attribute gold="10"/></AttributeBlock>
  </GameObject>
  <GameObject id="2" name="Witch">
    <contains id="20"/>
    <AttributeBlock blockName="this"><attribute character=""/></AttributeBlock>
    <AttributeBlock blockName="RS_PB__"><attribute gold="3"/></AttributeBlock>
  </GameObject>
  <GameObject id="10" name="Short Sword"/>
  <GameObject id="11" name="Helmet"/>
  <GameObject id="12" name="Flying Carpet"/>
  <GameObject id="13" name="Ancient Telescope"/>
  <GameObject id="14" name="Peace"/>
  <GameObject id="15" name="Company"/>
  <GameObject id="16" name="Map of Lost City"/>
  <GameObject id="17" name="Mysterious Relic"/>
  <GameObject id="18" name="Amazon Chit">
    <AttributeBlock blockName="this"><attribute character_chit=""/></AttributeBlock>
  </GameObject>
  <GameObject id="19" name="Short Sword"/>
  <GameObject id="20" name="Helmet"/>
</game>`

func testCatalog() *catalog.Catalog {
	cat := catalog.Empty()
	cat.Weapons.AddRecord("Short Sword", []byte(`{"name": "Short Sword", "attributeBlocks": {"this": {"weapon": ""}}}`))
	cat.Armor.AddRecord("Helmet", []byte(`{"name": "Helmet", "attributeBlocks": {"this": {"armor": ""}}}`))
	cat.Treasures.AddRecord("Flying Carpet", []byte(`{"name": "Flying Carpet", "attributeBlocks": {"this": {"treasure": "large", "fame": "5", "native": "Order"}}}`))
	cat.Treasures.AddRecord("Ancient Telescope", []byte(`{"name": "Ancient Telescope", "attributeBlocks": {"this": {"treasure": "small", "notoriety": "-2"}}}`))
	cat.Treasures.AddRecord("Map of Lost City", []byte(`{"name": "Map of Lost City", "attributeBlocks": {"this": {}}}`))
	cat.Spells.AddRecord("Peace", []byte(`{"name": "Peace", "attributeBlocks": {"this": {"spell": "I"}}}`))
	cat.Natives.AddRecord("Company", []byte(`{"name": "Company", "attributeBlocks": {"this": {"native": "Company"}}}`))
	return cat
}

func TestBuild(t *testing.T) {
	doc, err := gamexml.Parse(inventoryXML)
	require.NoError(t, err)
	amazon, _ := doc.Object("1")

	inv := Build(doc, testCatalog(), amazon)

	names := func(entries []Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ID+":"+e.Name)
		}
		return out
	}

	// Two counters with the same name both match by name
	assert.Equal(t, []string{"10:Short Sword", "19:Short Sword"}, names(inv.Weapons))
	assert.Equal(t, []string{"11:Helmet"}, names(inv.Armor))
	assert.Equal(t, []string{"12:Flying Carpet"}, names(inv.GreatTreasures))
	assert.Equal(t, []string{"13:Ancient Telescope"}, names(inv.Treasures))
	assert.Equal(t, []string{"14:Peace"}, names(inv.Spells))
	assert.Equal(t, []string{"15:Company"}, names(inv.Natives))
	assert.Equal(t, []string{"16:Map of Lost City"}, names(inv.Other))
	assert.Equal(t, []string{"17:Mysterious Relic", "99:99"}, names(inv.Unknown))

	carpet := inv.GreatTreasures[0]
	assert.Equal(t, 5, carpet.Fame())
	assert.Equal(t, "Order", carpet.Faction())
	assert.Equal(t, -2, inv.Treasures[0].Notoriety())
	assert.Nil(t, inv.Unknown[0].Attributes)
	assert.Len(t, inv.Holdings(), 8)
}

func TestBuildCategoryCompleteness(t *testing.T) {
	doc, err := gamexml.Parse(inventoryXML)
	require.NoError(t, err)
	amazon, _ := doc.Object("1")

	inv := Build(doc, testCatalog(), amazon)

	// Every contained non-chit id appears exactly once across the categories
	want := make(map[string]bool)
	for _, id := range amazon.Contains {
		if obj, ok := doc.Object(id); ok && obj.IsCharacterChit() {
			continue
		}
		want[id] = true
	}

	got := make([]string, 0)
	for _, entries := range inv.Categories() {
		for _, e := range entries {
			got = append(got, e.ID)
		}
	}
	sort.Strings(got)

	wantIDs := make([]string, 0, len(want))
	for id := range want {
		wantIDs = append(wantIDs, id)
	}
	sort.Strings(wantIDs)

	assert.Equal(t, wantIDs, got)
}

func TestBuildAll(t *testing.T) {
	doc, err := gamexml.Parse(inventoryXML)
	require.NoError(t, err)

	all := BuildAll(doc, testCatalog())
	require.Len(t, all, 2)
	assert.Len(t, all["Witch"].Armor, 1)
	assert.Empty(t, all["Witch"].Weapons)
	assert.NotNil(t, all["Witch"].Unknown)
}

func TestBuildEmptyCatalog(t *testing.T) {
	doc, err := gamexml.Parse(inventoryXML)
	require.NoError(t, err)
	witch, _ := doc.Object("2")

	inv := Build(doc, catalog.Empty(), witch)
	assert.Equal(t, []Entry{{ID: "20", Name: "Helmet"}}, inv.Unknown)
}
