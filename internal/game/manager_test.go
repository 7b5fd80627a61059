package game

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/archive"
	"github.com/user/hundred-acre-realm/internal/catalog"
	"github.com/user/hundred-acre-realm/internal/inventory"
	"github.com/user/hundred-acre-realm/internal/mapstate"
	"github.com/user/hundred-acre-realm/internal/scoring"
	"github.com/user/hundred-acre-realm/internal/title"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

const testGameXML = `<?xml version="1.0" encoding="UTF-8"?>
<game>
  <GameObject id="10" name="Witch">
    <contains id="50"/>
    <contains id="51"/>
    <AttributeBlock blockName="this">
      <attribute character=""/>
    </AttributeBlock>
    <AttributeBlock blockName="RS_PB__">
      <attribute gold="30"/>
      <attribute fame="8"/>
      <attribute notoriety="4"/>
      <attribute starting_gold_deficit="0"/>
    </AttributeBlock>
    <AttributeBlock blockName="RS_VR__">
      <attribute GT="0"/>
      <attribute US="1"/>
      <attribute F="1"/>
      <attribute N="1"/>
      <attribute G="2"/>
    </AttributeBlock>
  </GameObject>
  <GameObject id="50" name="Peace">
    <AttributeBlock blockName="this">
      <attribute spell=""/>
    </AttributeBlock>
  </GameObject>
  <GameObject id="51" name="Ancient Telescope">
    <AttributeBlock blockName="this">
      <attribute item=""/>
      <attribute treasure=""/>
    </AttributeBlock>
  </GameObject>
  <GameObject id="40" name="Cliff">
    <AttributeBlock blockName="this">
      <attribute tile=""/>
    </AttributeBlock>
    <AttributeBlock blockName="mapGrid">
      <attribute mapPosition="0,0"/>
      <attribute mapRotation="2"/>
    </AttributeBlock>
  </GameObject>
</game>
`

const testLog = `New player joins: Alice
Witch
Joins the game.
Host has started the game
Month 1, Day 1
Witch
Starts turn: Cliff 1
Witch
Spell - enchanted Cliff
Witch
Ends turn: Cliff 2
Month 1, Day 2
Witch
Starts turn: Cliff 2
Witch
Ends turn: Cliff 2
`

// MockSessionIndex records the summaries handed to the index
type MockSessionIndex struct {
	mock.Mock
}

func (m *MockSessionIndex) Record(ctx context.Context, summary types.SessionSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSessionIndex) Get(ctx context.Context, name string) (*types.SessionSummary, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SessionSummary), args.Error(1)
}

func (m *MockSessionIndex) List(ctx context.Context) ([]types.SessionSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SessionSummary), args.Error(1)
}

func testCatalog() *catalog.Catalog {
	cat := catalog.Empty()
	cat.Spells.AddRecord("Peace", []byte(`{"name": "Peace", "attributeBlocks": {"this": {"spell": "I"}}}`))
	cat.Treasures.AddRecord("Ancient Telescope", []byte(`{"name": "Ancient Telescope", "attributeBlocks": {"this": {"treasure": "small", "fame": "3", "notoriety": "-1"}}}`))
	return cat
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.UploadsDir = filepath.Join(dir, "uploads")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	return cfg
}

func newTestManager(cfg config.Config) *Manager {
	manager := NewManager(cfg, testCatalog(), zap.NewNop())
	manager.SetTitleGenerator(title.NewWordListTitler())
	return manager
}

func gameArchive(t *testing.T, xml string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("game.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeUpload(t *testing.T, cfg config.Config, session string, game []byte, log string) {
	t.Helper()
	dir := filepath.Join(cfg.Paths.UploadsDir, session)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, session+".rsgame"), game, 0644))

	compressed, err := archive.Deflate(log)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, session+".rslog"), compressed, 0644))
}

func readAll(t *testing.T, storage *ArtifactStorage, session string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	for _, artifact := range []string{
		ArtifactGameXML, ArtifactLogText, ArtifactSession, ArtifactInventories,
		ArtifactScores, ArtifactMapData, ArtifactMapState, ArtifactManifest,
	} {
		data, err := storage.ReadArtifact(session, artifact)
		require.NoError(t, err, artifact)
		out[artifact] = data
	}
	return out
}

func TestProcessSession(t *testing.T) {
	cfg := testConfig(t)
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)
	manager := newTestManager(cfg)

	summary, err := manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)

	assert.Equal(t, types.StatusSucceeded, summary.Status)
	assert.Equal(t, SessionID("game-1"), summary.SessionID)
	assert.Equal(t, 2, summary.DayCount)
	assert.Equal(t, 1, summary.CharacterCount)
	assert.NotEmpty(t, summary.Title)
	assert.NotEmpty(t, summary.InputHash)
	assert.False(t, summary.ProcessedAt.IsZero())

	storage := manager.Storage()

	var session types.Session
	require.NoError(t, storage.LoadJSON("game-1", ArtifactSession, &session))
	assert.Equal(t, []string{"1_1", "1_2"}, session.DayKeys)
	assert.Equal(t, "Alice", session.CharacterToPlayer["Witch"])

	var inventories map[string]*inventory.CharacterInventory
	require.NoError(t, storage.LoadJSON("game-1", ArtifactInventories, &inventories))
	require.Contains(t, inventories, "Witch")
	require.Len(t, inventories["Witch"].Spells, 1)
	require.Len(t, inventories["Witch"].Treasures, 1)

	var scores map[string]scoring.Record
	require.NoError(t, storage.LoadJSON("game-1", ArtifactScores, &scores))
	witch := scores["Witch"]
	assert.Equal(t, 1, witch.Spells.Actual)
	assert.Equal(t, 11, witch.Fame.Actual, "item fame counts without a faction tag")
	assert.Equal(t, 3, witch.Notoriety.Actual, "negative item notoriety always counts")
	assert.Equal(t, 30, witch.Gold.Actual)

	var mapData MapData
	require.NoError(t, storage.LoadJSON("game-1", ArtifactMapData, &mapData))
	require.Len(t, mapData.Tiles, 1)
	assert.Equal(t, "Cliff", mapData.Tiles[0].Name)
	require.Len(t, mapData.Enchantments, 1)
	assert.Equal(t, "1_1", mapData.Enchantments[0].DayKey)

	var states []mapstate.DaySnapshot
	require.NoError(t, storage.LoadJSON("game-1", ArtifactMapState, &states))
	require.Len(t, states, 2)
	assert.True(t, states[0].Tiles["Cliff"])
	assert.True(t, states[1].Tiles["Cliff"])
	assert.Equal(t, "Cliff 2", states[1].Characters["Witch"].EndLocation)
}

func TestProcessSessionIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)

	manager := newTestManager(cfg)
	_, err := manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)
	first := readAll(t, manager.Storage(), "game-1")

	// Second run is skipped by the ledger
	_, err = manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, first, readAll(t, manager.Storage(), "game-1"))

	// A forced rebuild produces the same bytes
	cfg.Pipeline.Force = true
	forced := newTestManager(cfg)
	_, err = forced.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, first, readAll(t, forced.Storage(), "game-1"))
}

func TestProcessSessionRebuildsOnChangedInput(t *testing.T) {
	cfg := testConfig(t)
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)

	manager := newTestManager(cfg)
	_, err := manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)

	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog+"Month 1, Day 3\n")
	summary, err := manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DayCount)
}

func TestProcessAllPartialFailure(t *testing.T) {
	cfg := testConfig(t)
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)
	writeUpload(t, cfg, "game-2", []byte("this is not a zip archive"), testLog)
	writeUpload(t, cfg, "game-3", gameArchive(t, testGameXML), testLog)

	index := new(MockSessionIndex)
	index.On("Record", mock.Anything, mock.AnythingOfType("types.SessionSummary")).Return(nil)

	manager := newTestManager(cfg)
	manager.SetIndex(index)

	result, err := manager.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, "game-1", result.Results[0].Name)
	assert.Equal(t, types.StatusSucceeded, result.Results[0].Status)
	assert.Equal(t, types.StatusFailed, result.Results[1].Status)
	assert.Contains(t, result.Results[1].Error, "not a zip archive")
	assert.Equal(t, types.StatusSucceeded, result.Results[2].Status)

	require.Len(t, result.Failed(), 1)
	require.Error(t, result.Err())
	assert.Contains(t, result.Err().Error(), "session game-2")

	for _, r := range result.Results {
		assert.Equal(t, result.RunID, r.RunID)
	}
	index.AssertNumberOfCalls(t, "Record", 3)
}

func TestProcessAllNoUploads(t *testing.T) {
	manager := newTestManager(testConfig(t))
	_, err := manager.ProcessAll(context.Background())
	assert.Error(t, err)
}

func TestRunStageMissingInput(t *testing.T) {
	manager := newTestManager(testConfig(t))

	err := manager.RunStage(context.Background(), "game-1", StageScore)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, StageScore, missing.Stage)
	assert.Contains(t, missing.Path, ArtifactGameXML)
}

func TestRunStageUnknown(t *testing.T) {
	err := newTestManager(testConfig(t)).RunStage(context.Background(), "game-1", "paint")
	assert.Error(t, err)
}

func TestMissingLogUpload(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.Paths.UploadsDir, "game-1")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game-1.rsgame"), gameArchive(t, testGameXML), 0644))

	summary, err := newTestManager(cfg).ProcessSession(context.Background(), "game-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, types.StatusFailed, summary.Status)
}

func TestCorruptLog(t *testing.T) {
	cfg := testConfig(t)
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)
	logPath := filepath.Join(cfg.Paths.UploadsDir, "game-1", "game-1.rslog")
	require.NoError(t, os.WriteFile(logPath, []byte{0xff, 0xff, 0xff, 0xff}, 0644))

	_, err := newTestManager(cfg).ProcessSession(context.Background(), "game-1")
	assert.ErrorIs(t, err, archive.ErrDecompression)
}

func TestTitlesDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.GenerateTitles = false
	writeUpload(t, cfg, "game-1", gameArchive(t, testGameXML), testLog)

	manager := newTestManager(cfg)
	summary, err := manager.ProcessSession(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Title)
	assert.False(t, manager.Storage().Exists("game-1", ArtifactTitle))
}

func TestSessionIDStable(t *testing.T) {
	assert.Equal(t, SessionID("game-1"), SessionID("game-1"))
	assert.NotEqual(t, SessionID("game-1"), SessionID("game-2"))
}
