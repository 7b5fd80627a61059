package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/archive"
	"github.com/user/hundred-acre-realm/internal/catalog"
	"github.com/user/hundred-acre-realm/internal/gamexml"
	"github.com/user/hundred-acre-realm/internal/interfaces"
	"github.com/user/hundred-acre-realm/internal/inventory"
	"github.com/user/hundred-acre-realm/internal/logparse"
	"github.com/user/hundred-acre-realm/internal/mapstate"
	"github.com/user/hundred-acre-realm/internal/scoring"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

// Manager runs the session pipeline and owns its artifacts
type Manager struct {
	config  config.Config
	storage *ArtifactStorage
	uploads *UploadLoader
	catalog *catalog.Catalog
	parser  *logparse.Parser
	titler  interfaces.TitleGenerator
	index   interfaces.SessionIndex
	Logger  *zap.Logger
	now     func() time.Time
}

// NewManager creates a pipeline manager for the configured directories
func NewManager(cfg config.Config, cat *catalog.Catalog, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.Empty()
	}

	return &Manager{
		config:  cfg,
		storage: NewArtifactStorage(cfg.Paths.DataDir),
		uploads: NewUploadLoader(cfg.Paths.UploadsDir, cfg.Pipeline.GameExtensions, cfg.Pipeline.LogExtensions),
		catalog: cat,
		parser:  logparse.NewParser(logger),
		Logger:  logger,
		now:     time.Now,
	}
}

// SetTitleGenerator sets the generator used by the title stage
func (m *Manager) SetTitleGenerator(titler interfaces.TitleGenerator) {
	m.titler = titler
}

// SetIndex sets the index that ProcessAll records results in
func (m *Manager) SetIndex(index interfaces.SessionIndex) {
	m.index = index
}

// Storage returns the artifact storage of the manager
func (m *Manager) Storage() *ArtifactStorage {
	return m.storage
}

// ProcessAll runs every uploaded session in name order.
// A failing session is recorded and the batch moves on.
func (m *Manager) ProcessAll(ctx context.Context) (*BatchResult, error) {
	sessions, err := m.uploads.Sessions()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		RunID:   uuid.New().String(),
		Results: make([]types.SessionSummary, 0, len(sessions)),
	}

	m.Logger.Info("Starting batch",
		zap.String("run_id", result.RunID),
		zap.Int("sessions", len(sessions)))

	for _, name := range sessions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		summary, err := m.ProcessSession(ctx, name)
		summary.RunID = result.RunID
		result.add(summary, err)

		if m.index != nil {
			if err := m.index.Record(ctx, summary); err != nil {
				m.Logger.Warn("Failed to record session in index", zap.String("session", name), zap.Error(err))
			}
		}
	}

	m.Logger.Info("Batch complete",
		zap.String("run_id", result.RunID),
		zap.Int("sessions", len(result.Results)),
		zap.Int("failed", len(result.Failed())))

	return result, nil
}

// ProcessSession runs every stage for one session.
// The returned summary is filled in even when a stage fails.
func (m *Manager) ProcessSession(ctx context.Context, name string) (types.SessionSummary, error) {
	summary := types.SessionSummary{
		Name:      name,
		SessionID: SessionID(name),
		Status:    types.StatusSucceeded,
	}

	m.Logger.Info("Processing session", zap.String("session", name))

	for _, stage := range Stages {
		if err := m.RunStage(ctx, name, stage); err != nil {
			m.Logger.Error("Session failed",
				zap.String("session", name),
				zap.String("stage", stage),
				zap.Error(err))
			summary.Status = types.StatusFailed
			summary.Error = err.Error()
			summary.ProcessedAt = m.now().UTC()
			return summary, err
		}
	}

	m.summarize(&summary)
	summary.ProcessedAt = m.now().UTC()
	return summary, nil
}

// summarize copies headline figures from the written artifacts into a summary
func (m *Manager) summarize(summary *types.SessionSummary) {
	var session types.Session
	if err := m.storage.LoadJSON(summary.Name, ArtifactSession, &session); err == nil {
		summary.DayCount = len(session.DayKeys)
		summary.CharacterCount = len(session.CharacterToPlayer)
	}

	var title SessionTitle
	if err := m.storage.LoadJSON(summary.Name, ArtifactTitle, &title); err == nil {
		summary.Title = title.Title
	}

	if manifest, err := m.storage.LoadManifest(summary.Name); err == nil {
		summary.InputHash = manifest.Artifacts[ArtifactGameXML]
	}
}

// RunStage runs a single named stage for a session
func (m *Manager) RunStage(ctx context.Context, session, stage string) error {
	switch stage {
	case StageExtract:
		upload, err := m.uploads.Find(session)
		if err != nil {
			return err
		}
		return m.Extract(session, upload.GamePath, upload.LogPath)
	case StageParse:
		return m.Parse(session)
	case StageInventory:
		return m.Inventory(session)
	case StageScore:
		return m.Score(session)
	case StageMap:
		return m.Map(session)
	case StageTitle:
		return m.Title(ctx, session)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// Extract unpacks the game XML and the action log of a session from the given files
func (m *Manager) Extract(session, gamePath, logPath string) error {
	gameData, err := os.ReadFile(gamePath)
	if errors.Is(err, os.ErrNotExist) {
		return &MissingInputError{Stage: StageExtract, Path: gamePath}
	}
	if err != nil {
		return fmt.Errorf("failed to read game archive: %w", err)
	}
	logData, err := os.ReadFile(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return &MissingInputError{Stage: StageExtract, Path: logPath}
	}
	if err != nil {
		return fmt.Errorf("failed to read action log: %w", err)
	}

	hash := hashParts(gameData, logData)
	return m.build(session, StageExtract, hash, []string{ArtifactGameXML, ArtifactLogText}, func() error {
		xml, err := archive.ExtractXML(gamePath)
		if err != nil {
			return err
		}
		text, err := archive.DecompressLog(logPath)
		if err != nil {
			return err
		}

		if err := m.storage.WriteArtifact(session, ArtifactGameXML, []byte(xml)); err != nil {
			return err
		}
		return m.storage.WriteArtifact(session, ArtifactLogText, []byte(text))
	})
}

// Parse turns the extracted log into the session record
func (m *Manager) Parse(session string) error {
	inputs, hash, err := m.readInputs(session, StageParse, ArtifactLogText)
	if err != nil {
		return err
	}

	return m.build(session, StageParse, hash, []string{ArtifactSession}, func() error {
		parsed := m.parser.ParseSession(session, SessionID(session), string(inputs[0]))
		return m.storage.SaveJSON(session, ArtifactSession, parsed)
	})
}

// Inventory classifies every played character's holdings
func (m *Manager) Inventory(session string) error {
	inputs, hash, err := m.readInputs(session, StageInventory, ArtifactGameXML)
	if err != nil {
		return err
	}

	return m.build(session, StageInventory, hash, []string{ArtifactInventories}, func() error {
		doc, err := gamexml.Parse(string(inputs[0]))
		if err != nil {
			return err
		}
		return m.storage.SaveJSON(session, ArtifactInventories, inventory.BuildAll(doc, m.catalog))
	})
}

// Score computes the final victory-point breakdown of every played character
func (m *Manager) Score(session string) error {
	inputs, hash, err := m.readInputs(session, StageScore, ArtifactGameXML, ArtifactInventories)
	if err != nil {
		return err
	}

	return m.build(session, StageScore, hash, []string{ArtifactScores}, func() error {
		doc, err := gamexml.Parse(string(inputs[0]))
		if err != nil {
			return err
		}

		var inventories map[string]*inventory.CharacterInventory
		if err := json.Unmarshal(inputs[1], &inventories); err != nil {
			return fmt.Errorf("failed to parse %s: %w", ArtifactInventories, err)
		}

		characters := doc.PlayedCharacters()
		scoreInputs := make([]scoring.Input, 0, len(characters))
		for _, c := range characters {
			scoreInputs = append(scoreInputs, scoringInput(c, inventories[c.Base().Name]))
		}

		return m.storage.SaveJSON(session, ArtifactScores, scoring.ScoreAll(scoreInputs))
	})
}

// scoringInput gathers one character's scoring figures from its XML record and inventory
func scoringInput(c gamexml.Character, inv *inventory.CharacterInventory) scoring.Input {
	input := scoring.Input{
		Character:           c.Base().Name,
		Gold:                c.Gold,
		Fame:                c.Fame,
		Notoriety:           c.Notoriety,
		StartingGoldDeficit: c.StartingGoldDeficit,
		Targets: scoring.Targets{
			GreatTreasures: c.Targets.GreatTreasures,
			Spells:         c.Targets.Spells,
			Fame:           c.Targets.Fame,
			Notoriety:      c.Targets.Notoriety,
			Gold:           c.Targets.Gold,
		},
	}
	if inv == nil {
		return input
	}

	input.GreatTreasureCount = len(inv.GreatTreasures)
	input.LearnedSpellCount = len(inv.Spells)

	holdings := inv.Holdings()
	values := make([]scoring.ItemValue, 0, len(holdings))
	for _, item := range holdings {
		values = append(values, scoring.ItemValue{
			Fame:      item.Fame(),
			Notoriety: item.Notoriety(),
			Faction:   item.Faction(),
		})
	}
	input.ItemFame, input.ItemNotoriety = scoring.ItemBonus(values)

	return input
}

// Map writes the tile layout, the enchantment events and the per-day map state
func (m *Manager) Map(session string) error {
	inputs, hash, err := m.readInputs(session, StageMap, ArtifactGameXML, ArtifactSession)
	if err != nil {
		return err
	}

	return m.build(session, StageMap, hash, []string{ArtifactMapData, ArtifactMapState}, func() error {
		doc, err := gamexml.Parse(string(inputs[0]))
		if err != nil {
			return err
		}

		var parsed types.Session
		if err := json.Unmarshal(inputs[1], &parsed); err != nil {
			return fmt.Errorf("failed to parse %s: %w", ArtifactSession, err)
		}

		tiles := mapstate.BuildTiles(doc)
		tracker := mapstate.NewTracker(&parsed, tiles)

		if err := m.storage.SaveJSON(session, ArtifactMapData, MapData{Tiles: tiles, Enchantments: tracker.Events()}); err != nil {
			return err
		}
		return m.storage.SaveJSON(session, ArtifactMapState, tracker.States())
	})
}

// Title generates the display title of a session.
// Generator failures are logged and leave the session without a title.
func (m *Manager) Title(ctx context.Context, session string) error {
	if !m.config.Pipeline.GenerateTitles || m.titler == nil {
		return nil
	}

	inputs, hash, err := m.readInputs(session, StageTitle, ArtifactSession)
	if err != nil {
		return err
	}

	return m.build(session, StageTitle, hash, []string{ArtifactTitle}, func() error {
		var parsed types.Session
		if err := json.Unmarshal(inputs[0], &parsed); err != nil {
			return fmt.Errorf("failed to parse %s: %w", ArtifactSession, err)
		}

		title, err := m.titler.GenerateTitle(ctx, &parsed)
		if err != nil {
			m.Logger.Warn("Failed to generate session title", zap.String("session", session), zap.Error(err))
			return nil
		}
		return m.storage.SaveJSON(session, ArtifactTitle, SessionTitle{Title: title})
	})
}

// readInputs loads a stage's prerequisite artifacts and hashes them together
func (m *Manager) readInputs(session, stage string, artifacts ...string) ([][]byte, string, error) {
	inputs := make([][]byte, 0, len(artifacts))
	for _, artifact := range artifacts {
		data, err := m.storage.ReadArtifact(session, artifact)
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", &MissingInputError{Stage: stage, Path: m.storage.Path(session, artifact)}
		}
		if err != nil {
			return nil, "", err
		}
		inputs = append(inputs, data)
	}
	return inputs, hashParts(inputs...), nil
}

// build runs fn unless every output already exists and was built from the same input hash,
// then records the hash of each output in the ledger
func (m *Manager) build(session, stage, hash string, outputs []string, fn func() error) error {
	manifest, err := m.storage.LoadManifest(session)
	if err != nil {
		return err
	}

	if !m.config.Pipeline.Force && m.upToDate(session, manifest, hash, outputs) {
		m.Logger.Debug("Skipping stage, artifacts up to date",
			zap.String("session", session),
			zap.String("stage", stage))
		return nil
	}

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	for _, output := range outputs {
		if m.storage.Exists(session, output) {
			manifest.Artifacts[output] = hash
		}
	}
	if err := m.storage.SaveManifest(session, manifest); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	m.Logger.Info("Stage complete",
		zap.String("session", session),
		zap.String("stage", stage))

	return nil
}

func (m *Manager) upToDate(session string, manifest *Manifest, hash string, outputs []string) bool {
	for _, output := range outputs {
		if manifest.Artifacts[output] != hash || !m.storage.Exists(session, output) {
			return false
		}
	}
	return true
}
