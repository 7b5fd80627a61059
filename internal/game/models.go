package game

import (
	"errors"
	"fmt"

	"github.com/user/hundred-acre-realm/internal/mapstate"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/multierr"
)

// Stage names, in pipeline order
const (
	StageExtract   = "extract"
	StageParse     = "parse"
	StageInventory = "inventory"
	StageScore     = "score"
	StageMap       = "map"
	StageTitle     = "title"
)

// Stages lists every stage in the order ProcessSession runs them
var Stages = []string{StageExtract, StageParse, StageInventory, StageScore, StageMap, StageTitle}

// Artifact file names relative to a session's data directory
const (
	ArtifactGameXML     = "extracted/game.xml"
	ArtifactLogText     = "extracted/log.txt"
	ArtifactSession     = "session.json"
	ArtifactInventories = "character_inventories.json"
	ArtifactScores      = "final_scores.json"
	ArtifactMapData     = "map_data.json"
	ArtifactMapState    = "map_state.json"
	ArtifactTitle       = "session_title.json"
	ArtifactManifest    = "manifest.json"
)

// ErrMissingInput is matched by every MissingInputError
var ErrMissingInput = errors.New("missing input")

// MissingInputError means a stage's prerequisite file is absent
type MissingInputError struct {
	Stage string
	Path  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: missing input %s", e.Stage, e.Path)
}

// Is reports whether target is ErrMissingInput
func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// Manifest is the idempotency ledger of one session: the input hash each artifact was built from
type Manifest struct {
	Artifacts map[string]string `json:"artifacts"`
}

func newManifest() *Manifest {
	return &Manifest{Artifacts: make(map[string]string)}
}

// MapData is the static map of a session plus every enchantment found in its log
type MapData struct {
	Tiles        []mapstate.MapTile          `json:"tiles"`
	Enchantments []mapstate.EnchantmentEvent `json:"enchantments"`
}

// SessionTitle is the generated display title of a session
type SessionTitle struct {
	Title string `json:"title"`
}

// BatchResult collects one summary per session processed by ProcessAll
type BatchResult struct {
	RunID   string                 `json:"runId"`
	Results []types.SessionSummary `json:"results"`

	errs error
}

// Failed returns the summaries of sessions that did not complete
func (br *BatchResult) Failed() []types.SessionSummary {
	failed := make([]types.SessionSummary, 0)
	for _, r := range br.Results {
		if r.Status == types.StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err returns every session error combined, or nil when the whole batch succeeded
func (br *BatchResult) Err() error {
	return br.errs
}

func (br *BatchResult) add(summary types.SessionSummary, err error) {
	br.Results = append(br.Results, summary)
	if err != nil {
		br.errs = multierr.Append(br.errs, fmt.Errorf("session %s: %w", summary.Name, err))
	}
}
