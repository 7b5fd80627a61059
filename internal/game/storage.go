package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/user/hundred-acre-realm/internal/interfaces"
)

// ArtifactStorage handles persistence of derived session artifacts
type ArtifactStorage struct {
	baseDir   string
	stateLock sync.RWMutex
}

// Ensure ArtifactStorage satisfies the interfaces.ArtifactReader interface
var _ interfaces.ArtifactReader = (*ArtifactStorage)(nil)

// NewArtifactStorage creates storage rooted at the data directory
func NewArtifactStorage(baseDir string) *ArtifactStorage {
	return &ArtifactStorage{
		baseDir: baseDir,
	}
}

// SessionDir returns the directory holding a session's artifacts
func (as *ArtifactStorage) SessionDir(session string) string {
	return filepath.Join(as.baseDir, session)
}

// Path returns the location of one artifact of a session
func (as *ArtifactStorage) Path(session, artifact string) string {
	return filepath.Join(as.SessionDir(session), filepath.FromSlash(artifact))
}

// Exists reports whether an artifact has been written
func (as *ArtifactStorage) Exists(session, artifact string) bool {
	as.stateLock.RLock()
	defer as.stateLock.RUnlock()

	info, err := os.Stat(as.Path(session, artifact))
	return err == nil && !info.IsDir()
}

// WriteArtifact writes raw artifact bytes to disk
func (as *ArtifactStorage) WriteArtifact(session, artifact string, data []byte) error {
	as.stateLock.Lock()
	defer as.stateLock.Unlock()

	path := as.Path(session, artifact)

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", artifact, err)
	}

	return nil
}

// SaveJSON marshals a value and writes it as an artifact
func (as *ArtifactStorage) SaveJSON(session, artifact string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", artifact, err)
	}
	return as.WriteArtifact(session, artifact, append(data, '\n'))
}

// ReadArtifact returns the raw bytes of an artifact.
// A missing file is reported as os.ErrNotExist.
func (as *ArtifactStorage) ReadArtifact(session, artifact string) ([]byte, error) {
	as.stateLock.RLock()
	defer as.stateLock.RUnlock()

	data, err := os.ReadFile(as.Path(session, artifact))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", artifact, err)
	}
	return data, nil
}

// LoadJSON reads an artifact and unmarshals it into value
func (as *ArtifactStorage) LoadJSON(session, artifact string, value any) error {
	data, err := as.ReadArtifact(session, artifact)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to parse %s: %w", artifact, err)
	}
	return nil
}

// LoadManifest reads a session's ledger, returning an empty one when none exists
func (as *ArtifactStorage) LoadManifest(session string) (*Manifest, error) {
	manifest := newManifest()
	err := as.LoadJSON(session, ArtifactManifest, manifest)
	if errors.Is(err, os.ErrNotExist) {
		return newManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	// Ensure the map is initialized
	if manifest.Artifacts == nil {
		manifest.Artifacts = make(map[string]string)
	}
	return manifest, nil
}

// SaveManifest writes a session's ledger
func (as *ArtifactStorage) SaveManifest(session string, manifest *Manifest) error {
	return as.SaveJSON(session, ArtifactManifest, manifest)
}

// ListSessions returns every session that has a data directory, sorted by name
func (as *ArtifactStorage) ListSessions() ([]string, error) {
	as.stateLock.RLock()
	defer as.stateLock.RUnlock()

	entries, err := os.ReadDir(as.baseDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			sessions = append(sessions, entry.Name())
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}
