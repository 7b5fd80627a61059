package game

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// sessionNamespace scopes session UUIDs so the same name always yields the same id
var sessionNamespace = uuid.MustParse("9b8f4c1e-3a52-4d0b-a7e6-52c1f0d8e3b4")

// SessionID returns the stable identifier of a session name
func SessionID(name string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String()
}

// Upload is the pair of raw files a session was uploaded with
type Upload struct {
	Session  string
	GamePath string
	LogPath  string
}

// UploadLoader discovers uploaded sessions on disk
type UploadLoader struct {
	basePath       string
	gameExtensions []string
	logExtensions  []string
}

// NewUploadLoader creates a new upload loader
func NewUploadLoader(basePath string, gameExtensions, logExtensions []string) *UploadLoader {
	return &UploadLoader{
		basePath:       basePath,
		gameExtensions: gameExtensions,
		logExtensions:  logExtensions,
	}
}

// Sessions returns the name of every session folder under the uploads directory, sorted
func (ul *UploadLoader) Sessions() ([]string, error) {
	entries, err := os.ReadDir(ul.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
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

// Find locates the game archive and the compressed log of a session
func (ul *UploadLoader) Find(session string) (Upload, error) {
	dir := filepath.Join(ul.basePath, session)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return Upload{}, &MissingInputError{Stage: StageExtract, Path: dir}
	}
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read upload directory: %w", err)
	}

	upload := Upload{Session: session}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch {
		case upload.GamePath == "" && hasExtension(ul.gameExtensions, ext):
			upload.GamePath = filepath.Join(dir, entry.Name())
		case upload.LogPath == "" && hasExtension(ul.logExtensions, ext):
			upload.LogPath = filepath.Join(dir, entry.Name())
		}
	}

	if upload.GamePath == "" {
		return upload, &MissingInputError{Stage: StageExtract, Path: filepath.Join(dir, "*"+strings.Join(ul.gameExtensions, "|*"))}
	}
	if upload.LogPath == "" {
		return upload, &MissingInputError{Stage: StageExtract, Path: filepath.Join(dir, "*"+strings.Join(ul.logExtensions, "|*"))}
	}
	return upload, nil
}

func hasExtension(extensions []string, ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// hashParts returns the sha256 of the given byte slices, each prefixed by its length
func hashParts(parts ...[]byte) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
