package interfaces

import (
	"context"

	"github.com/user/hundred-acre-realm/internal/types"
)

// TitleGenerator produces a flavor-text title for a session
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, session *types.Session) (string, error)
}

// SessionIndex stores the outcome of every processed session
type SessionIndex interface {
	Record(ctx context.Context, summary types.SessionSummary) error
	Get(ctx context.Context, name string) (*types.SessionSummary, error)
	List(ctx context.Context) ([]types.SessionSummary, error)
}

// ArtifactReader gives read access to the derived artifacts of sessions
type ArtifactReader interface {
	ListSessions() ([]string, error)
	ReadArtifact(session, artifact string) ([]byte, error)
}
