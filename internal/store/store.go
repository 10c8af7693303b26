// Package store keeps per-session conversation history and uploaded files.
//
// Sessions are identified by caller-supplied strings. History and files are independent:
// clearing a session's history leaves its files in place.
package store

import (
	"context"
	"fmt"

	"deepchat/internal/models"
)

// SessionStore holds the ordered turn history of each session.
type SessionStore interface {
	// History returns the session's turns, creating an empty session if absent.
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	// AppendTurns appends turns atomically with respect to other store calls.
	AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error
	// Clear removes the session entirely. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// FileStore holds the documents uploaded for each session.
type FileStore interface {
	Files(ctx context.Context, sessionID string) ([]models.UploadedFile, error)
	// AddFiles appends the batch atomically; either all files are stored or none.
	AddFiles(ctx context.Context, sessionID string, files ...models.UploadedFile) error
}

// Store combines both collections behind one backend.
type Store interface {
	SessionStore
	FileStore
	Close() error
}

func errStore(op, sessionID string, err error) error {
	return fmt.Errorf("%s session %q: %w", op, sessionID, err)
}
