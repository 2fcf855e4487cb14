// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"serial-monitor/internal/model"
)

// ErrNotFound is returned when a journal entry does not exist
var ErrNotFound = errors.New("journal entry not found")

// JournalRepository persists the history of sessions and recording files
type JournalRepository interface {
	// Sessions
	CreateSession(ctx context.Context, session *model.SessionRecord) error
	CloseSession(ctx context.Context, id uuid.UUID, closedAt time.Time, reason string) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error)
	ListSessions(ctx context.Context, filter *SessionFilter) ([]*model.SessionRecord, error)

	// Recording files
	AddRecordingFile(ctx context.Context, file *model.RecordingFile) error
	CloseRecordingFile(ctx context.Context, sessionID uuid.UUID, path string, closedAt time.Time) error
}

// SessionFilter represents session listing filters
type SessionFilter struct {
	Path  *string `json:"path,omitempty"`
	Limit int     `json:"limit"`
}

// DefaultSessionLimit caps session listings without an explicit limit
const DefaultSessionLimit = 50

func (f *SessionFilter) limit() int {
	if f == nil || f.Limit <= 0 {
		return DefaultSessionLimit
	}
	return f.Limit
}
