// internal/repository/memory_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"serial-monitor/internal/model"
)

// memoryJournal keeps the journal in process memory when no database
// is configured. Entries are lost on restart.
type memoryJournal struct {
	mutex    sync.RWMutex
	sessions map[uuid.UUID]*model.SessionRecord
}

// NewMemoryJournalRepository creates an in-memory journal repository
func NewMemoryJournalRepository() JournalRepository {
	return &memoryJournal{
		sessions: make(map[uuid.UUID]*model.SessionRecord),
	}
}

func (r *memoryJournal) CreateSession(ctx context.Context, session *model.SessionRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}

	stored := *session
	stored.Files = nil
	r.sessions[session.ID] = &stored
	return nil
}

func (r *memoryJournal) CloseSession(ctx context.Context, id uuid.UUID, closedAt time.Time, reason string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.ClosedAt != nil {
		return fmt.Errorf("%w: open session %s", ErrNotFound, id)
	}

	session.ClosedAt = &closedAt
	session.CloseReason = &reason
	for _, file := range session.Files {
		if file.ClosedAt == nil {
			file.ClosedAt = &closedAt
		}
	}
	return nil
}

func (r *memoryJournal) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return cloneSession(session), nil
}

func (r *memoryJournal) ListSessions(ctx context.Context, filter *SessionFilter) ([]*model.SessionRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sessions := []*model.SessionRecord{}
	for _, session := range r.sessions {
		if filter != nil && filter.Path != nil && session.Path != *filter.Path {
			continue
		}
		sessions = append(sessions, cloneSession(session))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].OpenedAt.After(sessions[j].OpenedAt)
	})

	if limit := filter.limit(); len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (r *memoryJournal) AddRecordingFile(ctx context.Context, file *model.RecordingFile) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[file.SessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, file.SessionID)
	}

	stored := *file
	session.Files = append(session.Files, &stored)
	return nil
}

func (r *memoryJournal) CloseRecordingFile(ctx context.Context, sessionID uuid.UUID, path string, closedAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	for _, file := range session.Files {
		if file.Path == path && file.ClosedAt == nil {
			file.ClosedAt = &closedAt
			return nil
		}
	}
	return fmt.Errorf("%w: open file %s", ErrNotFound, path)
}

func cloneSession(session *model.SessionRecord) *model.SessionRecord {
	clone := *session
	clone.Files = make([]*model.RecordingFile, 0, len(session.Files))
	for _, file := range session.Files {
		f := *file
		clone.Files = append(clone.Files, &f)
	}
	return &clone
}
