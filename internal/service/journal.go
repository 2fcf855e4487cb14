// internal/service/journal.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
	"serial-monitor/internal/repository"
)

// Journal records session and recording-file history from the event
// stream into a repository
type Journal struct {
	repo    repository.JournalRepository
	timeout time.Duration
	logger  *zap.Logger
}

// JournalEventTypes are the events a Journal consumes
var JournalEventTypes = []model.EventType{
	model.EventConnectionChanged,
	model.EventRecordingChanged,
	model.EventFileRotated,
}

// NewJournal creates a new journal writer
func NewJournal(repo repository.JournalRepository, logger *zap.Logger) *Journal {
	return &Journal{
		repo:    repo,
		timeout: 5 * time.Second,
		logger:  logger.With(zap.String("component", "journal")),
	}
}

// Run consumes events until the channel closes or ctx is done
func (j *Journal) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := j.Handle(ctx, event); err != nil {
				j.logger.Warn("Failed to journal event",
					zap.String("event_type", string(event.Type)),
					zap.Error(err),
				)
			}
		}
	}
}

// Handle applies a single event to the journal
func (j *Journal) Handle(ctx context.Context, event model.Event) error {
	sessionID, err := uuid.Parse(event.Data.String("session_id"))
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	switch event.Type {
	case model.EventConnectionChanged:
		if event.Data.Bool("connected") {
			return j.repo.CreateSession(ctx, &model.SessionRecord{
				ID:        sessionID,
				Path:      event.Data.String("path"),
				BaudRate:  event.Data.Int("baud_rate"),
				FrameMode: event.Data.String("frame_mode"),
				OpenedAt:  event.Timestamp,
			})
		}
		return j.repo.CloseSession(ctx, sessionID, event.Timestamp, event.Data.String("reason"))

	case model.EventRecordingChanged:
		path := event.Data.String("file")
		if event.Data.Bool("recording") {
			return j.addFile(ctx, sessionID, path, event.Timestamp)
		}
		return j.repo.CloseRecordingFile(ctx, sessionID, path, event.Timestamp)

	case model.EventFileRotated:
		if err := j.repo.CloseRecordingFile(ctx, sessionID, event.Data.String("previous"), event.Timestamp); err != nil {
			return err
		}
		return j.addFile(ctx, sessionID, event.Data.String("file"), event.Timestamp)
	}

	return nil
}

func (j *Journal) addFile(ctx context.Context, sessionID uuid.UUID, path string, at time.Time) error {
	return j.repo.AddRecordingFile(ctx, &model.RecordingFile{
		ID:        uuid.New(),
		SessionID: sessionID,
		Path:      path,
		OpenedAt:  at,
	})
}
