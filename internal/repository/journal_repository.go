// internal/repository/journal_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-monitor/internal/database"
	"serial-monitor/internal/model"
	"serial-monitor/internal/utils"
)

// journalRepository implements JournalRepository on PostgreSQL
type journalRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewJournalRepository creates a new PostgreSQL journal repository
func NewJournalRepository(db *database.DB, logger *zap.Logger) JournalRepository {
	return &journalRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "journal-repository"),
	}
}

// CreateSession records a newly opened session
func (r *journalRepository) CreateSession(ctx context.Context, session *model.SessionRecord) error {
	query := `
		INSERT INTO sessions (id, path, baud_rate, frame_mode, opened_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.Path, session.BaudRate, session.FrameMode, session.OpenedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create session", zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// CloseSession marks a session closed and closes any file left open
func (r *journalRepository) CloseSession(ctx context.Context, id uuid.UUID, closedAt time.Time, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET closed_at = $2, close_reason = $3 WHERE id = $1 AND closed_at IS NULL`,
		id, closedAt, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: open session %s", ErrNotFound, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE recording_files SET closed_at = $2 WHERE session_id = $1 AND closed_at IS NULL`,
		id, closedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to close recording files: %w", err)
	}

	return tx.Commit()
}

// GetSession retrieves a session with its recording files
func (r *journalRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	query := `
		SELECT id, path, baud_rate, frame_mode, opened_at, closed_at, close_reason
		FROM sessions WHERE id = $1
	`

	session := &model.SessionRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.Path, &session.BaudRate, &session.FrameMode,
		&session.OpenedAt, &session.ClosedAt, &session.CloseReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	files, err := r.listFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Files = files

	return session, nil
}

// ListSessions returns the most recent sessions first
func (r *journalRepository) ListSessions(ctx context.Context, filter *SessionFilter) ([]*model.SessionRecord, error) {
	query := `
		SELECT id, path, baud_rate, frame_mode, opened_at, closed_at, close_reason
		FROM sessions
		WHERE ($1::text IS NULL OR path = $1)
		ORDER BY opened_at DESC
		LIMIT $2
	`

	var path *string
	if filter != nil {
		path = filter.Path
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, path, filter.limit())
	r.logger.LogDatabaseQuery("list sessions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*model.SessionRecord{}
	for rows.Next() {
		session := &model.SessionRecord{}
		err := rows.Scan(
			&session.ID, &session.Path, &session.BaudRate, &session.FrameMode,
			&session.OpenedAt, &session.ClosedAt, &session.CloseReason,
		)
		if err != nil {
			r.logger.Error("Failed to scan session", zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for _, session := range sessions {
		files, err := r.listFiles(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		session.Files = files
	}

	return sessions, nil
}

// AddRecordingFile records a newly opened recording file
func (r *journalRepository) AddRecordingFile(ctx context.Context, file *model.RecordingFile) error {
	query := `
		INSERT INTO recording_files (id, session_id, path, opened_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, file.ID, file.SessionID, file.Path, file.OpenedAt)
	if err != nil {
		r.logger.Error("Failed to add recording file", zap.Error(err))
		return fmt.Errorf("failed to add recording file: %w", err)
	}

	return nil
}

// CloseRecordingFile marks a recording file closed
func (r *journalRepository) CloseRecordingFile(ctx context.Context, sessionID uuid.UUID, path string, closedAt time.Time) error {
	query := `
		UPDATE recording_files SET closed_at = $3
		WHERE session_id = $1 AND path = $2 AND closed_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, path, closedAt)
	if err != nil {
		return fmt.Errorf("failed to close recording file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: open file %s", ErrNotFound, path)
	}

	return nil
}

func (r *journalRepository) listFiles(ctx context.Context, sessionID uuid.UUID) ([]*model.RecordingFile, error) {
	query := `
		SELECT id, session_id, path, opened_at, closed_at
		FROM recording_files WHERE session_id = $1
		ORDER BY opened_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recording files: %w", err)
	}
	defer rows.Close()

	files := []*model.RecordingFile{}
	for rows.Next() {
		file := &model.RecordingFile{}
		if err := rows.Scan(&file.ID, &file.SessionID, &file.Path, &file.OpenedAt, &file.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recording file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}
