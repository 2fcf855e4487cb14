// internal/model/session.go
package model

import (
	"time"

	"github.com/google/uuid"

	"serial-monitor/pkg/framing"
)

// SessionState is the connection state of the single device session
type SessionState string

const (
	SessionClosed SessionState = "CLOSED"
	SessionOpen   SessionState = "OPEN"
)

// DeviceConfig identifies which device to open and how
type DeviceConfig struct {
	Path      string       `json:"path"`
	BaudRate  uint32       `json:"baud_rate"`
	FrameMode framing.Mode `json:"frame_mode"`
}

// LinkStats counts traffic over an open stream
type LinkStats struct {
	BytesRead    int64     `json:"bytes_read"`
	BytesWritten int64     `json:"bytes_written"`
	ReadCount    int64     `json:"read_count"`
	WriteCount   int64     `json:"write_count"`
	ErrorCount   int64     `json:"error_count"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionStatus is a point-in-time view of the session
type SessionStatus struct {
	State       SessionState `json:"state"`
	Connected   bool         `json:"connected"`
	Recording   bool         `json:"recording"`
	SessionID   *uuid.UUID   `json:"session_id,omitempty"`
	Config      DeviceConfig `json:"config"`
	Folder      string       `json:"recording_folder"`
	ActiveFile  string       `json:"active_file,omitempty"`
	OpenedAt    *time.Time   `json:"opened_at,omitempty"`
	FileOpened  *time.Time   `json:"file_opened_at,omitempty"`
	Stats       *LinkStats   `json:"stats,omitempty"`
	Subscribers int          `json:"subscribers,omitempty"`
}

// CloseReason explains why a session ended
type CloseReason string

const (
	CloseRequested CloseReason = "requested"
	CloseLinkLost  CloseReason = "link_lost"
	CloseShutdown  CloseReason = "shutdown"
)

// SessionRecord is the journal entry for one open-to-close session
type SessionRecord struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Path        string           `json:"path" db:"path"`
	BaudRate    int              `json:"baud_rate" db:"baud_rate"`
	FrameMode   string           `json:"frame_mode" db:"frame_mode"`
	OpenedAt    time.Time        `json:"opened_at" db:"opened_at"`
	ClosedAt    *time.Time       `json:"closed_at,omitempty" db:"closed_at"`
	CloseReason *string          `json:"close_reason,omitempty" db:"close_reason"`
	Files       []*RecordingFile `json:"files,omitempty"`
}

// RecordingFile is the journal entry for one rotation window
type RecordingFile struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	SessionID uuid.UUID  `json:"session_id" db:"session_id"`
	Path      string     `json:"path" db:"path"`
	OpenedAt  time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}
