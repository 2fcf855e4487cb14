// internal/model/event.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventFrameReceived     EventType = "FRAME_RECEIVED"
	EventDataReceived      EventType = "DATA_RECEIVED"
	EventConnectionChanged EventType = "CONNECTION_CHANGED"
	EventRecordingChanged  EventType = "RECORDING_CHANGED"
	EventFileRotated       EventType = "FILE_ROTATED"
	EventLog               EventType = "LOG"
)

// LogLevel is the severity shown to operators for a log event
type LogLevel string

const (
	LogInfo    LogLevel = "INFO"
	LogSuccess LogLevel = "SUCCESS"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported JSONObject source %T", value)
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// String returns the value under key if it is a string
func (j JSONObject) String(key string) string {
	s, _ := j[key].(string)
	return s
}

// Bool returns the value under key if it is a bool
func (j JSONObject) Bool(key string) bool {
	b, _ := j[key].(bool)
	return b
}

// Int returns the value under key if it is numeric
func (j JSONObject) Int(key string) int {
	switch v := j[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case uint8:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Event represents a notification pushed to event sinks
type Event struct {
	ID        uuid.UUID  `json:"id"`
	Type      EventType  `json:"type"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  LogLevel   `json:"severity"`
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType EventType, source string, severity LogLevel, data JSONObject) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  severity,
	}
}

// LogEvent creates a LOG event carrying an operator-facing message
func LogEvent(source string, level LogLevel, message string) Event {
	return NewEvent(EventLog, source, level, JSONObject{
		"message": message,
		"level":   string(level),
	})
}
