// internal/service/sink.go
package service

import (
	"context"
	"time"

	"serial-monitor/internal/model"
)

// EventSink receives session notifications. Publish must not block and
// may be called from the reader goroutine.
type EventSink interface {
	Publish(event model.Event)
}

// UserPrompt performs blocking interactions with an operator
type UserPrompt interface {
	PickFolder(ctx context.Context) (string, error)
	ShowError(ctx context.Context, title, message string) error
}

// PortLister enumerates available device paths
type PortLister interface {
	ListPorts(ctx context.Context) []model.PortInfo
	Contains(ctx context.Context, path string) bool
}

// Clock supplies the current time for rotation decisions
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}
