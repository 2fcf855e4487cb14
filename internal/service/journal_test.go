package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
	"serial-monitor/internal/repository"
)

func TestJournalRecordsSessionHistory(t *testing.T) {
	h := newHarness(t)
	repo := repository.NewMemoryJournalRepository()
	journal := NewJournal(repo, zap.NewNop())

	dir := t.TempDir()
	stream := h.connect(t)
	h.startRecording(t, dir)

	stream.push([]byte("x"))
	require.Eventually(t, func() bool { return stream.drained() }, waitFor, tick)
	h.clock.Advance(10 * time.Minute)
	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFileRotated)) == 1
	}, waitFor, tick)

	assert.True(t, h.manager.Disconnect())

	ctx := context.Background()
	h.sink.mutex.Lock()
	events := append([]model.Event(nil), h.sink.events...)
	h.sink.mutex.Unlock()
	for _, event := range events {
		for _, eventType := range JournalEventTypes {
			if event.Type == eventType {
				require.NoError(t, journal.Handle(ctx, event))
			}
		}
	}

	sessions, err := repo.ListSessions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	session := sessions[0]
	assert.Equal(t, "/dev/ttyUSB0", session.Path)
	assert.Equal(t, 9600, session.BaudRate)
	assert.Equal(t, "fixed", session.FrameMode)
	require.NotNil(t, session.CloseReason)
	assert.Equal(t, "requested", *session.CloseReason)

	require.Len(t, session.Files, 2)
	for _, file := range session.Files {
		assert.NotNil(t, file.ClosedAt)
	}
}

func TestJournalRunStopsOnClosedChannel(t *testing.T) {
	journal := NewJournal(repository.NewMemoryJournalRepository(), zap.NewNop())
	events := make(chan model.Event)
	done := make(chan struct{})

	go func() {
		journal.Run(context.Background(), events)
		close(done)
	}()
	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("journal did not stop")
	}
}

func TestJournalIgnoresEventsWithoutSession(t *testing.T) {
	journal := NewJournal(repository.NewMemoryJournalRepository(), zap.NewNop())
	err := journal.Handle(context.Background(), model.LogEvent("session", model.LogInfo, "hello"))
	assert.NoError(t, err)
}
