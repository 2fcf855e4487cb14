// internal/service/port_session.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"serial-monitor/internal/model"
	"serial-monitor/internal/protocol"
	"serial-monitor/pkg/framing"
)

// PortSession is the single device session. All fields are guarded by
// the owning SessionManager's mutex.
//
// stream != nil iff exactly one read task is running on it.
type PortSession struct {
	id        uuid.UUID
	config    model.DeviceConfig
	stream    *protocol.StatsStream
	decoder   framing.Decoder
	task      *readTask
	recording bool
	target    *RecordingTarget
	openedAt  time.Time
}

func (s *PortSession) isOpen() bool {
	return s.stream != nil
}

// clear drops the handle and everything nested in it, keeping the config
func (s *PortSession) clear() {
	s.id = uuid.Nil
	s.stream = nil
	s.decoder = nil
	s.task = nil
	s.recording = false
	s.target = nil
	s.openedAt = time.Time{}
}

func (s *PortSession) status(folder string) model.SessionStatus {
	st := model.SessionStatus{
		State:     model.SessionClosed,
		Connected: s.isOpen(),
		Recording: s.recording,
		Config:    s.config,
		Folder:    folder,
	}
	if !s.isOpen() {
		return st
	}

	id := s.id
	openedAt := s.openedAt
	stats := s.stream.Stats()
	st.State = model.SessionOpen
	st.SessionID = &id
	st.OpenedAt = &openedAt
	st.Stats = &stats

	if s.target != nil {
		fileOpened := s.target.OpenedAt()
		st.ActiveFile = s.target.Path()
		st.FileOpened = &fileOpened
	}
	return st
}

// readTask is the handle on a running Reader or Recorder goroutine.
// done is closed when the goroutine has stopped touching the stream.
type readTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newReadTask() (*readTask, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &readTask{
		cancel: cancel,
		done:   make(chan struct{}),
	}, ctx
}

// stop signals the task and waits for its acknowledgement. The wait is
// bounded by the stream's read timeout.
func (t *readTask) stop() {
	t.cancel()
	<-t.done
}
