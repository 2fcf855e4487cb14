package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"serial-monitor/internal/config"
	"serial-monitor/internal/model"
	"serial-monitor/internal/protocol"
)

// fakeStream serves queued chunks and returns (0, nil) when idle,
// the same contract as a serial port with a read timeout.
type fakeStream struct {
	mutex      sync.Mutex
	incoming   [][]byte
	written    []byte
	readErr    error
	writeErr   error
	closeCount int
}

func (s *fakeStream) push(p []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.incoming = append(s.incoming, append([]byte(nil), p...))
}

func (s *fakeStream) fail(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.readErr = err
}

func (s *fakeStream) drained() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.incoming) == 0
}

func (s *fakeStream) closes() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closeCount
}

func (s *fakeStream) sent() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]byte(nil), s.written...)
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.mutex.Lock()
	if s.readErr != nil {
		err := s.readErr
		s.mutex.Unlock()
		return 0, err
	}
	if len(s.incoming) > 0 {
		chunk := s.incoming[0]
		n := copy(p, chunk)
		if n < len(chunk) {
			s.incoming[0] = chunk[n:]
		} else {
			s.incoming = s.incoming[1:]
		}
		s.mutex.Unlock()
		return n, nil
	}
	s.mutex.Unlock()

	time.Sleep(time.Millisecond)
	return 0, nil
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *fakeStream) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closeCount++
	return nil
}

type fakeOpener struct {
	mutex   sync.Mutex
	streams []*fakeStream
	err     error
}

func (o *fakeOpener) Open(ctx context.Context, cfg model.DeviceConfig) (protocol.Stream, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeStream{}
	o.streams = append(o.streams, s)
	return s, nil
}

func (o *fakeOpener) last() *fakeStream {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if len(o.streams) == 0 {
		return nil
	}
	return o.streams[len(o.streams)-1]
}

func (o *fakeOpener) opened() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return len(o.streams)
}

type fakeLister struct {
	paths []string
}

func (l *fakeLister) ListPorts(ctx context.Context) []model.PortInfo {
	ports := make([]model.PortInfo, 0, len(l.paths))
	for _, p := range l.paths {
		ports = append(ports, model.PortInfo{Name: p, Type: model.PortTypeSerial})
	}
	return ports
}

func (l *fakeLister) Contains(ctx context.Context, path string) bool {
	for _, p := range l.paths {
		if p == path {
			return true
		}
	}
	return false
}

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 14, 9, 30, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

type fakeSink struct {
	mutex  sync.Mutex
	events []model.Event
}

func (s *fakeSink) Publish(event model.Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSink) ofType(eventType model.EventType) []model.Event {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var out []model.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeSink) hasLog(level model.LogLevel, message string) bool {
	for _, e := range s.ofType(model.EventLog) {
		if e.Severity == level && e.Data.String("message") == message {
			return true
		}
	}
	return false
}

type errorDialog struct {
	title   string
	message string
}

type fakePrompt struct {
	folder string
	errors chan errorDialog
}

func newFakePrompt(folder string) *fakePrompt {
	return &fakePrompt{folder: folder, errors: make(chan errorDialog, 8)}
}

func (p *fakePrompt) PickFolder(ctx context.Context) (string, error) {
	if p.folder == "" {
		return "", errors.New("cancelled")
	}
	return p.folder, nil
}

func (p *fakePrompt) ShowError(ctx context.Context, title, message string) error {
	p.errors <- errorDialog{title: title, message: message}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Serial: config.SerialConfig{
			DefaultPort:     "/dev/ttyUSB0",
			DefaultBaudRate: 9600,
			ReadTimeout:     10 * time.Millisecond,
			ReadBufferSize:  32,
			FrameMode:       "fixed",
		},
		Recording: config.RecordingConfig{
			FilePrefix:       "DCubedISM",
			RotationInterval: 600 * time.Second,
		},
		Prompt: config.PromptConfig{Timeout: time.Second},
	}
}

var _ io.ReadWriteCloser = (*fakeStream)(nil)
