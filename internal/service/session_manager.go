// internal/service/session_manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-monitor/internal/config"
	"serial-monitor/internal/model"
	"serial-monitor/internal/protocol"
	"serial-monitor/internal/utils"
	"serial-monitor/pkg/framing"
)

const eventSource = "session"

// SessionManager owns the single PortSession and is the only component
// that starts or stops read tasks. One mutex serializes every mutation;
// it is never held for the lifetime of a task.
type SessionManager struct {
	mutex   sync.Mutex
	session PortSession
	folder  string

	ports  PortLister
	opener protocol.Opener
	sink   EventSink
	prompt UserPrompt
	clock  Clock

	serial    config.SerialConfig
	recording config.RecordingConfig
	promptTTL time.Duration

	logger *utils.SessionLogger
}

// SessionManagerOption customizes a SessionManager
type SessionManagerOption func(*SessionManager)

// WithClock replaces the wall clock used for recording rotation
func WithClock(clock Clock) SessionManagerOption {
	return func(m *SessionManager) {
		m.clock = clock
	}
}

// NewSessionManager creates a manager with a closed session configured
// from the serial and recording defaults
func NewSessionManager(
	ports PortLister,
	opener protocol.Opener,
	sink EventSink,
	prompt UserPrompt,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...SessionManagerOption,
) *SessionManager {
	m := &SessionManager{
		ports:     ports,
		opener:    opener,
		sink:      sink,
		prompt:    prompt,
		clock:     SystemClock,
		serial:    cfg.Serial,
		recording: cfg.Recording,
		promptTTL: cfg.Prompt.Timeout,
		folder:    cfg.Recording.Folder,
		logger:    utils.NewSessionLogger(logger),
	}
	m.session.config = model.DeviceConfig{
		Path:      cfg.Serial.DefaultPort,
		BaudRate:  uint32(cfg.Serial.DefaultBaudRate),
		FrameMode: framing.Mode(cfg.Serial.FrameMode),
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListPorts returns the currently enumerated device paths
func (m *SessionManager) ListPorts(ctx context.Context) []model.PortInfo {
	return m.ports.ListPorts(ctx)
}

// Configure replaces the device configuration while disconnected.
// An empty frame mode selects the configured default.
func (m *SessionManager) Configure(cfg model.DeviceConfig) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.session.isOpen() {
		return fmt.Errorf("%w: cannot reconfigure while connected", ErrInvalidConfig)
	}
	if cfg.Path == "" {
		return fmt.Errorf("%w: port path is required", ErrInvalidConfig)
	}
	if cfg.BaudRate == 0 {
		return fmt.Errorf("%w: baud rate must be positive", ErrInvalidConfig)
	}
	if cfg.FrameMode == "" {
		cfg.FrameMode = framing.Mode(m.serial.FrameMode)
	}
	if !cfg.FrameMode.Valid() {
		return fmt.Errorf("%w: unsupported frame mode %q", ErrInvalidConfig, cfg.FrameMode)
	}

	m.session.config = cfg
	m.log(model.LogInfo, fmt.Sprintf("Port set to %s at %d baud.", cfg.Path, cfg.BaudRate))
	return nil
}

// ToggleConnection opens a closed session or closes an open one and
// reports the resulting connected state
func (m *SessionManager) ToggleConnection(ctx context.Context) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.session.recording {
		m.log(model.LogWarning, "Please stop recording before disconnecting.")
		return true, ErrRecordingInProgress
	}

	if m.session.isOpen() {
		m.closeLocked(model.CloseRequested)
		return false, nil
	}

	if err := m.openLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Disconnect closes the session if open, stopping any recording first.
// It reports whether anything was torn down.
func (m *SessionManager) Disconnect() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.closeLocked(model.CloseRequested)
}

// Shutdown closes the session for process exit
func (m *SessionManager) Shutdown() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closeLocked(model.CloseShutdown)
}

// Send writes bytes to the open device
func (m *SessionManager) Send(p []byte) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.session.isOpen() {
		m.log(model.LogError, "Connect to port first.")
		return 0, ErrNotConnected
	}

	n, err := m.session.stream.Write(p)
	if err != nil {
		m.log(model.LogError, fmt.Sprintf("Failed to write to port: %v", err))
		return n, wrap(ErrWriteFailure, err)
	}

	hex := framing.HexDump(p)
	m.logger.LogTransfer("out", n, hex)
	m.log(model.LogSuccess, "Message sent successfully.")
	m.log(model.LogInfo, "Message content (hex): "+hex)
	return n, nil
}

// SetRecordingFolder stores the folder used by the next recording
func (m *SessionManager) SetRecordingFolder(path string) error {
	if path == "" {
		return ErrFolderNotSet
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.folder = path
	m.log(model.LogInfo, "Recording folder set to "+path)
	return nil
}

// PickRecordingFolder asks the operator for a folder and stores it
func (m *SessionManager) PickRecordingFolder(ctx context.Context) (string, error) {
	if m.prompt == nil {
		return "", errors.New("no operator prompt available")
	}

	path, err := m.prompt.PickFolder(ctx)
	if err != nil {
		return "", fmt.Errorf("folder selection failed: %w", err)
	}
	if err := m.SetRecordingFolder(path); err != nil {
		return "", err
	}
	return path, nil
}

// ToggleRecording starts recording on an open session or stops the
// active one, reporting the resulting recording state
func (m *SessionManager) ToggleRecording() (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.session.recording {
		m.stopRecordingLocked()
		return false, nil
	}

	if err := m.startRecordingLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// LegacyStopDisconnects reports whether stopping a recording closes the link
func (m *SessionManager) LegacyStopDisconnects() bool {
	return m.recording.LegacyStopDisconnects
}

// Status returns a snapshot of the session
func (m *SessionManager) Status() model.SessionStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.session.status(m.folder)
}

func (m *SessionManager) openLocked(ctx context.Context) error {
	cfg := m.session.config
	logger := m.logger.ForPort(cfg.Path, cfg.BaudRate)

	if cfg.Path == "" || !m.ports.Contains(ctx, cfg.Path) {
		m.log(model.LogError, fmt.Sprintf("The specified port '%s' is not available.", cfg.Path))
		logger.LogConnection("open", false, ErrPortNotAvailable)
		return fmt.Errorf("%w: %s", ErrPortNotAvailable, cfg.Path)
	}

	decoder, err := framing.NewDecoder(cfg.FrameMode)
	if err != nil {
		return wrap(ErrInvalidConfig, err)
	}

	stream, err := m.opener.Open(ctx, cfg)
	if err != nil {
		m.log(model.LogError, fmt.Sprintf("Failed to open port: %v", err))
		logger.LogConnection("open", false, err)
		return wrap(ErrOpenFailure, err)
	}

	m.session.id = uuid.New()
	m.session.stream = protocol.NewStatsStream(stream)
	m.session.decoder = decoder
	m.session.openedAt = m.clock.Now()
	m.startTaskLocked()

	logger.LogConnection("open", true, nil)
	m.publish(model.EventConnectionChanged, model.LogSuccess, model.JSONObject{
		"connected":  true,
		"session_id": m.session.id.String(),
		"path":       cfg.Path,
		"baud_rate":  cfg.BaudRate,
		"frame_mode": string(cfg.FrameMode),
	})
	m.log(model.LogSuccess, fmt.Sprintf("Connected to %s at %d baud.", cfg.Path, cfg.BaudRate))
	return nil
}

// closeLocked stops the task, ends any recording and closes the stream
func (m *SessionManager) closeLocked(reason model.CloseReason) bool {
	s := &m.session
	if !s.isOpen() {
		return false
	}

	if s.task != nil {
		s.task.stop()
		s.task = nil
	}
	if s.recording {
		m.endRecordingLocked()
	}

	sessionID := s.id.String()
	logger := m.logger.ForPort(s.config.Path, s.config.BaudRate)
	if err := s.stream.Close(); err != nil {
		logger.Warn("Error closing stream", zap.Error(err))
	}
	s.clear()

	logger.LogConnection("close", true, nil)
	m.publish(model.EventConnectionChanged, model.LogInfo, model.JSONObject{
		"connected":  false,
		"session_id": sessionID,
		"reason":     string(reason),
	})
	if reason != model.CloseLinkLost {
		m.log(model.LogInfo, "Disconnected from port.")
	}
	return true
}

func (m *SessionManager) startRecordingLocked() error {
	s := &m.session
	if !s.isOpen() {
		m.log(model.LogError, "Connect to port first.")
		return ErrNotConnected
	}
	if m.folder == "" {
		m.log(model.LogError, "File path not set.")
		return ErrFolderNotSet
	}

	target, err := NewRecordingTarget(m.folder, m.recording.FilePrefix, m.recording.RotationInterval, m.clock)
	if err != nil {
		m.log(model.LogError, fmt.Sprintf("Failed to create recording file: %v", err))
		m.logger.LogRecording("start", "", err)
		return err
	}

	// hand the stream from the plain reader to the recorder
	s.task.stop()
	s.target = target
	s.recording = true
	m.startTaskLocked()

	m.logger.LogRecording("start", target.Path(), nil)
	m.publish(model.EventRecordingChanged, model.LogSuccess, model.JSONObject{
		"recording":  true,
		"session_id": s.id.String(),
		"file":       target.Path(),
	})
	m.log(model.LogSuccess, "Recording started: "+target.Path())
	return nil
}

func (m *SessionManager) stopRecordingLocked() {
	s := &m.session

	if m.recording.LegacyStopDisconnects {
		m.closeLocked(model.CloseRequested)
		return
	}

	s.task.stop()
	m.endRecordingLocked()
	m.startTaskLocked()
}

// endRecordingLocked closes the target; the task must already be stopped
func (m *SessionManager) endRecordingLocked() {
	s := &m.session
	if s.target == nil {
		s.recording = false
		return
	}

	path := s.target.Path()
	if err := s.target.Close(); err != nil {
		m.logger.LogRecording("stop", path, err)
	} else {
		m.logger.LogRecording("stop", path, nil)
	}
	s.target = nil
	s.recording = false

	m.publish(model.EventRecordingChanged, model.LogInfo, model.JSONObject{
		"recording":  false,
		"session_id": s.id.String(),
		"file":       path,
	})
	m.log(model.LogInfo, "Recording stopped.")
}

// startTaskLocked starts a Reader, or a Recorder when a target is set
func (m *SessionManager) startTaskLocked() {
	s := &m.session
	task, ctx := newReadTask()
	s.task = task

	sessionID := s.id.String()
	r := &reader{
		stream:  s.stream,
		decoder: s.decoder,
		target:  s.target,
		bufSize: m.serial.ReadBufferSize,
		onMessage: func(msg framing.Message) {
			m.sink.Publish(messageEvent(sessionID, msg))
		},
		onRotate: func(previous, current string) {
			m.logger.LogRecording("rotate", current, nil)
			m.publish(model.EventFileRotated, model.LogInfo, model.JSONObject{
				"session_id": sessionID,
				"previous":   previous,
				"file":       current,
			})
			m.log(model.LogInfo, "Recording rotated to new file: "+current)
		},
	}

	go func() {
		err := r.run(ctx)
		close(task.done)
		if err != nil {
			m.onTaskFailed(task, err)
		}
	}()
}

// onTaskFailed tears the session down after a fatal read or file error,
// unless the task has already been replaced or stopped
func (m *SessionManager) onTaskFailed(task *readTask, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.session.task != task {
		return
	}
	m.session.task = nil

	m.logger.ForPort(m.session.config.Path, m.session.config.BaudRate).LogConnection("read", false, err)
	m.log(model.LogError, fmt.Sprintf("Connection lost: %v", err))
	m.closeLocked(model.CloseLinkLost)

	title := "Port Error"
	if errors.Is(err, ErrFileCreateFailure) {
		title = "Write Error"
	}
	go m.notifyError(title, err.Error())
}

func (m *SessionManager) notifyError(title, message string) {
	if m.prompt == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.promptTTL)
	defer cancel()

	if err := m.prompt.ShowError(ctx, title, message); err != nil {
		m.logger.Debug("Error dialog not acknowledged", zap.String("title", title), zap.Error(err))
	}
}

func (m *SessionManager) publish(eventType model.EventType, severity model.LogLevel, data model.JSONObject) {
	m.sink.Publish(model.NewEvent(eventType, eventSource, severity, data))
}

// log writes an operator-facing line to the logger and the event sink
func (m *SessionManager) log(level model.LogLevel, message string) {
	switch level {
	case model.LogError:
		m.logger.Error(message)
	case model.LogWarning:
		m.logger.Warn(message)
	default:
		m.logger.Info(message, zap.String("level", string(level)))
	}
	m.sink.Publish(model.LogEvent(eventSource, level, message))
}

func messageEvent(sessionID string, msg framing.Message) model.Event {
	switch msg.Kind {
	case framing.ModeFixed:
		f := msg.Frame
		return model.NewEvent(model.EventFrameReceived, "reader", model.LogInfo, model.JSONObject{
			"session_id":  sessionID,
			"command_id":  uint8(f.CommandID),
			"command":     f.CommandID.String(),
			"hardware_id": f.HardwareID,
			"value":       f.Value,
			"description": f.Describe(),
			"raw":         framing.HexDump(msg.Raw),
		})
	case framing.ModeText:
		return model.NewEvent(model.EventDataReceived, "reader", model.LogInfo, model.JSONObject{
			"session_id": sessionID,
			"text":       msg.Text,
		})
	default:
		return model.NewEvent(model.EventDataReceived, "reader", model.LogInfo, model.JSONObject{
			"session_id": sessionID,
			"hex":        framing.HexDump(msg.Raw),
			"length":     len(msg.Raw),
		})
	}
}
