package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-monitor/internal/config"
	"serial-monitor/internal/model"
	"serial-monitor/pkg/framing"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

type harness struct {
	manager *SessionManager
	opener  *fakeOpener
	sink    *fakeSink
	prompt  *fakePrompt
	clock   *fakeClock
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	h := &harness{
		opener: &fakeOpener{},
		sink:   &fakeSink{},
		prompt: newFakePrompt(""),
		clock:  newFakeClock(),
	}
	lister := &fakeLister{paths: []string{"/dev/ttyUSB0", "COM3"}}
	h.manager = NewSessionManager(lister, h.opener, h.sink, h.prompt, cfg, zap.NewNop(), WithClock(h.clock))
	t.Cleanup(h.manager.Shutdown)
	return h
}

func (h *harness) connect(t *testing.T) *fakeStream {
	t.Helper()
	connected, err := h.manager.ToggleConnection(context.Background())
	require.NoError(t, err)
	require.True(t, connected)
	return h.opener.last()
}

func (h *harness) startRecording(t *testing.T, folder string) {
	t.Helper()
	require.NoError(t, h.manager.SetRecordingFolder(folder))
	recording, err := h.manager.ToggleRecording()
	require.NoError(t, err)
	require.True(t, recording)
}

func recordedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names
}

func fileContent(path string) string {
	b, _ := os.ReadFile(path)
	return string(b)
}

func TestSessionManagerConnectAndDisconnect(t *testing.T) {
	h := newHarness(t)

	status := h.manager.Status()
	assert.Equal(t, model.SessionClosed, status.State)
	assert.False(t, status.Connected)

	stream := h.connect(t)

	status = h.manager.Status()
	assert.Equal(t, model.SessionOpen, status.State)
	require.NotNil(t, status.SessionID)
	assert.Equal(t, "/dev/ttyUSB0", status.Config.Path)

	changes := h.sink.ofType(model.EventConnectionChanged)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Data.Bool("connected"))
	assert.Equal(t, status.SessionID.String(), changes[0].Data.String("session_id"))
	assert.True(t, h.sink.hasLog(model.LogSuccess, "Connected to /dev/ttyUSB0 at 9600 baud."))

	connected, err := h.manager.ToggleConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, connected)
	assert.Equal(t, 1, stream.closes())
	assert.Equal(t, model.SessionClosed, h.manager.Status().State)

	changes = h.sink.ofType(model.EventConnectionChanged)
	require.Len(t, changes, 2)
	assert.False(t, changes[1].Data.Bool("connected"))
	assert.Equal(t, "requested", changes[1].Data.String("reason"))
}

func TestSessionManagerPortNotAvailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.manager.Configure(model.DeviceConfig{Path: "COM9", BaudRate: 115200}))

	connected, err := h.manager.ToggleConnection(context.Background())
	assert.ErrorIs(t, err, ErrPortNotAvailable)
	assert.False(t, connected)
	assert.Equal(t, 0, h.opener.opened())
	assert.True(t, h.sink.hasLog(model.LogError, "The specified port 'COM9' is not available."))
	assert.Empty(t, h.sink.ofType(model.EventConnectionChanged))
}

func TestSessionManagerOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.opener.err = errors.New("access denied")

	_, err := h.manager.ToggleConnection(context.Background())
	assert.ErrorIs(t, err, ErrOpenFailure)
	assert.Equal(t, "OPEN_FAILURE", ErrorCode(err))
	assert.Equal(t, model.SessionClosed, h.manager.Status().State)
}

func TestSessionManagerConfigure(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name    string
		cfg     model.DeviceConfig
		wantErr bool
	}{
		{"valid", model.DeviceConfig{Path: "COM3", BaudRate: 115200, FrameMode: framing.ModeRaw}, false},
		{"default mode", model.DeviceConfig{Path: "COM3", BaudRate: 250000}, false},
		{"empty path", model.DeviceConfig{BaudRate: 9600}, true},
		{"zero baud", model.DeviceConfig{Path: "COM3"}, true},
		{"bad mode", model.DeviceConfig{Path: "COM3", BaudRate: 9600, FrameMode: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.manager.Configure(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Path, h.manager.Status().Config.Path)
		})
	}

	assert.Equal(t, framing.ModeFixed, h.manager.Status().Config.FrameMode)

	h.connect(t)
	err := h.manager.Configure(model.DeviceConfig{Path: "/dev/ttyUSB0", BaudRate: 9600})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSessionManagerSend(t *testing.T) {
	h := newHarness(t)

	_, err := h.manager.Send([]byte{0x01})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, h.sink.hasLog(model.LogError, "Connect to port first."))

	stream := h.connect(t)
	payload := framing.Encode(framing.CmdLEDOnOff, 4, 1)

	n, err := h.manager.Send(payload)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, payload, stream.sent())
	assert.True(t, h.sink.hasLog(model.LogSuccess, "Message sent successfully."))
	assert.True(t, h.sink.hasLog(model.LogInfo, "Message content (hex): 07 04 01 00 00 00 0A"))

	stream.mutex.Lock()
	stream.writeErr = errors.New("device unplugged")
	stream.mutex.Unlock()

	_, err = h.manager.Send(payload)
	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.True(t, h.manager.Status().Connected)
}

func TestSessionManagerDecodesFrames(t *testing.T) {
	h := newHarness(t)
	stream := h.connect(t)

	stream.push([]byte{0x01, 0x02, 0x00})
	stream.push([]byte{0x10, 0x00, 0x00, 0x2A})

	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFrameReceived)) == 1
	}, waitFor, tick)

	frame := h.sink.ofType(model.EventFrameReceived)[0]
	assert.Equal(t, "SET_MOTOR_DIRECTION", frame.Data.String("command"))
	assert.Equal(t, uint8(2), frame.Data["hardware_id"])
	assert.Equal(t, uint32(0x1000), frame.Data["value"])
	assert.Equal(t, "01 02 00 10 00 00 2A", frame.Data.String("raw"))
}

func TestSessionManagerRawMode(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.manager.Configure(model.DeviceConfig{Path: "COM3", BaudRate: 9600, FrameMode: framing.ModeRaw}))
	stream := h.connect(t)

	stream.push([]byte{0xDE, 0xAD})

	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventDataReceived)) == 1
	}, waitFor, tick)
	assert.Equal(t, "DE AD", h.sink.ofType(model.EventDataReceived)[0].Data.String("hex"))
}

func TestSessionManagerRecordingRequiresConnectionAndFolder(t *testing.T) {
	h := newHarness(t)

	_, err := h.manager.ToggleRecording()
	assert.ErrorIs(t, err, ErrNotConnected)

	h.connect(t)
	_, err = h.manager.ToggleRecording()
	assert.ErrorIs(t, err, ErrFolderNotSet)
	assert.True(t, h.sink.hasLog(model.LogError, "File path not set."))

	assert.ErrorIs(t, h.manager.SetRecordingFolder(""), ErrFolderNotSet)

	require.NoError(t, h.manager.SetRecordingFolder(filepath.Join(t.TempDir(), "missing")))
	_, err = h.manager.ToggleRecording()
	assert.ErrorIs(t, err, ErrFileCreateFailure)

	status := h.manager.Status()
	assert.True(t, status.Connected)
	assert.False(t, status.Recording)
}

func TestSessionManagerRecordsRawBytes(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	stream := h.connect(t)
	h.startRecording(t, dir)

	status := h.manager.Status()
	assert.True(t, status.Recording)
	want := filepath.Join(dir, "DCubedISM2024-03-14_09.30.00.txt")
	assert.Equal(t, want, status.ActiveFile)

	payload := framing.Encode(framing.CmdMotorSpeed, 1, 120)
	stream.push(payload)

	require.Eventually(t, func() bool {
		return fileContent(want) == string(payload)
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFrameReceived)) == 1
	}, waitFor, tick)

	connected, err := h.manager.ToggleConnection(context.Background())
	assert.ErrorIs(t, err, ErrRecordingInProgress)
	assert.True(t, connected)
	assert.True(t, h.sink.hasLog(model.LogWarning, "Please stop recording before disconnecting."))

	recording, err := h.manager.ToggleRecording()
	require.NoError(t, err)
	assert.False(t, recording)

	status = h.manager.Status()
	assert.True(t, status.Connected)
	assert.False(t, status.Recording)
	assert.Empty(t, status.ActiveFile)

	stream.push(payload)
	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFrameReceived)) == 2
	}, waitFor, tick)
	assert.Equal(t, string(payload), fileContent(want))

	changes := h.sink.ofType(model.EventRecordingChanged)
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Data.Bool("recording"))
	assert.False(t, changes[1].Data.Bool("recording"))
}

func TestSessionManagerRotatesRecordingFiles(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	stream := h.connect(t)
	h.startRecording(t, dir)

	stream.push([]byte("abc"))
	require.Eventually(t, func() bool { return stream.drained() }, waitFor, tick)

	h.clock.Advance(600 * time.Second)
	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFileRotated)) == 1
	}, waitFor, tick)

	stream.push([]byte("def"))
	require.Eventually(t, func() bool { return stream.drained() }, waitFor, tick)

	_, err := h.manager.ToggleRecording()
	require.NoError(t, err)

	files := recordedFiles(t, dir)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "DCubedISM2024-03-14_09.30.00.txt"), files[0])
	assert.Equal(t, filepath.Join(dir, "DCubedISM2024-03-14_09.40.00.txt"), files[1])
	assert.Equal(t, "abc", fileContent(files[0]))
	assert.Equal(t, "def", fileContent(files[1]))

	rotated := h.sink.ofType(model.EventFileRotated)[0]
	assert.Equal(t, files[0], rotated.Data.String("previous"))
	assert.Equal(t, files[1], rotated.Data.String("file"))
}

func TestSessionManagerKeepsPartialFrameAcrossHandoff(t *testing.T) {
	h := newHarness(t)
	stream := h.connect(t)
	frame := framing.Encode(framing.CmdLEDIntensity, 3, 75)

	stream.push(frame[:3])
	require.Eventually(t, func() bool { return stream.drained() }, waitFor, tick)

	h.startRecording(t, t.TempDir())
	stream.push(frame[3:])

	require.Eventually(t, func() bool {
		return len(h.sink.ofType(model.EventFrameReceived)) == 1
	}, waitFor, tick)
	assert.Equal(t, "SET_LED_INTENSITY -> ID: 3, VALUE: 75%",
		h.sink.ofType(model.EventFrameReceived)[0].Data.String("description"))
}

func TestSessionManagerLinkLoss(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	stream := h.connect(t)
	h.startRecording(t, dir)

	stream.fail(io.EOF)

	require.Eventually(t, func() bool {
		return !h.manager.Status().Connected
	}, waitFor, tick)

	status := h.manager.Status()
	assert.False(t, status.Recording)
	assert.Nil(t, status.SessionID)
	assert.Equal(t, 1, stream.closes())

	changes := h.sink.ofType(model.EventConnectionChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, "link_lost", changes[1].Data.String("reason"))

	recording := h.sink.ofType(model.EventRecordingChanged)
	require.Len(t, recording, 2)
	assert.False(t, recording[1].Data.Bool("recording"))

	select {
	case dialog := <-h.prompt.errors:
		assert.Equal(t, "Port Error", dialog.title)
	case <-time.After(waitFor):
		t.Fatal("error dialog not shown")
	}

	h.connect(t)
	assert.Equal(t, 2, h.opener.opened())
}

func TestSessionManagerRotationFailureClosesSession(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "captures")
	require.NoError(t, os.Mkdir(dir, 0o755))
	stream := h.connect(t)
	h.startRecording(t, dir)

	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	h.clock.Advance(600 * time.Second)

	require.Eventually(t, func() bool {
		return !h.manager.Status().Connected
	}, waitFor, tick)

	status := h.manager.Status()
	assert.False(t, status.Recording)
	assert.Equal(t, 1, stream.closes())
	assert.Empty(t, h.sink.ofType(model.EventFileRotated))

	recording := h.sink.ofType(model.EventRecordingChanged)
	require.NotEmpty(t, recording)
	assert.False(t, recording[len(recording)-1].Data.Bool("recording"))

	changes := h.sink.ofType(model.EventConnectionChanged)
	require.NotEmpty(t, changes)
	last := changes[len(changes)-1]
	assert.False(t, last.Data.Bool("connected"))
	assert.Equal(t, "link_lost", last.Data.String("reason"))

	select {
	case dialog := <-h.prompt.errors:
		assert.Equal(t, "Write Error", dialog.title)
	case <-time.After(waitFor):
		t.Fatal("error dialog not shown")
	}
}

func TestSessionManagerLegacyStopDisconnects(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Recording.LegacyStopDisconnects = true
	})
	stream := h.connect(t)
	h.startRecording(t, t.TempDir())
	assert.True(t, h.manager.LegacyStopDisconnects())

	recording, err := h.manager.ToggleRecording()
	require.NoError(t, err)
	assert.False(t, recording)

	status := h.manager.Status()
	assert.False(t, status.Connected)
	assert.False(t, status.Recording)
	assert.Equal(t, 1, stream.closes())
}

func TestSessionManagerDisconnectWhileRecording(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.manager.Disconnect())

	stream := h.connect(t)
	h.startRecording(t, t.TempDir())

	assert.True(t, h.manager.Disconnect())
	status := h.manager.Status()
	assert.False(t, status.Connected)
	assert.False(t, status.Recording)
	assert.Equal(t, 1, stream.closes())
}

func TestSessionManagerPickRecordingFolder(t *testing.T) {
	h := newHarness(t)

	_, err := h.manager.PickRecordingFolder(context.Background())
	assert.Error(t, err)

	dir := t.TempDir()
	h.prompt.folder = dir
	path, err := h.manager.PickRecordingFolder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, path)
	assert.Equal(t, dir, h.manager.Status().Folder)
}

func TestSessionManagerShutdown(t *testing.T) {
	h := newHarness(t)
	stream := h.connect(t)

	h.manager.Shutdown()

	assert.False(t, h.manager.Status().Connected)
	assert.Equal(t, 1, stream.closes())
	changes := h.sink.ofType(model.EventConnectionChanged)
	assert.Equal(t, "shutdown", changes[len(changes)-1].Data.String("reason"))
}

func TestSessionManagerListPorts(t *testing.T) {
	h := newHarness(t)
	ports := h.manager.ListPorts(context.Background())
	require.Len(t, ports, 2)
	assert.Equal(t, "/dev/ttyUSB0", ports[0].Name)
}
