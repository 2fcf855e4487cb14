package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-monitor/internal/config"
	"serial-monitor/internal/model"
	"serial-monitor/internal/protocol"
	"serial-monitor/internal/service"
	"serial-monitor/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// idleStream accepts writes and never produces data
type idleStream struct {
	mutex   sync.Mutex
	written []byte
}

func (s *idleStream) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, nil
}

func (s *idleStream) Write(p []byte) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *idleStream) Close() error { return nil }

func (s *idleStream) sent() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]byte(nil), s.written...)
}

type stubOpener struct {
	mutex   sync.Mutex
	streams []*idleStream
	err     error
}

func (o *stubOpener) Open(ctx context.Context, cfg model.DeviceConfig) (protocol.Stream, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	s := &idleStream{}
	o.streams = append(o.streams, s)
	return s, nil
}

func (o *stubOpener) opened() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return len(o.streams)
}

func (o *stubOpener) last() *idleStream {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.streams[len(o.streams)-1]
}

type stubLister []string

func (l stubLister) ListPorts(ctx context.Context) []model.PortInfo {
	ports := make([]model.PortInfo, 0, len(l))
	for _, p := range l {
		ports = append(ports, model.PortInfo{Name: p, Type: model.PortTypeSerial})
	}
	return ports
}

func (l stubLister) Contains(ctx context.Context, path string) bool {
	for _, p := range l {
		if p == path {
			return true
		}
	}
	return false
}

type nopSink struct{}

func (nopSink) Publish(model.Event) {}

type stubPrompt struct {
	folder string
	err    error
}

func (p *stubPrompt) PickFolder(ctx context.Context) (string, error) {
	return p.folder, p.err
}

func (p *stubPrompt) ShowError(ctx context.Context, title, message string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "serial-monitor", Version: "test"},
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

type sessionFixture struct {
	manager *service.SessionManager
	opener  *stubOpener
	prompt  *stubPrompt
	router  *gin.Engine
}

func newSessionFixture(t *testing.T, mutate ...func(*config.Config)) *sessionFixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	f := &sessionFixture{
		opener: &stubOpener{},
		prompt: &stubPrompt{},
	}
	f.manager = service.NewSessionManager(
		stubLister{"/dev/ttyUSB0", "COM3"}, f.opener, nopSink{}, f.prompt, cfg, zap.NewNop(),
	)
	t.Cleanup(f.manager.Shutdown)

	f.router = gin.New()
	NewSessionHandler(f.manager, cfg.Prompt.Timeout, zap.NewNop()).RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *sessionFixture) do(t *testing.T, method, path, body string) (int, utils.APIResponse) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func dataMap(t *testing.T, resp utils.APIResponse) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data is %T", resp.Data)
	return data
}
