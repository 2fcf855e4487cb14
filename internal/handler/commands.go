// internal/handler/commands.go
package handler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"serial-monitor/internal/model"
	"serial-monitor/internal/service"
	"serial-monitor/pkg/framing"
)

// ConfigureRequest represents a device configuration request
type ConfigureRequest struct {
	Path      string `json:"path" binding:"required"`
	BaudRate  uint32 `json:"baud_rate" binding:"required"`
	FrameMode string `json:"frame_mode,omitempty"`
}

// FolderRequest represents a recording folder request
type FolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// SendRequest carries outgoing bytes in exactly one of three forms
type SendRequest struct {
	Data  []int         `json:"data,omitempty"`
	Hex   string        `json:"hex,omitempty"`
	Frame *FrameRequest `json:"frame,omitempty"`
}

// FrameRequest builds a fixed-size command frame
type FrameRequest struct {
	CommandID  uint8  `json:"command_id"`
	HardwareID uint8  `json:"hardware_id"`
	Value      uint32 `json:"value"`
}

// Payload returns the bytes to write
func (r *SendRequest) Payload() ([]byte, error) {
	forms := 0
	if len(r.Data) > 0 {
		forms++
	}
	if r.Hex != "" {
		forms++
	}
	if r.Frame != nil {
		forms++
	}
	if forms != 1 {
		return nil, errors.New("exactly one of data, hex or frame is required")
	}

	switch {
	case r.Frame != nil:
		return framing.Encode(framing.CommandID(r.Frame.CommandID), r.Frame.HardwareID, r.Frame.Value), nil
	case r.Hex != "":
		return parseHex(r.Hex)
	}

	payload := make([]byte, len(r.Data))
	for i, v := range r.Data {
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("data[%d] out of byte range: %d", i, v)
		}
		payload[i] = byte(v)
	}
	return payload, nil
}

// parseHex accepts "01 0A FF", "010aff" and "0x01,0x0A"
func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(",", " ", "0x", "", "0X", "").Replace(s)
	fields := strings.Fields(s)
	for i, f := range fields {
		if len(f)%2 == 1 {
			fields[i] = "0" + f
		}
	}

	b, err := hex.DecodeString(strings.Join(fields, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty hex payload")
	}
	return b, nil
}

// sessionCommands runs operator commands against the session manager.
// REST and WebSocket handlers share it.
type sessionCommands struct {
	manager       *service.SessionManager
	promptTimeout time.Duration
}

func newSessionCommands(manager *service.SessionManager, promptTimeout time.Duration) *sessionCommands {
	return &sessionCommands{
		manager:       manager,
		promptTimeout: promptTimeout,
	}
}

func (sc *sessionCommands) configure(req *ConfigureRequest) (model.SessionStatus, error) {
	err := sc.manager.Configure(model.DeviceConfig{
		Path:      req.Path,
		BaudRate:  req.BaudRate,
		FrameMode: framing.Mode(req.FrameMode),
	})
	return sc.manager.Status(), err
}

func (sc *sessionCommands) toggleConnection(ctx context.Context) (map[string]interface{}, error) {
	connected, err := sc.manager.ToggleConnection(ctx)
	return map[string]interface{}{"connected": connected}, err
}

func (sc *sessionCommands) disconnect() map[string]interface{} {
	return map[string]interface{}{"disconnected": sc.manager.Disconnect()}
}

func (sc *sessionCommands) send(req *SendRequest) (map[string]interface{}, error) {
	payload, err := req.Payload()
	if err != nil {
		return nil, &requestError{err: err}
	}

	n, err := sc.manager.Send(payload)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bytes_written": n,
		"hex":           framing.HexDump(payload),
	}, nil
}

func (sc *sessionCommands) setFolder(req *FolderRequest) (map[string]interface{}, error) {
	if err := sc.manager.SetRecordingFolder(req.Path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"folder": req.Path}, nil
}

func (sc *sessionCommands) pickFolder(ctx context.Context) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, sc.promptTimeout)
	defer cancel()

	path, err := sc.manager.PickRecordingFolder(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"folder": path}, nil
}

// toggleRecording flips recording. When stopping closes the link, the
// link is reopened here so the operator stays connected.
func (sc *sessionCommands) toggleRecording(ctx context.Context) (map[string]interface{}, error) {
	recording, err := sc.manager.ToggleRecording()
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{"recording": recording}
	if !recording && sc.manager.LegacyStopDisconnects() {
		connected, err := sc.manager.ToggleConnection(ctx)
		result["connected"] = connected
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// execute dispatches a WebSocket command
func (sc *sessionCommands) execute(ctx context.Context, action string, params json.RawMessage) (interface{}, error) {
	switch action {
	case "list_ports":
		return sc.manager.ListPorts(ctx), nil
	case "status":
		return sc.manager.Status(), nil
	case "configure":
		var req ConfigureRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return sc.configure(&req)
	case "toggle_connection":
		return sc.toggleConnection(ctx)
	case "disconnect":
		return sc.disconnect(), nil
	case "send":
		var req SendRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return sc.send(&req)
	case "set_folder":
		var req FolderRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return sc.setFolder(&req)
	case "pick_folder":
		return sc.pickFolder(ctx)
	case "toggle_recording":
		return sc.toggleRecording(ctx)
	default:
		return nil, &requestError{err: fmt.Errorf("unknown command: %s", action)}
	}
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return &requestError{err: errors.New("command parameters are required")}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &requestError{err: fmt.Errorf("invalid command parameters: %w", err)}
	}
	return nil
}

// requestError marks a malformed request
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// errorStatus maps a command error to an HTTP status and error code
func errorStatus(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, ErrNoPromptClient):
		return http.StatusServiceUnavailable, "NO_PROMPT_CLIENT"
	case errors.Is(err, ErrPromptCancelled):
		return http.StatusConflict, "PROMPT_CANCELLED"
	}

	code := service.ErrorCode(err)
	switch {
	case errors.Is(err, service.ErrPortNotAvailable):
		return http.StatusNotFound, code
	case errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, service.ErrRecordingInProgress),
		errors.Is(err, service.ErrNotConnected),
		errors.Is(err, service.ErrFolderNotSet):
		return http.StatusConflict, code
	case errors.Is(err, service.ErrOpenFailure),
		errors.Is(err, service.ErrWriteFailure):
		return http.StatusBadGateway, code
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "PROMPT_TIMEOUT"
	default:
		return http.StatusInternalServerError, code
	}
}
