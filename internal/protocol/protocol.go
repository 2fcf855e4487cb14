// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"serial-monitor/internal/model"
)

// Stream is an open duplex byte stream to a device.
// Read waits at most the configured read timeout and returns (0, nil)
// when nothing arrived; any returned error means the link is unusable.
// Read and Write may be called from different goroutines.
type Stream interface {
	io.ReadWriteCloser
}

// Opener opens streams for device configurations
type Opener interface {
	Open(ctx context.Context, cfg model.DeviceConfig) (Stream, error)
}

// StatsStream wraps a Stream with traffic counters
type StatsStream struct {
	Stream

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	readCount    atomic.Int64
	writeCount   atomic.Int64
	errorCount   atomic.Int64
	lastActivity atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// NewStatsStream creates a new stream wrapper with statistics
func NewStatsStream(s Stream) *StatsStream {
	return &StatsStream{Stream: s}
}

// Read reads from the stream and tracks statistics
func (s *StatsStream) Read(p []byte) (int, error) {
	n, err := s.Stream.Read(p)
	if err != nil {
		s.errorCount.Add(1)
		return n, err
	}
	if n > 0 {
		s.bytesRead.Add(int64(n))
		s.readCount.Add(1)
		s.lastActivity.Store(time.Now().UnixNano())
	}
	return n, nil
}

// Write writes to the stream and tracks statistics
func (s *StatsStream) Write(p []byte) (int, error) {
	n, err := s.Stream.Write(p)
	if err != nil {
		s.errorCount.Add(1)
		return n, err
	}
	s.bytesWritten.Add(int64(n))
	s.writeCount.Add(1)
	s.lastActivity.Store(time.Now().UnixNano())
	return n, nil
}

// Close closes the underlying stream once
func (s *StatsStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Stream.Close()
	})
	return s.closeErr
}

// Stats returns a snapshot of the counters
func (s *StatsStream) Stats() model.LinkStats {
	stats := model.LinkStats{
		BytesRead:    s.bytesRead.Load(),
		BytesWritten: s.bytesWritten.Load(),
		ReadCount:    s.readCount.Load(),
		WriteCount:   s.writeCount.Load(),
		ErrorCount:   s.errorCount.Load(),
	}
	if ts := s.lastActivity.Load(); ts != 0 {
		stats.LastActivity = time.Unix(0, ts)
	}
	return stats
}

// IsDisconnect reports whether err means the device went away rather
// than being misconfigured
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		}
	}
	return false
}
