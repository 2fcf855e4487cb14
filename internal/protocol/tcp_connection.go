// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

// TCPConnection is a Stream over a TCP socket, typically a serial-to-ethernet bridge
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
}

// DialTCP opens a TCP stream
func DialTCP(ctx context.Context, config *TCPConfig, logger *zap.Logger) (*TCPConnection, error) {
	logger = logger.With(
		zap.String("protocol", "tcp"),
		zap.String("address", config.Address),
	)

	logger.Info("Opening TCP connection")

	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", config.Address)
	if err != nil {
		logger.Error("Failed to open TCP connection", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok && config.KeepAlive {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	logger.Info("TCP connection opened successfully")
	return newTCPConnection(conn, config, logger), nil
}

func newTCPConnection(conn net.Conn, config *TCPConfig, logger *zap.Logger) *TCPConnection {
	return &TCPConnection{
		config: config,
		conn:   conn,
		logger: logger,
	}
}

// Read reads with a per-call deadline; an expired deadline yields (0, nil)
func (tc *TCPConnection) Read(p []byte) (int, error) {
	if tc.config.ReadTimeout > 0 {
		tc.conn.SetReadDeadline(time.Now().Add(tc.config.ReadTimeout))
	}

	n, err := tc.conn.Read(p)
	if err != nil {
		if isTimeout(err) {
			return n, nil
		}
		return n, fmt.Errorf("failed to read from TCP connection: %w", err)
	}
	return n, nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(p []byte) (int, error) {
	if tc.config.WriteTimeout > 0 {
		tc.conn.SetWriteDeadline(time.Now().Add(tc.config.WriteTimeout))
	}

	n, err := tc.conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to TCP connection: %w", err)
	}
	return n, nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	if err := tc.conn.Close(); err != nil {
		tc.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Info("TCP connection closed successfully")
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
