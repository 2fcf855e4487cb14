// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"net"
	"strings"

	"go.uber.org/zap"

	"serial-monitor/internal/model"
	"serial-monitor/internal/protocol"
)

// Scanner reports configured network endpoints (serial-to-ethernet bridges)
type Scanner struct {
	logger    *zap.Logger
	endpoints []string
}

// NewScanner creates a scanner for host:port endpoints
func NewScanner(logger *zap.Logger, endpoints []string) *Scanner {
	return &Scanner{
		logger:    logger.With(zap.String("scanner", "tcp")),
		endpoints: endpoints,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable checks if any endpoint is configured
func (s *Scanner) IsAvailable() bool {
	return len(s.endpoints) > 0
}

// Scan returns each well-formed endpoint as a tcp:// path
func (s *Scanner) Scan(ctx context.Context) ([]model.PortInfo, error) {
	ports := make([]model.PortInfo, 0, len(s.endpoints))

	for _, endpoint := range s.endpoints {
		address := strings.TrimPrefix(endpoint, protocol.TCPScheme)
		if _, _, err := net.SplitHostPort(address); err != nil {
			s.logger.Warn("Ignoring malformed endpoint", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}

		ports = append(ports, model.PortInfo{
			Name: protocol.TCPScheme + address,
			Type: model.PortTypeTCP,
		})
	}

	return ports, nil
}
