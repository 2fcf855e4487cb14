// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"serial-monitor/internal/discovery"
	"serial-monitor/internal/model"
)

// enumerator entry points, replaced in tests
var (
	getDetailedPortsList = enumerator.GetDetailedPortsList
	getPortsList         = serial.GetPortsList
)

// Scanner enumerates local serial ports
type Scanner struct {
	logger  *zap.Logger
	vendors *discovery.VendorDatabase
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		logger:  logger.With(zap.String("scanner", "serial")),
		vendors: discovery.NewVendorDatabase(),
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable reports true; the enumerator supports every platform we build for
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports with USB metadata where the OS provides it.
// When detailed enumeration fails the plain name list is used.
func (s *Scanner) Scan(ctx context.Context) ([]model.PortInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details, err := getDetailedPortsList()
	if err != nil {
		s.logger.Warn("Detailed port enumeration failed, falling back to names", zap.Error(err))
		return s.scanNames()
	}

	ports := make([]model.PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, s.describe(d))
	}

	s.logger.Debug("Serial scan completed", zap.Int("ports_found", len(ports)))
	return ports, nil
}

func (s *Scanner) scanNames() ([]model.PortInfo, error) {
	names, err := getPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]model.PortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, model.PortInfo{Name: name, Type: model.PortTypeSerial})
	}
	return ports, nil
}

func (s *Scanner) describe(d *enumerator.PortDetails) model.PortInfo {
	info := model.PortInfo{
		Name:  d.Name,
		Type:  model.PortTypeSerial,
		IsUSB: d.IsUSB,
	}
	if !d.IsUSB {
		return info
	}

	info.VID = strings.ToUpper(d.VID)
	info.PID = strings.ToUpper(d.PID)
	info.SerialNumber = d.SerialNumber
	info.Product = d.Product

	vendor, product := s.vendors.Lookup(d.VID, d.PID)
	info.Vendor = vendor
	if info.Product == "" {
		info.Product = product
	}
	return info
}
