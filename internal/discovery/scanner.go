// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"serial-monitor/internal/model"
)

// PortScanner enumerates openable device paths of one kind
type PortScanner interface {
	Scan(ctx context.Context) ([]model.PortInfo, error)
	GetScannerType() string
	IsAvailable() bool
}

// ScannerManager merges the results of all registered scanners
type ScannerManager struct {
	scanners []PortScanner
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		logger: logger.With(zap.String("component", "discovery")),
	}
}

// RegisterScanner registers a port scanner
func (sm *ScannerManager) RegisterScanner(scanner PortScanner) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.scanners = append(sm.scanners, scanner)
	sm.logger.Info("Scanner registered", zap.String("type", scanner.GetScannerType()))
}

// ListPorts scans every available scanner. Failures are logged and
// skipped so the result is empty rather than an error.
func (sm *ScannerManager) ListPorts(ctx context.Context) []model.PortInfo {
	sm.mutex.RLock()
	scanners := append([]PortScanner(nil), sm.scanners...)
	sm.mutex.RUnlock()

	ports := make([]model.PortInfo, 0)
	seen := make(map[string]bool)

	for _, scanner := range scanners {
		scannerType := scanner.GetScannerType()
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		found, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		for _, port := range found {
			if seen[port.Name] {
				continue
			}
			seen[port.Name] = true
			ports = append(ports, port)
		}

		sm.logger.Debug("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("ports_found", len(found)),
		)
	}

	return ports
}

// Contains reports whether path is currently enumerated
func (sm *ScannerManager) Contains(ctx context.Context, path string) bool {
	for _, port := range sm.ListPorts(ctx) {
		if port.Name == path {
			return true
		}
	}
	return false
}

// ScanByType scans with a specific scanner type
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]model.PortInfo, error) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	for _, scanner := range sm.scanners {
		if scanner.GetScannerType() != scannerType {
			continue
		}
		if !scanner.IsAvailable() {
			return nil, fmt.Errorf("scanner not available: %s", scannerType)
		}
		return scanner.Scan(ctx)
	}

	return nil, fmt.Errorf("scanner type not found: %s", scannerType)
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	available := make([]string, 0, len(sm.scanners))
	for _, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scanner.GetScannerType())
		}
	}
	return available
}
