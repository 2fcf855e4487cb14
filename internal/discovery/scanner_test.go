package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
)

type stubScanner struct {
	kind      string
	available bool
	ports     []model.PortInfo
	err       error
}

func (s *stubScanner) Scan(ctx context.Context) ([]model.PortInfo, error) { return s.ports, s.err }
func (s *stubScanner) GetScannerType() string                             { return s.kind }
func (s *stubScanner) IsAvailable() bool                                  { return s.available }

func TestListPortsMergesAndSkipsFailures(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: "a", available: true, ports: []model.PortInfo{{Name: "COM3"}, {Name: "COM4"}}})
	sm.RegisterScanner(&stubScanner{kind: "broken", available: true, err: errors.New("enumeration failed")})
	sm.RegisterScanner(&stubScanner{kind: "off", available: false, ports: []model.PortInfo{{Name: "COM9"}}})
	sm.RegisterScanner(&stubScanner{kind: "b", available: true, ports: []model.PortInfo{{Name: "COM4"}, {Name: "tcp://h:1"}}})

	ports := sm.ListPorts(context.Background())

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"COM3", "COM4", "tcp://h:1"}, names)
	assert.True(t, sm.Contains(context.Background(), "COM3"))
	assert.False(t, sm.Contains(context.Background(), "COM9"))
	assert.Equal(t, []string{"a", "broken", "b"}, sm.GetAvailableScanners())
}

func TestListPortsNeverNil(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: "broken", available: true, err: errors.New("x")})

	ports := sm.ListPorts(context.Background())
	require.NotNil(t, ports)
	assert.Empty(t, ports)
}

func TestScanByType(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&stubScanner{kind: "a", available: true, ports: []model.PortInfo{{Name: "COM3"}}})
	sm.RegisterScanner(&stubScanner{kind: "off"})

	ports, err := sm.ScanByType(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, ports, 1)

	_, err = sm.ScanByType(context.Background(), "off")
	assert.Error(t, err)
	_, err = sm.ScanByType(context.Background(), "missing")
	assert.Error(t, err)
}

func TestVendorLookup(t *testing.T) {
	db := NewVendorDatabase()

	vendor, product := db.Lookup("0403", "6001")
	assert.Equal(t, "FTDI", vendor)
	assert.Equal(t, "FT232R USB UART", product)

	vendor, product = db.Lookup("10c4", "ffff")
	assert.Equal(t, "Silicon Labs", vendor)
	assert.Empty(t, product)

	assert.False(t, db.IsKnownVendor("dead"))
}
