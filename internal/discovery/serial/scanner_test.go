package serial

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
)

func stubEnumerator(t *testing.T, details []*enumerator.PortDetails, detailErr error, names []string, namesErr error) {
	t.Helper()
	origDetailed, origNames := getDetailedPortsList, getPortsList
	getDetailedPortsList = func() ([]*enumerator.PortDetails, error) { return details, detailErr }
	getPortsList = func() ([]string, error) { return names, namesErr }
	t.Cleanup(func() {
		getDetailedPortsList, getPortsList = origDetailed, origNames
	})
}

func TestScanDescribesUSBPorts(t *testing.T) {
	stubEnumerator(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523", SerialNumber: "A1"},
		{Name: "/dev/ttyS0"},
	}, nil, nil, nil)

	ports, err := NewScanner(zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 2)

	assert.Equal(t, model.PortInfo{
		Name:         "/dev/ttyUSB0",
		Type:         model.PortTypeSerial,
		IsUSB:        true,
		VID:          "1A86",
		PID:          "7523",
		SerialNumber: "A1",
		Product:      "CH340 Serial",
		Vendor:       "WCH",
	}, ports[0])
	assert.Equal(t, model.PortInfo{Name: "/dev/ttyS0", Type: model.PortTypeSerial}, ports[1])
}

func TestScanFallsBackToNames(t *testing.T) {
	stubEnumerator(t, nil, errors.New("no sysfs"), []string{"COM3"}, nil)

	ports, err := NewScanner(zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.PortInfo{{Name: "COM3", Type: model.PortTypeSerial}}, ports)
}

func TestScanReportsEnumerationFailure(t *testing.T) {
	stubEnumerator(t, nil, errors.New("no sysfs"), nil, errors.New("denied"))

	_, err := NewScanner(zap.NewNop()).Scan(context.Background())
	assert.Error(t, err)
}
