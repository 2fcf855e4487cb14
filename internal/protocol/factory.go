// internal/protocol/factory.go
package protocol

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"serial-monitor/internal/model"
)

// TCPScheme prefixes device paths that are reached over the network
const TCPScheme = "tcp://"

// DefaultOpener opens serial ports, or TCP streams for tcp:// paths
type DefaultOpener struct {
	defaults LinkDefaults
	logger   *zap.Logger
}

// NewOpener creates an opener using the given link defaults
func NewOpener(defaults LinkDefaults, logger *zap.Logger) *DefaultOpener {
	return &DefaultOpener{
		defaults: defaults,
		logger:   logger,
	}
}

// Open opens the device named by cfg.Path
func (o *DefaultOpener) Open(ctx context.Context, cfg model.DeviceConfig) (Stream, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("device path is required")
	}

	if address, ok := strings.CutPrefix(cfg.Path, TCPScheme); ok {
		conn, err := DialTCP(ctx, &TCPConfig{
			Address:        address,
			KeepAlive:      true,
			ConnectTimeout: o.defaults.ConnectTimeout,
			ReadTimeout:    o.defaults.ReadTimeout,
			WriteTimeout:   o.defaults.WriteTimeout,
		}, o.logger)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	conn, err := OpenSerial(&SerialConfig{
		Port:        cfg.Path,
		BaudRate:    int(cfg.BaudRate),
		DataBits:    o.defaults.DataBits,
		StopBits:    o.defaults.StopBits,
		Parity:      o.defaults.Parity,
		ReadTimeout: o.defaults.ReadTimeout,
	}, o.logger)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// PortType returns how a path would be opened
func PortType(path string) model.PortType {
	if strings.HasPrefix(path, TCPScheme) {
		return model.PortTypeTCP
	}
	return model.PortTypeSerial
}
