// internal/protocol/connection.go
package protocol

import (
	"time"

	"serial-monitor/internal/config"
)

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port        string        `json:"port"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// TCPConfig represents TCP connection configuration
type TCPConfig struct {
	Address        string        `json:"address"`
	KeepAlive      bool          `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
}

// LinkDefaults carries the link parameters that are not part of a
// device configuration
type LinkDefaults struct {
	DataBits       int
	StopBits       int
	Parity         string
	ReadTimeout    time.Duration
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// DefaultsFromConfig extracts link defaults from the serial section
func DefaultsFromConfig(cfg *config.SerialConfig) LinkDefaults {
	return LinkDefaults{
		DataBits:       cfg.DataBits,
		StopBits:       cfg.StopBits,
		Parity:         cfg.Parity,
		ReadTimeout:    cfg.ReadTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}
}
