// internal/model/port.go
package model

// PortType represents how a device path is reached
type PortType string

const (
	PortTypeSerial PortType = "SERIAL"
	PortTypeTCP    PortType = "TCP"
)

// PortInfo describes one openable device path
type PortInfo struct {
	Name         string   `json:"name"`
	Type         PortType `json:"type"`
	IsUSB        bool     `json:"is_usb"`
	VID          string   `json:"vid,omitempty"`
	PID          string   `json:"pid,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Product      string   `json:"product,omitempty"`
	Vendor       string   `json:"vendor,omitempty"`
}

// StandardBaudRates lists the rates offered to operators
var StandardBaudRates = []uint32{
	300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 74880,
	115200, 230400, 250000, 500000, 1000000, 2000000,
}
