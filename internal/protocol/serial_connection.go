// internal/protocol/serial_connection.go
package protocol

import (
	"fmt"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialConnection is a Stream over a local serial port
type SerialConnection struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
}

// openSerialPort is replaced in tests
var openSerialPort = serial.Open

// OpenSerial opens and configures a serial port
func OpenSerial(config *SerialConfig, logger *zap.Logger) (*SerialConnection, error) {
	logger = logger.With(
		zap.String("protocol", "serial"),
		zap.String("port", config.Port),
	)

	logger.Info("Opening serial port",
		zap.Int("baud_rate", config.BaudRate),
		zap.Duration("read_timeout", config.ReadTimeout),
	)

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: stopBits(config.StopBits),
		Parity:   parity(config.Parity),
	}

	port, err := openSerialPort(config.Port, mode)
	if err != nil {
		logger.Error("Failed to open serial port", zap.Error(err))
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	// Reads must return periodically so a stop request is observed
	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	logger.Info("Serial port opened successfully")
	return &SerialConnection{
		config: config,
		port:   port,
		logger: logger,
	}, nil
}

// Read reads from the port; a read timeout yields (0, nil)
func (sc *SerialConnection) Read(p []byte) (int, error) {
	n, err := sc.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("failed to read from serial port: %w", err)
	}
	return n, nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(p []byte) (int, error) {
	n, err := sc.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(p))
	}
	return n, nil
}

// Close closes the serial port
func (sc *SerialConnection) Close() error {
	if err := sc.port.Close(); err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

func stopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

func parity(p string) serial.Parity {
	switch p {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}
