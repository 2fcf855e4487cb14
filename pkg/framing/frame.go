// pkg/framing/frame.go
package framing

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FrameSize is the length of one encoded frame on the wire
const FrameSize = 7

// Terminator is written as the last byte of every encoded frame
const Terminator byte = '\n'

// Frame represents one decoded device message
// [COMMAND_ID (1 byte), HARDWARE_ID (1 byte), VALUE (4 bytes LE), TERMINATOR (1 byte)]
type Frame struct {
	CommandID  CommandID `json:"command_id"`
	HardwareID uint8     `json:"hardware_id"`
	Value      uint32    `json:"value"`
	Terminator byte      `json:"terminator"`
}

// ParseFrame interprets exactly FrameSize bytes as a frame.
// The terminator byte is carried but not validated.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) != FrameSize {
		return Frame{}, fmt.Errorf("frame must be %d bytes, got %d", FrameSize, len(b))
	}

	return Frame{
		CommandID:  CommandID(b[0]),
		HardwareID: b[1],
		Value:      binary.LittleEndian.Uint32(b[2:6]),
		Terminator: b[6],
	}, nil
}

// Encode builds the wire representation of a command
func Encode(cmd CommandID, hardwareID uint8, value uint32) []byte {
	buf := make([]byte, FrameSize)
	buf[0] = byte(cmd)
	buf[1] = hardwareID
	binary.LittleEndian.PutUint32(buf[2:6], value)
	buf[6] = Terminator
	return buf
}

// Bytes returns the wire representation of the frame
func (f Frame) Bytes() []byte {
	return Encode(f.CommandID, f.HardwareID, f.Value)
}

// Describe returns the human readable form used in logs
func (f Frame) Describe() string {
	return fmt.Sprintf("%s -> ID: %d, VALUE: %s", f.CommandID, f.HardwareID, f.CommandID.FormatValue(f.Value))
}

// HexDump renders bytes as upper-case hex pairs separated by spaces
func HexDump(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}
