package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	b := Encode(CmdLEDOnOff, 3, 0x01020304)

	assert.Equal(t, []byte{0x07, 0x03, 0x04, 0x03, 0x02, 0x01, '\n'}, b)

	f, err := ParseFrame(b)
	require.NoError(t, err)
	assert.Equal(t, b, f.Bytes())
}

func TestParseFrameLength(t *testing.T) {
	_, err := ParseFrame([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{Frame{CommandID: CmdLEDOnOff, HardwareID: 1, Value: 1}, "TOGGLE_LED -> ID: 1, VALUE: ON"},
		{Frame{CommandID: CmdLEDIntensity, HardwareID: 2, Value: 75}, "SET_LED_INTENSITY -> ID: 2, VALUE: 75%"},
		{Frame{CommandID: CmdMotorOnOff, HardwareID: 0, Value: 0}, "TOGGLE_MOTOR -> ID: 0, VALUE: OFF"},
		{Frame{CommandID: CmdMotorSpeed, HardwareID: 4, Value: 120}, "SET_MOTOR_SPEED -> ID: 4, VALUE: 120Hz"},
		{Frame{CommandID: CmdMotorDirection, HardwareID: 4, Value: 1}, "SET_MOTOR_DIRECTION -> ID: 4, VALUE: CCW"},
		{Frame{CommandID: CmdLightBarrierToggle, HardwareID: 9, Value: 1}, "TOGGLE_LIGHT_BARRIER -> ID: 9, VALUE: ACTIVE"},
		{Frame{CommandID: 42, HardwareID: 9, Value: 17}, "UNKNOWN_COMMAND -> ID: 9, VALUE: 17"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.frame.Describe())
		})
	}
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "01 0A FF", HexDump([]byte{0x01, 0x0a, 0xff}))
	assert.Equal(t, "", HexDump(nil))
}
