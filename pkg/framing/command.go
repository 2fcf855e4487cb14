// pkg/framing/command.go
package framing

import "fmt"

// CommandID identifies the action carried by a frame
type CommandID uint8

const (
	CmdMotorDirection     CommandID = 1
	CmdMotorSpeed         CommandID = 2
	CmdMotorOnOff         CommandID = 3
	CmdLEDOnOff           CommandID = 7
	CmdLEDIntensity       CommandID = 8
	CmdReset              CommandID = 9
	CmdProductionMode     CommandID = 10
	CmdLightBarrierToggle CommandID = 20
)

var commandNames = map[CommandID]string{
	CmdMotorDirection:     "SET_MOTOR_DIRECTION",
	CmdMotorSpeed:         "SET_MOTOR_SPEED",
	CmdMotorOnOff:         "TOGGLE_MOTOR",
	CmdLEDOnOff:           "TOGGLE_LED",
	CmdLEDIntensity:       "SET_LED_INTENSITY",
	CmdReset:              "RESET",
	CmdProductionMode:     "PRODUCTION_MODE",
	CmdLightBarrierToggle: "TOGGLE_LIGHT_BARRIER",
}

// String returns the action name, UNKNOWN_COMMAND for unlisted ids
func (c CommandID) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN_COMMAND"
}

// Known reports whether the id is part of the command catalogue
func (c CommandID) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// FormatValue renders a value the way the device documentation names it
func (c CommandID) FormatValue(v uint32) string {
	switch c {
	case CmdLEDOnOff, CmdMotorOnOff:
		return onOff(v, "ON", "OFF")
	case CmdLEDIntensity:
		return fmt.Sprintf("%d%%", v)
	case CmdMotorSpeed:
		return fmt.Sprintf("%dHz", v)
	case CmdMotorDirection:
		if v == 0 {
			return "CW"
		}
		return "CCW"
	case CmdProductionMode, CmdLightBarrierToggle:
		return onOff(v, "ACTIVE", "INACTIVE")
	default:
		return fmt.Sprintf("%d", v)
	}
}

func onOff(v uint32, on, off string) string {
	if v == 1 {
		return on
	}
	return off
}

// Commands returns the catalogue as id -> name
func Commands() map[CommandID]string {
	out := make(map[CommandID]string, len(commandNames))
	for id, name := range commandNames {
		out[id] = name
	}
	return out
}
