// Package command defines the scooter's UART command vocabulary: the
// ScooterCommand tuple sent over the encrypted session, and the literal
// unencrypted byte strings written to AVDTP/UPNP while registering and
// logging in.
package command

import "fmt"

// Direction identifies which onboard component a session command targets.
type Direction uint8

const (
	MasterToMotor   Direction = 0x20
	MasterToBattery Direction = 0x22
	MotorToMaster   Direction = 0x23
	BatteryToMaster Direction = 0x25
)

// ReadWrite selects whether a command reads or writes the attribute.
type ReadWrite uint8

const (
	Read  ReadWrite = 0x01
	Write ReadWrite = 0x03
)

// Attribute selects the onboard register a command addresses.
type Attribute uint8

const (
	AttrGeneralInfo          Attribute = 0x10
	AttrMotorInfo            Attribute = 0xB0
	AttrDistanceLeft         Attribute = 0x25
	AttrSpeed                Attribute = 0xB5
	AttrTripDistance         Attribute = 0xB9
	AttrBatteryVoltage       Attribute = 0x34
	AttrBatteryCurrent       Attribute = 0x33
	AttrBatteryPercent       Attribute = 0x32
	AttrBatteryCellVoltages  Attribute = 0x40
	AttrSupplementary        Attribute = 0x7B
	AttrCruise               Attribute = 0x7C
	AttrTailLight            Attribute = 0x7D
	AttrBatteryInfo          Attribute = 0x31
)

// ScooterCommand is the (direction, op, attribute, payload) tuple every
// session request/write boils down to.
type ScooterCommand struct {
	Direction Direction
	Op        ReadWrite
	Attribute Attribute
	Payload   []byte
}

// AsBytes serializes the command to its wire form: a length byte covering
// op+attribute+payload, followed by direction, op, attribute and payload.
func (c ScooterCommand) AsBytes() []byte {
	out := make([]byte, 0, 4+len(c.Payload))
	out = append(out, byte(len(c.Payload)+2))
	out = append(out, byte(c.Direction), byte(c.Op), byte(c.Attribute))
	out = append(out, c.Payload...)
	return out
}

// ParseScooterCommand recovers a ScooterCommand from its wire bytes,
// verifying the embedded length prefix.
func ParseScooterCommand(b []byte) (ScooterCommand, error) {
	if len(b) < 4 {
		return ScooterCommand{}, fmt.Errorf("command: frame too short: %d bytes", len(b))
	}
	if int(b[0]) != len(b)-2 {
		return ScooterCommand{}, fmt.Errorf("command: length prefix %d disagrees with frame size %d", b[0], len(b)-2)
	}
	return ScooterCommand{
		Direction: Direction(b[1]),
		Op:        ReadWrite(b[2]),
		Attribute: Attribute(b[3]),
		Payload:   append([]byte(nil), b[4:]...),
	}, nil
}

// ReadCommand builds a read request for attribute expecting respLen bytes
// back.
func ReadCommand(dir Direction, attr Attribute, respLen byte) ScooterCommand {
	return ScooterCommand{Direction: dir, Op: Read, Attribute: attr, Payload: []byte{respLen}}
}

// WriteCommand builds a write request carrying value.
func WriteCommand(dir Direction, attr Attribute, value []byte) ScooterCommand {
	return ScooterCommand{Direction: dir, Op: Write, Attribute: attr, Payload: value}
}

// MiCommand is one of the fixed, unencrypted control-channel byte strings
// exchanged during registration and login.
type MiCommand int

const (
	CmdGetInfo MiCommand = iota
	CmdSetKey
	CmdSendData
	CmdSendDID
	CmdAuth
	CmdLogin
	CmdSendKey
	CmdSendInfo
	RcvRdy
	RcvOK
	RcvAuthOK
	RcvAuthErr
	RcvLoginOK
	RcvLoginErr
)

var miCommandBytes = map[MiCommand][]byte{
	CmdGetInfo:  {0xa2, 0x00, 0x00, 0x00},
	CmdSetKey:   {0x15, 0x00, 0x00, 0x00},
	CmdSendData: {0x00, 0x00, 0x00, 0x03, 0x04, 0x00},
	CmdSendDID:  {0x00, 0x00, 0x00, 0x00, 0x02, 0x00},
	CmdAuth:     {0x13, 0x00, 0x00, 0x00},
	CmdLogin:    {0x24, 0x00, 0x00, 0x00},
	CmdSendKey:  {0x00, 0x00, 0x00, 0x0b, 0x01, 0x00},
	CmdSendInfo: {0x00, 0x00, 0x00, 0x0a, 0x02, 0x00},
	RcvRdy:      {0x00, 0x00, 0x01, 0x01},
	RcvOK:       {0x00, 0x00, 0x01, 0x00},
	RcvAuthOK:   {0x11, 0x00, 0x00, 0x00},
	RcvAuthErr:  {0x12, 0x00, 0x00, 0x00},
	RcvLoginOK:  {0x21, 0x00, 0x00, 0x00},
	RcvLoginErr: {0x23, 0x00, 0x00, 0x00},
}

var miCommandNames = map[MiCommand]string{
	CmdGetInfo:  "CMD_GET_INFO",
	CmdSetKey:   "CMD_SET_KEY",
	CmdSendData: "CMD_SEND_DATA",
	CmdSendDID:  "CMD_SEND_DID",
	CmdAuth:     "CMD_AUTH",
	CmdLogin:    "CMD_LOGIN",
	CmdSendKey:  "CMD_SEND_KEY",
	CmdSendInfo: "CMD_SEND_INFO",
	RcvRdy:      "RCV_RDY",
	RcvOK:       "RCV_OK",
	RcvAuthOK:   "RCV_AUTH_OK",
	RcvAuthErr:  "RCV_AUTH_ERR",
	RcvLoginOK:  "RCV_LOGIN_OK",
	RcvLoginErr: "RCV_LOGIN_ERR",
}

// Bytes returns the literal wire bytes for a MiCommand.
func (c MiCommand) Bytes() []byte { return miCommandBytes[c] }

// String implements fmt.Stringer for log output.
func (c MiCommand) String() string {
	if name, ok := miCommandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ClassifyMiResponse matches a raw notification against the known RCV_*
// literals, the same way the original firmware's responses are pattern
// matched rather than parsed.
func ClassifyMiResponse(notification []byte) (MiCommand, bool) {
	for _, c := range []MiCommand{RcvRdy, RcvOK, RcvAuthOK, RcvAuthErr, RcvLoginOK, RcvLoginErr} {
		if bytesEqual(notification, miCommandBytes[c]) {
			return c, true
		}
	}
	return 0, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
