package session

import (
	"context"

	"github.com/scootlink/scootlink/internal/command"
)

// Kers is the regenerative-braking strength setting.
type Kers int

const (
	KersWeak Kers = iota
	KersMedium
	KersStrong
	KersUnknown
)

func kersFromU16(v uint16) Kers {
	switch v {
	case 0:
		return KersWeak
	case 1:
		return KersMedium
	case 2:
		return KersStrong
	default:
		return KersUnknown
	}
}

// TailLight is the tail light's operating mode.
type TailLight int

const (
	TailLightOff TailLight = iota
	TailLightOnBrake
	TailLightAlways
	TailLightUnknown
)

func tailLightFromU16(v uint16) TailLight {
	switch v {
	case 0:
		return TailLightOff
	case 1:
		return TailLightOnBrake
	case 2:
		return TailLightAlways
	default:
		return TailLightUnknown
	}
}

func (m TailLight) wireByte() byte {
	switch m {
	case TailLightOnBrake:
		return 0x01
	case TailLightAlways:
		return 0x02
	default:
		return 0x00
	}
}

// SupplementaryInfo bundles the three settings read together in one
// request: regen strength, cruise control state and tail light mode.
type SupplementaryInfo struct {
	Kers      Kers
	IsCruise  bool
	TailLight TailLight
}

// SupplementaryInfo reads the kers/cruise/tail-light settings in one
// request.
func (s *MiSession) SupplementaryInfo(ctx context.Context) (SupplementaryInfo, error) {
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrSupplementary, 0x06)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return SupplementaryInfo{}, err
	}
	if err := payload.PopHead(); err != nil {
		return SupplementaryInfo{}, err
	}
	kersRaw, err := payload.PopU16()
	if err != nil {
		return SupplementaryInfo{}, err
	}
	cruise, err := payload.PopBool()
	if err != nil {
		return SupplementaryInfo{}, err
	}
	tailRaw, err := payload.PopU16()
	if err != nil {
		return SupplementaryInfo{}, err
	}
	return SupplementaryInfo{
		Kers:      kersFromU16(kersRaw),
		IsCruise:  cruise,
		TailLight: tailLightFromU16(tailRaw),
	}, nil
}

// IsCruiseOn reads whether cruise control is currently engaged.
func (s *MiSession) IsCruiseOn(ctx context.Context) (bool, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrCruise, 0x02)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return false, err
	}
	if err := payload.PopHead(); err != nil {
		return false, err
	}
	return payload.PopBool()
}

// TailLightMode reads the tail light's current mode.
func (s *MiSession) TailLightMode(ctx context.Context) (TailLight, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrTailLight, 0x02)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return TailLightUnknown, err
	}
	if err := payload.PopHead(); err != nil {
		return TailLightUnknown, err
	}
	v, err := payload.PopU16()
	if err != nil {
		return TailLightUnknown, err
	}
	return tailLightFromU16(v), nil
}

// SetTailLight sets the tail light's mode.
func (s *MiSession) SetTailLight(ctx context.Context, mode TailLight) error {
	cmd := command.WriteCommand(command.MasterToMotor, command.AttrTailLight, []byte{mode.wireByte(), 0x00})
	return s.Send(ctx, cmd)
}

// SetCruise enables or disables cruise control.
func (s *MiSession) SetCruise(ctx context.Context, on bool) error {
	value := byte(0x00)
	if on {
		value = 0x01
	}
	cmd := command.WriteCommand(command.MasterToMotor, command.AttrCruise, []byte{value, 0x00})
	return s.Send(ctx, cmd)
}
