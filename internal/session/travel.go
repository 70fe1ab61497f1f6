package session

import (
	"context"

	"github.com/scootlink/scootlink/internal/command"
)

// DistanceLeft reads the estimated remaining range in kilometers.
func (s *MiSession) DistanceLeft(ctx context.Context) (float32, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrDistanceLeft, 0x02)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return 0, err
	}
	if err := payload.PopHead(); err != nil {
		return 0, err
	}
	v, err := payload.PopU16()
	if err != nil {
		return 0, err
	}
	return float32(v) / 100.0, nil
}

// Speed reads the current speed in kilometers per hour.
func (s *MiSession) Speed(ctx context.Context) (float32, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrSpeed, 0x02)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return 0, err
	}
	if err := payload.PopHead(); err != nil {
		return 0, err
	}
	v, err := payload.PopI16()
	if err != nil {
		return 0, err
	}
	return float32(v) / 1000.0, nil
}

// TripDistance reads the current trip's distance in meters.
func (s *MiSession) TripDistance(ctx context.Context) (uint16, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrTripDistance, 0x02)
	payload, err := s.query(ctx, cmd, 3)
	if err != nil {
		return 0, err
	}
	if err := payload.PopHead(); err != nil {
		return 0, err
	}
	return payload.PopU16()
}
