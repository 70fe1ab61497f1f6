package session

import (
	"context"
	"time"

	"github.com/scootlink/scootlink/internal/command"
)

// GeneralInfo identifies a specific scooter: its serial number, pairing
// PIN and firmware version string.
type GeneralInfo struct {
	Serial  string
	PIN     string
	Version string
}

// MotorInfo is the motor controller's live telemetry snapshot.
type MotorInfo struct {
	BatteryPercent   uint16
	SpeedKMH         float32
	AverageSpeedKMH  float32
	TotalDistanceM   uint32
	TripDistanceM    int16
	Uptime           time.Duration
	FrameTemperature float32
}

// GeneralInfo reads the scooter's serial number, pairing PIN and firmware
// version in one request.
func (s *MiSession) GeneralInfo(ctx context.Context) (GeneralInfo, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrGeneralInfo, 0x16)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return GeneralInfo{}, err
	}
	if err := payload.PopHead(); err != nil {
		return GeneralInfo{}, err
	}
	serial, err := payload.PopStringUTF8(11)
	if err != nil {
		return GeneralInfo{}, err
	}
	pin, err := payload.PopStringUTF8(6)
	if err != nil {
		return GeneralInfo{}, err
	}
	version, err := payload.PopStringUTF8(2)
	if err != nil {
		return GeneralInfo{}, err
	}
	return GeneralInfo{Serial: serial, PIN: pin, Version: version}, nil
}

// SerialNumber reads only the scooter's 14-character serial number.
func (s *MiSession) SerialNumber(ctx context.Context) (string, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrGeneralInfo, 0x0e)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return "", err
	}
	if err := payload.PopHead(); err != nil {
		return "", err
	}
	return payload.PopStringUTF8(14)
}

// MotorInfo reads the motor controller's live telemetry.
func (s *MiSession) MotorInfo(ctx context.Context) (MotorInfo, error) {
	cmd := command.ReadCommand(command.MasterToMotor, command.AttrMotorInfo, 0x20)
	payload, err := s.query(ctx, cmd, 3)
	if err != nil {
		return MotorInfo{}, err
	}
	if err := payload.PopHead(); err != nil {
		return MotorInfo{}, err
	}
	for i := 0; i < 8; i++ {
		if _, err := payload.PopByte(); err != nil {
			return MotorInfo{}, err
		}
	}
	batteryPercent, err := payload.PopU16()
	if err != nil {
		return MotorInfo{}, err
	}
	speed, err := payload.PopI16()
	if err != nil {
		return MotorInfo{}, err
	}
	avgSpeed, err := payload.PopU16()
	if err != nil {
		return MotorInfo{}, err
	}
	totalDistance, err := payload.PopU32()
	if err != nil {
		return MotorInfo{}, err
	}
	tripDistance, err := payload.PopI16()
	if err != nil {
		return MotorInfo{}, err
	}
	uptimeS, err := payload.PopI16()
	if err != nil {
		return MotorInfo{}, err
	}
	frameTemp, err := payload.PopI16()
	if err != nil {
		return MotorInfo{}, err
	}

	return MotorInfo{
		BatteryPercent:   batteryPercent,
		SpeedKMH:         float32(speed) / 1000.0,
		AverageSpeedKMH:  float32(avgSpeed) / 1000.0,
		TotalDistanceM:   totalDistance,
		TripDistanceM:    tripDistance,
		Uptime:           time.Duration(uptimeS) * time.Second,
		FrameTemperature: float32(frameTemp) / 10.0,
	}, nil
}
