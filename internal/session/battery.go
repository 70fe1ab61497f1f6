package session

import (
	"context"
	"fmt"

	"github.com/scootlink/scootlink/internal/command"
)

// BatteryCellVoltages holds the per-cell voltage readings, in volts, of a
// 10-cell pack.
type BatteryCellVoltages [10]float32

// BatteryInfo bundles the battery's charge state and thermal readings.
type BatteryInfo struct {
	CapacityMilliamps uint16
	Percent           uint16
	CurrentAmps       float32
	VoltageVolts      float32
	Temperature1      byte
	Temperature2      byte
}

func batteryInfoFromPayload(p *Payload) (BatteryInfo, error) {
	if err := p.PopHead(); err != nil {
		return BatteryInfo{}, err
	}
	capacity, err := p.PopU16()
	if err != nil {
		return BatteryInfo{}, err
	}
	percent, err := p.PopU16()
	if err != nil {
		return BatteryInfo{}, err
	}
	current, err := p.PopI16()
	if err != nil {
		return BatteryInfo{}, err
	}
	voltage, err := p.PopU16()
	if err != nil {
		return BatteryInfo{}, err
	}
	t1, err := p.PopByte()
	if err != nil {
		return BatteryInfo{}, err
	}
	t2, err := p.PopByte()
	if err != nil {
		return BatteryInfo{}, err
	}
	return BatteryInfo{
		CapacityMilliamps: capacity,
		Percent:           percent,
		CurrentAmps:       float32(current) / 10.0,
		VoltageVolts:      float32(voltage) / 100.0,
		Temperature1:      t1,
		Temperature2:      t2,
	}, nil
}

// BatteryVoltage reads the battery pack's voltage in volts.
func (s *MiSession) BatteryVoltage(ctx context.Context) (float32, error) {
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrBatteryVoltage, 0x02)
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

// BatteryAmperage reads the battery pack's instantaneous current in amps.
func (s *MiSession) BatteryAmperage(ctx context.Context) (float32, error) {
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrBatteryCurrent, 0x02)
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
	return float32(v) / 10.0, nil
}

// BatteryPercentage reads the battery's state of charge as a percentage.
func (s *MiSession) BatteryPercentage(ctx context.Context) (float32, error) {
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrBatteryPercent, 0x02)
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
	return float32(v), nil
}

// BatteryCellVoltages reads the voltage of all 10 cells in the pack.
func (s *MiSession) BatteryCellVoltages(ctx context.Context) (BatteryCellVoltages, error) {
	var voltages BatteryCellVoltages
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrBatteryCellVoltages, 0x1B)
	payload, err := s.query(ctx, cmd, 3)
	if err != nil {
		return voltages, err
	}
	if err := payload.PopHead(); err != nil {
		return voltages, err
	}
	for i := range voltages {
		v, err := payload.PopU16()
		if err != nil {
			return voltages, fmt.Errorf("session: battery cell %d: %w", i, err)
		}
		voltages[i] = float32(v) / 100.0
	}
	return voltages, nil
}

// BatteryInfo reads the battery's capacity, charge, current, voltage and
// temperature readings in one request.
func (s *MiSession) BatteryInfo(ctx context.Context) (BatteryInfo, error) {
	cmd := command.ReadCommand(command.MasterToBattery, command.AttrBatteryInfo, 0x0A)
	payload, err := s.query(ctx, cmd, 2)
	if err != nil {
		return BatteryInfo{}, err
	}
	return batteryInfoFromPayload(payload)
}
