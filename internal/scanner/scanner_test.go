package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/scootlink/scootlink/internal/ble"
)

type fakeCentral struct {
	events chan DeviceEvent
}

func newFakeCentral() *fakeCentral {
	return &fakeCentral{events: make(chan DeviceEvent, 16)}
}

func (f *fakeCentral) StartScan(ctx context.Context) error { return nil }
func (f *fakeCentral) Events() <-chan DeviceEvent           { return f.events }
func (f *fakeCentral) Peripheral(ctx context.Context, id string) (ble.Peripheral, error) {
	return nil, nil
}

func TestWaitForFindsRequestedScooter(t *testing.T) {
	fc := newFakeCentral()
	s := New(fc, nil)

	fc.events <- DeviceEvent{ID: "1", Address: "aa:aa:aa:aa:aa:aa", Name: "MIScooter1234"}
	fc.events <- DeviceEvent{ID: "2", Address: "bb:bb:bb:bb:bb:bb", Name: "MIScooter5678"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	found, err := s.WaitFor(ctx, "bb:bb:bb:bb:bb:bb")
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if found.Address != "bb:bb:bb:bb:bb:bb" {
		t.Fatalf("WaitFor returned %+v, want address bb:bb:bb:bb:bb:bb", found)
	}
}

func TestWaitForIgnoresNonScooters(t *testing.T) {
	fc := newFakeCentral()
	s := New(fc, nil)

	fc.events <- DeviceEvent{ID: "1", Address: "cc:cc:cc:cc:cc:cc", Name: "SomeOtherDevice"}
	fc.events <- DeviceEvent{ID: "2", Address: "dd:dd:dd:dd:dd:dd", Name: "MIScooter9999"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	found, err := s.WaitFor(ctx, "dd:dd:dd:dd:dd:dd")
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if found.Name != "MIScooter9999" {
		t.Fatalf("WaitFor returned %+v", found)
	}

	if devices := s.Devices(); len(devices) != 2 {
		t.Fatalf("expected 2 tracked devices, got %d", len(devices))
	}
	if scooters := s.Scooters(); len(scooters) != 1 {
		t.Fatalf("expected 1 tracked scooter, got %d", len(scooters))
	}
}

func TestTrackDeduplicatesByAddress(t *testing.T) {
	fc := newFakeCentral()
	s := New(fc, nil)

	ev := DeviceEvent{ID: "1", Address: "ee:ee:ee:ee:ee:ee", Name: "MIScooter0001"}
	fc.events <- ev
	fc.events <- ev // duplicate advertisement, same address

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ch, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	count := 0
	for range ch {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one emitted discovery for a duplicate address, got %d", count)
	}
}
