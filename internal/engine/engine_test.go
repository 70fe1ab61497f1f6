package engine

import (
	"context"
	"testing"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
)

// fakePeripheral is a minimal in-memory ble.Peripheral for exercising the
// engine without a real BLE stack, by replaying scripted notifications
// through a buffered channel and recording every write.
type fakePeripheral struct {
	writes [][]byte
	notify chan ble.Notification
}

func newFakePeripheral() *fakePeripheral {
	return &fakePeripheral{notify: make(chan ble.Notification, 16)}
}

func (f *fakePeripheral) Connect(ctx context.Context) error                       { return nil }
func (f *fakePeripheral) Disconnect(ctx context.Context) error                    { return nil }
func (f *fakePeripheral) IsConnected(ctx context.Context) (bool, error)           { return true, nil }
func (f *fakePeripheral) DiscoverServices(ctx context.Context) error              { return nil }
func (f *fakePeripheral) Subscribe(ctx context.Context, c ble.Characteristic) error   { return nil }
func (f *fakePeripheral) Unsubscribe(ctx context.Context, c ble.Characteristic) error { return nil }
func (f *fakePeripheral) Address() string                                        { return "00:11:22:33:44:55" }

func (f *fakePeripheral) Write(ctx context.Context, c ble.Characteristic, value []byte) error {
	cp := append([]byte(nil), value...)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakePeripheral) Notifications() <-chan ble.Notification { return f.notify }

func (f *fakePeripheral) push(c ble.Characteristic, value []byte) {
	f.notify <- ble.Notification{Characteristic: c, Value: value}
}

func TestReadMiParcelHandshake(t *testing.T) {
	fp := newFakePeripheral()
	e := New(fp, nil)

	payload := []byte("26354/00467353")

	notification := append([]byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00}, payload...)
	go func() {
		fp.push(ble.AVDTP, notification)
	}()

	got, err := e.ReadMiParcel(context.Background(), ble.AVDTP)
	if err != nil {
		t.Fatalf("ReadMiParcel: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("ReadMiParcel = %q, want %q", got, payload)
	}

	if len(fp.writes) != 2 {
		t.Fatalf("expected RCV_RDY and RCV_OK writes, got %d writes", len(fp.writes))
	}
	if rdy, _ := command.ClassifyMiResponse(fp.writes[0]); rdy != command.RcvRdy {
		t.Fatalf("first write = %x, want RCV_RDY", fp.writes[0])
	}
	if ok, _ := command.ClassifyMiResponse(fp.writes[1]); ok != command.RcvOK {
		t.Fatalf("second write = %x, want RCV_OK", fp.writes[1])
	}
}

func TestWaitForScooterToReceiveData(t *testing.T) {
	fp := newFakePeripheral()
	e := New(fp, nil)

	fp.push(ble.UPNP, command.RcvRdy.Bytes())

	if err := e.WaitForScooterToReceiveData(context.Background()); err != nil {
		t.Fatalf("WaitForScooterToReceiveData: %v", err)
	}
}

func TestWaitForScooterToReceiveDataMismatch(t *testing.T) {
	fp := newFakePeripheral()
	e := New(fp, nil)

	fp.push(ble.UPNP, command.RcvAuthErr.Bytes())

	if err := e.WaitForScooterToReceiveData(context.Background()); err == nil {
		t.Fatal("expected protocol mismatch error, got nil")
	}
}
