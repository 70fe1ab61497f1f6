package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/frame"
	"github.com/scootlink/scootlink/internal/mcrypto"
)

// scriptedPeripheral is a ble.Peripheral whose notification channel is
// pre-loaded, in order, with every value the protocol under test will
// consume. Because every write/wait pair in engine is strictly
// request-response (the code never waits before issuing the write that
// provokes a reply), the whole conversation can be queued up front instead
// of reacting to writes as they happen.
type scriptedPeripheral struct {
	notify chan ble.Notification
	writes [][]byte
}

func newScriptedPeripheral() *scriptedPeripheral {
	return &scriptedPeripheral{notify: make(chan ble.Notification, 128)}
}

func (p *scriptedPeripheral) Connect(ctx context.Context) error                       { return nil }
func (p *scriptedPeripheral) Disconnect(ctx context.Context) error                    { return nil }
func (p *scriptedPeripheral) IsConnected(ctx context.Context) (bool, error)           { return true, nil }
func (p *scriptedPeripheral) DiscoverServices(ctx context.Context) error              { return nil }
func (p *scriptedPeripheral) Subscribe(ctx context.Context, c ble.Characteristic) error   { return nil }
func (p *scriptedPeripheral) Unsubscribe(ctx context.Context, c ble.Characteristic) error { return nil }
func (p *scriptedPeripheral) Address() string                                        { return "aa:bb:cc:dd:ee:ff" }
func (p *scriptedPeripheral) Notifications() <-chan ble.Notification                  { return p.notify }

func (p *scriptedPeripheral) Write(ctx context.Context, c ble.Characteristic, value []byte) error {
	p.writes = append(p.writes, append([]byte(nil), value...))
	return nil
}

// queueMiParcel enqueues payload as a full Mi parcel read: the first
// notification carries the scooter's wider 6-byte header (index, reserved,
// frame count), every later one only its 2-byte index — the same asymmetry
// frame.MiParcelAssembler.AddFirst/Add strip on the receive side.
func (p *scriptedPeripheral) queueMiParcel(c ble.Characteristic, payload []byte) {
	chunks := frame.SplitMiParcel(payload)
	first := chunks[0]
	reframed := make([]byte, 0, 4+len(first))
	reframed = append(reframed, first[0], first[1], 0x00, 0x00)
	total := uint16(len(chunks))
	reframed = append(reframed, byte(total), byte(total>>8))
	reframed = append(reframed, first[2:]...)
	p.notify <- ble.Notification{Characteristic: c, Value: reframed}
	for _, chunk := range chunks[1:] {
		p.notify <- ble.Notification{Characteristic: c, Value: chunk}
	}
}

func (p *scriptedPeripheral) queueMi(c ble.Characteristic, cmd command.MiCommand) {
	p.notify <- ble.Notification{Characteristic: c, Value: cmd.Bytes()}
}

func TestStartHappyPath(t *testing.T) {
	fp := newScriptedPeripheral()
	req, err := New(fp, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	remoteInfo := []byte("some-remote-info-blob-from-the-scooter")
	// CalcDID runs ECDH against the scooter's key, so it must be a real
	// P-256 point.
	scooter, err := mcrypto.GenKeyPair()
	if err != nil {
		t.Fatalf("GenKeyPair: %v", err)
	}
	remoteKey := scooter.PublicPoint()

	fp.queueMiParcel(ble.AVDTP, remoteInfo)        // readRemoteInfo
	fp.queueMi(ble.AVDTP, command.RcvRdy)          // sendPublicKey: ready for upload
	fp.queueMi(ble.AVDTP, command.RcvOK)           // sendPublicKey: ack
	fp.queueMiParcel(ble.AVDTP, remoteKey)         // sendDID: read remote key
	fp.queueMi(ble.AVDTP, command.RcvRdy)          // sendDID: ready for did upload
	fp.queueMi(ble.AVDTP, command.RcvOK)           // sendDID: ack
	fp.queueMi(ble.UPNP, command.RcvAuthOK)        // performAuth

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tok, err := req.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tok.IsZero() {
		t.Fatal("expected a non-zero token")
	}
	if len(fp.writes) == 0 {
		t.Fatal("expected at least one characteristic write")
	}
}

func TestSendPublicKeyRestartNeeded(t *testing.T) {
	fp := newScriptedPeripheral()
	req, err := New(fp, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fp.queueMiParcel(ble.AVDTP, []byte("info"))
	// No RCV_RDY ever follows: the scooter's key-announce window already
	// closed, so the real notification-wait bound
	// (engine.DefaultNotificationTimeout) is what fires here.

	_, err = req.Start(context.Background())
	if !errors.Is(err, ErrRestartNeeded) {
		t.Fatalf("Start: expected ErrRestartNeeded, got %v", err)
	}
}

func TestPerformAuthRejected(t *testing.T) {
	fp := newScriptedPeripheral()
	req, err := New(fp, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scooter, err := mcrypto.GenKeyPair()
	if err != nil {
		t.Fatalf("GenKeyPair: %v", err)
	}
	remoteKey := scooter.PublicPoint()

	fp.queueMiParcel(ble.AVDTP, []byte("info"))
	fp.queueMi(ble.AVDTP, command.RcvRdy)
	fp.queueMi(ble.AVDTP, command.RcvOK)
	fp.queueMiParcel(ble.AVDTP, remoteKey)
	fp.queueMi(ble.AVDTP, command.RcvRdy)
	fp.queueMi(ble.AVDTP, command.RcvOK)
	fp.queueMi(ble.UPNP, command.RcvAuthErr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = req.Start(ctx)
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("Start: expected ErrRegistrationFailed, got %v", err)
	}
}
