package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/frame"
	"github.com/scootlink/scootlink/internal/mcrypto"
	"github.com/scootlink/scootlink/internal/token"
)

// scriptedPeripheral pre-loads its notification channel with the entire
// conversation in order: every write/wait pair in the engine package is
// strictly request-response, so nothing needs to react to writes as they
// happen.
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
	var tok token.AuthToken
	copy(tok[:], []byte("0123456789ab"))

	req, err := New(fp, tok, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	remoteKey := make([]byte, 16)
	for i := range remoteKey {
		remoteKey[i] = byte(i + 3)
	}
	_, expectedRemoteInfo, _, err := mcrypto.CalcLoginDID(req.randKey, remoteKey, tok)
	if err != nil {
		t.Fatalf("CalcLoginDID: %v", err)
	}

	fp.queueMi(ble.AVDTP, command.RcvRdy)               // sendKey: ready for rand_key upload
	fp.queueMi(ble.AVDTP, command.RcvOK)                // sendKey: ack
	fp.queueMiParcel(ble.AVDTP, remoteKey)               // read remote_key
	fp.queueMiParcel(ble.AVDTP, expectedRemoteInfo)       // read remote_info
	fp.queueMi(ble.AVDTP, command.RcvRdy)                // validateAndSendDID: ready for info upload
	fp.queueMi(ble.AVDTP, command.RcvOK)                 // validateAndSendDID: ack
	fp.queueMi(ble.UPNP, command.RcvLoginOK)             // confirm

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	keys, err := req.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if keys.AppKey == ([16]byte{}) {
		t.Fatal("expected a non-zero app key")
	}
}

func TestStartInvalidDID(t *testing.T) {
	fp := newScriptedPeripheral()
	var tok token.AuthToken
	copy(tok[:], []byte("0123456789ab"))

	req, err := New(fp, tok, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	remoteKey := make([]byte, 16)
	for i := range remoteKey {
		remoteKey[i] = byte(i + 9)
	}

	fp.queueMi(ble.AVDTP, command.RcvRdy)
	fp.queueMi(ble.AVDTP, command.RcvOK)
	fp.queueMiParcel(ble.AVDTP, remoteKey)
	fp.queueMiParcel(ble.AVDTP, make([]byte, 32)) // garbage, won't match the derivation

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = req.Start(ctx)
	if !errors.Is(err, ErrInvalidDID) {
		t.Fatalf("Start: expected ErrInvalidDID, got %v", err)
	}
}
