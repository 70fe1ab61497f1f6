// Package ble defines the BLE central contract this module depends on but
// never implements: a concrete adapter binding (e.g. TinyGo's bluetooth
// package, or a platform-specific central) is supplied by the caller, the
// same way a transport package can name Dial/Listen/Stream interfaces for a
// collaborator it never implements itself, one layer lower in the stack
// (characteristics instead of streams, subscribe-then-notify instead of
// open-stream).
package ble

import "context"

// Characteristic identifies one GATT characteristic by its owning service
// and its own UUID, both lower-case canonical 128-bit form.
type Characteristic struct {
	Service        string
	Characteristic string
}

// Named characteristic handles this protocol opens. AVDTP and UPNP sit on
// the Xiaomi auth service; TX and RX sit on the Nordic UART service.
var (
	AVDTP = Characteristic{Service: "0000fe95-0000-1000-8000-00805f9b34fb", Characteristic: "00000019-0000-1000-8000-00805f9b34fb"}
	UPNP  = Characteristic{Service: "0000fe95-0000-1000-8000-00805f9b34fb", Characteristic: "00000010-0000-1000-8000-00805f9b34fb"}
	TX    = Characteristic{Service: "6e400001-b5a3-f393-e0a9-e50e24dcca9e", Characteristic: "6e400002-b5a3-f393-e0a9-e50e24dcca9e"}
	RX    = Characteristic{Service: "6e400001-b5a3-f393-e0a9-e50e24dcca9e", Characteristic: "6e400003-b5a3-f393-e0a9-e50e24dcca9e"}
)

// Notification is a single value update delivered on a subscribed
// characteristic.
type Notification struct {
	Characteristic Characteristic
	Value          []byte
}

// Peripheral is the contract a BLE central binding must satisfy for this
// module to drive a scooter over it. Implementations are expected to be
// safe for the sequential, single-flight usage this protocol makes of them;
// no two handshake steps run concurrently against the same Peripheral.
type Peripheral interface {
	// Connect establishes (or re-establishes) the GATT connection.
	Connect(ctx context.Context) error

	// Disconnect tears down the GATT connection. Idempotent.
	Disconnect(ctx context.Context) error

	// IsConnected reports current connection state.
	IsConnected(ctx context.Context) (bool, error)

	// DiscoverServices resolves the characteristic table after connecting.
	DiscoverServices(ctx context.Context) error

	// Subscribe enables notifications on a characteristic.
	Subscribe(ctx context.Context, c Characteristic) error

	// Unsubscribe disables notifications on a characteristic.
	Unsubscribe(ctx context.Context, c Characteristic) error

	// Write performs a write-without-response to a characteristic.
	Write(ctx context.Context, c Characteristic, value []byte) error

	// Notifications returns a channel of all subscribed-characteristic
	// notifications, delivered in arrival order. The channel is closed
	// when the peripheral disconnects.
	Notifications() <-chan Notification

	// Address returns the peripheral's Bluetooth address.
	Address() string
}
