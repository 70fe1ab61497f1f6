package main

import (
	"errors"

	"github.com/scootlink/scootlink/internal/scanner"
)

// ErrNoAdapterBound is returned by newCentral until a concrete BLE central
// binding is wired up. Discovering and driving the Nordic UART / Xiaomi auth
// characteristics over an actual radio means depending on a platform-specific
// BLE stack (TinyGo's bluetooth package on Linux/CoreBluetooth/WinRT, a
// cgo wrapper, or an OS-level daemon like bluez over D-Bus); none of the
// libraries this project otherwise depends on reach that low, so the binding
// is left as an explicit extension point rather than guessed at.
var ErrNoAdapterBound = errors.New("scootlink: no BLE central bound; compile in a platform adapter that implements scanner.Central")

// newCentral resolves the scanner.Central a discover/pair/login/drive run
// scans and connects through. adapterName is the AdapterConfig.Name hint
// (e.g. "hci0"); it is threaded through so a real binding can select among
// multiple local radios.
//
// This is the seam a deployment plugs its BLE stack into: build a binary
// with this function replaced (or extended with a build-tag-gated branch)
// to return a working scanner.Central, and every other command in this
// package drives it unmodified.
func newCentral(adapterName string) (scanner.Central, error) {
	return nil, ErrNoAdapterBound
}
