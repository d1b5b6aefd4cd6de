// Package zondax adapts github.com/zondax/ledger-go devices to apdu.Exchanger.
//
// ledger-go checks the status word itself: successful replies arrive without
// it and any other status becomes an error. Device re-appends 0x9000 to
// successful replies so callers always see data followed by a status word.
package zondax

import (
	"encoding/binary"
	"fmt"

	ledger_go "github.com/zondax/ledger-go"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
)

var _ apdu.Exchanger = (*Device)(nil)

// Admin enumerates and connects devices. ledger_go.NewLedgerAdmin returns one.
type Admin interface {
	ListDevices() ([]string, error)
	Connect(deviceIndex int) (ledger_go.LedgerDevice, error)
}

// Device wraps a connected ledger-go device.
type Device struct {
	dev ledger_go.LedgerDevice
}

// Wrap adapts an already connected device.
func Wrap(dev ledger_go.LedgerDevice) *Device {
	return &Device{dev: dev}
}

// List returns the names of the connected devices.
func List() ([]string, error) {
	return ListWith(ledger_go.NewLedgerAdmin())
}

// ListWith returns the names of the devices known to admin.
func ListWith(admin Admin) ([]string, error) {
	return admin.ListDevices()
}

// Open connects to the index-th device.
func Open(index int) (*Device, error) {
	return OpenWith(ledger_go.NewLedgerAdmin(), index)
}

// OpenWith connects to the index-th device known to admin.
func OpenWith(admin Admin, index int) (*Device, error) {
	dev, err := admin.Connect(index)
	if err != nil {
		return nil, fmt.Errorf("failed to connect ledger device %d: %w", index, err)
	}
	return Wrap(dev), nil
}

// Exchange sends command and returns the reply data followed by 0x9000.
func (d *Device) Exchange(command []byte) ([]byte, error) {
	resp, err := d.dev.Exchange(command)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(resp)+apdu.StatusWordLength)
	out = append(out, resp...)
	return binary.BigEndian.AppendUint16(out, uint16(apdu.StatusOK)), nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.dev.Close()
}
