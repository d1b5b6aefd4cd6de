package ledgerhid

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/karalabe/hid"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
)

// VendorID is the USB vendor ID of Ledger devices.
const VendorID uint16 = 0x2c97

// usagePage identifies the APDU interface on devices exposing several.
const usagePage = 0xffa0

var (
	// ErrUnsupported is returned when the platform has no HID support.
	ErrUnsupported = errors.New("usb hid is not supported on this platform")
	// ErrNoDevice is returned when no Ledger device matches the requested index.
	ErrNoDevice = errors.New("no ledger device found")
)

// DeviceInfo describes a connected Ledger device.
type DeviceInfo struct {
	Path      string `json:"path" yaml:"path"`
	Product   string `json:"product" yaml:"product"`
	Serial    string `json:"serial,omitempty" yaml:"serial,omitempty"`
	ProductID uint16 `json:"product_id" yaml:"product_id"`
}

// List returns the Ledger devices exposing an APDU interface, in enumeration order.
func List() ([]DeviceInfo, error) {
	infos, err := enumerate()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{
			Path:      info.Path,
			Product:   info.Product,
			Serial:    info.Serial,
			ProductID: info.ProductID,
		})
	}
	return devices, nil
}

// Open opens the index-th device returned by List.
func Open(index int) (*Device, error) {
	infos, err := enumerate()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(infos) {
		return nil, fmt.Errorf("%w at index %d (%d connected)", ErrNoDevice, index, len(infos))
	}

	dev, err := infos[index].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", infos[index].Path, err)
	}
	return NewDevice(dev), nil
}

func enumerate() ([]hid.DeviceInfo, error) {
	if !hid.Supported() {
		return nil, ErrUnsupported
	}

	var infos []hid.DeviceInfo
	for _, info := range hid.Enumerate(VendorID, 0) {
		if info.UsagePage == usagePage || info.Interface == 0 {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

var _ apdu.Exchanger = (*Device)(nil)

// Device exchanges APDUs with one Ledger over a HID link.
type Device struct {
	link io.ReadWriter
	mu   sync.Mutex
}

// NewDevice frames APDUs over link, which reads and writes whole 64-byte reports.
func NewDevice(link io.ReadWriter) *Device {
	return &Device{link: link}
}

// Exchange sends a raw command APDU and returns the raw reply, status word included.
func (d *Device) Exchange(command []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	packets, err := framePackets(command)
	if err != nil {
		return nil, err
	}
	for _, packet := range packets {
		if _, err := d.link.Write(packet); err != nil {
			return nil, fmt.Errorf("hid write: %w", err)
		}
	}
	return readReply(d.link)
}

// Close closes the HID link when it supports closing.
func (d *Device) Close() error {
	if c, ok := d.link.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
