package rm3100

import (
	"encoding/binary"
	"fmt"
)

// Option defines a functional option for the device.
type Option func(d *Device) (Option, error)

// Options set different configuration options and returns the previous value
// of the last option passed.
func (d *Device) Options(options ...Option) (Option, error) {
	var old Option
	var err error
	for _, opt := range options {
		old, err = opt(d)
		if err != nil {
			return nil, err
		}
	}

	return old, nil
}

// Order sets the byte order used to pack the cycle count registers.
func Order(order binary.ByteOrder) Option {
	return func(d *Device) (Option, error) {
		old := d.regs.Order
		d.regs.Order = order
		return Order(old), nil
	}
}

// CycleCount sets the cycle count of the axis named name.
func CycleCount(name string, n uint16) Option {
	return func(d *Device) (Option, error) {
		old, err := d.CycleCount(name)
		if err != nil {
			return nil, err
		}
		if err := d.SetCycleCount(name, n); err != nil {
			return nil, err
		}

		return CycleCount(name, old), nil
	}
}

// UpdateRate sets the continuous mode update rate (0..13) without starting a
// measurement.
func UpdateRate(rate int) Option {
	return func(d *Device) (Option, error) {
		old := d.updateRate
		if err := d.setUpdateRate(rate); err != nil {
			return nil, fmt.Errorf("rm3100: could not configure update rate: %w", err)
		}

		return UpdateRate(old), nil
	}
}
