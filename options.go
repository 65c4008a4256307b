package geomag

import "github.com/cgxeiji/geomag/rm3100"

// An Option configures a device.
type Option func(d *Device) Option

// OnBus can be used to specify I²C bus name
// ("/dev/i2c-2", "I2C2", "2"). By default, the bus name is "", which selects
// the first available bus.
func OnBus(name string) Option {
	return func(d *Device) Option {
		old := d.busName
		d.busName = name
		return OnBus(old)
	}
}

// OnAddr can be used to specify alternative I²C address (0x20..0x23).
// By default, the address is 0x20.
func OnAddr(addr uint16) Option {
	return func(d *Device) Option {
		old := d.addr
		d.addr = addr
		return OnAddr(old)
	}
}

// Averaging sets the number of samples averaged per axis. By default, 8.
func Averaging(n int) Option {
	return func(d *Device) Option {
		old := d.window
		d.window = n
		return Averaging(old)
	}
}

// Tracking sets the number of samples Range and Offset are taken over. By
// default, 256.
func Tracking(n int) Option {
	return func(d *Device) Option {
		old := d.tracking
		d.tracking = n
		return Tracking(old)
	}
}

// UpdateRate sets the update rate (0..13) used for single measurements and
// the cycle time before Start is called. By default, 6.
func UpdateRate(rate int) Option {
	return func(d *Device) Option {
		old := d.rate
		d.rate = rate
		return UpdateRate(old)
	}
}

// Configure passes options to the rm3100 driver when the device is opened.
func Configure(opts ...rm3100.Option) Option {
	return func(d *Device) Option {
		old := d.sensorOpts
		d.sensorOpts = append(d.sensorOpts[:len(d.sensorOpts):len(d.sensorOpts)], opts...)
		return func(d *Device) Option {
			d.sensorOpts = old
			return Configure(opts...)
		}
	}
}
