// Package geomag reads the geomagnetic field from a RM3100 sensor attached to
// the host's I²C bus.
//
// Device opens the bus, keeps a running average of every axis and tracks the
// per-axis extremes of the stream. Low-level access is available through
// ToRM3100 and the rm3100 package.
package geomag

import (
	"errors"
	"fmt"
	"time"

	"github.com/cgxeiji/geomag/axis"
	"github.com/cgxeiji/geomag/rm3100"
	log "github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

var (
	// ErrWrongDevice is returned when trying to convert a geomag.Device to a
	// *rm3100.Device and the underlying sensor is something else.
	ErrWrongDevice = errors.New("wrong device")
	// ErrNotReady is returned by Measure when the conversion did not complete
	// within one conversion cycle.
	ErrNotReady = errors.New("measurement not ready")
)

const (
	// DefaultWindow is the number of samples averaged per axis.
	DefaultWindow = 8
	// DefaultTracking is the number of samples the extremes are taken over.
	DefaultTracking = 256
)

// Device defines a geomagnetic sensor on an I²C bus.
type Device struct {
	sensor Sensor
	bus    i2c.BusCloser
	reader *Reader

	busName    string
	addr       uint16
	window     int
	tracking   int
	sensorOpts []rm3100.Option

	avg    [3]*Averager
	series *tSeries
	rate   int
	cycle  time.Duration
	sleep  func(time.Duration)

	// RevID is the revision identification read at start.
	RevID byte
}

func newDevice(opts ...Option) *Device {
	d := &Device{
		window:   DefaultWindow,
		tracking: DefaultTracking,
		rate:     rm3100.UpdateRateDefault,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cycle, _ = rm3100.ConversionCycleTime(d.rate)
	return d
}

// New returns a new device on the first available I²C bus at address 0x20,
// unless OnBus or OnAddr say otherwise.
func New(opts ...Option) (*Device, error) {
	d := newDevice(opts...)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("geomag: could not initialize host: %w", err)
	}
	bus, err := i2creg.Open(d.busName)
	if err != nil {
		return nil, fmt.Errorf("geomag: could not open I²C bus: %w", err)
	}

	s, err := rm3100.New(bus, d.addr, d.sensorOpts...)
	if err != nil {
		bus.Close()
		return nil, err
	}
	if err := d.attach(s); err != nil {
		bus.Close()
		return nil, err
	}
	if d.RevID, err = s.ID(); err != nil {
		bus.Close()
		return nil, err
	}
	d.bus = bus

	log.WithFields(log.Fields{
		"device": s.String(),
		"rev":    fmt.Sprintf("%#x", d.RevID),
	}).Debug("geomag: RM3100 detected")

	return d, nil
}

func (d *Device) attach(s Sensor) error {
	if d.tracking < 1 {
		return fmt.Errorf("geomag: tracking window must be at least 1, got %d", d.tracking)
	}
	for i := range d.avg {
		a, err := NewAverager(d.window)
		if err != nil {
			return err
		}
		d.avg[i] = a
	}
	d.series = newTSeries(d.tracking)
	d.sensor = s
	d.reader = NewReader(s)
	return nil
}

// Close closes the I²C bus.
func (d *Device) Close() error {
	if d.bus == nil {
		return nil
	}
	return d.bus.Close()
}

// SelfTest runs the sensor built-in self-test.
func (d *Device) SelfTest() (rm3100.SelfTestResult, error) {
	return d.sensor.SelfTest()
}

// Start starts continuous measurement of axes at updateRate (0..13) and
// clears the averages and tracked extremes.
func (d *Device) Start(axes string, updateRate int) error {
	cycle, err := rm3100.ConversionCycleTime(updateRate)
	if err != nil {
		return err
	}
	if err := d.sensor.StartMeasure(axes, updateRate, false, true); err != nil {
		return err
	}
	d.rate = updateRate
	d.cycle = cycle
	d.Reset()

	log.Debugf("geomag: continuous measurement of %q every %v", axes, cycle)
	return nil
}

// Measure triggers a single conversion of axes, waits one conversion cycle
// and returns the field. Axes not measured keep their previous value.
func (d *Device) Measure(axes string) (axis.Vector, error) {
	if err := d.sensor.StartMeasure(axes, d.rate, true, true); err != nil {
		return axis.Vector{}, err
	}
	d.sleep(d.cycle)

	ready, err := d.sensor.DataReady()
	if err != nil {
		return axis.Vector{}, err
	}
	if !ready {
		return axis.Vector{}, fmt.Errorf("geomag: could not measure %q: %w", axes, ErrNotReady)
	}
	v, err := d.sensor.Field()
	if err != nil {
		return axis.Vector{}, err
	}
	d.record(v)
	return v, nil
}

// Next returns the next sample of a continuous measurement. ok is false when
// the sensor is not in continuous mode or no new conversion is ready. Wait at
// least CycleTime between calls.
func (d *Device) Next() (v axis.Vector, ok bool, err error) {
	v, ok, err = d.reader.Next()
	if ok {
		d.record(v)
	}
	return v, ok, err
}

func (d *Device) record(v axis.Vector) {
	for i, a := range d.avg {
		a.Put(int64(v[i]))
	}
	d.series.add(v)
}

// Reset clears the averages and tracked extremes.
func (d *Device) Reset() {
	for _, a := range d.avg {
		a.reset()
	}
	d.series.reset()
}

// CycleTime returns the conversion cycle time at the current update rate.
func (d *Device) CycleTime() time.Duration {
	return d.cycle
}

// Last returns the last sample read, or the zero vector.
func (d *Device) Last() axis.Vector {
	return d.series.last()
}

// Strength returns the magnitude of the last sample, in raw counts.
func (d *Device) Strength() float64 {
	return d.series.last().Norm()
}

// Averaged returns the running mean of every axis.
func (d *Device) Averaged() axis.Vector {
	var v axis.Vector
	for i, a := range d.avg {
		v[i] = int32(a.Mean())
	}
	return v
}

// Range returns the per-axis extremes of the tracked samples.
func (d *Device) Range() (lo, hi axis.Vector) {
	return d.series.min, d.series.max
}

// Offset returns the midpoint of Range. After rotating the sensor through
// every orientation it estimates the hard-iron offset.
func (d *Device) Offset() axis.Vector {
	return d.series.offset()
}

// ToRM3100 converts a geomag device to a rm3100 device to access low level
// functions. Check the package geomag/rm3100 for detailed behavior.
func (d *Device) ToRM3100() (*rm3100.Device, error) {
	device, ok := d.sensor.(*rm3100.Device)
	if !ok {
		return nil, ErrWrongDevice
	}

	return device, nil
}
