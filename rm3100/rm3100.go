// Package rm3100 drives the PNI RM3100 geomagnetic sensor over I²C.
//
// The device is configured and sampled through a small register map: a
// continuous measurement mode register (CMM), a poll register that triggers a
// single conversion, per-axis cycle count registers and 24-bit measurement
// registers. See const.go for the map.
package rm3100

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cgxeiji/geomag/axis"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/mmr"
)

var (
	// ErrInvalidAddress is returned by New when the device address is not in
	// the 0x20..0x23 range selectable with the SA0/SA1 pins.
	ErrInvalidAddress = errors.New("rm3100: invalid device address")
	// ErrInvalidArgument is returned when an update rate or axis is out of
	// range. Axis failures also match axis.ErrInvalid.
	ErrInvalidArgument = errors.New("rm3100: invalid argument")
)

// Device defines a RM3100 device.
type Device struct {
	dev  *i2c.Dev
	regs mmr.Dev8

	updateRate int
	sleep      func(time.Duration)
}

// New returns a new RM3100 device at addr on bus. The handshake register is
// configured and the cached update rate is set to UpdateRateDefault before
// any option is applied.
//
// Argument "addr" must be in the 0x20..0x23 range; 0 selects Addr (0x20).
// Cycle count registers are accessed big endian unless Order is passed.
func New(bus i2c.Bus, addr uint16, opts ...Option) (*Device, error) {
	if addr == 0 {
		addr = Addr
	}
	if addr < AddrMin || addr > AddrMax {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidAddress, addr)
	}

	dev := &i2c.Dev{
		Addr: addr,
		Bus:  bus,
	}

	d := &Device{
		dev: dev,
		regs: mmr.Dev8{
			Conn:  dev,
			Order: binary.BigEndian,
		},
		updateRate: UpdateRateDefault,
		sleep:      time.Sleep,
	}

	if err := d.Setup(); err != nil {
		return nil, err
	}
	if _, err := d.Options(opts...); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("RM3100{%s}", d.dev)
}

// Setup enables the device to accept mode commands by writing the handshake
// register.
func (d *Device) Setup() error {
	if err := d.Write(RegHShake, HShakeSetup); err != nil {
		return fmt.Errorf("rm3100: could not configure handshake: %w", err)
	}
	return nil
}

// ID returns the revision identification of the device.
func (d *Device) ID() (byte, error) {
	rev, err := d.Read(RegRevID)
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not get revision ID: %w", err)
	}
	return rev, nil
}

// Status is the decoded status register.
type Status struct {
	DataReady bool
}

// Status returns the status register.
func (d *Device) Status() (Status, error) {
	stat, err := d.Read(RegStatus)
	if err != nil {
		return Status{}, fmt.Errorf("rm3100: could not read status: %w", err)
	}
	return Status{DataReady: stat&DataReadyFlag != 0}, nil
}

// DataReady reports whether a completed conversion is waiting to be read.
func (d *Device) DataReady() (bool, error) {
	s, err := d.Status()
	return s.DataReady, err
}

// CMM returns the raw continuous measurement mode register.
func (d *Device) CMM() (byte, error) {
	cmm, err := d.Read(RegCMM)
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not read CMM: %w", err)
	}
	return cmm, nil
}

// ContinuousMode reports whether continuous measurement mode is enabled.
func (d *Device) ContinuousMode() (bool, error) {
	cmm, err := d.CMM()
	if err != nil {
		return false, err
	}
	return cmm&cmmStart != 0, nil
}

// SingleMode reports whether the device only measures on request. It is the
// complement of ContinuousMode.
func (d *Device) SingleMode() (bool, error) {
	cont, err := d.ContinuousMode()
	if err != nil {
		return false, err
	}
	return !cont, nil
}

// StartMeasure starts a single or continuous measurement on the axes present
// in axes (see axis.Mask).
//
// In continuous mode the update rate (0 - 600Hz, 1 - 300Hz, ..., 13 - ~0.075Hz)
// is written to TMRC first. When fullSeq is true, DRDY is raised once every
// selected axis has been measured, otherwise after any single axis.
//
// In single mode continuous measurement is disabled and one conversion is
// triggered through the poll register; updateRate is only validated.
func (d *Device) StartMeasure(axes string, updateRate int, single, fullSeq bool) error {
	if err := checkUpdateRate(updateRate); err != nil {
		return err
	}
	mask := axis.Mask(axes)

	if single {
		if err := d.Write(RegCMM, 0); err != nil {
			return fmt.Errorf("rm3100: could not disable continuous mode: %w", err)
		}
		if err := d.Write(RegPoll, mask); err != nil {
			return fmt.Errorf("rm3100: could not trigger single measurement: %w", err)
		}
		return nil
	}

	var drdm byte
	if !fullSeq {
		drdm = 1
	}
	if err := d.setUpdateRate(updateRate); err != nil {
		return err
	}
	cmm := mask<<axisShift | drdm<<cmmDRDMShift | cmmStart
	if err := d.Write(RegCMM, cmm); err != nil {
		return fmt.Errorf("rm3100: could not start continuous mode: %w", err)
	}
	return nil
}

// StartSingle triggers one conversion of axes.
func (d *Device) StartSingle(axes string) error {
	return d.StartMeasure(axes, d.updateRate, true, true)
}

// StartContinuous starts continuous measurement of axes at updateRate with
// DRDY raised after the full sequence.
func (d *Device) StartContinuous(axes string, updateRate int) error {
	return d.StartMeasure(axes, updateRate, false, true)
}

func (d *Device) setUpdateRate(rate int) error {
	if err := checkUpdateRate(rate); err != nil {
		return err
	}
	if err := d.Write(RegTMRC, tmrcBase+byte(rate)); err != nil {
		return fmt.Errorf("rm3100: could not set update rate: %w", err)
	}
	d.updateRate = rate
	return nil
}

// UpdateRate reads the update rate back from the device.
func (d *Device) UpdateRate() (int, error) {
	tmrc, err := d.Read(RegTMRC)
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not get update rate: %w", err)
	}
	d.updateRate = int(tmrc) - int(tmrcBase)
	return d.updateRate, nil
}

// CycleTime returns the conversion cycle time at the last update rate set
// through this device.
func (d *Device) CycleTime() time.Duration {
	t, _ := ConversionCycleTime(d.updateRate)
	return t
}

// ConversionCycleTime returns the time the device needs to complete a
// conversion at updateRate (0..13): 1667µs * 2^updateRate.
func ConversionCycleTime(updateRate int) (time.Duration, error) {
	if err := checkUpdateRate(updateRate); err != nil {
		return 0, err
	}
	return time.Duration(cycleTimeBase<<uint(updateRate)) * time.Microsecond, nil
}

func checkUpdateRate(rate int) error {
	if rate < UpdateRateMin || rate > UpdateRateMax {
		return fmt.Errorf("%w: update rate %d not in %d..%d", ErrInvalidArgument, rate, UpdateRateMin, UpdateRateMax)
	}
	return nil
}

func parseAxis(name string) (axis.Axis, error) {
	a, err := axis.Index(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return a, nil
}

func checkAxis(a axis.Axis) error {
	if _, err := axis.Name(a); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// CycleCount returns the cycle count of the axis named name. Cycle counts
// trade measurement time for resolution; the default is 200.
func (d *Device) CycleCount(name string) (uint16, error) {
	a, err := parseAxis(name)
	if err != nil {
		return 0, err
	}
	n, err := d.regs.ReadUint16(axis.Addr(a, RegCCX, ccStride))
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not get %v cycle count: %w", a, err)
	}
	return n, nil
}

// SetCycleCount sets the cycle count of the axis named name. The documented
// range is 30..400; lower values favor power and data rate, higher values
// favor resolution. Out of range values are written as is.
func (d *Device) SetCycleCount(name string, n uint16) error {
	a, err := parseAxis(name)
	if err != nil {
		return err
	}
	if err := d.regs.WriteUint16(axis.Addr(a, RegCCX, ccStride), n); err != nil {
		return fmt.Errorf("rm3100: could not set %v cycle count: %w", a, err)
	}
	return nil
}

// ReadRaw returns the last measurement of a in raw counts. Measurement
// registers are always decoded big endian, whatever Order is set to.
func (d *Device) ReadRaw(a axis.Axis) (int32, error) {
	if err := checkAxis(a); err != nil {
		return 0, err
	}
	b, err := d.ReadBytes(axis.Addr(a, RegMX, measStride), measSize)
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not read %v measurement: %w", a, err)
	}
	return int32(axis.DecodeSigned(b)), nil
}

// MeasResult returns the last measurement of the axis named name.
func (d *Device) MeasResult(name string) (int32, error) {
	a, err := parseAxis(name)
	if err != nil {
		return 0, err
	}
	return d.ReadRaw(a)
}

// Axis returns the last measurement of a single axis. Use Field to read all
// three axes at once.
func (d *Device) Axis(a axis.Axis) (int32, error) {
	if a == axis.All {
		return 0, fmt.Errorf("%w: use Field to read all axes", ErrInvalidArgument)
	}
	return d.ReadRaw(a)
}

// Field returns the last measurement of every axis with a single burst read
// over MX, MY and MZ.
func (d *Device) Field() (axis.Vector, error) {
	var v axis.Vector
	b, err := d.ReadBytes(RegMX, 3*measSize)
	if err != nil {
		return v, fmt.Errorf("rm3100: could not read measurements: %w", err)
	}
	for i := range v {
		v[i] = int32(axis.DecodeSigned(b[i*measSize : (i+1)*measSize]))
	}
	return v, nil
}

// SoftReset is reserved for a software reset sequence. The device has none
// that the driver uses yet, so it does nothing.
func (d *Device) SoftReset() error {
	return nil
}

// Read reads a single byte from a register.
func (d *Device) Read(reg byte) (byte, error) {
	b, err := d.regs.ReadUint8(reg)
	if err != nil {
		return 0, fmt.Errorf("rm3100: could not read byte: %w", err)
	}
	return b, nil
}

// ReadBytes read n bytes starting at register reg.
func (d *Device) ReadBytes(reg byte, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := d.dev.Tx([]byte{reg}, b); err != nil {
		return nil, fmt.Errorf("rm3100: could not read %d bytes: %w", n, err)
	}
	return b, nil
}

// Write writes a byte to a register.
func (d *Device) Write(reg, data byte) error {
	return d.regs.WriteUint8(reg, data)
}
