package rm3100

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/cgxeiji/geomag/axis"
	"periph.io/x/periph/conn/i2c/i2ctest"
)

func newTestDevice(t *testing.T, bus *fakeBus, opts ...Option) *Device {
	t.Helper()
	d, err := New(bus, Addr, opts...)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	d.sleep = func(time.Duration) {}
	bus.reset()
	return d
}

func TestNew_InvalidAddress(t *testing.T) {
	for _, addr := range []uint16{0x1F, 0x24, 0x57} {
		bus := &fakeBus{}
		if _, err := New(bus, addr); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("New(%#x) err=%v, want ErrInvalidAddress", addr, err)
		}
		if len(bus.ops) != 0 {
			t.Errorf("New(%#x) touched the bus: %v", addr, bus.ops)
		}
	}
}

func TestNew_Setup(t *testing.T) {
	for _, addr := range []uint16{0, 0x20, 0x21, 0x22, 0x23} {
		bus := &fakeBus{}
		d, err := New(bus, addr)
		if err != nil {
			t.Fatalf("New(%#x) err=%v", addr, err)
		}
		want := addr
		if want == 0 {
			want = Addr
		}
		if len(bus.ops) != 1 || bus.ops[0].addr != want {
			t.Fatalf("New(%#x) ops=%v", addr, bus.ops)
		}
		if !equalWrites(bus.writes(), [][]byte{{RegHShake, HShakeSetup}}) {
			t.Errorf("New(%#x) writes=%x", addr, bus.writes())
		}
		if d.updateRate != UpdateRateDefault {
			t.Errorf("updateRate=%d, want %d", d.updateRate, UpdateRateDefault)
		}
	}
}

func TestNew_SetupFailure(t *testing.T) {
	bus := &fakeBus{failOn: failWrite(RegHShake, HShakeSetup)}
	if _, err := New(bus, Addr); !errors.Is(err, errBus) {
		t.Fatalf("New() err=%v, want bus error", err)
	}
}

func TestNew_Playback(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x21, W: []byte{0x35, 0x0A}},
			{Addr: 0x21, W: []byte{0x36}, R: []byte{0x22}},
			{Addr: 0x21, W: []byte{0x0B, 0x98}},
			{Addr: 0x21, W: []byte{0x01, 0x75}},
		},
		DontPanic: true,
	}

	d, err := New(bus, 0x21)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	id, err := d.ID()
	if err != nil {
		t.Fatalf("ID() err=%v", err)
	}
	if id != 0x22 {
		t.Errorf("ID() = %#x, want 0x22", id)
	}
	if err := d.StartMeasure("xyz", 6, false, false); err != nil {
		t.Fatalf("StartMeasure() err=%v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("playback: %v", err)
	}
}

func TestStartMeasure(t *testing.T) {
	tests := []struct {
		name    string
		axes    string
		rate    int
		single  bool
		fullSeq bool
		want    [][]byte
	}{
		{
			name: "continuous any axis",
			axes: "xyz", rate: 6, fullSeq: false,
			want: [][]byte{{RegTMRC, 0x98}, {RegCMM, 0x75}},
		},
		{
			name: "continuous full sequence",
			axes: "XY", rate: 0, fullSeq: true,
			want: [][]byte{{RegTMRC, 0x92}, {RegCMM, 0x31}},
		},
		{
			name: "continuous slowest rate",
			axes: "z", rate: 13, fullSeq: true,
			want: [][]byte{{RegTMRC, 0x9F}, {RegCMM, 0x41}},
		},
		{
			name: "continuous no axis",
			axes: "", rate: 6, fullSeq: true,
			want: [][]byte{{RegTMRC, 0x98}, {RegCMM, 0x01}},
		},
		{
			name: "single x",
			axes: "x", rate: 6, single: true,
			want: [][]byte{{RegCMM, 0x00}, {RegPoll, 0x01}},
		},
		{
			name: "single all",
			axes: "zyx", rate: 6, single: true, fullSeq: false,
			want: [][]byte{{RegCMM, 0x00}, {RegPoll, 0x07}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{}
			d := newTestDevice(t, bus)
			if err := d.StartMeasure(tt.axes, tt.rate, tt.single, tt.fullSeq); err != nil {
				t.Fatalf("StartMeasure() err=%v", err)
			}
			if got := bus.writes(); !equalWrites(got, tt.want) {
				t.Errorf("writes=%x, want %x", got, tt.want)
			}
		})
	}
}

func TestStartMeasure_InvalidRate(t *testing.T) {
	for _, rate := range []int{-1, 14, 100} {
		for _, single := range []bool{true, false} {
			bus := &fakeBus{}
			d := newTestDevice(t, bus)
			err := d.StartMeasure("xyz", rate, single, true)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("StartMeasure(rate=%d, single=%v) err=%v, want ErrInvalidArgument", rate, single, err)
			}
			if len(bus.ops) != 0 {
				t.Errorf("StartMeasure(rate=%d) touched the bus: %v", rate, bus.ops)
			}
		}
	}
}

func TestStartMeasure_UpdatesRate(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDevice(t, bus)
	if err := d.StartContinuous("xyz", 2); err != nil {
		t.Fatalf("StartContinuous() err=%v", err)
	}
	if d.CycleTime() != 6668*time.Microsecond {
		t.Errorf("CycleTime() = %v", d.CycleTime())
	}
	rate, err := d.UpdateRate()
	if err != nil {
		t.Fatalf("UpdateRate() err=%v", err)
	}
	if rate != 2 {
		t.Errorf("UpdateRate() = %d, want 2", rate)
	}
}

func TestModes(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDevice(t, bus)

	if err := d.StartContinuous("xyz", 6); err != nil {
		t.Fatalf("StartContinuous() err=%v", err)
	}
	cont, err := d.ContinuousMode()
	if err != nil {
		t.Fatalf("ContinuousMode() err=%v", err)
	}
	single, err := d.SingleMode()
	if err != nil {
		t.Fatalf("SingleMode() err=%v", err)
	}
	if !cont || single {
		t.Errorf("continuous=%v single=%v after StartContinuous", cont, single)
	}

	if err := d.StartSingle("x"); err != nil {
		t.Fatalf("StartSingle() err=%v", err)
	}
	if cont, _ := d.ContinuousMode(); cont {
		t.Errorf("continuous mode still set after StartSingle")
	}
	if single, _ := d.SingleMode(); !single {
		t.Errorf("single mode not set after StartSingle")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		reg  byte
		want bool
	}{
		{0x80, true},
		{0xFF, true},
		{0x7F, false},
		{0x00, false},
	}

	for _, tt := range tests {
		bus := &fakeBus{}
		bus.regs[RegStatus] = tt.reg
		d := newTestDevice(t, bus)
		s, err := d.Status()
		if err != nil {
			t.Fatalf("Status() err=%v", err)
		}
		if s.DataReady != tt.want {
			t.Errorf("Status(%#x).DataReady = %v, want %v", tt.reg, s.DataReady, tt.want)
		}
		ready, err := d.DataReady()
		if err != nil {
			t.Fatalf("DataReady() err=%v", err)
		}
		if ready != tt.want {
			t.Errorf("DataReady(%#x) = %v, want %v", tt.reg, ready, tt.want)
		}
	}
}

func TestStatus_BusError(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDevice(t, bus)
	bus.failOn = failWrite(RegStatus)
	if _, err := d.DataReady(); !errors.Is(err, errBus) {
		t.Fatalf("DataReady() err=%v, want bus error", err)
	}
}

func TestCycleCount(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[RegCCX], bus.regs[RegCCX+1] = 0x00, 0xC8
	bus.regs[RegCCZ], bus.regs[RegCCZ+1] = 0x01, 0x90
	d := newTestDevice(t, bus)

	n, err := d.CycleCount("X")
	if err != nil {
		t.Fatalf("CycleCount() err=%v", err)
	}
	if n != 200 {
		t.Errorf("CycleCount(x) = %d, want 200", n)
	}
	if n, _ := d.CycleCount("z"); n != 400 {
		t.Errorf("CycleCount(z) = %d, want 400", n)
	}

	if err := d.SetCycleCount("y", 100); err != nil {
		t.Fatalf("SetCycleCount() err=%v", err)
	}
	if !equalWrites(bus.writes(), [][]byte{{RegCCY, 0x00, 0x64}}) {
		t.Errorf("writes=%x", bus.writes())
	}
}

func TestCycleCount_LittleEndian(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[RegCCY], bus.regs[RegCCY+1] = 0xC8, 0x00
	// measurement stays big endian
	bus.regs[RegMX], bus.regs[RegMX+1], bus.regs[RegMX+2] = 0x00, 0x01, 0x00
	d := newTestDevice(t, bus, Order(binary.LittleEndian))

	if n, _ := d.CycleCount("y"); n != 200 {
		t.Errorf("CycleCount(y) = %d, want 200", n)
	}
	if err := d.SetCycleCount("z", 400); err != nil {
		t.Fatalf("SetCycleCount() err=%v", err)
	}
	if !equalWrites(bus.writes(), [][]byte{{RegCCZ, 0x90, 0x01}}) {
		t.Errorf("writes=%x", bus.writes())
	}
	if v, _ := d.ReadRaw(axis.X); v != 256 {
		t.Errorf("ReadRaw(x) = %d, want 256", v)
	}
}

func TestCycleCount_InvalidAxis(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDevice(t, bus)

	_, err := d.CycleCount("w")
	if !errors.Is(err, ErrInvalidArgument) || !errors.Is(err, axis.ErrInvalid) {
		t.Errorf("CycleCount(w) err=%v", err)
	}
	if err := d.SetCycleCount("", 200); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetCycleCount(\"\") err=%v", err)
	}
	if len(bus.ops) != 0 {
		t.Errorf("invalid axis touched the bus: %v", bus.ops)
	}
}

func TestReadRaw(t *testing.T) {
	bus := &fakeBus{}
	copy(bus.regs[RegMX:], []byte{
		0x00, 0x00, 0x01, // x
		0xFF, 0xFF, 0xFE, // y
		0x80, 0x00, 0x00, // z
	})
	d := newTestDevice(t, bus)

	tests := []struct {
		a    axis.Axis
		want int32
	}{
		{axis.X, 1},
		{axis.Y, -2},
		{axis.Z, -8388608},
	}
	for _, tt := range tests {
		bus.reset()
		got, err := d.ReadRaw(tt.a)
		if err != nil {
			t.Fatalf("ReadRaw(%v) err=%v", tt.a, err)
		}
		if got != tt.want {
			t.Errorf("ReadRaw(%v) = %d, want %d", tt.a, got, tt.want)
		}
		if len(bus.ops) != 1 || bus.ops[0].w[0] != axis.Addr(tt.a, RegMX, 3) || bus.ops[0].r != 3 {
			t.Errorf("ReadRaw(%v) ops=%v", tt.a, bus.ops)
		}
	}

	if got, _ := d.MeasResult("Y"); got != -2 {
		t.Errorf("MeasResult(Y) = %d, want -2", got)
	}
	if got, _ := d.Axis(axis.Z); got != -8388608 {
		t.Errorf("Axis(z) = %d", got)
	}

	for _, a := range []axis.Axis{3, -2} {
		if _, err := d.ReadRaw(a); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ReadRaw(%d) err=%v, want ErrInvalidArgument", a, err)
		}
	}
	if _, err := d.MeasResult("q"); !errors.Is(err, axis.ErrInvalid) {
		t.Errorf("MeasResult(q) err=%v, want axis.ErrInvalid", err)
	}
	if _, err := d.Axis(axis.All); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Axis(All) err=%v, want ErrInvalidArgument", err)
	}
}

func TestField(t *testing.T) {
	bus := &fakeBus{}
	copy(bus.regs[RegMX:], []byte{
		0x00, 0x10, 0x00,
		0xFF, 0xF0, 0x00,
		0x7F, 0xFF, 0xFF,
	})
	d := newTestDevice(t, bus)

	v, err := d.Field()
	if err != nil {
		t.Fatalf("Field() err=%v", err)
	}
	want := axis.Vector{4096, -4096, 8388607}
	if v != want {
		t.Errorf("Field() = %v, want %v", v, want)
	}
	if len(bus.ops) != 1 || bus.ops[0].r != 9 || bus.ops[0].w[0] != RegMX {
		t.Errorf("Field() ops=%v, want a single 9 byte read", bus.ops)
	}
}

func TestConversionCycleTime(t *testing.T) {
	for r := 0; r <= 13; r++ {
		got, err := ConversionCycleTime(r)
		if err != nil {
			t.Fatalf("ConversionCycleTime(%d) err=%v", r, err)
		}
		want := time.Duration(1667*(1<<r)) * time.Microsecond
		if got != want {
			t.Errorf("ConversionCycleTime(%d) = %v, want %v", r, got, want)
		}
	}

	for _, r := range []int{-1, 14} {
		if _, err := ConversionCycleTime(r); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ConversionCycleTime(%d) err=%v, want ErrInvalidArgument", r, err)
		}
	}
}

func TestOptions(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[RegCCX], bus.regs[RegCCX+1] = 0x00, 0xC8
	d := newTestDevice(t, bus)

	old, err := d.Options(UpdateRate(3))
	if err != nil {
		t.Fatalf("Options(UpdateRate) err=%v", err)
	}
	if !equalWrites(bus.writes(), [][]byte{{RegTMRC, 0x95}}) {
		t.Errorf("writes=%x", bus.writes())
	}
	bus.reset()
	if _, err := d.Options(old); err != nil {
		t.Fatalf("Options(old) err=%v", err)
	}
	if !equalWrites(bus.writes(), [][]byte{{RegTMRC, 0x98}}) {
		t.Errorf("restore writes=%x", bus.writes())
	}

	bus.reset()
	old, err = d.Options(CycleCount("x", 50))
	if err != nil {
		t.Fatalf("Options(CycleCount) err=%v", err)
	}
	if n, _ := d.CycleCount("x"); n != 50 {
		t.Errorf("CycleCount(x) = %d, want 50", n)
	}
	if _, err := d.Options(old); err != nil {
		t.Fatalf("Options(old) err=%v", err)
	}
	if n, _ := d.CycleCount("x"); n != 200 {
		t.Errorf("CycleCount(x) = %d after restore, want 200", n)
	}

	if _, err := d.Options(UpdateRate(14)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Options(UpdateRate(14)) err=%v", err)
	}
}

func TestSoftReset(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDevice(t, bus)
	if err := d.SoftReset(); err != nil {
		t.Fatalf("SoftReset() err=%v", err)
	}
	if len(bus.ops) != 0 {
		t.Errorf("SoftReset() touched the bus: %v", bus.ops)
	}
}
