package geomag

import (
	"errors"

	"github.com/cgxeiji/geomag/axis"
	"github.com/cgxeiji/geomag/rm3100"
)

var errSensor = errors.New("sensor failure")

type startCall struct {
	axes    string
	rate    int
	single  bool
	fullSeq bool
}

// fakeSensor serves a queue of fields and counts the calls made to it.
type fakeSensor struct {
	continuous bool
	ready      bool
	fields     []axis.Vector

	modeErr  error
	readyErr error
	fieldErr error
	startErr error

	starts     []startCall
	fieldCalls int
	readyCalls int
}

func (f *fakeSensor) Axis(a axis.Axis) (int32, error) {
	v, err := f.Field()
	if err != nil {
		return 0, err
	}
	return v[a], nil
}

func (f *fakeSensor) Field() (axis.Vector, error) {
	f.fieldCalls++
	if f.fieldErr != nil {
		return axis.Vector{}, f.fieldErr
	}
	if len(f.fields) == 0 {
		return axis.Vector{}, nil
	}
	v := f.fields[0]
	f.fields = f.fields[1:]
	return v, nil
}

func (f *fakeSensor) DataReady() (bool, error) {
	f.readyCalls++
	return f.ready, f.readyErr
}

func (f *fakeSensor) ContinuousMode() (bool, error) {
	return f.continuous, f.modeErr
}

func (f *fakeSensor) SelfTest() (rm3100.SelfTestResult, error) {
	return rm3100.SelfTestResult{X: true, Y: true, Z: true}, nil
}

func (f *fakeSensor) MeasResult(name string) (int32, error) {
	a, err := axis.Index(name)
	if err != nil {
		return 0, err
	}
	return f.Axis(a)
}

func (f *fakeSensor) ReadRaw(a axis.Axis) (int32, error) {
	return f.Axis(a)
}

func (f *fakeSensor) Status() (rm3100.Status, error) {
	return rm3100.Status{DataReady: f.ready}, f.readyErr
}

func (f *fakeSensor) StartMeasure(axes string, updateRate int, single, fullSeq bool) error {
	f.starts = append(f.starts, startCall{axes, updateRate, single, fullSeq})
	if f.startErr != nil {
		return f.startErr
	}
	f.continuous = !single
	return nil
}
