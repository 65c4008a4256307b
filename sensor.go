package geomag

import (
	"github.com/cgxeiji/geomag/axis"
	"github.com/cgxeiji/geomag/rm3100"
)

// Sensor is the set of operations a geomagnetic sensor offers to Device and
// Reader. *rm3100.Device is the only implementation.
type Sensor interface {
	// Axis returns the last measurement of a single axis in raw counts.
	Axis(a axis.Axis) (int32, error)
	// Field returns the last measurement of every axis.
	Field() (axis.Vector, error)
	DataReady() (bool, error)
	ContinuousMode() (bool, error)
	SelfTest() (rm3100.SelfTestResult, error)
	MeasResult(name string) (int32, error)
	ReadRaw(a axis.Axis) (int32, error)
	Status() (rm3100.Status, error)
	StartMeasure(axes string, updateRate int, single, fullSeq bool) error
}

var _ Sensor = (*rm3100.Device)(nil)
