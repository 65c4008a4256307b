package geomag

import "github.com/cgxeiji/geomag/axis"

// Reader steps through the measurements of a sensor in continuous mode.
//
// The sequence has no end and cannot be rewound: to read again after the mode
// changed, start continuous measurement again and keep calling Next. Callers
// should wait at least one conversion cycle between steps.
type Reader struct {
	s Sensor
}

// NewReader returns a Reader over s.
func NewReader(s Sensor) *Reader {
	return &Reader{s: s}
}

// Next returns the latest field when the sensor is in continuous mode and a
// conversion is ready. Otherwise ok is false and the measurement registers
// are not read.
func (r *Reader) Next() (v axis.Vector, ok bool, err error) {
	cont, err := r.s.ContinuousMode()
	if err != nil || !cont {
		return v, false, err
	}
	ready, err := r.s.DataReady()
	if err != nil || !ready {
		return v, false, err
	}
	if v, err = r.s.Field(); err != nil {
		return axis.Vector{}, false, err
	}
	return v, true, nil
}
