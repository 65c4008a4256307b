package geomag

import "github.com/cgxeiji/geomag/axis"

// tSeries keeps the per-axis extremes of the last samples of a stream. The
// midpoint of the extremes is the hard-iron offset once the sensor has been
// rotated through every orientation.
type tSeries struct {
	buffer []axis.Vector
	idx    int
	filled int

	max axis.Vector
	min axis.Vector
}

func newTSeries(size int) *tSeries {
	return &tSeries{
		buffer: make([]axis.Vector, size),
	}
}

func (t *tSeries) add(entries ...axis.Vector) {
	for _, e := range entries {
		old := t.buffer[t.idx]
		t.buffer[t.idx] = e
		t.idx++
		t.idx %= len(t.buffer)

		if t.filled < len(t.buffer) {
			t.filled++
			if t.filled == 1 {
				t.min, t.max = e, e
				continue
			}
			t.minmax(e)
			continue
		}

		if t.evicts(old) {
			t.recompute()
		} else {
			t.minmax(e)
		}
	}
}

// evicts reports whether dropping v may move an extreme.
func (t *tSeries) evicts(v axis.Vector) bool {
	for i := range v {
		if v[i] == t.max[i] || v[i] == t.min[i] {
			return true
		}
	}
	return false
}

func (t *tSeries) recompute() {
	t.min, t.max = t.buffer[0], t.buffer[0]
	for _, b := range t.buffer[1:t.filled] {
		t.minmax(b)
	}
}

func (t *tSeries) minmax(v axis.Vector) {
	for i := range v {
		if v[i] > t.max[i] {
			t.max[i] = v[i]
		}
		if v[i] < t.min[i] {
			t.min[i] = v[i]
		}
	}
}

func (t *tSeries) last() axis.Vector {
	if t.filled == 0 {
		return axis.Vector{}
	}
	return t.buffer[(t.idx+len(t.buffer)-1)%len(t.buffer)]
}

func (t *tSeries) offset() axis.Vector {
	var o axis.Vector
	for i := range o {
		o[i] = int32((int64(t.max[i]) + int64(t.min[i])) / 2)
	}
	return o
}

func (t *tSeries) reset() {
	t.idx = 0
	t.filled = 0
	t.min = axis.Vector{}
	t.max = axis.Vector{}
}
