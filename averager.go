package geomag

import "fmt"

// Averager keeps a running integer mean over the last values put into it.
type Averager struct {
	buffer []int64
	idx    int
	count  int
	sum    int64
}

// NewAverager returns an Averager over a window of size values.
func NewAverager(size int) (*Averager, error) {
	if size < 1 {
		return nil, fmt.Errorf("geomag: averaging window must be at least 1, got %d", size)
	}
	return &Averager{
		buffer: make([]int64, size),
	}, nil
}

// Put adds v and returns the mean of the values accumulated so far, rounded
// toward negative infinity. Once the window is full, v replaces the oldest
// value.
func (a *Averager) Put(v int64) int64 {
	a.sum += v - a.buffer[a.idx]
	a.buffer[a.idx] = v
	a.idx++
	a.idx %= len(a.buffer)

	if a.count < len(a.buffer) {
		a.count++
	}

	return a.Mean()
}

// Mean returns the current mean, or 0 if nothing was put yet.
func (a *Averager) Mean() int64 {
	if a.count == 0 {
		return 0
	}
	n := int64(a.count)
	q := a.sum / n
	if a.sum%n != 0 && a.sum < 0 {
		q--
	}
	return q
}

// Len returns the number of values the mean is taken over.
func (a *Averager) Len() int {
	return a.count
}

func (a *Averager) reset() {
	for i := range a.buffer {
		a.buffer[i] = 0
	}
	a.idx = 0
	a.count = 0
	a.sum = 0
}
