package rm3100

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// SelfTestResult is the decoded BIST register after a self-test.
type SelfTestResult struct {
	X, Y, Z bool

	// Timeout is the BIST timeout period field (BW1:BW0).
	Timeout uint8
	// LRPeriods is the number of LR periods per measurement (BP1:BP0).
	LRPeriods uint8
}

// OK reports whether every axis passed.
func (r SelfTestResult) OK() bool {
	return r.X && r.Y && r.Z
}

func decodeBIST(bist byte) SelfTestResult {
	return SelfTestResult{
		X:         bist&bistXOK != 0,
		Y:         bist&bistYOK != 0,
		Z:         bist&bistZOK != 0,
		Timeout:   (bist & bistTimeout) >> 2,
		LRPeriods: bist & bistLRPeriod,
	}
}

// SelfTest runs the built-in self-test on all three axes and returns its
// result.
//
// The device is polled for DRDY up to 4 times, 10ms apart. Not becoming ready
// is not an error: the BIST register is decoded as it is. Self-test mode is
// disabled before returning, including when a step fails; a failure to
// disable it is appended to the returned error.
func (d *Device) SelfTest() (res SelfTestResult, err error) {
	defer func() {
		if werr := d.Write(RegBIST, BISTDisable); werr != nil {
			err = multierr.Append(err, fmt.Errorf("rm3100: could not disable self-test: %w", werr))
		}
	}()

	if err := d.Write(RegPoll, BISTPoll); err != nil {
		return res, fmt.Errorf("rm3100: could not prepare self-test: %w", err)
	}
	if err := d.Write(RegHShake, HShakeSelfTest); err != nil {
		return res, fmt.Errorf("rm3100: could not configure self-test handshake: %w", err)
	}
	if err := d.Write(RegBIST, BISTArm); err != nil {
		return res, fmt.Errorf("rm3100: could not start self-test: %w", err)
	}
	if err := d.Write(RegPoll, BISTPoll); err != nil {
		return res, fmt.Errorf("rm3100: could not trigger self-test measurement: %w", err)
	}

	for i := 0; i < bistAttempts; i++ {
		d.sleep(10 * time.Millisecond)
		ready, err := d.DataReady()
		if err != nil {
			return res, err
		}
		if ready {
			break
		}
	}

	bist, err := d.Read(RegBIST)
	if err != nil {
		return res, fmt.Errorf("rm3100: could not get self-test result: %w", err)
	}

	return decodeBIST(bist), nil
}
