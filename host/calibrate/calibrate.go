// Package calibrate measures a target's real loop costs over a serial
// link. Built-in profiles carry datasheet numbers; this package exists
// because the only authoritative source for per-iteration and overhead
// cycles is the target itself running the responder firmware.
package calibrate

import (
	"bufio"
	"errors"
	"fmt"

	"spindelay/calproto"
	"spindelay/host/serial"
)

var (
	// ErrRejected means the responder answered with a NAK frame.
	ErrRejected = errors.New("calibrate: responder rejected request")
	// ErrProtocol means the responder answered with an unexpected frame.
	ErrProtocol = errors.New("calibrate: unexpected response frame")
	// ErrInconsistent means the two samples cannot come from a linear
	// cost model, usually a sign of interrupt activity on the target.
	ErrInconsistent = errors.New("calibrate: samples are not consistent")
)

// Session drives the responder firmware over an open port.
type Session struct {
	port serial.Port
	r    *bufio.Reader
}

// NewSession wraps an open serial port.
func NewSession(port serial.Port) *Session {
	return &Session{
		port: port,
		r:    bufio.NewReader(port),
	}
}

// Measure asks the responder to run iters naps and returns the elapsed
// time in microseconds as measured by the target's hardware timer.
func (s *Session) Measure(iters uint32) (uint32, error) {
	value, err := s.roundTrip(calproto.KindTime, iters)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Pulse asks the responder to emit a hardware pulse of the given cycle
// width, for oscilloscope verification of a generated plan.
func (s *Session) Pulse(cycles uint32) error {
	_, err := s.roundTrip(calproto.KindPulse, cycles)
	return err
}

func (s *Session) roundTrip(kind byte, value uint32) (uint32, error) {
	if _, err := s.port.Write(calproto.Encode(kind, value)); err != nil {
		return 0, fmt.Errorf("calibrate: writing request: %w", err)
	}

	line, err := s.r.ReadBytes('\n')
	if err != nil {
		return 0, fmt.Errorf("calibrate: reading response: %w", err)
	}

	respKind, respValue, err := calproto.Parse(line)
	if err != nil {
		return 0, err
	}

	switch respKind {
	case calproto.KindNak:
		return 0, ErrRejected
	case calproto.KindElapsed, calproto.KindAck:
		return respValue, nil
	}
	return 0, fmt.Errorf("%w: %c", ErrProtocol, respKind)
}

// Result is a fitted loop cost model.
type Result struct {
	PerIteration  uint32
	FixedOverhead uint32
}

// Fit samples the responder at two iteration counts and solves the
// linear model cycles(n) = FixedOverhead + n*PerIteration.
//
// The responder reports whole microseconds, so the fixed overhead is
// only resolvable down to one microsecond of cycles; at high clocks it
// may fit as zero.
func (s *Session) Fit(clockHz uint32, low, high uint32) (Result, error) {
	if clockHz == 0 || low == 0 || high <= low {
		return Result{}, fmt.Errorf("calibrate: need clockHz > 0 and high > low > 0")
	}

	usLow, err := s.Measure(low)
	if err != nil {
		return Result{}, err
	}
	usHigh, err := s.Measure(high)
	if err != nil {
		return Result{}, err
	}

	cycLow := uint64(usLow) * uint64(clockHz) / 1_000_000
	cycHigh := uint64(usHigh) * uint64(clockHz) / 1_000_000
	if cycHigh <= cycLow {
		return Result{}, ErrInconsistent
	}

	span := uint64(high - low)
	per := (cycHigh - cycLow + span/2) / span // round to nearest
	if per == 0 {
		return Result{}, ErrInconsistent
	}

	var overhead uint64
	if used := per * uint64(low); cycLow > used {
		overhead = cycLow - used
	}

	return Result{
		PerIteration:  uint32(per),
		FixedOverhead: uint32(overhead),
	}, nil
}
