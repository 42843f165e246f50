//go:build rp2040

// Calibration responder firmware for the RP2040.
//
// Listens on the default serial port for calproto frames, runs timed
// nap loops bracketed by hardware-timer reads, and answers with the
// elapsed microseconds. A pulse request drives a PIO state machine that
// holds a pin high for an exact cycle count, for oscilloscope
// verification of generated plans.
package main

import (
	"machine"
	"time"

	"spindelay/calproto"
	"spindelay/spin"
)

const lineMax = 32

func main() {
	// Give USB CDC time to enumerate before we start answering.
	time.Sleep(2 * time.Second)

	pulse, pulseErr := newPulsar(machine.GPIO15)

	line := make([]byte, 0, lineMax)
	for {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			time.Sleep(time.Millisecond)
			continue
		}
		if b != '\n' {
			if len(line) < lineMax {
				line = append(line, b)
			}
			continue
		}

		handle(line, pulse, pulseErr)
		line = line[:0]
	}
}

func handle(line []byte, pulse *pulsar, pulseErr error) {
	kind, value, err := calproto.Parse(line)
	if err != nil {
		reply(calproto.KindNak, 0)
		return
	}

	switch kind {
	case calproto.KindTime:
		start := hardwareMicros()
		spin.Naps(value)
		elapsed := hardwareMicros() - start
		reply(calproto.KindElapsed, uint32(elapsed))

	case calproto.KindPulse:
		if pulseErr != nil || pulse.emit(value) != nil {
			reply(calproto.KindNak, 0)
			return
		}
		reply(calproto.KindAck, 0)

	default:
		reply(calproto.KindNak, 0)
	}
}

func reply(kind byte, value uint32) {
	machine.Serial.Write(calproto.Encode(kind, value))
}
