//go:build rp2040

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var (
	errPulseTooShort = errors.New("pulse: need at least 2 cycles")
	errPulseBusy     = errors.New("pulse: queue full")
)

// PIO program for exact-width pulse generation
//
//	0: pull block        ; wait for a width word
//	1: out x, 32         ; load the countdown
//	2: set pins, 1       ; rising edge
//	3: jmp x--, 3        ; burn x+1 cycles, one per pass
//	4: set pins, 0       ; falling edge
//
// Pin-high time is 1 (set) + x+1 (jmp passes) cycles, so a width of w
// sysclk cycles needs x = w - 2.
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),
		asm.Out(rp2pio.OutDestX, 32).Encode(),
		asm.Set(rp2pio.SetDestPins, 1).Encode(),
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),
		asm.Set(rp2pio.SetDestPins, 0).Encode(),
	}
}

const pulseOrigin = 0 // Load at offset 0 for correct jump addresses

// pulsar drives the pulse program on PIO0 state machine 0. The state
// machine runs at full sysclk (divisor 1), so widths are exact in CPU
// cycles and immune to interrupt preemption on the cores.
type pulsar struct {
	sm rp2pio.StateMachine
}

func newPulsar(pin machine.Pin) (*pulsar, error) {
	sm := rp2pio.PIO0.StateMachine(0)
	sm.TryClaim()

	program := buildPulseProgram()
	offset, err := rp2pio.PIO0.AddProgram(program, pulseOrigin)
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: rp2pio.PIO0.PinMode()})
	sm.SetPindirsConsecutive(pin, 1, true)

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1, 0) // full sysclk, one PIO cycle per CPU cycle

	sm.Init(offset, cfg)
	sm.SetEnabled(true)

	return &pulsar{sm: sm}, nil
}

// emit queues one pulse of the given width in cycles.
func (p *pulsar) emit(cycles uint32) error {
	if cycles < 2 {
		return errPulseTooShort
	}
	if p.sm.IsTxFIFOFull() {
		return errPulseBusy
	}
	p.sm.TxPut(cycles - 2)
	return nil
}
