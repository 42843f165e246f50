// Package calproto implements the wire protocol between the
// calibration host tool and the responder firmware. Frames are single
// ASCII lines so they survive any serial console: a kind letter, a
// decimal value, and a CRC16 of the preceding text.
//
//	T 100000 1a2b\n   host asks for 100000 timed naps
//	E 258812 09fc\n   target answers with elapsed microseconds
package calproto

import (
	"bytes"
	"errors"
	"strconv"
)

// Frame kinds.
const (
	KindTime    = 'T' // request: run <value> naps and time them
	KindPulse   = 'P' // request: emit a hardware pulse of <value> cycles
	KindElapsed = 'E' // response: elapsed microseconds
	KindAck     = 'K' // response: request done, no measurement
	KindNak     = 'X' // response: request rejected
)

var (
	ErrBadFrame = errors.New("calproto: malformed frame")
	ErrCRC      = errors.New("calproto: CRC mismatch")
)

// CRC16 calculates the CRC16-CCITT checksum used to validate frames
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

const hexDigits = "0123456789abcdef"

// Encode builds a complete frame line including the trailing newline.
func Encode(kind byte, value uint32) []byte {
	buf := make([]byte, 0, 20)
	buf = append(buf, kind, ' ')
	buf = strconv.AppendUint(buf, uint64(value), 10)

	crc := CRC16(buf)
	buf = append(buf, ' ',
		hexDigits[crc>>12&0xF], hexDigits[crc>>8&0xF],
		hexDigits[crc>>4&0xF], hexDigits[crc&0xF], '\n')
	return buf
}

// Parse validates a received line and returns its kind and value. The
// line may still carry its line ending.
func Parse(line []byte) (kind byte, value uint32, err error) {
	line = bytes.TrimRight(line, "\r\n")

	fields := bytes.Fields(line)
	if len(fields) != 3 || len(fields[0]) != 1 {
		return 0, 0, ErrBadFrame
	}

	v, err := strconv.ParseUint(string(fields[1]), 10, 32)
	if err != nil {
		return 0, 0, ErrBadFrame
	}

	want, err := strconv.ParseUint(string(fields[2]), 16, 16)
	if err != nil {
		return 0, 0, ErrBadFrame
	}

	payload := line[:bytes.LastIndexByte(line, ' ')]
	if CRC16(payload) != uint16(want) {
		return 0, 0, ErrCRC
	}

	return fields[0][0], uint32(v), nil
}
