// Package beastfeed reads Mode-S Beast-format frames from a serial
// receiver. Framing and port-handling follow the teacher's
// internal/ubx.Port: open with github.com/tarm/serial, then scan a
// byte at a time for the protocol's sync sequence before reading a
// fixed-shape payload.
package beastfeed

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

const (
	escape    = 0x1a
	typeModeAC = '1'
	typeModeS  = '2'
	typeModeSLong = '3'
)

// Frame is one decoded Beast frame: a 6-byte, 12MHz receiver timestamp
// (the peer-clock reading a ClockPairing synchronizes against) plus
// the raw Mode-S payload that followed it.
type Frame struct {
	Type      byte
	Timestamp uint64 // 48-bit receiver clock ticks, big-endian
	Signal    byte
	Payload   []byte
}

// Port is an open Beast-format serial connection.
type Port struct {
	port io.ReadCloser
}

// Open mirrors ubx.Open: a plain github.com/tarm/serial.Config at a
// fixed baud, wrapped so the rest of the package only depends on
// io.ReadCloser.
func Open(device string, baud int) (*Port, error) {
	c := &serial.Config{Name: device, Baud: baud}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("beastfeed: open %s: %w", device, err)
	}
	return &Port{port: p}, nil
}

// Close closes the underlying port.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// ReadFrame reads and de-escapes one Beast frame. Beast escapes 0x1a
// bytes within the payload by doubling them; this unescapes as it
// scans, the way ubx.ReadUBX consumes its length-prefixed body.
func (p *Port) ReadFrame() (Frame, error) {
	return readFrame(p.port)
}

func readFrame(r io.Reader) (Frame, error) {
	var f Frame

	typ, err := syncToType(r)
	if err != nil {
		return f, err
	}
	f.Type = typ

	bodyLen, err := payloadLen(typ)
	if err != nil {
		return f, err
	}

	raw := make([]byte, 0, 7+bodyLen)
	for len(raw) < 7+bodyLen {
		b, err := readEscapedByte(r)
		if err != nil {
			return f, err
		}
		raw = append(raw, b)
	}

	var ts uint64
	for i := 0; i < 6; i++ {
		ts = ts<<8 | uint64(raw[i])
	}
	f.Timestamp = ts
	f.Signal = raw[6]
	f.Payload = raw[7:]
	return f, nil
}

func payloadLen(typ byte) (int, error) {
	switch typ {
	case typeModeAC:
		return 2, nil
	case typeModeS:
		return 7, nil
	case typeModeSLong:
		return 14, nil
	default:
		return 0, fmt.Errorf("beastfeed: unknown frame type %#x", typ)
	}
}

// syncToType discards bytes until it finds a 0x1a that is not itself
// part of an escaped pair, then returns the type byte that follows it.
func syncToType(r io.Reader) (byte, error) {
	for {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if b != escape {
			continue
		}
		next, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if next == escape {
			continue // escaped 0x1a byte inside stray data, keep scanning
		}
		return next, nil
	}
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readEscapedByte reads one logical frame byte, collapsing an escaped
// 0x1a pair (0x1a 0x1a) into a single 0x1a.
func readEscapedByte(r io.Reader) (byte, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}
	if b != escape {
		return b, nil
	}
	return readByte(r)
}
