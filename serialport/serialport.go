// Package serialport adapts a physical serial port to the rn2xx3 Transport
// contract. Reads are made non-blocking with a zero read timeout and an
// internal chunk buffer, so a poll drains whatever the OS already buffered
// without ever waiting for the module.
package serialport

import (
	"go.bug.st/serial"

	"github.com/dbrgn/rn2xx3"
)

// DefaultBaudRate is the module's factory UART configuration (57600 8N1).
const DefaultBaudRate = 57600

const defaultReadChunkSize = 64

// Config holds port configuration. The zero value selects defaults.
type Config struct {
	// BaudRate of the UART link. The modules ship configured for 57600.
	BaudRate int

	// ReadChunkSize bounds how many buffered bytes a single poll drains
	// from the OS at once.
	ReadChunkSize int
}

// Port is a serial-port backed Transport. Not safe for concurrent use; the
// driver owning it is single-threaded anyway.
type Port struct {
	port    serial.Port
	buf     []byte
	r, w    int
	scratch [1]byte
}

var _ rn2xx3.Transport = (*Port)(nil)

// Open opens the named serial port (8 data bits, no parity, one stop bit)
// and configures it for non-blocking reads.
func Open(name string, cfg Config) (*Port, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadChunkSize <= 0 {
		cfg.ReadChunkSize = defaultReadChunkSize
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	// A zero timeout turns Read into a drain of the OS receive buffer that
	// returns immediately when it is empty.
	if err := p.SetReadTimeout(0); err != nil {
		p.Close()
		return nil, err
	}

	return &Port{port: p, buf: make([]byte, cfg.ReadChunkSize)}, nil
}

func (p *Port) TryReadByte() (byte, bool, error) {
	if p.r == p.w {
		n, err := p.port.Read(p.buf)
		if err != nil {
			return 0, false, err
		}
		if n == 0 {
			return 0, false, nil
		}
		p.r, p.w = 0, n
	}
	b := p.buf[p.r]
	p.r++
	return b, true, nil
}

func (p *Port) TryWriteByte(b byte) (bool, error) {
	p.scratch[0] = b
	n, err := p.port.Write(p.scratch[:])
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DiscardInput drops both the internal chunk buffer and the OS receive
// buffer.
func (p *Port) DiscardInput() error {
	p.r, p.w = 0, 0
	return p.port.ResetInputBuffer()
}

func (p *Port) Close() error {
	return p.port.Close()
}
