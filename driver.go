package rn2xx3

import (
	"github.com/dbrgn/rn2xx3/protocol"
)

// Model identifies the module variant behind the transport.
type Model uint8

const (
	ModelRN2483 Model = iota // 433/868 MHz
	ModelRN2903              // 915 MHz
)

func (m Model) String() string {
	if m == ModelRN2903 {
		return "RN2903"
	}
	return "RN2483"
}

// Config holds driver configuration. The zero value selects defaults.
type Config struct {
	// MaxPolls bounds every exchange by a number of Poll iterations instead
	// of wall-clock time; no clock is assumed to be available. When the
	// budget is exhausted the exchange fails with ErrTimeout.
	MaxPolls int

	// ReadBufferSize bounds the length of a single reply line.
	ReadBufferSize int

	// CommandBufferSize bounds the length of a single encoded command.
	CommandBufferSize int

	// Logger receives diagnostic traces of commands and replies. Optional.
	Logger Logger
}

// Defaults used for zero Config fields.
const (
	DefaultMaxPolls          = 1 << 20
	DefaultReadBufferSize    = 256
	DefaultCommandBufferSize = 528
)

type state uint8

const (
	stateIdle state = iota
	stateTransmitting
	stateAwaitReply // waiting for the (first) reply line
	stateAwaitFinal // two-phase commands: waiting for the terminal event
)

// Driver is the command/response engine. It owns the Transport exclusively
// from construction until Free, accepts at most one outstanding command at a
// time, and never blocks: all waiting happens in the caller's poll loop.
//
// Driver is not safe for concurrent use; Stats is the only method that may
// be called from other goroutines.
type Driver struct {
	transport Transport
	log       Logger
	model     Model
	maxPolls  int
	maxRate   protocol.DataRate

	reader lineReader
	cmdBuf []byte
	cmdLen int
	cmdOff int

	st     state
	cur    protocol.CmdType
	polls  int
	asleep bool
	closed bool

	events eventQueue
	stats  statsCollector
}

// NewRN2483 creates a driver for an RN2483 module (433/868 MHz bands).
func NewRN2483(t Transport, cfg Config) *Driver {
	return newDriver(t, cfg, ModelRN2483, protocol.EuSf7Bw250)
}

// NewRN2903 creates a driver for an RN2903 module (915 MHz band).
func NewRN2903(t Transport, cfg Config) *Driver {
	return newDriver(t, cfg, ModelRN2903, protocol.UsSf8Bw500)
}

func newDriver(t Transport, cfg Config, model Model, maxRate protocol.DataRate) *Driver {
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.CommandBufferSize <= 0 {
		cfg.CommandBufferSize = DefaultCommandBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return &Driver{
		transport: t,
		log:       cfg.Logger,
		model:     model,
		maxPolls:  cfg.MaxPolls,
		maxRate:   maxRate,
		reader:    newLineReader(cfg.ReadBufferSize),
		cmdBuf:    make([]byte, cfg.CommandBufferSize),
	}
}

// Model returns the module variant this driver was constructed for.
func (d *Driver) Model() Model { return d.model }

// InFlight reports whether a command is currently outstanding.
func (d *Driver) InFlight() bool { return d.st != stateIdle }

// Free tears the driver down and returns exclusive ownership of the
// Transport to the caller. The driver must not be used afterwards.
func (d *Driver) Free() Transport {
	d.closed = true
	t := d.transport
	d.transport = nil
	return t
}

// Begin encodes and stages a command. It fails with ErrBusy while another
// command is outstanding and with ErrAsleep while the module sleeps. On
// success the caller drives the exchange with Poll.
func (d *Driver) Begin(cmd protocol.Command) error {
	if d.closed {
		return ErrClosed
	}
	if d.st != stateIdle {
		return ErrBusy
	}
	if d.asleep {
		return ErrAsleep
	}

	n, err := protocol.Encode(d.cmdBuf, cmd)
	if err != nil {
		return err
	}
	d.log.Debugf("sending command: %q", d.cmdBuf[:n-2])

	d.cmdLen = n
	d.cmdOff = 0
	d.cur = cmd.Type
	d.st = stateTransmitting
	d.polls = 0
	d.stats.recordCommand()
	return nil
}

// Poll advances the outstanding exchange by one non-blocking step. It
// returns done=false while the exchange is still in progress; the caller
// re-invokes it from its own scheduling loop. When done, either err is nil
// and the reply carries the typed acknowledgement, or err is one of the
// driver error taxonomy. After done the driver is idle again.
func (d *Driver) Poll() (reply protocol.Reply, done bool, err error) {
	if d.closed {
		return protocol.Reply{}, true, ErrClosed
	}
	if d.st == stateIdle {
		return protocol.Reply{}, true, ErrIdle
	}

	d.polls++
	if d.polls > d.maxPolls {
		d.toIdle()
		d.stats.recordTimeout()
		return protocol.Reply{}, true, ErrTimeout
	}

	if d.st == stateTransmitting {
		for d.cmdOff < d.cmdLen {
			sent, werr := d.transport.TryWriteByte(d.cmdBuf[d.cmdOff])
			if werr != nil {
				d.toIdle()
				d.stats.recordTransportError()
				return protocol.Reply{}, true, &TransportError{Op: "write", Err: werr}
			}
			if !sent {
				return protocol.Reply{}, false, nil
			}
			d.cmdOff++
		}

		if d.cur.Shape() == protocol.ShapeNone {
			// sys sleep: the module confirms with "ok" at wakeup only.
			d.asleep = d.cur == protocol.CmdSleep
			d.toIdle()
			return protocol.Reply{Kind: protocol.ReplyOK}, true, nil
		}
		d.st = stateAwaitReply
	}

	for {
		line, rerr := d.reader.pollLine(d.transport)
		if rerr != nil {
			d.toIdle()
			if _, ok := rerr.(*TransportError); ok {
				d.stats.recordTransportError()
			}
			return protocol.Reply{}, true, rerr
		}
		if line == nil {
			return protocol.Reply{}, false, nil
		}
		if len(line) == 0 {
			// Stray terminator between replies; not a reply line.
			continue
		}
		d.log.Debugf("received reply: %q", line)

		rep := protocol.Classify(line, d.cur)
		switch rep.Kind {
		case protocol.ReplyEvent:
			if d.st == stateAwaitFinal && terminalEvent(d.cur, rep.Event) {
				return d.finishFinal(rep)
			}
			// Unsolicited event in the middle of an exchange: queue it for
			// PollEvents, keep waiting for the command's own reply.
			d.queueEvent(rep)
			continue

		case protocol.ReplyError:
			d.toIdle()
			d.stats.recordModuleError()
			return rep, true, &ModuleError{Code: rep.Status}

		case protocol.ReplyOK:
			if d.st == stateAwaitReply && d.cur.Shape() == protocol.ShapeTwoPhase {
				d.st = stateAwaitFinal
				continue
			}
			if d.cur.Shape() == protocol.ShapeOK {
				d.toIdle()
				return rep, true, nil
			}
			d.toIdle()
			d.stats.recordUnexpectedReply()
			return rep, true, ErrUnexpectedReply

		case protocol.ReplyValue:
			if d.st == stateAwaitReply {
				switch d.cur.Shape() {
				case protocol.ShapeText, protocol.ShapeHex, protocol.ShapeDecimal, protocol.ShapeOnOff:
					d.toIdle()
					return rep, true, nil
				}
			}
			d.toIdle()
			d.stats.recordUnexpectedReply()
			return rep, true, ErrUnexpectedReply

		default:
			d.toIdle()
			d.stats.recordUnexpectedReply()
			return rep, true, ErrUnexpectedReply
		}
	}
}

// finishFinal completes a two-phase exchange on its terminal event.
func (d *Driver) finishFinal(rep protocol.Reply) (protocol.Reply, bool, error) {
	d.toIdle()
	switch rep.Event {
	case protocol.EventJoinDenied:
		d.stats.recordModuleError()
		return rep, true, &ModuleError{Code: protocol.StatusDenied}
	case protocol.EventTxFailed:
		d.stats.recordModuleError()
		return rep, true, &ModuleError{Code: protocol.StatusMacErr}
	default:
		return rep, true, nil
	}
}

func terminalEvent(cmd protocol.CmdType, ev protocol.EventKind) bool {
	switch cmd {
	case protocol.CmdJoin:
		return ev == protocol.EventJoinAccepted || ev == protocol.EventJoinDenied
	case protocol.CmdTransmit:
		return ev == protocol.EventTxOK || ev == protocol.EventTxFailed ||
			ev == protocol.EventDownlink
	}
	return false
}

func (d *Driver) toIdle() {
	d.st = stateIdle
	d.cur = protocol.CmdNone
	d.cmdLen = 0
	d.cmdOff = 0
}

// exchange runs one full command/response cycle: the bounded retry loop
// around the non-blocking Poll contract.
func (d *Driver) exchange(cmd protocol.Command) (protocol.Reply, error) {
	if err := d.Begin(cmd); err != nil {
		return protocol.Reply{}, err
	}
	for {
		rep, done, err := d.Poll()
		if done {
			return rep, err
		}
	}
}

// Stats returns a snapshot of the driver counters.
func (d *Driver) Stats() Stats {
	return d.stats.snapshot()
}
