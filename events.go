package rn2xx3

import (
	"encoding/hex"

	"github.com/dbrgn/rn2xx3/protocol"
)

// Event is an asynchronous module notification: a join result, a transmit
// confirmation, or a received downlink.
type Event struct {
	Kind    protocol.EventKind
	Port    uint8  // set for downlinks
	Payload []byte // decoded downlink payload
}

// eventQueueSize bounds the number of events retained while the caller is
// not draining them. The oldest event is dropped on overflow.
const eventQueueSize = 8

type eventQueue struct {
	buf  [eventQueueSize]Event
	head int
	n    int
}

func (q *eventQueue) push(ev Event) (dropped bool) {
	if q.n == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.n--
		dropped = true
	}
	q.buf[(q.head+q.n)%len(q.buf)] = ev
	q.n++
	return dropped
}

func (q *eventQueue) pop() (Event, bool) {
	if q.n == 0 {
		return Event{}, false
	}
	ev := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return ev, true
}

// queueEvent converts a classified event reply into an owned Event and
// queues it. The reply's payload view is copied out because the line buffer
// is reused on the next read.
func (d *Driver) queueEvent(rep protocol.Reply) {
	ev := Event{Kind: rep.Event, Port: rep.Port}
	if rep.Event == protocol.EventDownlink {
		payload, err := hex.DecodeString(string(rep.Value))
		if err != nil {
			// Cannot happen: the classifier only accepts valid hex.
			d.log.Warnf("dropping downlink with undecodable payload: %q", rep.Value)
			return
		}
		ev.Payload = payload
	}
	if d.events.push(ev) {
		d.log.Warnf("event queue full, dropped oldest event")
	}
	d.stats.recordEvent()
}

// PollEvents returns the next pending asynchronous event, if any. It first
// drains events queued during earlier exchanges, then performs one
// non-blocking read pass on the transport. ok is false when no event is
// currently available. Receiving an unsolicited "ok" while the module is
// asleep is treated as the wakeup notification.
func (d *Driver) PollEvents() (ev Event, ok bool, err error) {
	if d.closed {
		return Event{}, false, ErrClosed
	}

	if ev, ok := d.events.pop(); ok {
		return ev, true, nil
	}

	// Never touch the transport mid-exchange; Poll owns it then.
	if d.st != stateIdle {
		return Event{}, false, nil
	}

	line, rerr := d.reader.pollLine(d.transport)
	if rerr != nil {
		return Event{}, false, rerr
	}
	if len(line) == 0 {
		return Event{}, false, nil
	}
	d.log.Debugf("received unsolicited line: %q", line)

	rep := protocol.Classify(line, protocol.CmdNone)
	switch rep.Kind {
	case protocol.ReplyEvent:
		d.queueEvent(rep)
		if ev, ok := d.events.pop(); ok {
			return ev, true, nil
		}
		return Event{}, false, nil
	case protocol.ReplyOK:
		if d.asleep {
			d.asleep = false
			return Event{}, false, nil
		}
		return Event{}, false, ErrUnexpectedReply
	default:
		d.stats.recordUnexpectedReply()
		return Event{}, false, ErrUnexpectedReply
	}
}
