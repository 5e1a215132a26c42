// Package transporttest provides an in-memory transport for driver tests.
// Reads are served from a script of chunks separated by would-block gaps, so
// tests can exercise arbitrary chunking of the incoming byte stream. Writes
// are captured for inspection.
package transporttest

import "bytes"

type Transport struct {
	script  [][]byte
	Written bytes.Buffer

	// ReadErr is returned once the read script is exhausted.
	ReadErr error

	// WriteErr is returned for every write attempt.
	WriteErr error

	// WriteBlocks makes the next N writes report would-block.
	WriteBlocks int
}

func New() *Transport {
	return &Transport{}
}

// QueueRead schedules chunks of incoming bytes. Consecutive chunks are
// separated by one would-block poll, and a final would-block follows the
// last chunk.
func (t *Transport) QueueRead(chunks ...string) {
	for _, c := range chunks {
		t.script = append(t.script, []byte(c), nil)
	}
}

// QueueBlock schedules n additional would-block read polls.
func (t *Transport) QueueBlock(n int) {
	for i := 0; i < n; i++ {
		t.script = append(t.script, nil)
	}
}

func (t *Transport) TryReadByte() (byte, bool, error) {
	for len(t.script) > 0 {
		head := t.script[0]
		if len(head) == 0 {
			t.script = t.script[1:]
			return 0, false, nil
		}
		b := head[0]
		if len(head) == 1 {
			t.script = t.script[1:]
		} else {
			t.script[0] = head[1:]
		}
		return b, true, nil
	}
	if t.ReadErr != nil {
		return 0, false, t.ReadErr
	}
	return 0, false, nil
}

func (t *Transport) TryWriteByte(b byte) (bool, error) {
	if t.WriteErr != nil {
		return false, t.WriteErr
	}
	if t.WriteBlocks > 0 {
		t.WriteBlocks--
		return false, nil
	}
	t.Written.WriteByte(b)
	return true, nil
}
