package rn2xx3

// lineReader accumulates bytes from a Transport into a bounded buffer until
// a line terminator is seen. Partially accumulated state survives across
// poll calls, so input may arrive one byte at a time over many polls.
type lineReader struct {
	buf []byte
	n   int
}

func newLineReader(size int) lineReader {
	return lineReader{buf: make([]byte, size)}
}

func (r *lineReader) reset() {
	r.n = 0
}

// pollLine reads as many bytes as the transport currently has, without
// blocking. It returns (nil, nil) while no complete line is available yet.
// On a terminator it returns the line with CR/LF stripped; the slice aliases
// the internal buffer and is only valid until the next call. A line longer
// than the buffer yields ErrBufferOverflow and resets the buffer.
func (r *lineReader) pollLine(t Transport) ([]byte, error) {
	for {
		b, ok, err := t.TryReadByte()
		if err != nil {
			r.n = 0
			return nil, &TransportError{Op: "read", Err: err}
		}
		if !ok {
			return nil, nil
		}
		if b == '\n' {
			line := r.buf[:r.n]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			r.n = 0
			return line, nil
		}
		if r.n >= len(r.buf) {
			r.n = 0
			return nil, ErrBufferOverflow
		}
		r.buf[r.n] = b
		r.n++
	}
}
