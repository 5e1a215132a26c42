package rn2xx3

// Transport is a non-blocking byte source/sink, typically a UART. Both
// methods must return immediately: when the peripheral has no byte to read
// or no room to write, they report ok=false instead of blocking.
//
// The driver takes exclusive ownership of the Transport at construction and
// returns it from Free. Implementations need not be safe for concurrent use.
type Transport interface {
	// TryReadByte returns the next available byte. ok is false when no byte
	// is currently available. A non-nil error indicates a byte-level I/O
	// failure.
	TryReadByte() (b byte, ok bool, err error)

	// TryWriteByte writes one byte. ok is false when the peripheral cannot
	// accept the byte right now. A non-nil error indicates a byte-level I/O
	// failure.
	TryWriteByte(b byte) (ok bool, err error)
}
