package protocol

import "bytes"

// ReplyKind tags a classified reply line. Exactly one tag applies to any
// given line.
type ReplyKind uint8

const (
	// ReplyMalformed covers every line that matches no known grammar.
	ReplyMalformed ReplyKind = iota
	// ReplyOK is the bare "ok" acknowledgement.
	ReplyOK
	// ReplyValue is an acknowledgement carrying data, typed per the
	// outstanding command's shape.
	ReplyValue
	// ReplyError is a module-reported error token.
	ReplyError
	// ReplyEvent is an asynchronous event line.
	ReplyEvent
)

// Reply is the result of classifying one raw line. Value aliases the input
// line and must be consumed before the line buffer is reused.
type Reply struct {
	Kind   ReplyKind
	Status Status    // set for ReplyError, verbatim module token
	Event  EventKind // set for ReplyEvent
	Port   uint8     // set for EventDownlink
	Value  []byte    // set for ReplyValue; hex payload for EventDownlink
}

// Classify maps a raw reply line to exactly one Reply. The outstanding
// command type supplies the expected value grammar; pass CmdNone when no
// command is outstanding. Classification is total: every input yields a
// Reply, Malformed at worst.
func Classify(line []byte, cmd CmdType) Reply {
	if len(line) == 0 {
		return Reply{Kind: ReplyMalformed}
	}

	shape := cmd.Shape()

	if string(line) == string(StatusOK) && shape != ShapeText {
		return Reply{Kind: ReplyOK}
	}

	for _, tok := range errorTokens {
		if string(line) == string(tok) {
			return Reply{Kind: ReplyError, Status: tok}
		}
	}

	switch {
	case string(line) == "accepted":
		return Reply{Kind: ReplyEvent, Event: EventJoinAccepted}
	case string(line) == "denied":
		return Reply{Kind: ReplyEvent, Event: EventJoinDenied}
	case string(line) == "mac_tx_ok":
		return Reply{Kind: ReplyEvent, Event: EventTxOK}
	case string(line) == "mac_err":
		return Reply{Kind: ReplyEvent, Event: EventTxFailed}
	case bytes.HasPrefix(line, []byte("mac_rx ")):
		return classifyDownlink(line)
	}

	switch shape {
	case ShapeText:
		return Reply{Kind: ReplyValue, Value: line}
	case ShapeHex:
		if len(line) == 2*cmd.HexLen() && isHex(line) {
			return Reply{Kind: ReplyValue, Value: line}
		}
	case ShapeDecimal:
		if isDecimal(line) {
			return Reply{Kind: ReplyValue, Value: line}
		}
	case ShapeOnOff:
		if string(line) == "on" || string(line) == "off" {
			return Reply{Kind: ReplyValue, Value: line}
		}
	}

	return Reply{Kind: ReplyMalformed}
}

// classifyDownlink parses "mac_rx <port> <hexdata>".
func classifyDownlink(line []byte) Reply {
	rest := line[len("mac_rx "):]
	sp := bytes.IndexByte(rest, ' ')
	if sp <= 0 {
		return Reply{Kind: ReplyMalformed}
	}
	portField, data := rest[:sp], rest[sp+1:]

	if !isDecimal(portField) || len(portField) > 3 {
		return Reply{Kind: ReplyMalformed}
	}
	port := 0
	for _, c := range portField {
		port = port*10 + int(c-'0')
	}
	if port < MinPort || port > MaxPort {
		return Reply{Kind: ReplyMalformed}
	}

	if len(data) == 0 || len(data)%2 != 0 || !isHex(data) {
		return Reply{Kind: ReplyMalformed}
	}

	return Reply{Kind: ReplyEvent, Event: EventDownlink, Port: uint8(port), Value: data}
}

func isDecimal(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHex(p []byte) bool {
	for _, c := range p {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
