package protocol

import "errors"

var (
	// ErrOverflow is returned when a rendered command would not fit the
	// caller-provided buffer.
	ErrOverflow = errors.New("rn2xx3: command exceeds encode buffer")

	// ErrBadParameter is returned for argument values the module would
	// reject, detected before any bytes are written.
	ErrBadParameter = errors.New("rn2xx3: bad parameter")
)

const hexDigits = "0123456789abcdef"

// Encode renders the command into dst, terminator included, and returns the
// number of bytes written. It is pure and performs no allocation: arguments
// are validated, then the ASCII wire form is written directly into dst.
func Encode(dst []byte, cmd Command) (int, error) {
	if err := validate(cmd); err != nil {
		return 0, err
	}

	e := encoder{dst: dst}
	switch cmd.Type {
	case CmdReset:
		e.str("sys reset")
	case CmdFactoryReset:
		e.str("sys factoryRESET")
	case CmdHwEUI:
		e.str("sys get hweui")
	case CmdVersion:
		e.str("sys get ver")
	case CmdVdd:
		e.str("sys get vdd")
	case CmdNvmGet:
		e.str("sys get nvm ")
		e.hexUint(uint64(cmd.Addr))
	case CmdNvmSet:
		e.str("sys set nvm ")
		e.hexUint(uint64(cmd.Addr))
		e.str(" ")
		e.hexBytes([]byte{cmd.Value})
	case CmdSleep:
		e.str("sys sleep ")
		e.dec(uint64(cmd.Millis))
	case CmdSave:
		e.str("mac save")
	case CmdSetDevAddr:
		e.str("mac set devaddr ")
		e.hexBytes(cmd.Key)
	case CmdGetDevAddr:
		e.str("mac get devaddr")
	case CmdSetDevEUI:
		e.str("mac set deveui ")
		e.hexBytes(cmd.Key)
	case CmdGetDevEUI:
		e.str("mac get deveui")
	case CmdSetAppEUI:
		e.str("mac set appeui ")
		e.hexBytes(cmd.Key)
	case CmdGetAppEUI:
		e.str("mac get appeui")
	case CmdSetNwkSKey:
		e.str("mac set nwkskey ")
		e.hexBytes(cmd.Key)
	case CmdSetAppSKey:
		e.str("mac set appskey ")
		e.hexBytes(cmd.Key)
	case CmdSetAppKey:
		e.str("mac set appkey ")
		e.hexBytes(cmd.Key)
	case CmdSetADR:
		if cmd.On {
			e.str("mac set adr on")
		} else {
			e.str("mac set adr off")
		}
	case CmdGetADR:
		e.str("mac get adr")
	case CmdSetUpCounter:
		e.str("mac set upctr ")
		e.dec(uint64(cmd.Counter))
	case CmdGetUpCounter:
		e.str("mac get upctr")
	case CmdSetDownCounter:
		e.str("mac set dnctr ")
		e.dec(uint64(cmd.Counter))
	case CmdGetDownCounter:
		e.str("mac get dnctr")
	case CmdSetDataRate:
		e.str("mac set dr ")
		e.dec(uint64(cmd.Rate))
	case CmdGetDataRate:
		e.str("mac get dr")
	case CmdJoin:
		e.str("mac join ")
		e.str(cmd.Join.wire())
	case CmdTransmit:
		e.str("mac tx ")
		e.str(cmd.Confirmed.wire())
		e.str(" ")
		e.dec(uint64(cmd.Port))
		e.str(" ")
		e.hexBytes(cmd.Payload)
	case CmdProbe:
		e.str("z")
	case CmdRaw:
		e.str(cmd.Raw)
	default:
		return 0, ErrBadParameter
	}
	e.str("\r\n")

	if e.overflow {
		return 0, ErrOverflow
	}
	return e.n, nil
}

func validate(cmd Command) error {
	switch cmd.Type {
	case CmdNvmGet, CmdNvmSet:
		if cmd.Addr < NvmFirst || cmd.Addr > NvmLast {
			return ErrBadParameter
		}
	case CmdSleep:
		if cmd.Millis < MinSleepMillis {
			return ErrBadParameter
		}
	case CmdSetDevAddr:
		if len(cmd.Key) != DevAddrLen {
			return ErrBadParameter
		}
	case CmdSetDevEUI, CmdSetAppEUI:
		if len(cmd.Key) != EUILen {
			return ErrBadParameter
		}
	case CmdSetNwkSKey, CmdSetAppSKey, CmdSetAppKey:
		if len(cmd.Key) != KeyLen {
			return ErrBadParameter
		}
	case CmdTransmit:
		if cmd.Port < MinPort || cmd.Port > MaxPort {
			return ErrBadParameter
		}
	}
	return nil
}

// encoder writes into a fixed buffer, remembering overflow instead of
// growing. The final length is only valid when overflow is false.
type encoder struct {
	dst      []byte
	n        int
	overflow bool
}

func (e *encoder) byte(b byte) {
	if e.n >= len(e.dst) {
		e.overflow = true
		return
	}
	e.dst[e.n] = b
	e.n++
}

func (e *encoder) str(s string) {
	for i := 0; i < len(s); i++ {
		e.byte(s[i])
	}
}

// hexBytes writes the lowercase hex form, two characters per byte.
func (e *encoder) hexBytes(p []byte) {
	for _, b := range p {
		e.byte(hexDigits[b>>4])
		e.byte(hexDigits[b&0x0f])
	}
}

// hexUint writes v in lowercase hex without leading zeros.
func (e *encoder) hexUint(v uint64) {
	var buf [16]byte
	i := len(buf)
	for {
		i--
		buf[i] = hexDigits[v&0x0f]
		v >>= 4
		if v == 0 {
			break
		}
	}
	for ; i < len(buf); i++ {
		e.byte(buf[i])
	}
}

// dec writes v in decimal.
func (e *encoder) dec(v uint64) {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	for ; i < len(buf); i++ {
		e.byte(buf[i])
	}
}
