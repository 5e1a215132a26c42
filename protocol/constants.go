package protocol

// CmdType identifies one command of the RN2xx3 vendor command set.
// Every command type maps to exactly one wire encoding and expects
// exactly one reply grammar.
type CmdType uint8

const (
	CmdNone CmdType = iota

	// sys commands
	CmdReset        // sys reset
	CmdFactoryReset // sys factoryRESET
	CmdHwEUI        // sys get hweui
	CmdVersion      // sys get ver
	CmdVdd          // sys get vdd
	CmdNvmGet       // sys get nvm <addr>
	CmdNvmSet       // sys set nvm <addr> <value>
	CmdSleep        // sys sleep <ms>

	// mac commands
	CmdSave           // mac save
	CmdSetDevAddr     // mac set devaddr <hex4>
	CmdGetDevAddr     // mac get devaddr
	CmdSetDevEUI      // mac set deveui <hex8>
	CmdGetDevEUI      // mac get deveui
	CmdSetAppEUI      // mac set appeui <hex8>
	CmdGetAppEUI      // mac get appeui
	CmdSetNwkSKey     // mac set nwkskey <hex16>
	CmdSetAppSKey     // mac set appskey <hex16>
	CmdSetAppKey      // mac set appkey <hex16>
	CmdSetADR         // mac set adr on|off
	CmdGetADR         // mac get adr
	CmdSetUpCounter   // mac set upctr <n>
	CmdGetUpCounter   // mac get upctr
	CmdSetDownCounter // mac set dnctr <n>
	CmdGetDownCounter // mac get dnctr
	CmdSetDataRate    // mac set dr <n>
	CmdGetDataRate    // mac get dr
	CmdJoin           // mac join otaa|abp
	CmdTransmit       // mac tx cnf|uncnf <port> <hexdata>

	// CmdProbe writes a single 'z'. No command ends with 'z' and 'z' is not
	// a hex character, so a module in any state answers invalid_param.
	// Used to verify that the module input buffer is empty.
	CmdProbe

	// CmdRaw sends caller-supplied text verbatim (plus terminator) and
	// returns the reply line as-is. Escape hatch for the parts of the
	// vendor command set without a typed operation yet.
	CmdRaw
)

// Status is a synchronous module reply token, preserved verbatim so callers
// can consult the module documentation.
type Status string

const (
	StatusOK                   Status = "ok"
	StatusInvalidParam         Status = "invalid_param"
	StatusKeysNotInit          Status = "keys_not_init"
	StatusNoFreeChannel        Status = "no_free_ch"
	StatusSilent               Status = "silent"
	StatusBusy                 Status = "busy"
	StatusMacPaused            Status = "mac_paused"
	StatusNotJoined            Status = "not_joined"
	StatusFrameCounterRollover Status = "frame_counter_err_rejoin_needed"
	StatusInvalidDataLength    Status = "invalid_data_len"
	StatusErr                  Status = "err"

	// StatusDenied and StatusMacErr arrive as the terminal event of the
	// two-phase join and tx exchanges. They are listed here because the
	// engine surfaces them verbatim as module-reported errors.
	StatusDenied Status = "denied"
	StatusMacErr Status = "mac_err"
)

// errorTokens are the reply lines classified as module-reported errors.
var errorTokens = []Status{
	StatusInvalidParam,
	StatusKeysNotInit,
	StatusNoFreeChannel,
	StatusSilent,
	StatusBusy,
	StatusMacPaused,
	StatusNotJoined,
	StatusFrameCounterRollover,
	StatusInvalidDataLength,
	StatusErr,
}

// EventKind identifies an asynchronous (unsolicited) module reply.
type EventKind uint8

const (
	EventNone         EventKind = iota
	EventJoinAccepted           // accepted
	EventJoinDenied             // denied
	EventTxOK                   // mac_tx_ok
	EventTxFailed               // mac_err
	EventDownlink               // mac_rx <port> <hexdata>
)

func (k EventKind) String() string {
	switch k {
	case EventJoinAccepted:
		return "accepted"
	case EventJoinDenied:
		return "denied"
	case EventTxOK:
		return "mac_tx_ok"
	case EventTxFailed:
		return "mac_err"
	case EventDownlink:
		return "mac_rx"
	default:
		return "none"
	}
}

// ReplyShape describes the reply grammar a command expects. The engine
// passes the shape of the outstanding command to Classify.
type ReplyShape uint8

const (
	// ShapeOK expects the bare "ok" token.
	ShapeOK ReplyShape = iota
	// ShapeText accepts any line as an opaque text value (version banners).
	ShapeText
	// ShapeHex expects a fixed-length hex string, two characters per byte.
	ShapeHex
	// ShapeDecimal expects an unsigned decimal integer.
	ShapeDecimal
	// ShapeOnOff expects the token "on" or "off".
	ShapeOnOff
	// ShapeNone expects no immediate reply (sys sleep).
	ShapeNone
	// ShapeTwoPhase expects "ok" followed by a terminal asynchronous event
	// (join and tx).
	ShapeTwoPhase
)

// Shape returns the reply grammar for the command type.
func (t CmdType) Shape() ReplyShape {
	switch t {
	case CmdReset, CmdFactoryReset, CmdVersion, CmdRaw:
		return ShapeText
	case CmdHwEUI, CmdGetDevAddr, CmdGetDevEUI, CmdGetAppEUI, CmdNvmGet:
		return ShapeHex
	case CmdVdd, CmdGetUpCounter, CmdGetDownCounter, CmdGetDataRate:
		return ShapeDecimal
	case CmdGetADR:
		return ShapeOnOff
	case CmdSleep:
		return ShapeNone
	case CmdJoin, CmdTransmit:
		return ShapeTwoPhase
	default:
		// CmdProbe is answered with invalid_param, which the classifier
		// reports as a module error; no value shape applies.
		return ShapeOK
	}
}

// HexLen returns the expected payload size in bytes for ShapeHex replies.
func (t CmdType) HexLen() int {
	switch t {
	case CmdHwEUI, CmdGetDevEUI, CmdGetAppEUI:
		return 8
	case CmdGetDevAddr:
		return 4
	case CmdNvmGet:
		return 1
	default:
		return 0
	}
}

// JoinMode selects the LoRaWAN activation procedure.
type JoinMode uint8

const (
	// JoinOTAA is over-the-air activation.
	JoinOTAA JoinMode = iota
	// JoinABP is activation by personalization.
	JoinABP
)

func (m JoinMode) wire() string {
	if m == JoinABP {
		return "abp"
	}
	return "otaa"
}

// ConfirmationMode selects whether an uplink requests a gateway confirmation.
type ConfirmationMode uint8

const (
	Unconfirmed ConfirmationMode = iota
	Confirmed
)

func (m ConfirmationMode) wire() string {
	if m == Confirmed {
		return "cnf"
	}
	return "uncnf"
}

// DataRate is the numeric LoRaWAN data rate index. The valid range depends
// on the module model and region.
type DataRate uint8

// Data rates for the RN2483 (EU 863-870, EU 433, CN 779-787 bands).
const (
	EuSf12Bw125 DataRate = 0
	EuSf11Bw125 DataRate = 1
	EuSf10Bw125 DataRate = 2
	EuSf9Bw125  DataRate = 3
	EuSf8Bw125  DataRate = 4
	EuSf7Bw125  DataRate = 5
	EuSf7Bw250  DataRate = 6
)

// Data rates for the RN2903 (US 902-928 band).
const (
	UsSf10Bw125 DataRate = 0
	UsSf9Bw125  DataRate = 1
	UsSf8Bw125  DataRate = 2
	UsSf7Bw125  DataRate = 3
	UsSf8Bw500  DataRate = 4
)

// Protocol constants.
const (
	// NvmFirst and NvmLast bound the user-accessible EEPROM range.
	NvmFirst = 0x300
	NvmLast  = 0x3ff

	// MinPort and MaxPort bound the LoRaWAN application port range.
	MinPort = 1
	MaxPort = 223

	// MinSleepMillis is the shortest sleep the module accepts.
	MinSleepMillis = 100

	// DevAddrLen, EUILen and KeyLen are the binary sizes of the hex-encoded
	// mac parameters.
	DevAddrLen = 4
	EUILen     = 8
	KeyLen     = 16
)
