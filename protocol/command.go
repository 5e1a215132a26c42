package protocol

// Command is one typed command for the module. The zero value is invalid;
// use the constructors below. Key and Payload are borrowed from the caller
// for the duration of the encode only.
type Command struct {
	Type CmdType

	Join      JoinMode
	Confirmed ConfirmationMode
	Port      uint8
	Payload   []byte // binary uplink payload, hex-encoded on the wire
	Key       []byte // binary key/EUI/address for mac set commands
	Rate      DataRate
	On        bool
	Addr      uint16 // NVM address
	Value     uint8  // NVM value
	Counter   uint32
	Millis    uint32
	Raw       string // CmdRaw text
}

func Reset() Command        { return Command{Type: CmdReset} }
func FactoryReset() Command { return Command{Type: CmdFactoryReset} }
func HwEUI() Command        { return Command{Type: CmdHwEUI} }
func Version() Command      { return Command{Type: CmdVersion} }
func Vdd() Command          { return Command{Type: CmdVdd} }
func Save() Command         { return Command{Type: CmdSave} }
func Probe() Command        { return Command{Type: CmdProbe} }

func NvmGet(addr uint16) Command {
	return Command{Type: CmdNvmGet, Addr: addr}
}

func NvmSet(addr uint16, value uint8) Command {
	return Command{Type: CmdNvmSet, Addr: addr, Value: value}
}

// Sleep puts the module to sleep for the given number of milliseconds.
// The module confirms the wakeup with a delayed "ok" line.
func Sleep(millis uint32) Command {
	return Command{Type: CmdSleep, Millis: millis}
}

func SetDevAddr(addr []byte) Command {
	return Command{Type: CmdSetDevAddr, Key: addr}
}

func GetDevAddr() Command { return Command{Type: CmdGetDevAddr} }

func SetDevEUI(eui []byte) Command {
	return Command{Type: CmdSetDevEUI, Key: eui}
}

func GetDevEUI() Command { return Command{Type: CmdGetDevEUI} }

func SetAppEUI(eui []byte) Command {
	return Command{Type: CmdSetAppEUI, Key: eui}
}

func GetAppEUI() Command { return Command{Type: CmdGetAppEUI} }

func SetNwkSKey(key []byte) Command {
	return Command{Type: CmdSetNwkSKey, Key: key}
}

func SetAppSKey(key []byte) Command {
	return Command{Type: CmdSetAppSKey, Key: key}
}

func SetAppKey(key []byte) Command {
	return Command{Type: CmdSetAppKey, Key: key}
}

func SetADR(enabled bool) Command {
	return Command{Type: CmdSetADR, On: enabled}
}

func GetADR() Command { return Command{Type: CmdGetADR} }

func SetUpCounter(n uint32) Command {
	return Command{Type: CmdSetUpCounter, Counter: n}
}

func GetUpCounter() Command { return Command{Type: CmdGetUpCounter} }

func SetDownCounter(n uint32) Command {
	return Command{Type: CmdSetDownCounter, Counter: n}
}

func GetDownCounter() Command { return Command{Type: CmdGetDownCounter} }

func SetDataRate(dr DataRate) Command {
	return Command{Type: CmdSetDataRate, Rate: dr}
}

func GetDataRate() Command { return Command{Type: CmdGetDataRate} }

func Join(mode JoinMode) Command {
	return Command{Type: CmdJoin, Join: mode}
}

// Transmit sends an uplink on the given port.
func Transmit(mode ConfirmationMode, port uint8, payload []byte) Command {
	return Command{Type: CmdTransmit, Confirmed: mode, Port: port, Payload: payload}
}

// Raw wraps arbitrary command text, terminator excluded.
func Raw(text string) Command {
	return Command{Type: CmdRaw, Raw: text}
}
