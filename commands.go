package rn2xx3

import (
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dbrgn/rn2xx3/protocol"
)

// Downlink is a frame received from the network in the receive window of an
// uplink.
type Downlink struct {
	Port    uint8
	Payload []byte
}

// Reset restarts the module and returns the version banner.
func (d *Driver) Reset() (string, error) {
	return d.textCommand(protocol.Reset())
}

// FactoryReset restores the module configuration and user EEPROM to factory
// defaults, restarts it, and returns the version banner.
func (d *Driver) FactoryReset() (string, error) {
	return d.textCommand(protocol.FactoryReset())
}

// HardwareEUI returns the preprogrammed EUI node address.
func (d *Driver) HardwareEUI() ([8]byte, error) {
	var eui [8]byte
	err := d.hexCommand(protocol.HwEUI(), eui[:])
	return eui, err
}

// Version returns the module version banner.
func (d *Driver) Version() (string, error) {
	return d.textCommand(protocol.Version())
}

// DetectModel queries the version banner and derives the module model.
func (d *Driver) DetectModel() (Model, error) {
	version, err := d.Version()
	if err != nil {
		return 0, err
	}
	switch {
	case strings.HasPrefix(version, "RN2483"):
		return ModelRN2483, nil
	case strings.HasPrefix(version, "RN2903"):
		return ModelRN2903, nil
	default:
		return 0, ErrUnexpectedReply
	}
}

// Vdd measures the supply voltage in millivolts.
func (d *Driver) Vdd() (uint16, error) {
	n, err := d.decimalCommand(protocol.Vdd(), 16)
	return uint16(n), err
}

// NvmGet reads the user EEPROM byte at addr (0x300-0x3FF).
func (d *Driver) NvmGet(addr uint16) (byte, error) {
	var val [1]byte
	err := d.hexCommand(protocol.NvmGet(addr), val[:])
	return val[0], err
}

// NvmSet writes the user EEPROM byte at addr (0x300-0x3FF).
func (d *Driver) NvmSet(addr uint16, value byte) error {
	return d.okCommand(protocol.NvmSet(addr, value))
}

// Sleep puts the module to sleep for the given duration (100ms minimum,
// millisecond precision). The command completes as soon as it is sent; the
// module confirms the wakeup with a delayed "ok" line, so every further
// command fails with ErrAsleep until WaitWakeup has consumed it.
func (d *Driver) Sleep(dur time.Duration) error {
	millis := dur.Milliseconds()
	if millis < protocol.MinSleepMillis || millis > math.MaxUint32 {
		return ErrBadParameter
	}
	_, err := d.exchange(protocol.Sleep(uint32(millis)))
	return err
}

// WaitWakeup polls for the "ok" line the module sends when it wakes up and
// clears the sleep state. Without force it returns immediately when no sleep
// is in progress; pass force for a freshly constructed driver whose module
// may still be asleep.
//
// Any reply line clears the sleep state: a module that answers at all is
// not asleep anymore, even if the answer is unexpected.
func (d *Driver) WaitWakeup(force bool) error {
	if d.closed {
		return ErrClosed
	}
	if d.st != stateIdle {
		return ErrBusy
	}
	if !force && !d.asleep {
		return nil
	}

	for polls := 0; polls < d.maxPolls; polls++ {
		line, err := d.reader.pollLine(d.transport)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}
		d.log.Debugf("received reply: %q", line)
		d.asleep = false
		if string(line) == string(protocol.StatusOK) {
			return nil
		}
		d.stats.recordUnexpectedReply()
		return ErrUnexpectedReply
	}
	d.stats.recordTimeout()
	return ErrTimeout
}

// Save persists the LoRaWAN configuration parameters to user EEPROM.
func (d *Driver) Save() error {
	return d.okCommand(protocol.Save())
}

// SetDevAddr sets the unique network device address.
func (d *Driver) SetDevAddr(addr [4]byte) error {
	return d.okCommand(protocol.SetDevAddr(addr[:]))
}

// DevAddr returns the configured network device address.
func (d *Driver) DevAddr() ([4]byte, error) {
	var addr [4]byte
	err := d.hexCommand(protocol.GetDevAddr(), addr[:])
	return addr, err
}

// SetDevEUI sets the globally unique device identifier.
func (d *Driver) SetDevEUI(eui [8]byte) error {
	return d.okCommand(protocol.SetDevEUI(eui[:]))
}

// DevEUI returns the configured device identifier.
func (d *Driver) DevEUI() ([8]byte, error) {
	var eui [8]byte
	err := d.hexCommand(protocol.GetDevEUI(), eui[:])
	return eui, err
}

// SetAppEUI sets the globally unique application identifier.
func (d *Driver) SetAppEUI(eui [8]byte) error {
	return d.okCommand(protocol.SetAppEUI(eui[:]))
}

// AppEUI returns the configured application identifier.
func (d *Driver) AppEUI() ([8]byte, error) {
	var eui [8]byte
	err := d.hexCommand(protocol.GetAppEUI(), eui[:])
	return eui, err
}

// SetNwkSKey sets the network session key (ABP).
func (d *Driver) SetNwkSKey(key [16]byte) error {
	return d.okCommand(protocol.SetNwkSKey(key[:]))
}

// SetAppSKey sets the application session key (ABP).
func (d *Driver) SetAppSKey(key [16]byte) error {
	return d.okCommand(protocol.SetAppSKey(key[:]))
}

// SetAppKey sets the application key (OTAA).
func (d *Driver) SetAppKey(key [16]byte) error {
	return d.okCommand(protocol.SetAppKey(key[:]))
}

// SetADR enables or disables the adaptive data rate mechanism.
func (d *Driver) SetADR(enabled bool) error {
	return d.okCommand(protocol.SetADR(enabled))
}

// ADR reports whether the adaptive data rate mechanism is enabled.
func (d *Driver) ADR() (bool, error) {
	rep, err := d.exchange(protocol.GetADR())
	if err != nil {
		return false, err
	}
	return string(rep.Value) == "on", nil
}

// SetUpCounter sets the uplink frame counter.
func (d *Driver) SetUpCounter(n uint32) error {
	return d.okCommand(protocol.SetUpCounter(n))
}

// UpCounter returns the uplink frame counter.
func (d *Driver) UpCounter() (uint32, error) {
	n, err := d.decimalCommand(protocol.GetUpCounter(), 32)
	return uint32(n), err
}

// SetDownCounter sets the downlink frame counter.
func (d *Driver) SetDownCounter(n uint32) error {
	return d.okCommand(protocol.SetDownCounter(n))
}

// DownCounter returns the downlink frame counter.
func (d *Driver) DownCounter() (uint32, error) {
	n, err := d.decimalCommand(protocol.GetDownCounter(), 32)
	return uint32(n), err
}

// SetDataRate sets the data rate for the following transmissions. The valid
// range depends on the module model.
func (d *Driver) SetDataRate(dr protocol.DataRate) error {
	if dr > d.maxRate {
		return ErrBadParameter
	}
	return d.okCommand(protocol.SetDataRate(dr))
}

// DataRate returns the currently configured data rate.
func (d *Driver) DataRate() (protocol.DataRate, error) {
	n, err := d.decimalCommand(protocol.GetDataRate(), 8)
	return protocol.DataRate(n), err
}

// Join runs the network join procedure. The module acknowledges the command
// immediately and reports the outcome in a later asynchronous event; both
// phases are handled here. A rejected join surfaces as a ModuleError with
// code "denied".
func (d *Driver) Join(mode protocol.JoinMode) error {
	rep, err := d.exchange(protocol.Join(mode))
	if err != nil {
		return err
	}
	if rep.Event != protocol.EventJoinAccepted {
		return ErrUnexpectedReply
	}
	return nil
}

// Transmit sends an uplink on the given port (1-223). Like join, the
// exchange is two-phase: an immediate acknowledgement, then a terminal
// event. When the network delivered a downlink in the receive window, it is
// returned.
func (d *Driver) Transmit(mode protocol.ConfirmationMode, port uint8, payload []byte) (*Downlink, error) {
	rep, err := d.exchange(protocol.Transmit(mode, port, payload))
	if err != nil {
		return nil, err
	}
	switch rep.Event {
	case protocol.EventTxOK:
		return nil, nil
	case protocol.EventDownlink:
		data, derr := hex.DecodeString(string(rep.Value))
		if derr != nil {
			return nil, ErrUnexpectedReply
		}
		return &Downlink{Port: rep.Port, Payload: data}, nil
	default:
		return nil, ErrUnexpectedReply
	}
}

// RawCommand sends arbitrary command text (terminator excluded) and returns
// the reply line. Escape hatch for the parts of the vendor command set
// without a typed operation.
func (d *Driver) RawCommand(text string) (string, error) {
	return d.textCommand(protocol.Raw(text))
}

// EnsureKnownState discards buffered input and verifies that the module
// reacts sanely: it writes a probe no command set accepts and expects
// invalid_param back, retrying up to three times.
func (d *Driver) EnsureKnownState() error {
	if d.closed {
		return ErrClosed
	}
	if d.st != stateIdle {
		return ErrBusy
	}

	for {
		_, ok, err := d.transport.TryReadByte()
		if err != nil {
			d.stats.recordTransportError()
			return &TransportError{Op: "read", Err: err}
		}
		if !ok {
			break
		}
	}
	d.reader.reset()

	for attempt := 0; attempt < 3; attempt++ {
		_, err := d.exchange(protocol.Probe())
		if IsModuleError(err, protocol.StatusInvalidParam) {
			return nil
		}
		var te *TransportError
		if errors.Is(err, ErrTimeout) || errors.As(err, &te) {
			return err
		}
		d.log.Debugf("probe attempt %d: module not in known state", attempt+1)
	}
	return ErrInvalidState
}

func (d *Driver) okCommand(cmd protocol.Command) error {
	_, err := d.exchange(cmd)
	return err
}

func (d *Driver) textCommand(cmd protocol.Command) (string, error) {
	rep, err := d.exchange(cmd)
	if err != nil {
		return "", err
	}
	return string(rep.Value), nil
}

func (d *Driver) hexCommand(cmd protocol.Command, dst []byte) error {
	rep, err := d.exchange(cmd)
	if err != nil {
		return err
	}
	if _, err := hex.Decode(dst, rep.Value); err != nil {
		return ErrUnexpectedReply
	}
	return nil
}

func (d *Driver) decimalCommand(cmd protocol.Command, bits int) (uint64, error) {
	rep, err := d.exchange(cmd)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(string(rep.Value), 10, bits)
	if perr != nil {
		return 0, ErrUnexpectedReply
	}
	return n, nil
}
