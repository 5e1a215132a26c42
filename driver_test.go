package rn2xx3

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrgn/rn2xx3/internal/transporttest"
	"github.com/dbrgn/rn2xx3/protocol"
)

func newTestDriver(t *testing.T) (*Driver, *transporttest.Transport) {
	t.Helper()
	tr := transporttest.New()
	return NewRN2483(tr, Config{MaxPolls: 1000}), tr
}

func TestHardwareEUI(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("0004A30B001C0530\r\n")

	eui, err := d.HardwareEUI()
	require.NoError(t, err)
	assert.Equal(t, [8]byte{0x00, 0x04, 0xa3, 0x0b, 0x00, 0x1c, 0x05, 0x30}, eui)
	assert.Equal(t, "sys get hweui\r\n", tr.Written.String())
}

func TestReplyArrivingInChunks(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("337", "2", "\r", "\n")

	vdd, err := d.Vdd()
	require.NoError(t, err)
	assert.Equal(t, uint16(3372), vdd)
}

func TestWriteBackpressure(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.WriteBlocks = 5
	tr.QueueRead("ok\r\n")

	require.NoError(t, d.Save())
	assert.Equal(t, "mac save\r\n", tr.Written.String())
}

func TestModuleErrorIsVerbatim(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("invalid_param\r\n")

	err := d.SetDataRate(3)
	require.Error(t, err)
	assert.True(t, IsModuleError(err, protocol.StatusInvalidParam))
	assert.Contains(t, err.Error(), "invalid_param")

	// The driver is idle again and usable.
	tr.QueueRead("ok\r\n")
	assert.NoError(t, d.SetDataRate(3))
}

func TestBusyRejection(t *testing.T) {
	d, tr := newTestDriver(t)

	require.NoError(t, d.Begin(protocol.Version()))
	assert.True(t, d.InFlight())

	// A second command is rejected, not queued.
	assert.ErrorIs(t, d.Begin(protocol.Save()), ErrBusy)
	_, err := d.Vdd()
	assert.ErrorIs(t, err, ErrBusy)

	tr.QueueRead("RN2483 1.0.1 Dec 15 2015 09:38:09\r\n")
	for {
		rep, done, err := d.Poll()
		if done {
			require.NoError(t, err)
			assert.Equal(t, "RN2483 1.0.1 Dec 15 2015 09:38:09", string(rep.Value))
			break
		}
	}
	assert.False(t, d.InFlight())
}

func TestPollWithoutCommand(t *testing.T) {
	d, _ := newTestDriver(t)
	_, done, err := d.Poll()
	assert.True(t, done)
	assert.ErrorIs(t, err, ErrIdle)
}

func TestTimeoutLeavesDriverUsable(t *testing.T) {
	tr := transporttest.New()
	d := NewRN2483(tr, Config{MaxPolls: 16})

	_, err := d.Version()
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, d.InFlight())

	tr.QueueRead("ok\r\n")
	assert.NoError(t, d.Save())
}

func TestOverflowRecovery(t *testing.T) {
	tr := transporttest.New()
	d := NewRN2483(tr, Config{MaxPolls: 1000, ReadBufferSize: 8})

	tr.QueueRead("this line is far too long for the buffer\r\n")
	_, err := d.Version()
	require.ErrorIs(t, err, ErrBufferOverflow)
	assert.False(t, d.InFlight())

	// EnsureKnownState discards the tail of the oversized line.
	tr.QueueRead("invalid_param\r\n")
	require.NoError(t, d.EnsureKnownState())

	tr.QueueRead("ok\r\n")
	assert.NoError(t, d.Save())
}

func TestTransportErrorDuringWrite(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.WriteErr = errors.New("broken pipe")

	err := d.Save()
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "write", te.Op)
	assert.False(t, d.InFlight())
}

func TestJoinAccepted(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "accepted\r\n")

	require.NoError(t, d.Join(protocol.JoinOTAA))
	assert.Equal(t, "mac join otaa\r\n", tr.Written.String())
}

func TestJoinDenied(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "denied\r\n")

	err := d.Join(protocol.JoinOTAA)
	assert.True(t, IsModuleError(err, protocol.StatusDenied))
	assert.False(t, d.InFlight())
}

func TestJoinRejectedImmediately(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("keys_not_init\r\n")

	err := d.Join(protocol.JoinOTAA)
	assert.True(t, IsModuleError(err, protocol.StatusKeysNotInit))
}

func TestTransmitWithoutDownlink(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "mac_tx_ok\r\n")

	down, err := d.Transmit(protocol.Unconfirmed, 42, []byte{0x23, 0xff})
	require.NoError(t, err)
	assert.Nil(t, down)
	assert.Equal(t, "mac tx uncnf 42 23ff\r\n", tr.Written.String())
}

func TestTransmitWithDownlink(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "mac_rx 101 000102feff\r\n")

	down, err := d.Transmit(protocol.Confirmed, 1, []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, down)
	assert.Equal(t, uint8(101), down.Port)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xfe, 0xff}, down.Payload)
}

func TestTransmitFailed(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "mac_err\r\n")

	_, err := d.Transmit(protocol.Unconfirmed, 1, []byte{0x01})
	assert.True(t, IsModuleError(err, protocol.StatusMacErr))
}

func TestSleepAndWakeup(t *testing.T) {
	d, tr := newTestDriver(t)

	require.NoError(t, d.Sleep(150*time.Millisecond))
	assert.Equal(t, "sys sleep 150\r\n", tr.Written.String())

	// Every command is rejected until the wakeup "ok" is consumed.
	_, err := d.Version()
	assert.ErrorIs(t, err, ErrAsleep)

	tr.QueueRead("ok\r\n")
	require.NoError(t, d.WaitWakeup(false))

	tr.QueueRead("3372\r\n")
	vdd, err := d.Vdd()
	require.NoError(t, err)
	assert.Equal(t, uint16(3372), vdd)
}

func TestSleepValidation(t *testing.T) {
	d, _ := newTestDriver(t)
	assert.ErrorIs(t, d.Sleep(50*time.Millisecond), ErrBadParameter)
	assert.ErrorIs(t, d.Sleep(0), ErrBadParameter)
}

func TestWaitWakeupWithoutSleepIsNoop(t *testing.T) {
	d, tr := newTestDriver(t)
	require.NoError(t, d.WaitWakeup(false))
	assert.Zero(t, tr.Written.Len())
}

func TestDataRateBounds(t *testing.T) {
	tr := transporttest.New()
	d := NewRN2483(tr, Config{MaxPolls: 1000})

	assert.ErrorIs(t, d.SetDataRate(7), ErrBadParameter)
	assert.Zero(t, tr.Written.Len())

	tr903 := transporttest.New()
	d903 := NewRN2903(tr903, Config{MaxPolls: 1000})
	assert.ErrorIs(t, d903.SetDataRate(5), ErrBadParameter)

	tr903.QueueRead("ok\r\n")
	assert.NoError(t, d903.SetDataRate(protocol.UsSf8Bw500))
}

func TestNvmRoundTrip(t *testing.T) {
	d, tr := newTestDriver(t)

	tr.QueueRead("ok\r\n")
	require.NoError(t, d.NvmSet(0x3ab, 0x2a))

	tr.QueueRead("2a\r\n")
	val, err := d.NvmGet(0x3ab)
	require.NoError(t, err)
	assert.Equal(t, byte(0x2a), val)

	assert.Equal(t, "sys set nvm 3ab 2a\r\nsys get nvm 3ab\r\n", tr.Written.String())
	assert.ErrorIs(t, d.NvmSet(0x2ff, 0), ErrBadParameter)
}

func TestDetectModel(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("RN2483 1.0.1 Dec 15 2015 09:38:09\r\n")

	model, err := d.DetectModel()
	require.NoError(t, err)
	assert.Equal(t, ModelRN2483, model)

	tr.QueueRead("GARBAGE\r\n")
	_, err = d.DetectModel()
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestEnsureKnownState(t *testing.T) {
	d, tr := newTestDriver(t)

	// Stale bytes from before a host reset, then the probe reply.
	tr.QueueRead("\x00\x13stale garbage")
	tr.QueueRead("invalid_param\r\n")

	require.NoError(t, d.EnsureKnownState())
	assert.Equal(t, "z\r\n", tr.Written.String())
}

func TestEnsureKnownStateGivesUp(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.QueueRead("ok\r\n", "ok\r\n", "ok\r\n")

	assert.ErrorIs(t, d.EnsureKnownState(), ErrInvalidState)
	assert.Equal(t, "z\r\nz\r\nz\r\n", tr.Written.String())
}

func TestFreeReturnsTransport(t *testing.T) {
	tr := transporttest.New()
	d := NewRN2483(tr, Config{MaxPolls: 1000})

	got := d.Free()
	assert.Same(t, tr, got.(*transporttest.Transport))

	_, err := d.Version()
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = d.Poll()
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = d.PollEvents()
	assert.ErrorIs(t, err, ErrClosed)

	// The transport is immediately reusable by a fresh driver.
	tr.QueueRead("ok\r\n")
	d2 := NewRN2483(tr, Config{MaxPolls: 1000})
	assert.NoError(t, d2.Save())
}

func TestStats(t *testing.T) {
	d, tr := newTestDriver(t)

	tr.QueueRead("ok\r\n")
	require.NoError(t, d.Save())
	tr.QueueRead("not_joined\r\n")
	_, err := d.Transmit(protocol.Unconfirmed, 1, []byte{0x01})
	require.Error(t, err)

	s := d.Stats()
	assert.Equal(t, uint64(2), s.Commands)
	assert.Equal(t, uint64(1), s.ModuleErrors)
	assert.Zero(t, s.Timeouts)
}
