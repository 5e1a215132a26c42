package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrgn/rn2xx3"
	"github.com/dbrgn/rn2xx3/internal/transporttest"
	"github.com/dbrgn/rn2xx3/protocol"
)

func openerFor(tr *transporttest.Transport) Opener {
	return func(context.Context) (*rn2xx3.Driver, error) {
		return rn2xx3.NewRN2483(tr, rn2xx3.Config{MaxPolls: 1000}), nil
	}
}

func TestNewRequiresOpeners(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoModems)
}

func TestPickIsStableAndInRange(t *testing.T) {
	openers := make([]Opener, 3)
	for i := range openers {
		openers[i] = openerFor(transporttest.New())
	}
	f, err := New(Config{Openers: openers})
	require.NoError(t, err)
	defer f.Close()

	devices := [][]byte{
		{0x00, 0x04, 0xa3, 0x0b, 0x00, 0x1a, 0x55, 0xed},
		{0x00, 0x04, 0xa3, 0x0b, 0x00, 0x1c, 0x05, 0x30},
		{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00, 0x00, 0x01},
		{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00, 0x00, 0x02},
	}
	for _, dev := range devices {
		first := f.pick(dev)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 3)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, f.pick(dev))
		}
	}
}

func TestSingleModemGetsEverything(t *testing.T) {
	f, err := New(Config{Openers: []Opener{openerFor(transporttest.New())}})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 0, f.pick([]byte("any device at all")))
}

func TestTransmitThroughPool(t *testing.T) {
	tr := transporttest.New()
	tr.QueueRead("ok\r\n", "mac_tx_ok\r\n")

	f, err := New(Config{Openers: []Opener{openerFor(tr)}})
	require.NoError(t, err)
	defer f.Close()

	down, err := f.Transmit(context.Background(), []byte{1}, protocol.Unconfirmed, 42, []byte{0x23, 0xff})
	require.NoError(t, err)
	assert.Nil(t, down)
	assert.Equal(t, "mac tx uncnf 42 23ff\r\n", tr.Written.String())

	// The driver went back to the pool, not to the constructor.
	stats := f.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int32(1), stats[0].OpenDrivers)
	assert.Equal(t, int64(1), stats[0].Acquires)
}

func TestTransmitDeliversDownlink(t *testing.T) {
	tr := transporttest.New()
	tr.QueueRead("ok\r\n", "mac_rx 101 c0ffee\r\n")

	f, err := New(Config{Openers: []Opener{openerFor(tr)}})
	require.NoError(t, err)
	defer f.Close()

	down, err := f.Transmit(context.Background(), []byte{1}, protocol.Confirmed, 1, []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, down)
	assert.Equal(t, uint8(101), down.Port)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, down.Payload)
}

func TestModuleErrorDoesNotTripBreaker(t *testing.T) {
	tr := transporttest.New()
	f, err := New(Config{
		Openers:                 []Opener{openerFor(tr)},
		BreakerFailureThreshold: 2,
	})
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 5; i++ {
		tr.QueueRead("not_joined\r\n")
		_, err := f.Transmit(context.Background(), []byte{1}, protocol.Unconfirmed, 1, []byte{0x01})
		require.True(t, rn2xx3.IsModuleError(err, protocol.StatusNotJoined))
	}
	assert.Equal(t, gobreaker.StateClosed, f.Stats()[0].BreakerState)
}

func TestBreakerOpensOnLinkFailure(t *testing.T) {
	opens := 0
	opener := func(context.Context) (*rn2xx3.Driver, error) {
		opens++
		tr := transporttest.New()
		tr.ReadErr = errors.New("serial link gone")
		return rn2xx3.NewRN2483(tr, rn2xx3.Config{MaxPolls: 1000}), nil
	}

	f, err := New(Config{
		Openers:                 []Opener{opener},
		BreakerFailureThreshold: 2,
		BreakerOpenDuration:     time.Hour,
	})
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 2; i++ {
		_, err := f.Transmit(context.Background(), []byte{1}, protocol.Unconfirmed, 1, []byte{0x01})
		var te *rn2xx3.TransportError
		require.ErrorAs(t, err, &te)
	}
	assert.Equal(t, gobreaker.StateOpen, f.Stats()[0].BreakerState)

	// Each failure discarded the driver, so the opener ran once per attempt.
	assert.Equal(t, 2, opens)

	_, err = f.Transmit(context.Background(), []byte{1}, protocol.Unconfirmed, 1, []byte{0x01})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestDoHoldsModemSlot(t *testing.T) {
	tr := transporttest.New()
	tr.QueueRead("ok\r\n")

	f, err := New(Config{Openers: []Opener{openerFor(tr)}})
	require.NoError(t, err)
	defer f.Close()

	err = f.Do(context.Background(), []byte{1}, func(d *rn2xx3.Driver) error {
		return d.SetDataRate(protocol.EuSf9Bw125)
	})
	require.NoError(t, err)
	assert.Equal(t, "mac set dr 3\r\n", tr.Written.String())
}
