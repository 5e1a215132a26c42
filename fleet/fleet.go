// Package fleet drives a group of LoRaWAN modules behind one uplink API.
// Each physical modem sits behind a single-slot resource pool, since the
// command protocol is strictly half-duplex, and behind a circuit breaker
// that takes a modem with a failing serial link out of rotation. Devices
// are assigned to modems by hashing their identifier, so a device always
// uses the same modem and keeps its frame counter state consistent.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/puddle/v2"
	"github.com/sony/gobreaker/v2"
	"github.com/zeebo/xxh3"

	"github.com/dbrgn/rn2xx3"
	"github.com/dbrgn/rn2xx3/protocol"
)

var ErrNoModems = errors.New("fleet: no modem openers configured")

// Opener constructs a ready-to-use driver for one physical modem. It is
// called lazily on first use and again after a modem is discarded because
// of a transport failure.
type Opener func(ctx context.Context) (*rn2xx3.Driver, error)

// Config holds fleet configuration. The zero value of the optional fields
// selects defaults.
type Config struct {
	// Openers lists the physical modems, one opener each.
	Openers []Opener

	// AcquireTimeout bounds the wait for a modem that is busy with another
	// exchange.
	AcquireTimeout time.Duration

	// BreakerFailureThreshold is the number of consecutive link failures
	// after which a modem is taken out of rotation.
	BreakerFailureThreshold uint32

	// BreakerOpenDuration is how long a tripped modem stays out of rotation
	// before a probe request is let through.
	BreakerOpenDuration time.Duration

	// Logger receives breaker state transitions. Optional.
	Logger rn2xx3.Logger
}

const (
	defaultAcquireTimeout          = 10 * time.Second
	defaultBreakerFailureThreshold = 5
	defaultBreakerOpenDuration     = 30 * time.Second
)

type modem struct {
	name    string
	pool    *puddle.Pool[*rn2xx3.Driver]
	breaker *gobreaker.CircuitBreaker[*rn2xx3.Downlink]
}

type Fleet struct {
	modems         []*modem
	acquireTimeout time.Duration
	log            rn2xx3.Logger
}

func New(cfg Config) (*Fleet, error) {
	if len(cfg.Openers) == 0 {
		return nil, ErrNoModems
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = defaultBreakerFailureThreshold
	}
	if cfg.BreakerOpenDuration <= 0 {
		cfg.BreakerOpenDuration = defaultBreakerOpenDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = rn2xx3.NopLogger()
	}

	f := &Fleet{acquireTimeout: cfg.AcquireTimeout, log: cfg.Logger}
	for i, open := range cfg.Openers {
		name := fmt.Sprintf("modem-%d", i)

		pool, err := puddle.NewPool(&puddle.Config[*rn2xx3.Driver]{
			Constructor: func(ctx context.Context) (*rn2xx3.Driver, error) {
				return open(ctx)
			},
			Destructor: func(d *rn2xx3.Driver) {
				d.Free()
			},
			// One slot: the module protocol allows one exchange at a time.
			MaxSize: 1,
		})
		if err != nil {
			return nil, err
		}

		breaker := gobreaker.NewCircuitBreaker[*rn2xx3.Downlink](gobreaker.Settings{
			Name:    name,
			Timeout: cfg.BreakerOpenDuration,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
			},
			IsSuccessful: func(err error) bool {
				// A module-reported error (not_joined, no_free_ch, ...)
				// means the link works fine; only link-level failures count
				// against the modem.
				var me *rn2xx3.ModuleError
				return err == nil || errors.As(err, &me)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				cfg.Logger.Warnf("fleet: breaker %s: %s -> %s", name, from, to)
			},
		})

		f.modems = append(f.modems, &modem{name: name, pool: pool, breaker: breaker})
	}
	return f, nil
}

// pick maps a device identifier to a modem index. The assignment is stable
// for a fixed fleet size.
func (f *Fleet) pick(device []byte) int {
	return int(xxh3.Hash(device) % uint64(len(f.modems)))
}

// Transmit sends an uplink for the given device through its assigned modem
// and returns the downlink delivered in the receive window, if any.
func (f *Fleet) Transmit(ctx context.Context, device []byte, mode protocol.ConfirmationMode, port uint8, payload []byte) (*rn2xx3.Downlink, error) {
	m := f.modems[f.pick(device)]

	ctx, cancel := context.WithTimeout(ctx, f.acquireTimeout)
	defer cancel()
	res, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	down, err := m.breaker.Execute(func() (*rn2xx3.Downlink, error) {
		return res.Value().Transmit(mode, port, payload)
	})
	f.settle(res, err)
	return down, err
}

// Do runs fn against the device's assigned modem while holding its pool
// slot. Escape hatch for per-device configuration (session keys, counters)
// that Transmit does not cover.
func (f *Fleet) Do(ctx context.Context, device []byte, fn func(*rn2xx3.Driver) error) error {
	m := f.modems[f.pick(device)]

	ctx, cancel := context.WithTimeout(ctx, f.acquireTimeout)
	defer cancel()
	res, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	err = fn(res.Value())
	f.settle(res, err)
	return err
}

// settle returns the driver to its pool, or discards it so the opener is
// called again when its serial link failed.
func (f *Fleet) settle(res *puddle.Resource[*rn2xx3.Driver], err error) {
	var te *rn2xx3.TransportError
	if errors.As(err, &te) {
		f.log.Warnf("fleet: discarding modem after transport failure: %v", err)
		res.Destroy()
		return
	}
	res.Release()
}

// ModemStats describes one modem's pool and breaker state.
type ModemStats struct {
	Name         string
	BreakerState gobreaker.State
	Acquires     int64
	OpenDrivers  int32
}

// Stats returns a per-modem snapshot.
func (f *Fleet) Stats() []ModemStats {
	out := make([]ModemStats, 0, len(f.modems))
	for _, m := range f.modems {
		s := m.pool.Stat()
		out = append(out, ModemStats{
			Name:         m.name,
			BreakerState: m.breaker.State(),
			Acquires:     s.AcquireCount(),
			OpenDrivers:  s.TotalResources(),
		})
	}
	return out
}

// Close releases every pooled driver. Outstanding acquisitions are waited
// for.
func (f *Fleet) Close() {
	for _, m := range f.modems {
		m.pool.Close()
	}
}
