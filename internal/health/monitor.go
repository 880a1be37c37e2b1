package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"fleetdeck/internal/transport"
	"fleetdeck/pkg/models"
)

// State is the coarse health classification shown to the operator.
type State int

const (
	// StateUnset means no server address is configured. It wins over
	// StateDisabled.
	StateUnset State = iota
	// StateDisabled means the operator turned health checking off.
	StateDisabled
	// StateProbing means a probe for the current address has not
	// settled yet.
	StateProbing
	// StateOk means the last probe succeeded.
	StateOk
	// StateError means the last probe failed; Detail says why.
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateDisabled:
		return "disabled"
	case StateProbing:
		return "probing"
	case StateOk:
		return "ok"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Status is the monitor's externally visible value. Detail carries the
// server's message when Ok, or a human-readable cause when Error.
type Status struct {
	State  State
	Detail string
}

// Prober is the slice of the transport client the monitor needs.
type Prober interface {
	GetJSON(ctx context.Context, host, path string, query url.Values, out any) error
}

// Monitor probes {address}/health on a fixed cadence and folds every
// outcome into a Status. Probes are single-flight: the next tick is only
// armed after the previous probe settles. A probe whose result lands
// after the address or enabled flag changed is discarded.
type Monitor struct {
	client   Prober
	interval time.Duration

	mu      sync.Mutex
	addr    string
	enabled bool
	gen     uint64
	status  Status
}

func New(client Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		client:   client,
		interval: interval,
		enabled:  true,
		status:   Status{State: StateUnset},
	}
}

// Run drives the probe loop until ctx is cancelled. Failures are absorbed
// into the status; Run never returns an error.
func (m *Monitor) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		m.tick(ctx)
		timer.Reset(m.interval)
	}
}

// Status returns the current value.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetAddress re-targets the monitor. Any in-flight probe for the old
// address is superseded and its result dropped when it lands.
func (m *Monitor) SetAddress(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addr = addr
	m.gen++
	m.recomputeLocked()
}

// SetEnabled toggles health checking. An empty address still reads as
// unset regardless of the flag.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
	m.gen++
	m.recomputeLocked()
}

func (m *Monitor) recomputeLocked() {
	switch {
	case m.addr == "":
		m.status = Status{State: StateUnset}
	case !m.enabled:
		m.status = Status{State: StateDisabled}
	default:
		m.status = Status{State: StateProbing}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	m.mu.Lock()
	addr, enabled, gen := m.addr, m.enabled, m.gen
	m.mu.Unlock()

	if addr == "" {
		m.apply(gen, Status{State: StateUnset})
		return
	}
	if !enabled {
		m.apply(gen, Status{State: StateDisabled})
		return
	}

	var out models.HealthResponse
	err := m.client.GetJSON(ctx, addr, "/health", nil, &out)
	if err != nil {
		m.apply(gen, Status{State: StateError, Detail: detail(err)})
		return
	}
	m.apply(gen, Status{State: StateOk, Detail: out.Message})
}

// apply installs a probe outcome unless the target changed while the
// probe was in flight.
func (m *Monitor) apply(gen uint64, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.status = s
}

func detail(err error) string {
	switch {
	case errors.Is(err, transport.ErrTimeout):
		return "Timeout"
	case errors.Is(err, transport.ErrUnreachable):
		return "Unreachable"
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("HTTP %d", se.Code)
	}
	var de *transport.DecodeError
	if errors.As(err, &de) {
		return "Malformed response"
	}
	return err.Error()
}
