// Package session owns the active server address and wires the health
// monitor, camera directory, and command dispatcher into one object that
// presentation reads snapshots from and forwards intents into.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"fleetdeck/internal/command"
	"fleetdeck/internal/directory"
	"fleetdeck/internal/health"
	"fleetdeck/internal/transport"
	"fleetdeck/pkg/models"
)

var (
	// ErrNoServer means no server address has been set yet.
	ErrNoServer = errors.New("no server address configured")
	// ErrUnknownCamera means the camera id is absent from the current
	// directory snapshot, usually a stale UI reference.
	ErrUnknownCamera = errors.New("unknown camera")
)

const DefaultStreamPort = 8889

// Options configures a Coordinator.
type Options struct {
	Client         *transport.Client
	HealthInterval time.Duration
	StreamPort     int
}

// Coordinator is the single source of truth for one fleet session.
// The address is mutated only here; the directory and monitor re-target
// whenever it changes, and results for a superseded address are dropped.
type Coordinator struct {
	monitor    *health.Monitor
	directory  *directory.Directory
	dispatcher *command.Dispatcher
	streamPort int

	mu   sync.RWMutex
	addr string
}

func New(opts Options) *Coordinator {
	if opts.StreamPort == 0 {
		opts.StreamPort = DefaultStreamPort
	}
	return &Coordinator{
		monitor:    health.New(opts.Client, opts.HealthInterval),
		directory:  directory.New(opts.Client),
		dispatcher: command.New(opts.Client),
		streamPort: opts.StreamPort,
	}
}

// Run drives the health probe loop until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.monitor.Run(ctx)
}

// Address returns the active server address, possibly empty.
func (c *Coordinator) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addr
}

// Health returns the current health snapshot.
func (c *Coordinator) Health() health.Status {
	return c.monitor.Status()
}

// Cameras returns the current directory snapshot, in discovery order.
func (c *Coordinator) Cameras() []models.Camera {
	return c.directory.Cameras()
}

// SetAddress re-targets the session. The monitor switches immediately,
// in-flight work for the old address is superseded, and a directory
// refresh for the new address starts in the background.
func (c *Coordinator) SetAddress(ctx context.Context, addr string) {
	c.mu.Lock()
	c.addr = addr
	c.mu.Unlock()

	c.monitor.SetAddress(addr)
	c.directory.Invalidate()

	if addr == "" {
		return
	}
	go func() {
		if err := c.directory.Refresh(ctx, addr); err != nil {
			klog.ErrorS(err, "Directory refresh after address change failed", "address", addr)
		}
	}()
}

// SetHealthChecks toggles periodic probing. With an empty address the
// status still reads unset regardless of the flag.
func (c *Coordinator) SetHealthChecks(enabled bool) {
	c.monitor.SetEnabled(enabled)
}

// Refresh re-runs camera discovery against the active address.
func (c *Coordinator) Refresh(ctx context.Context) error {
	addr := c.Address()
	if addr == "" {
		return ErrNoServer
	}
	return c.directory.Refresh(ctx, addr)
}

// Reconnect asks the server to re-attach its cameras, then refreshes.
func (c *Coordinator) Reconnect(ctx context.Context) error {
	addr := c.Address()
	if addr == "" {
		return ErrNoServer
	}
	return c.directory.Reconnect(ctx, addr)
}

// IssueCommand resolves cameraID against the current directory snapshot
// and sends one directional nudge to its control address. A camera id
// not present in the snapshot fails with ErrUnknownCamera before any
// network request. No lock is held during the send, so commands to
// different cameras never block each other.
func (c *Coordinator) IssueCommand(ctx context.Context, cameraID string, dir command.Direction) error {
	addr := c.Address()
	if addr == "" {
		return ErrNoServer
	}

	var target *models.Camera
	for _, cam := range c.directory.Cameras() {
		if cam.Hostname == cameraID {
			target = &cam
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCamera, cameraID)
	}

	return c.dispatcher.Send(ctx, addr, target.IP, dir)
}

// StreamURL builds the embeddable stream address for a camera. The
// stream content itself is opaque to this package.
func (c *Coordinator) StreamURL(cam models.Camera) string {
	addr := c.Address()
	if addr == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%d%s", addr, c.streamPort, cam.StreamPath)
}
