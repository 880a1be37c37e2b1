package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"k8s.io/klog/v2"

	"fleetdeck/pkg/models"
)

// Client is the slice of the transport client the directory needs.
type Client interface {
	Do(ctx context.Context, method, host, path string, query url.Values) ([]byte, error)
	GetJSON(ctx context.Context, host, path string, query url.Values, out any) error
}

// Directory holds the ordered camera list for the active server. The list
// is replaced wholesale on each successful refresh and left untouched on
// failure, so a reachable-then-unreachable server keeps showing its last
// known fleet. Refreshes are generation-tagged: a result that lands after
// Invalidate was called is dropped instead of installed.
type Directory struct {
	client Client

	mu      sync.RWMutex
	cameras []models.Camera
	gen     uint64
}

func New(client Client) *Directory {
	return &Directory{client: client}
}

// Cameras returns a copy of the current list, in discovery order.
func (d *Directory) Cameras() []models.Camera {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Camera, len(d.cameras))
	copy(out, d.cameras)
	return out
}

// Invalidate supersedes any in-flight refresh. Called when the server
// address changes so a late response for the old address cannot land.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
}

// Refresh fetches the camera list from host and atomically replaces the
// held sequence. An empty or missing list is a valid empty fleet, not an
// error. On any failure the previous sequence is kept as-is.
func (d *Directory) Refresh(ctx context.Context, host string) error {
	d.mu.RLock()
	gen := d.gen
	d.mu.RUnlock()

	var resp models.CameraListResponse
	if err := d.client.GetJSON(ctx, host, "/v1/cameras", nil, &resp); err != nil {
		return fmt.Errorf("list cameras: %w", err)
	}

	cameras := resp.Cameras
	if cameras == nil {
		cameras = []models.Camera{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		klog.V(2).InfoS("Dropping superseded camera list", "host", host)
		return nil
	}
	d.cameras = cameras
	return nil
}

// Reconnect asks the server to re-attach its cameras, then refreshes the
// list regardless of whether the reconnect call itself succeeded. A
// reconnect failure is reported alongside any refresh failure, but never
// blocks the follow-up refresh attempt.
func (d *Directory) Reconnect(ctx context.Context, host string) error {
	var reconnectErr error
	if _, err := d.client.Do(ctx, http.MethodPost, host, "/v1/cameras/reconnect", nil); err != nil {
		reconnectErr = fmt.Errorf("reconnect: %w", err)
		klog.ErrorS(err, "Reconnect request failed, refreshing anyway", "host", host)
	}
	return errors.Join(reconnectErr, d.Refresh(ctx, host))
}
