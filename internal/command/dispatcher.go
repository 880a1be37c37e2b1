package command

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"k8s.io/klog/v2"
)

// Direction is one directional pan intent.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Step is the fixed nudge magnitude. One button press moves the camera by
// exactly one step on one axis.
const Step = 0.2

// ErrUnknownDirection rejects intents outside left/right/up/down.
var ErrUnknownDirection = fmt.Errorf("unknown direction")

// Sender is the slice of the transport client the dispatcher needs.
type Sender interface {
	Do(ctx context.Context, method, host, path string, query url.Values) ([]byte, error)
}

// Dispatcher turns directional intents into pan requests against the
// fleet server. It holds no shared mutable state, so commands to
// different cameras never serialize on each other.
type Dispatcher struct {
	client Sender
}

func New(client Sender) *Dispatcher {
	return &Dispatcher{client: client}
}

// Movement maps a direction onto the signed x/y nudge sent to the server.
// Convention: x grows rightward, y grows upward, so left is -x and down
// is -y.
func Movement(dir Direction) (x, y float64, err error) {
	switch dir {
	case Left:
		return -Step, 0, nil
	case Right:
		return Step, 0, nil
	case Up:
		return 0, Step, nil
	case Down:
		return 0, -Step, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
}

// Send issues one nudge to the camera at cameraIP via host. The call is
// synchronous; callers that want fire-and-forget run it on their own
// goroutine. Failures are returned and logged, never fatal.
func (d *Dispatcher) Send(ctx context.Context, host, cameraIP string, dir Direction) error {
	x, y, err := Movement(dir)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("ip", cameraIP)
	q.Set("x_movement", formatMovement(x))
	q.Set("y_movement", formatMovement(y))

	if _, err := d.client.Do(ctx, http.MethodPost, host, "/v1/camera", q); err != nil {
		klog.ErrorS(err, "Pan command failed", "camera", cameraIP, "direction", dir)
		return fmt.Errorf("pan %s: %w", dir, err)
	}
	return nil
}

// formatMovement renders a nudge value without trailing zeros, so a zero
// axis is "0" and a step is "0.2" on the wire.
func formatMovement(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
