// Package logtail follows the fleet server's log channel over Redis
// pub/sub and delivers it line by line with terminal color codes
// stripped.
package logtail

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-redis/redis/v8"
	"k8s.io/klog/v2"
)

// ansiRE matches ANSI escape sequences embedded in log payloads.
var ansiRE = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// Config locates the server's Redis log channel.
type Config struct {
	Host     string
	Port     int
	Channel  string
	Username string
	Password string
}

// Tailer subscribes to the log channel and emits cleaned lines.
type Tailer struct {
	cfg   Config
	lines chan string
}

func New(cfg Config) *Tailer {
	return &Tailer{cfg: cfg, lines: make(chan string, 64)}
}

// Lines is the stream of cleaned log lines. It is closed when Run returns.
func (t *Tailer) Lines() <-chan string {
	return t.lines
}

// Run subscribes and pumps messages until ctx is cancelled or the
// subscription breaks.
func (t *Tailer) Run(ctx context.Context) error {
	defer close(t.lines)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port),
		Username: t.cfg.Username,
		Password: t.cfg.Password,
	})
	defer client.Close()

	sub := client.Subscribe(ctx, t.cfg.Channel)
	defer sub.Close()

	// Fail fast if the subscription could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %q: %w", t.cfg.Channel, err)
	}
	klog.InfoS("Subscribed to log channel", "addr", client.Options().Addr, "channel", t.cfg.Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			for _, line := range Clean(msg.Payload) {
				select {
				case t.lines <- line:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Clean strips ANSI escape sequences from a payload and splits it into
// trimmed, non-empty lines.
func Clean(payload string) []string {
	payload = ansiRE.ReplaceAllString(payload, "")
	var out []string
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
