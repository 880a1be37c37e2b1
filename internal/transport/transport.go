package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sentinel failures for requests that never produced an HTTP response.
var (
	ErrTimeout     = errors.New("request timed out")
	ErrUnreachable = errors.New("server unreachable")
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Code)
}

// DecodeError reports a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Config carries the fixed credential and bounds applied to every request.
type Config struct {
	Username    string
	Password    string
	ControlPort int
	Timeout     time.Duration
}

const (
	DefaultControlPort = 8000
	DefaultTimeout     = 5 * time.Second
)

// Client issues control-plane requests to whichever host the caller
// targets. The credential, port, and timeout are fixed at construction;
// the host varies per call so an address change never races client state.
type Client struct {
	http *resty.Client
	port int
}

func New(cfg Config) *Client {
	if cfg.ControlPort == 0 {
		cfg.ControlPort = DefaultControlPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	r := resty.New()
	r.SetTimeout(cfg.Timeout)
	r.SetBasicAuth(cfg.Username, cfg.Password)
	r.SetHeader("Accept", "application/json")

	return &Client{http: r, port: cfg.ControlPort}
}

// Do issues one request against http://{host}:{port}{path} and returns the
// raw body. The error is always one of ErrTimeout, ErrUnreachable,
// *StatusError, or nil.
func (c *Client) Do(ctx context.Context, method, host, path string, query url.Values) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, c.baseURL(host)+path)
	if err != nil {
		return nil, classify(err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	return resp.Body(), nil
}

// GetJSON issues a GET and decodes the body into out. A body that fails
// to parse yields *DecodeError.
func (c *Client) GetJSON(ctx context.Context, host, path string, query url.Values, out any) error {
	body, err := c.Do(ctx, resty.MethodGet, host, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// baseURL builds the control-plane base for a host. A host that already
// carries an explicit port wins over the configured one.
func (c *Client) baseURL(host string) string {
	if strings.Contains(host, ":") {
		return "http://" + host
	}
	return fmt.Sprintf("http://%s:%d", host, c.port)
}

func classify(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
