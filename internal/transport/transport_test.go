package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func hostOf(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestDoAttachesBasicCredential(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "operator" || pass != "hunter2" {
			t.Fatalf("missing or wrong credential: %q %q", user, pass)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(Config{Username: "operator", Password: "hunter2", Timeout: 2 * time.Second})
	body, err := c.Do(context.Background(), http.MethodGet, hostOf(t, ts), "/health", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !strings.Contains(string(body), "ok") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDoSendsQueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") != "10.0.0.6" {
			t.Fatalf("missing ip query, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(Config{})
	q := url.Values{}
	q.Set("ip", "10.0.0.6")
	if _, err := c.Do(context.Background(), http.MethodPost, hostOf(t, ts), "/v1/camera", q); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
}

func TestDoClassifiesTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	c := New(Config{Timeout: 50 * time.Millisecond})
	_, err := c.Do(context.Background(), http.MethodGet, hostOf(t, ts), "/health", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestDoClassifiesUnreachable(t *testing.T) {
	// Port 1 on loopback refuses connections.
	c := New(Config{Timeout: 2 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Do(ctx, http.MethodGet, "127.0.0.1:1", "/health", nil)
	if err == nil {
		t.Fatal("expected error for closed port")
	}
	if !errors.Is(err, ErrUnreachable) && !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected unreachable or timeout, got %v", err)
	}
}

func TestDoClassifiesHTTPStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	c := New(Config{})
	_, err := c.Do(context.Background(), http.MethodGet, hostOf(t, ts), "/health", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden {
		t.Fatalf("unexpected code: %d", se.Code)
	}
}

func TestGetJSONDecodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	c := New(Config{})
	var out map[string]any
	err := c.GetJSON(context.Background(), hostOf(t, ts), "/health", nil, &out)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestBaseURLRespectsExplicitPort(t *testing.T) {
	c := New(Config{ControlPort: 8000})
	if got := c.baseURL("10.0.0.5"); got != "http://10.0.0.5:8000" {
		t.Fatalf("unexpected base: %s", got)
	}
	if got := c.baseURL("10.0.0.5:9000"); got != "http://10.0.0.5:9000" {
		t.Fatalf("explicit port not respected: %s", got)
	}
}
