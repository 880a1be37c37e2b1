package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"fleetdeck/internal/transport"
	"fleetdeck/pkg/models"
)

func newAgainst(t *testing.T, handler http.Handler) (*Directory, string, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(transport.New(transport.Config{})), strings.TrimPrefix(ts.URL, "http://"), ts
}

func TestRefreshReplacesListInOrder(t *testing.T) {
	d, host, _ := newAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/cameras" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"cameras":[
			{"hostname":"cam2","ip":"10.0.0.7","stream_path":"/cam2/"},
			{"hostname":"cam1","ip":"10.0.0.6","stream_path":"/cam1/"}]}`))
	}))

	if err := d.Refresh(context.Background(), host); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got := d.Cameras()
	if len(got) != 2 || got[0].Hostname != "cam2" || got[1].Hostname != "cam1" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[0].IP != "10.0.0.7" || got[0].StreamPath != "/cam2/" {
		t.Fatalf("fields not mapped: %+v", got[0])
	}
}

func TestRefreshEmptyListIsNotAnError(t *testing.T) {
	d, host, _ := newAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	if err := d.Refresh(context.Background(), host); err != nil {
		t.Fatalf("empty fleet should not error: %v", err)
	}
	if got := d.Cameras(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty sequence, got %#v", got)
	}
}

func TestRefreshFailureKeepsPreviousList(t *testing.T) {
	var fail atomic.Bool
	d, host, _ := newAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"cameras":[{"hostname":"cam1","ip":"10.0.0.6","stream_path":"/cam1/"}]}`))
	}))

	if err := d.Refresh(context.Background(), host); err != nil {
		t.Fatalf("seed refresh failed: %v", err)
	}
	before := d.Cameras()

	fail.Store(true)
	err := d.Refresh(context.Background(), host)
	var se *transport.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}

	if after := d.Cameras(); !reflect.DeepEqual(before, after) {
		t.Fatalf("failed refresh mutated list: before=%+v after=%+v", before, after)
	}
}

func TestRefreshMalformedBodyIsDecodeError(t *testing.T) {
	d, host, _ := newAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))

	err := d.Refresh(context.Background(), host)
	var de *transport.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if len(d.Cameras()) != 0 {
		t.Fatalf("decode failure must not install cameras")
	}
}

func TestReconnectAlwaysRefreshes(t *testing.T) {
	var gets atomic.Int32
	d, host, _ := newAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/cameras/reconnect":
			http.Error(w, "reconnect unavailable", http.StatusServiceUnavailable)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/cameras":
			gets.Add(1)
			_, _ = w.Write([]byte(`{"cameras":[{"hostname":"cam1","ip":"10.0.0.6","stream_path":"/cam1/"}]}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	err := d.Reconnect(context.Background(), host)
	if err == nil {
		t.Fatal("reconnect failure should be reported")
	}
	if gets.Load() != 1 {
		t.Fatalf("refresh not attempted after failed reconnect: %d GETs", gets.Load())
	}
	if len(d.Cameras()) != 1 {
		t.Fatalf("refresh result not installed: %+v", d.Cameras())
	}
}

// blockingClient parks Refresh until released, for generation tests.
type blockingClient struct {
	entered chan struct{}
	release chan struct{}
	payload models.CameraListResponse
}

func (b *blockingClient) Do(ctx context.Context, method, host, path string, query url.Values) ([]byte, error) {
	return nil, nil
}

func (b *blockingClient) GetJSON(ctx context.Context, host, path string, query url.Values, out any) error {
	close(b.entered)
	<-b.release
	raw, _ := json.Marshal(b.payload)
	return json.Unmarshal(raw, out)
}

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	bc := &blockingClient{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		payload: models.CameraListResponse{Cameras: []models.Camera{{Hostname: "stale", IP: "10.0.0.6"}}},
	}
	d := New(bc)

	done := make(chan error, 1)
	go func() { done <- d.Refresh(context.Background(), "10.0.0.5") }()

	<-bc.entered
	d.Invalidate() // address changed while the refresh was in flight
	close(bc.release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := d.Cameras(); len(got) != 0 {
		t.Fatalf("superseded refresh installed cameras: %+v", got)
	}
}
