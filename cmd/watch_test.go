package cmd

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"fleetdeck/internal/session"
	"fleetdeck/internal/transport"
	"fleetdeck/pkg/models"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testModel(t *testing.T) watchModel {
	t.Helper()
	coord := session.New(session.Options{Client: transport.New(transport.Config{})})
	m := newWatchModel(context.Background(), coord)
	m.editing = false
	m.input.Blur()
	m.cameras = []models.Camera{
		{Hostname: "cam1", IP: "10.0.0.6", StreamPath: "/cam1/"},
		{Hostname: "cam2", IP: "10.0.0.7", StreamPath: "/cam2/"},
	}
	return m
}

func TestWatchCursorStaysInBounds(t *testing.T) {
	m := testModel(t)

	next, _ := m.updateBrowsing(keyMsg("j"))
	m = next.(watchModel)
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursor)
	}

	next, _ = m.updateBrowsing(keyMsg("j"))
	m = next.(watchModel)
	if m.cursor != 1 {
		t.Fatalf("cursor ran past the last camera: %d", m.cursor)
	}

	next, _ = m.updateBrowsing(keyMsg("k"))
	m = next.(watchModel)
	if m.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", m.cursor)
	}
}

func TestWatchPanWithNoCamerasIsNoop(t *testing.T) {
	m := testModel(t)
	m.cameras = nil

	if cmd := m.pan("left"); cmd != nil {
		t.Fatal("pan without cameras should not produce a command")
	}
}

func TestWatchEscapeCancelsAddressEdit(t *testing.T) {
	m := testModel(t)
	m.editing = true
	m.input.SetValue("10.9.9.9")

	next, _ := m.updateEditing(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(watchModel)
	if m.editing {
		t.Fatal("escape should leave edit mode")
	}
	if got := m.input.Value(); got != "" {
		t.Fatalf("cancelled edit should restore the active address, got %q", got)
	}
}
