package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetdeck/internal/command"
	"fleetdeck/internal/config"
	"fleetdeck/internal/health"
	"fleetdeck/internal/session"
	"fleetdeck/pkg/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive fleet session",
	Long: `Open a live session: set the server address, watch its health,
and pan cameras with the arrow keys. All state lives in the session
coordinator; this view only renders snapshots and forwards intents.`,
	Run: func(cmd *cobra.Command, args []string) {
		coord := session.New(session.Options{
			Client:         newTransport(),
			HealthInterval: viper.GetDuration(config.KeyHealthInterval),
			StreamPort:     viper.GetInt(config.KeyStreamPort),
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go coord.Run(ctx)

		if addr := viper.GetString(config.KeyServerAddress); addr != "" {
			coord.SetAddress(ctx, addr)
		}

		p := tea.NewProgram(newWatchModel(ctx, coord), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// tickMsg drives the snapshot refresh cadence.
type tickMsg time.Time

// opResultMsg is sent when an asynchronous pan/refresh/reconnect call
// completes. On error, the cause is shown in the status bar.
type opResultMsg struct {
	what string
	err  error
}

// noticeFadeMsg clears the status bar notice after a short delay.
type noticeFadeMsg struct{}

const noticeFadeDelay = 4 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

type watchModel struct {
	ctx   context.Context
	coord *session.Coordinator

	input   textinput.Model
	editing bool

	cameras []models.Camera
	status  health.Status
	cursor  int

	healthOn bool
	notice   string
	width    int
}

func newWatchModel(ctx context.Context, coord *session.Coordinator) watchModel {
	input := textinput.New()
	input.Placeholder = "host or host:port"
	input.CharLimit = 64
	input.SetValue(coord.Address())

	editing := coord.Address() == ""
	if editing {
		input.Focus()
	}

	return watchModel{
		ctx:      ctx,
		coord:    coord,
		input:    input,
		healthOn: true,
		editing:  editing,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(tick(), textinput.Blink)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fadeNotice() tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg { return noticeFadeMsg{} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.cameras = m.coord.Cameras()
		m.status = m.coord.Health()
		if m.cursor >= len(m.cameras) {
			m.cursor = 0
		}
		return m, tick()

	case opResultMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.what, msg.err)
		} else {
			m.notice = msg.what + " ok"
		}
		return m, fadeNotice()

	case noticeFadeMsg:
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m watchModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		addr := strings.TrimSpace(m.input.Value())
		m.coord.SetAddress(m.ctx, addr)
		m.editing = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		m.input.SetValue(m.coord.Address())
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m watchModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "a":
		m.editing = true
		return m, m.input.Focus()

	case "j":
		if m.cursor < len(m.cameras)-1 {
			m.cursor++
		}
		return m, nil

	case "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "left", "right", "up", "down":
		return m, m.pan(command.Direction(msg.String()))

	case "r":
		return m, m.background("refresh", m.coord.Refresh)

	case "R":
		return m, m.background("reconnect", m.coord.Reconnect)

	case "h":
		m.healthOn = !m.healthOn
		m.coord.SetHealthChecks(m.healthOn)
		return m, nil
	}

	return m, nil
}

// pan sends one nudge for the selected camera off the UI loop. The view
// is never blocked on the network; the result lands as an opResultMsg.
func (m watchModel) pan(dir command.Direction) tea.Cmd {
	if m.cursor >= len(m.cameras) {
		return nil
	}
	id := m.cameras[m.cursor].Hostname
	return func() tea.Msg {
		err := m.coord.IssueCommand(m.ctx, id, dir)
		return opResultMsg{what: fmt.Sprintf("pan %s %s", id, dir), err: err}
	}
}

func (m watchModel) background(what string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{what: what, err: op(m.ctx)}
	}
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("fleetdeck"))
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString("Server: " + m.input.View() + "\n")
	} else {
		addr := m.coord.Address()
		if addr == "" {
			addr = dimStyle.Render("(not set, press a)")
		}
		b.WriteString("Server: " + addr + "\n")
	}

	b.WriteString("Health: " + m.renderHealth() + "\n\n")

	if len(m.cameras) == 0 {
		b.WriteString(dimStyle.Render("No cameras discovered.") + "\n")
	}
	for i, cam := range m.cameras {
		line := fmt.Sprintf("  %-16s %-15s %s", cam.Hostname, cam.IP, m.coord.StreamURL(cam))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(warnStyle.Render(m.notice) + "\n")
	}
	b.WriteString(dimStyle.Render("a address · j/k select · arrows pan · r refresh · R reconnect · h health checks · q quit"))

	return b.String()
}

func (m watchModel) renderHealth() string {
	switch m.status.State {
	case health.StateOk:
		return okStyle.Render("ok") + dimStyle.Render(" — "+m.status.Detail)
	case health.StateError:
		return errStyle.Render("error") + dimStyle.Render(" — "+m.status.Detail)
	case health.StateProbing:
		return warnStyle.Render("probing")
	case health.StateDisabled:
		return dimStyle.Render("disabled")
	default:
		return dimStyle.Render("unset")
	}
}
