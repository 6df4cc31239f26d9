// Package tui provides a live terminal monitor for the translator
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/james-see/launchkey2daw/pkg/bridge"
	"github.com/james-see/launchkey2daw/pkg/translator"
)

// Launchkey-inspired colour scheme
var (
	padOrange  = lipgloss.Color("#FF8C1A")
	padCyan    = lipgloss.Color("#1AD1FF")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(padOrange).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	bankStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	activeBankStyle = lipgloss.NewStyle().
			Foreground(padOrange).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(padCyan).
			PaddingTop(1)

	emitStyle = lipgloss.NewStyle().
			Foreground(padCyan)

	passStyle = lipgloss.NewStyle().
			Foreground(silverGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(padOrange).
			Padding(1, 2)
)

const maxLog = 12

// Model is the monitor state
type Model struct {
	engine  *translator.Engine
	events  <-chan bridge.Event
	spinner spinner.Model
	log     []bridge.Event
	title   string
	err     error
	width   int
	height  int
}

// eventMsg carries one bridge event into the update loop
type eventMsg bridge.Event

// closedMsg signals that the event stream ended
type closedMsg struct{}

// New creates a monitor for engine fed by events. Title names the ports.
func New(engine *translator.Engine, events <-chan bridge.Event, title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(padOrange)

	return Model{
		engine:  engine,
		events:  events,
		spinner: s,
		title:   title,
	}
}

// Init starts the spinner and the event pump
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.log = append(m.log, bridge.Event(msg))
		if len(m.log) > maxLog {
			m.log = m.log[len(m.log)-maxLog:]
		}
		return m, m.waitForEvent()

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "left", "[":
		m.engine.PrevBank()
		m.err = nil
	case "right", "]":
		m.engine.NextBank()
		m.err = nil
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		id, _ := strconv.Atoi(key)
		_, m.err = m.engine.SelectBank(id)
	case "c":
		m.log = nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s LAUNCHKEY2DAW ", m.spinner.View())))
	if m.title != "" {
		s.WriteString("  ")
		s.WriteString(passStyle.Render(m.title))
	}
	s.WriteString("\n\n")

	s.WriteString(m.viewBanks())
	s.WriteString("\n")
	s.WriteString(m.viewLog())
	s.WriteString(m.viewStats())

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("←/→ or [/]: bank • 0-9: select bank • c: clear • q: quit"))

	return boxStyle.Render(s.String())
}

func (m Model) viewBanks() string {
	var s strings.Builder
	current := m.engine.Banks().Current().ID
	for _, b := range m.engine.Banks().Banks() {
		line := fmt.Sprintf("%d  %s", b.ID, b.Name)
		if b.ID == current {
			s.WriteString(activeBankStyle.Render("▸ " + line))
		} else {
			s.WriteString(bankStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) viewLog() string {
	if len(m.log) == 0 {
		return passStyle.Render("waiting for input...") + "\n"
	}

	var s strings.Builder
	for _, ev := range m.log {
		s.WriteString(FormatEvent(ev))
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) viewStats() string {
	st := m.engine.Stats()
	return statusStyle.Render(fmt.Sprintf("received %s • emitted %s • passthrough %s • dropped %s • errors %s",
		humanize.Comma(int64(st.Received)),
		humanize.Comma(int64(st.Emitted)),
		humanize.Comma(int64(st.Passthrough)),
		humanize.Comma(int64(st.Dropped)),
		humanize.Comma(int64(st.Errors))))
}

// FormatEvent renders one log row
func FormatEvent(ev bridge.Event) string {
	in := fmt.Sprintf("% X", ev.In)
	switch {
	case ev.Err != nil:
		return errorStyle.Render(fmt.Sprintf("%-9s ✗ %s", in, ev.Err.Error()))
	case ev.Action.Type == translator.ActionEmit:
		return emitStyle.Render(fmt.Sprintf("%-9s → % X  %s", in, ev.Action.Bytes(), ev.Action.Message().String()))
	case ev.Action.Type == translator.ActionPassthrough:
		return passStyle.Render(fmt.Sprintf("%-9s = passthrough", in))
	default:
		return passStyle.Render(fmt.Sprintf("%-9s · dropped", in))
	}
}

// Run starts the monitor for b until the user quits or ctx is cancelled
func Run(ctx context.Context, b *bridge.Bridge, title string) error {
	events, unsubscribe := b.Subscribe(64)
	defer unsubscribe()

	p := tea.NewProgram(New(b.Engine(), events, title), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
