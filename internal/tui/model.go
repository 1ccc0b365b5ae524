// Package tui is the terminal chat front end. It renders coordinator state
// from the event bus and turns key presses into coordinator calls.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/app"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/events"
	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

type busMsg struct{ ev events.Event }

type startedMsg struct {
	health models.HealthResponse
	err    error
}

type opDoneMsg struct {
	op  string
	err error
}

type model struct {
	ctx context.Context
	app *app.App

	input textinput.Model
	spin  spinner.Model
	vp    viewport.Model

	width  int
	height int

	docs      []models.Document
	selection models.Selection
	entries   []models.Entry
	upload    models.UploadSnapshot
	note      *models.Notification

	info          string
	confirmDelete string
	ready         bool
}

func newModel(ctx context.Context, a *app.App) model {
	in := textinput.New()
	in.Placeholder = "Ask about your car manual, or /help"
	in.Prompt = "> "
	in.CharLimit = 0
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = assistantStyle

	m := model{
		ctx:       ctx,
		app:       a,
		input:     in,
		spin:      s,
		vp:        viewport.New(80, 20),
		docs:      a.Registry.Documents(),
		selection: a.Registry.Selection(),
		entries:   a.Conversation.Entries(),
		upload:    a.Uploads.Current(),
	}
	if n, ok := a.Notifier.Current(); ok {
		m.note = &n
	}
	m.refreshViewport()
	return m
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(newModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := a.Bus.Subscribe(func(ev events.Event) {
		p.Send(busMsg{ev: ev})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.startCmd())
}

func (m model) startCmd() tea.Cmd {
	return func() tea.Msg {
		health, err := m.app.Start(m.ctx)
		return startedMsg{health: health, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	// The footer grows and shrinks with notices and prompts.
	if nm, ok := next.(model); ok && nm.width > 0 {
		nm.layout()
		return nm, cmd
	}
	return next, cmd
}

func (m model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case busMsg:
		m.apply(msg.ev)
		return m, nil

	case startedMsg:
		m.ready = true
		if msg.err == nil {
			m.info = "Connected to " + m.app.Client.BaseURL()
		}
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.app.Log.Debug("operation failed", "op", msg.op, "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.hasPending() {
			m.refreshViewport()
		}
		return m, cmd

	case tea.KeyMsg:
		if m.confirmDelete != "" {
			return m.handleConfirm(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply folds one state change into the model.
func (m *model) apply(ev events.Event) {
	switch ev.Kind {
	case events.DocumentsChanged:
		if docs, ok := ev.Data.([]models.Document); ok {
			m.docs = docs
		}
	case events.SelectionChanged:
		if sel, ok := ev.Data.(models.Selection); ok {
			m.selection = sel
		}
	case events.UploadChanged:
		if snap, ok := ev.Data.(models.UploadSnapshot); ok {
			m.upload = snap
		}
	case events.ConversationChanged:
		if entries, ok := ev.Data.([]models.Entry); ok {
			m.entries = entries
			m.refreshViewport()
			m.vp.GotoBottom()
		}
	case events.NotificationChanged:
		if n, ok := ev.Data.(models.Notification); ok {
			m.note = &n
		} else {
			m.note = nil
		}
	}
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.info = ""

	cmd, ok := parseCommand(value)
	if !ok {
		_, _ = m.app.Conversation.Submit(m.ctx, value)
		return m, nil
	}

	switch cmd.name {
	case "upload":
		if cmd.arg == "" {
			m.info = "Usage: /upload PATH"
			return m, nil
		}
		_, _ = m.app.UploadPath(m.ctx, unquote(cmd.arg))
	case "select":
		if cmd.arg == "" {
			m.app.Registry.ClearSelection()
			return m, nil
		}
		m.app.Registry.Select(resolveIndex(cmd.arg, m.docNames()))
	case "delete":
		name := resolveIndex(cmd.arg, m.docNames())
		if name == "" && m.selection.Set {
			name = m.selection.Name
		}
		if name == "" {
			m.info = "Usage: /delete NAME"
			return m, nil
		}
		m.confirmDelete = name
	case "manuals":
		return m, m.refreshCmd()
	case "example":
		examples := m.app.Conversation.Welcome().Examples
		n, err := strconv.Atoi(cmd.arg)
		if err != nil || n < 1 || n > len(examples) {
			m.info = fmt.Sprintf("Usage: /example 1-%d", len(examples))
			return m, nil
		}
		m.input.SetValue(examples[n-1])
		m.input.CursorEnd()
	case "clear":
		m.app.Conversation.Clear()
	case "help":
		m.info = helpText
	case "quit", "exit":
		return m, tea.Quit
	default:
		m.info = fmt.Sprintf("Unknown command /%s (try /help)", cmd.name)
	}
	return m, nil
}

func (m model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.confirmDelete
	m.confirmDelete = ""
	switch msg.String() {
	case "y", "Y":
		return m, m.deleteCmd(name)
	case "ctrl+c":
		return m, tea.Quit
	}
	m.info = "Delete cancelled"
	return m, nil
}

func (m model) deleteCmd(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.app.Registry.Delete(m.ctx, name, func(string) bool { return true })
		return opDoneMsg{op: "delete", err: err}
	}
}

func (m model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Registry.Refresh(m.ctx)
		return opDoneMsg{op: "refresh", err: err}
	}
}

func (m model) docNames() []string {
	names := make([]string, 0, len(m.docs))
	for _, d := range m.docs {
		names = append(names, d.Name)
	}
	return names
}

func (m model) hasPending() bool {
	for _, e := range m.entries {
		if e.IsPending() {
			return true
		}
	}
	return false
}

// layout sizes the viewport to what the header and footer leave over.
func (m *model) layout() {
	w := max(m.width, 20)
	chrome := lipgloss.Height(m.header()) + lipgloss.Height(m.footer())
	m.vp.Width = w
	m.vp.Height = max(m.height-chrome, 3)
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	m.vp.SetContent(renderConversation(m.entries, m.app.Conversation.Welcome(), max(m.vp.Width-2, 10), m.spin.View()))
}
