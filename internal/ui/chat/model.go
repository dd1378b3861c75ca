// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/controller"
	"github.com/jeranaias/ollama-chat/internal/logging"
	"github.com/jeranaias/ollama-chat/internal/ui/components"
	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// DefaultPollInterval is used when Config.PollInterval is zero.
const DefaultPollInterval = 100 * time.Millisecond

const (
	inputHeight  = 3
	statusHeight = 1

	// previewRunes bounds the reply preview in a "Reply ready" notice.
	previewRunes = 40
)

// =============================================================================
// CHAT STATE
// =============================================================================

// Mode selects what the bottom area is collecting.
type Mode int

const (
	ModeChat         Mode = iota // Typing a prompt
	ModeConfirmClear             // Waiting for y/n on clearing history
	ModeExport                   // Typing an export path
)

// Config carries the settings the chat screen reads.
type Config struct {
	PollInterval   time.Duration
	SidebarWidth   int
	ShowTimestamps bool
	Logger         *zap.Logger

	// Models is asked for a fresh model list on ^r. Nil disables refresh.
	Models controller.ModelCatalog
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. It renders what the
// controller holds and turns key presses into controller commands.
type Model struct {
	ctl   *controller.Controller
	theme *styles.Theme
	keys  KeyMap
	log   *zap.Logger

	catalog controller.ModelCatalog

	// Sub-models
	viewport  viewport.Model
	input     textarea.Model
	pathInput textinput.Model
	spinner   spinner.Model

	// Components
	sidebar components.Sidebar
	welcome components.Welcome
	status  components.StatusBar

	mode Mode

	// transcript caches the rendered history of the active session.
	transcript string

	// pendingSession is the id of the session waiting for a reply, or -1.
	pendingSession int

	pollInterval   time.Duration
	showTimestamps bool

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the chat screen over ctl.
func New(ctl *controller.Controller, theme *styles.Theme, cfg Config) Model {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.SidebarWidth <= 0 {
		cfg.SidebarWidth = 28
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Type a message…"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(keys.Newline.Keys()...))
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "Export to: "
	ti.PromptStyle = theme.InputPrompt

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.StatusBusy

	m := Model{
		ctl:            ctl,
		theme:          theme,
		keys:           keys,
		log:            logging.OrNop(cfg.Logger).Named("tui"),
		catalog:        cfg.Models,
		viewport:       viewport.New(80, 20),
		input:          ta,
		pathInput:      ti,
		spinner:        sp,
		sidebar:        components.NewSidebar(theme, cfg.SidebarWidth),
		welcome:        components.NewWelcome(theme),
		status:         components.NewStatusBar(theme),
		pendingSession: -1,
		pollInterval:   cfg.PollInterval,
		showTimestamps: cfg.ShowTimestamps,
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, pollCmd(m.pollInterval))
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading…"
	}

	var main string
	if m.ctl.Store().Active().IsEmpty() {
		main = m.welcome.View()
	} else {
		main = m.viewport.View()
	}

	body := main
	if m.showSidebar() {
		store := m.ctl.Store()
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.sidebar.View(store.Sessions(), store.ActiveIndex()),
			main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		m.renderInput(),
		m.status.View(),
	)
}

func (m Model) renderInput() string {
	var content string
	if m.mode == ModeExport {
		content = m.pathInput.View()
	} else {
		content = m.input.View()
	}
	return m.theme.InputContainer.Width(m.width).Render(content)
}

// Mode returns what the bottom area is collecting.
func (m Model) Mode() Mode {
	return m.mode
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) showSidebar() bool {
	return m.theme.GetLayoutMode().ShowSidebar()
}

// mainWidth is the width of the transcript pane.
func (m Model) mainWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= m.sidebar.Width()
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	// Input container border and padding.
	bottom := inputHeight + 1 + statusHeight
	mainHeight := height - bottom
	if mainHeight < 3 {
		mainHeight = 3
	}

	m.sidebar.SetSize(m.sidebar.Width(), mainHeight)
	m.viewport.Width = m.mainWidth()
	m.viewport.Height = mainHeight
	m.welcome.SetSize(m.mainWidth(), mainHeight)
	m.status.SetWidth(width)
	m.input.SetWidth(width - 2)
	m.pathInput.Width = width - 2 - len(m.pathInput.Prompt)
	m.ready = true
}

// =============================================================================
// RENDER STATE
// =============================================================================

// refresh re-renders the transcript and pushes controller state into the
// components.
func (m *Model) refresh() {
	sess := m.ctl.Store().Active()
	m.transcript = components.RenderHistory(m.theme, sess.History, m.viewport.Width-1, m.showTimestamps)
	m.welcome.SetModelName(m.ctl.Model())
	m.status.SetModelName(m.ctl.Model())
	m.sidebar.SetBusy(m.pendingSession)
	m.syncViewport(true)
}

// syncViewport sets the viewport content: the transcript plus the typing
// indicator when the active session is waiting for a reply.
func (m *Model) syncViewport(follow bool) {
	atBottom := m.viewport.AtBottom()

	content := m.transcript
	if m.pendingSession >= 0 && m.pendingSession == m.ctl.Store().Active().ID {
		content += "\n\n" + m.theme.StatusBusy.Render(m.spinner.View()+" Ollama is typing…")
	}
	m.viewport.SetContent(content)

	if follow || atBottom {
		m.viewport.GotoBottom()
	}
	req, busy := m.ctl.Pending()
	m.status.SetBusy(busy, m.spinner.View())
	var elapsed time.Duration
	if busy && !req.SubmittedAt.IsZero() {
		elapsed = time.Since(req.SubmittedAt)
	}
	m.status.SetElapsed(elapsed)
}
