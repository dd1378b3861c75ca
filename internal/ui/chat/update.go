// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/controller"
	"github.com/jeranaias/ollama-chat/internal/markdown"
	"github.com/jeranaias/ollama-chat/internal/ui/components"
	"github.com/jeranaias/ollama-chat/internal/util"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case PollTickMsg:
		return m.handlePoll()

	case ModelsFetchedMsg:
		if len(msg.Names) == 0 {
			m.status.SetNotice("Could not list models. Is Ollama running?", components.NoticeError)
			return m, nil
		}
		before := m.ctl.Model()
		m.ctl.SetModels(msg.Names)
		if now := m.ctl.Model(); now != before {
			m.status.SetNotice(fmt.Sprintf("%s is no longer installed, using %s", before, now), components.NoticeWarning)
		} else {
			m.status.SetNotice(fmt.Sprintf("%d models available", len(msg.Names)), components.NoticeInfo)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.pendingSession < 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncViewport(false)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case ModeConfirmClear:
			return m.handleConfirmKey(msg)
		case ModeExport:
			return m.handleExportKey(msg)
		default:
			return m.handleChatKey(msg)
		}
	}

	var cmd tea.Cmd
	if m.mode == ModeExport {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// POLLING
// =============================================================================

// handlePoll drains a finished generation and schedules the next poll.
func (m Model) handlePoll() (tea.Model, tea.Cmd) {
	next := pollCmd(m.pollInterval)

	d, ok := m.ctl.Poll()
	if !ok {
		return m, next
	}
	m.pendingSession = -1

	switch {
	case d.Discarded:
		m.log.Debug("reply discarded", zap.Int("session", d.SessionID))
	case d.SessionID != m.ctl.Store().Active().ID:
		if sess, _, found := m.ctl.Store().ByID(d.SessionID); found {
			m.status.SetNotice(replyNotice(sess.Title, d.Message.Text), components.NoticeInfo)
		}
	}

	m.refresh()
	return m, next
}

// replyNotice announces a reply that landed in a background session, with a
// one-line preview of its text.
func replyNotice(title, text string) string {
	preview := util.TruncateRunes(util.SingleLine(markdown.PlainText(markdown.Segments(text))), previewRunes)
	if preview == "" {
		return fmt.Sprintf("Reply ready in %q", title)
	}
	return fmt.Sprintf("Reply ready in %q: %s", title, preview)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status.ClearNotice()

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.NewSession):
		m.dispatch(controller.NewSession{})
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		m.switchBy(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.switchBy(1)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.dispatch(controller.DeleteSession{Index: m.ctl.Store().ActiveIndex()})
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if m.ctl.Store().Active().IsEmpty() {
			return m, nil
		}
		m.mode = ModeConfirmClear
		m.status.SetNotice("Clear all messages in this session? (y/n)", components.NoticeConfirm)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if err := m.ctl.CanExport(); err != nil {
			m.status.SetNotice(controller.Notice(err), components.NoticeError)
			return m, nil
		}
		m.mode = ModeExport
		m.input.Blur()
		m.pathInput.Reset()
		m.pathInput.Placeholder = m.ctl.DefaultExportPath()
		cmd := m.pathInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleModel):
		next := m.ctl.NextModel()
		if m.dispatch(controller.SelectModel{Name: next}) {
			m.status.SetNotice("Model: "+next, components.NoticeInfo)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.catalog == nil {
			return m, nil
		}
		m.status.SetNotice("Refreshing models…", components.NoticeInfo)
		return m, fetchModelsCmd(m.catalog)

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeChat
	m.status.ClearNotice()

	if strings.EqualFold(msg.String(), "y") {
		m.dispatch(controller.ClearHistory{Index: m.ctl.Store().ActiveIndex()})
	}
	return m, nil
}

func (m Model) handleExportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveExport()
		return m, nil

	case msg.Type == tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		m.leaveExport()
		if m.dispatch(controller.ExportSession{Path: path}) {
			m.status.SetNotice("Exported to "+m.ctl.LastExport(), components.NoticeSuccess)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) leaveExport() {
	m.mode = ModeChat
	m.pathInput.Blur()
	m.input.Focus()
}

// =============================================================================
// COMMANDS
// =============================================================================

// send submits the prompt. The input keeps its text when the controller
// refuses, so the user can retry.
func (m Model) send() (tea.Model, tea.Cmd) {
	activeID := m.ctl.Store().Active().ID
	if !m.dispatch(controller.SendPrompt{Text: m.input.Value()}) {
		return m, nil
	}

	m.input.Reset()
	m.pendingSession = activeID
	m.refresh()
	return m, m.spinner.Tick
}

func (m *Model) switchBy(delta int) {
	store := m.ctl.Store()
	n := store.Len()
	index := (store.ActiveIndex() + delta + n) % n
	m.dispatch(controller.SwitchSession{Index: index})
}

// dispatch runs cmd, shows a refusal as a notice and re-renders. It
// reports whether the command succeeded.
func (m *Model) dispatch(cmd controller.Command) bool {
	err := m.ctl.Dispatch(cmd)
	if err != nil {
		m.log.Debug("command refused", zap.String("op", cmd.Op()), zap.Error(err))
		m.status.SetNotice(controller.Notice(err), components.NoticeError)
	}
	m.refresh()
	return err == nil
}
