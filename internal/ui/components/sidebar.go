// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollama-chat/internal/session"
	"github.com/jeranaias/ollama-chat/internal/ui/styles"
	"github.com/jeranaias/ollama-chat/internal/util"
)

// =============================================================================
// SESSION SIDEBAR
// =============================================================================

// Sidebar lists sessions in creation order with the active one
// highlighted.
type Sidebar struct {
	width  int
	height int

	// busySession is the id of the session with a generation in flight,
	// or -1.
	busySession int

	theme *styles.Theme
}

// NewSidebar creates a sidebar of the given column width.
func NewSidebar(theme *styles.Theme, width int) Sidebar {
	return Sidebar{
		width:       width,
		busySession: -1,
		theme:       theme,
	}
}

// SetSize updates the dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Width returns the column width including the border.
func (s Sidebar) Width() int {
	return s.width
}

// SetBusy marks the session that is waiting for a reply. Pass -1 to clear.
func (s *Sidebar) SetBusy(sessionID int) {
	s.busySession = sessionID
}

// View renders the session list.
func (s Sidebar) View(sessions []*session.Session, active int) string {
	// Border and marker columns.
	textWidth := s.width - 5
	if textWidth < 4 {
		textWidth = 4
	}

	lines := []string{s.theme.SidebarTitle.Render("Sessions")}
	for i, sess := range sessions {
		lines = append(lines, s.renderItem(sess, i == active, textWidth))
	}

	lines = append(lines, "",
		s.theme.SidebarHint.Render("^N new  ^X delete"),
		s.theme.SidebarHint.Render("^↑/^↓ switch"))

	style := s.theme.Sidebar.Width(s.width - 1)
	if s.height > 0 {
		style = style.Height(s.height)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (s Sidebar) renderItem(sess *session.Session, active bool, textWidth int) string {
	marker := "  "
	if active {
		marker = "▸ "
	}
	if sess.ID == s.busySession {
		marker = "● "
	}

	title := util.SingleLine(sess.Title)
	title = util.PadWidth(title, textWidth)

	if active {
		return s.theme.SidebarActive.Render(marker + title)
	}
	return s.theme.SidebarItem.Render(strings.TrimRight(marker+title, " "))
}
