// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// GeneratingText is the typing indicator label.
const GeneratingText = "Generating response…"

// NoticeLevel selects how a status bar notice is drawn.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
	NoticeConfirm
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when nothing else needs the space.
var DefaultShortcuts = []Shortcut{
	{"enter", "send"},
	{"^o", "model"},
	{"^r", "refresh"},
	{"^e", "export"},
	{"^l", "clear"},
	{"^c", "quit"},
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the single line at the bottom of the screen: the typing
// indicator or the current notice on the left, the model on the right.
type StatusBar struct {
	width int

	modelName string
	busy      bool
	spinner   string
	elapsed   time.Duration

	notice      string
	noticeLevel NoticeLevel

	theme *styles.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetModelName sets the model shown on the right.
func (s *StatusBar) SetModelName(name string) {
	s.modelName = name
}

// SetBusy toggles the typing indicator. frame is the current spinner frame.
func (s *StatusBar) SetBusy(busy bool, frame string) {
	s.busy = busy
	s.spinner = frame
}

// SetElapsed sets how long the in-flight request has been running. It is
// shown next to the typing indicator once it reaches a full second.
func (s *StatusBar) SetElapsed(d time.Duration) {
	s.elapsed = d
}

// SetNotice shows text until ClearNotice is called.
func (s *StatusBar) SetNotice(text string, level NoticeLevel) {
	s.notice = text
	s.noticeLevel = level
}

// ClearNotice removes the current notice.
func (s *StatusBar) ClearNotice() {
	s.notice = ""
}

// Notice returns the current notice text.
func (s StatusBar) Notice() string {
	return s.notice
}

// View renders the bar.
func (s StatusBar) View() string {
	left := s.renderLeft()
	right := s.theme.ShortcutDesc.Render("model ") + s.theme.StatusModel.Render(s.modelName)

	width := s.width
	if width <= 0 {
		width = 80
	}
	// Padding(0, 1) on both sides.
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(width).MaxWidth(width).Render(line)
}

func (s StatusBar) renderLeft() string {
	if s.notice != "" {
		switch s.noticeLevel {
		case NoticeSuccess:
			return styles.RenderSuccess(s.notice)
		case NoticeWarning:
			return styles.RenderWarning(s.notice)
		case NoticeError:
			return styles.RenderError(s.notice)
		case NoticeConfirm:
			return s.theme.Confirm.Render(s.notice)
		default:
			return styles.RenderInfo(s.notice)
		}
	}
	if s.busy {
		label := GeneratingText
		if s.elapsed >= time.Second {
			label += " " + s.elapsed.Truncate(time.Second).String()
		}
		return s.theme.StatusBusy.Render(strings.TrimSpace(s.spinner + " " + label))
	}

	hints := make([]string, 0, len(DefaultShortcuts))
	for _, sc := range DefaultShortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(hints, "  ")
}
