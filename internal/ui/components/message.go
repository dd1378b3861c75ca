// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollama-chat/internal/markdown"
	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// minBubbleWidth keeps bubbles readable in very narrow panes.
const minBubbleWidth = 20

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool
	theme         *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// SetWidth sets the width of the pane the bubble is drawn in.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the header line and the bubble. User messages sit on the
// right, replies on the left.
func (b *MessageBubble) View() string {
	inner := b.Width - 8
	if inner < minBubbleWidth {
		inner = minBubbleWidth
	}

	body := RenderSegments(b.theme, markdown.Segments(b.Message.Text), inner)
	if body == "" {
		body = "..."
	}

	var style lipgloss.Style
	switch {
	case b.Message.Role == model.RoleUser:
		style = b.theme.UserBubble
	case b.Message.IsError:
		style = b.theme.ErrorBubble
	default:
		style = b.theme.AssistantBubble
	}
	if lipgloss.Width(body) > inner {
		style = style.Width(inner)
	}
	bubble := style.Render(body)

	header := b.theme.RoleLabel.Render(b.Message.Role.DisplayName())
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		header += " " + b.theme.Timestamp.Render(b.Message.Clock())
	}

	if b.Message.Role == model.RoleUser {
		block := lipgloss.JoinVertical(lipgloss.Right, header+" ", bubble)
		return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
	}
	return lipgloss.JoinVertical(lipgloss.Left, " "+header, bubble)
}

// RenderHistory renders every message of a conversation, oldest first.
func RenderHistory(theme *styles.Theme, msgs []model.Message, width int, showTimestamps bool) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		b := NewMessageBubble(msg, theme)
		b.SetWidth(width)
		b.ShowTimestamp = showTimestamps
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// SEGMENT RENDERING
// =============================================================================

// RenderSegments styles segmenter output. Prose runs are wrapped to width;
// code blocks always start on their own line.
func RenderSegments(theme *styles.Theme, segs []markdown.Segment, width int) string {
	var (
		blocks []string
		prose  strings.Builder
	)

	flush := func() {
		if prose.Len() == 0 {
			return
		}
		text := strings.Trim(prose.String(), "\n")
		if width > 0 {
			text = lipgloss.NewStyle().Width(width).Render(text)
		}
		blocks = append(blocks, text)
		prose.Reset()
	}

	for _, seg := range segs {
		switch seg.Kind {
		case markdown.KindPlain:
			prose.WriteString(seg.Text)
		case markdown.KindBold:
			prose.WriteString(theme.Bold.Render(seg.Text))
		case markdown.KindInlineCode:
			prose.WriteString(RenderInlineCode(theme, seg.Text))
		case markdown.KindBreak:
			prose.WriteString("\n")
		case markdown.KindSpacer:
			// A blank line between the surrounding breaks.
		case markdown.KindCodeBlock:
			flush()
			cb := NewCodeBlock(seg.Language, seg.Text)
			cb.SetMaxWidth(width)
			blocks = append(blocks, cb.Render(theme))
		}
	}
	flush()

	return strings.Join(blocks, "\n")
}
