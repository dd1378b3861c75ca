// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// Tips are the prompt suggestions shown on an empty session.
var Tips = []string{
	"Ask a question",
	"Write Python code",
	"Summarize a text",
	"Explain a concept",
}

// =============================================================================
// WELCOME SCREEN
// =============================================================================

// Welcome is shown in place of the transcript while the active session has
// no messages.
type Welcome struct {
	modelName string

	width  int
	height int

	theme *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{theme: theme}
}

// SetModelName sets the model shown as active.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// View renders the greeting centered in the available space.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 20
	}

	modelName := w.modelName
	if modelName == "" {
		modelName = "none"
	}

	chips := make([]string, 0, len(Tips))
	for _, tip := range Tips {
		chips = append(chips, w.theme.WelcomeChip.Render(tip))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, chips...)
	if lipgloss.Width(row) > width {
		// Stack the chips when they do not fit side by side.
		row = lipgloss.JoinVertical(lipgloss.Center, chips...)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		w.theme.WelcomeTitle.Render("Hello! How can I help you today?"),
		"",
		w.theme.WelcomeSubtitle.Render("Active model: ")+w.theme.StatusModel.Render(modelName),
		"",
		row,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
