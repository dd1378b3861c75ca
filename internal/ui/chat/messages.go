// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ollama-chat/internal/controller"
)

// PollTickMsg asks the model to drain finished generations.
type PollTickMsg struct {
	Time time.Time
}

// pollCmd schedules the next poll.
func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return PollTickMsg{Time: t}
	})
}

// ModelsFetchedMsg carries a fresh model list from the server. Names is
// empty when the server could not be reached.
type ModelsFetchedMsg struct {
	Names []string
}

// fetchModelsCmd re-lists the installed models off the control loop.
func fetchModelsCmd(catalog controller.ModelCatalog) tea.Cmd {
	return func() tea.Msg {
		return ModelsFetchedMsg{Names: controller.FetchModels(context.Background(), catalog)}
	}
}
