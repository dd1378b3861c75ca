// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

// =============================================================================
// COMMANDS
// =============================================================================

// Command is a user intent the renderer hands to Dispatch.
type Command interface {
	// Op names the command in errors and logs.
	Op() string
}

// SendPrompt appends a user message to the active session and starts a
// generation for it.
type SendPrompt struct {
	Text string
}

// NewSession creates a session and makes it active.
type NewSession struct{}

// SwitchSession activates the session at Index.
type SwitchSession struct {
	Index int
}

// DeleteSession removes the session at Index.
type DeleteSession struct {
	Index int
}

// ClearHistory empties the session at Index. Renderers ask for
// confirmation before dispatching it.
type ClearHistory struct {
	Index int
}

// SelectModel picks the model used for the next prompts.
type SelectModel struct {
	Name string
}

// ExportSession writes the active session to Path. An empty path uses the
// default file name in the export directory.
type ExportSession struct {
	Path string
}

func (SendPrompt) Op() string    { return "send" }
func (NewSession) Op() string    { return "new-session" }
func (SwitchSession) Op() string { return "switch-session" }
func (DeleteSession) Op() string { return "delete-session" }
func (ClearHistory) Op() string  { return "clear-history" }
func (SelectModel) Op() string   { return "select-model" }
func (ExportSession) Op() string { return "export" }
