// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Ollama"
	default:
		return string(r)
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ClockFormat is the layout used for per-message timestamps.
const ClockFormat = "15:04"

// ErrorPrefix marks an assistant message that reports a failed generation.
const ErrorPrefix = "⚠️  **Error:**\n"

// Message is a single chat message. Messages are values: once created they
// are never modified, and history only grows by appending new ones.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// IsError marks an assistant message standing in for a failed reply.
	IsError bool `json:"is_error,omitempty"`
}

// NewMessage creates a new message stamped with the current local time.
func NewMessage(role Role, text string) Message {
	return NewMessageAt(role, text, time.Now())
}

// NewMessageAt creates a new message with an explicit timestamp.
func NewMessageAt(role Role, text string, ts time.Time) Message {
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, text)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, text)
}

// NewErrorMessage creates the assistant message shown in place of a reply
// when generation failed.
func NewErrorMessage(detail string) Message {
	msg := NewMessage(RoleAssistant, ErrorPrefix+detail)
	msg.IsError = true
	return msg
}

// Clock returns the message time as HH:MM in local time.
func (m Message) Clock() string {
	return m.Timestamp.Local().Format(ClockFormat)
}

// IsEmpty returns true if the message has no text.
func (m Message) IsEmpty() bool {
	return m.Text == ""
}
