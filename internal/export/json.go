// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes a machine-readable transcript.
type JSONExporter struct{}

type jsonTranscript struct {
	Title    string        `json:"title"`
	Model    string        `json:"model,omitempty"`
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Error     bool   `json:"error,omitempty"`
}

// Export implements Exporter.
func (JSONExporter) Export(t Transcript) ([]byte, error) {
	if len(t.Messages) == 0 {
		return nil, ErrEmptyHistory
	}

	out := jsonTranscript{
		Title:    t.Title,
		Model:    t.Model,
		Messages: make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, msg := range t.Messages {
		out.Messages = append(out.Messages, jsonMessage{
			Role:      msg.Role.String(),
			Text:      msg.Text,
			Timestamp: msg.Timestamp.Format(time.RFC3339),
			Error:     msg.IsError,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (JSONExporter) MimeType() string {
	return "application/json"
}
