// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/ollama-chat/internal/util"
)

const textRule = "----------------------------------------"

// TextExporter writes a plain transcript: each message is a "[HH:MM] You:"
// header followed by the message text exactly as it was sent or received.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(t Transcript) ([]byte, error) {
	if len(t.Messages) == 0 {
		return nil, ErrEmptyHistory
	}

	var sb strings.Builder
	sb.WriteString(t.Title)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat("=", max(util.StringWidth(t.Title), 1)))
	sb.WriteString("\n\n")

	for i, msg := range t.Messages {
		if i > 0 {
			sb.WriteString(textRule)
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s] %s:\n", msg.Clock(), msg.Role.DisplayName())
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (TextExporter) MimeType() string {
	return "text/plain"
}
