// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes
//
//	# {title}
//
//	### **You** · 14:02
//	{text}
//
//	---
//
// for every message. Message text is copied verbatim; it is already
// markdown.
type MarkdownExporter struct{}

// Export implements Exporter.
func (MarkdownExporter) Export(t Transcript) ([]byte, error) {
	if len(t.Messages) == 0 {
		return nil, ErrEmptyHistory
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", t.Title)
	for _, msg := range t.Messages {
		fmt.Fprintf(&sb, "### **%s** · %s\n", msg.Role.DisplayName(), msg.Clock())
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (MarkdownExporter) MimeType() string {
	return "text/markdown"
}
