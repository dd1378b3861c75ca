// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/jeranaias/ollama-chat/internal/markdown"
	"github.com/jeranaias/ollama-chat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone page with embedded CSS. Message text goes
// through the same segmenter the terminal uses, so bold, inline code and
// fenced blocks look the way they did on screen.
type HTMLExporter struct{}

// Export implements Exporter.
func (HTMLExporter) Export(t Transcript) ([]byte, error) {
	if len(t.Messages) == 0 {
		return nil, ErrEmptyHistory
	}

	title := html.EscapeString(t.Title)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", title)
	if t.Model != "" {
		fmt.Fprintf(&sb, "<p class=\"model\">%s</p>\n", html.EscapeString(t.Model))
	}

	for _, msg := range t.Messages {
		writeHTMLMessage(&sb, msg)
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func writeHTMLMessage(sb *strings.Builder, msg model.Message) {
	class := "message " + msg.Role.String()
	if msg.IsError {
		class += " error"
	}

	fmt.Fprintf(sb, "<div class=\"%s\">\n", class)
	fmt.Fprintf(sb, "  <div class=\"meta\"><strong>%s</strong> · %s</div>\n",
		html.EscapeString(msg.Role.DisplayName()), msg.Clock())
	sb.WriteString("  <div class=\"body\">")

	for _, seg := range markdown.Segments(msg.Text) {
		text := html.EscapeString(seg.Text)
		switch seg.Kind {
		case markdown.KindBold:
			fmt.Fprintf(sb, "<strong>%s</strong>", text)
		case markdown.KindInlineCode:
			fmt.Fprintf(sb, "<code>%s</code>", text)
		case markdown.KindCodeBlock:
			if seg.Language != "" {
				fmt.Fprintf(sb, "<pre data-lang=\"%s\"><code>%s</code></pre>", html.EscapeString(seg.Language), text)
			} else {
				fmt.Fprintf(sb, "<pre><code>%s</code></pre>", text)
			}
		case markdown.KindBreak:
			sb.WriteString("<br>\n")
		case markdown.KindSpacer:
		default:
			sb.WriteString(text)
		}
	}

	sb.WriteString("</div>\n</div>\n")
}

// FileExtension returns the file extension for HTML.
func (HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (HTMLExporter) MimeType() string {
	return "text/html"
}

const htmlCSS = `    <style>
        body { font-family: -apple-system, "Segoe UI", sans-serif; background: #1e1e2e; color: #cdd6f4; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
        h1 { color: #cba6f7; }
        .model { color: #7f849c; margin-top: -0.5rem; }
        .message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .message.user { background: #313244; margin-left: 15%; }
        .message.assistant { background: #181825; margin-right: 15%; }
        .message.error { border-left: 4px solid #f38ba8; }
        .meta { font-size: 0.8rem; color: #a6adc8; margin-bottom: 0.4rem; }
        code { background: #11111b; padding: 0.1rem 0.3rem; border-radius: 4px; color: #94e2d5; }
        pre { background: #11111b; padding: 0.75rem; border-radius: 6px; overflow-x: auto; }
        pre code { padding: 0; }
        pre[data-lang]::before { content: attr(data-lang); display: block; font-size: 0.7rem; color: #7f849c; margin-bottom: 0.4rem; }
    </style>
`
