// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns message text into styled render segments.
package markdown

import (
	"strings"
)

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// Kind tags a render segment.
type Kind int

const (
	// KindPlain is unstyled text.
	KindPlain Kind = iota
	// KindBold is text that was wrapped in **double asterisks**.
	KindBold
	// KindInlineCode is text that was wrapped in `backticks`.
	KindInlineCode
	// KindCodeBlock is the body of a ``` fenced block.
	KindCodeBlock
	// KindSpacer stands for a blank line.
	KindSpacer
	// KindBreak separates two rendered lines.
	KindBreak
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "Plain"
	case KindBold:
		return "Bold"
	case KindInlineCode:
		return "InlineCode"
	case KindCodeBlock:
		return "CodeBlock"
	case KindSpacer:
		return "Spacer"
	case KindBreak:
		return "Break"
	default:
		return "Unknown"
	}
}

// Segment is one styled run of a message. Language is only set on code
// blocks that carried a hint.
type Segment struct {
	Kind     Kind
	Text     string
	Language string
}

// Plain returns a plain text segment.
func Plain(text string) Segment { return Segment{Kind: KindPlain, Text: text} }

// Bold returns a bold segment.
func Bold(text string) Segment { return Segment{Kind: KindBold, Text: text} }

// InlineCode returns an inline code segment.
func InlineCode(text string) Segment { return Segment{Kind: KindInlineCode, Text: text} }

// CodeBlock returns a fenced code block segment.
func CodeBlock(language, text string) Segment {
	return Segment{Kind: KindCodeBlock, Text: text, Language: language}
}

// Spacer returns a blank-line segment.
func Spacer() Segment { return Segment{Kind: KindSpacer} }

// Break returns a line-break segment.
func Break() Segment { return Segment{Kind: KindBreak} }

// =============================================================================
// SEGMENTER
// =============================================================================

const fence = "```"

// Segments splits text into render segments. It never fails: anything that is
// not well-formed markdown comes back as plain text.
//
// Fenced blocks are cut first; an unterminated fence runs to the end of the
// input. Outside fences each line is scanned for **bold** and `code` spans,
// whichever opens first wins, and spans never nest.
func Segments(text string) []Segment {
	var out []Segment

	pos := 0
	for pos < len(text) {
		open := strings.Index(text[pos:], fence)
		if open < 0 {
			out = appendProse(out, text[pos:])
			break
		}
		out = appendProse(out, text[pos:pos+open])

		start := pos + open + len(fence)
		end := strings.Index(text[start:], fence)
		if end < 0 {
			out = append(out, codeBlock(text[start:]))
			break
		}
		out = append(out, codeBlock(text[start:start+end]))
		pos = start + end + len(fence)
	}

	return out
}

// codeBlock builds a block segment, peeling off a language hint when the
// block has more than one line and its first line is a single token.
func codeBlock(body string) Segment {
	raw := strings.TrimSpace(body)

	first, rest, multiline := strings.Cut(raw, "\n")
	if multiline {
		hint := strings.TrimSpace(first)
		if isLanguageHint(hint) {
			return CodeBlock(hint, strings.TrimSpace(rest))
		}
	}
	return CodeBlock("", raw)
}

// isLanguageHint matches ^[A-Za-z0-9+#-]+$.
func isLanguageHint(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '+', c == '#', c == '-':
		default:
			return false
		}
	}
	return true
}

// appendProse segments text that sits outside any fence.
func appendProse(out []Segment, part string) []Segment {
	part = strings.TrimSpace(part)
	if part == "" {
		return out
	}

	for i, line := range strings.Split(part, "\n") {
		if i > 0 {
			out = append(out, Break())
		}
		line = strings.TrimSpace(line)
		if line == "" {
			out = append(out, Spacer())
			continue
		}
		out = appendInline(out, line)
	}
	return out
}

// appendInline scans one non-blank line for bold and inline code spans.
func appendInline(out []Segment, line string) []Segment {
	plainStart := 0
	i := 0
	for i < len(line) {
		seg, next, ok := matchSpan(line, i)
		if !ok {
			i++
			continue
		}
		if i > plainStart {
			out = append(out, Plain(line[plainStart:i]))
		}
		out = append(out, seg)
		i = next
		plainStart = next
	}
	if plainStart < len(line) {
		out = append(out, Plain(line[plainStart:]))
	}
	return out
}

// matchSpan tries the bold then the code pattern at position i and returns
// the segment and the index just past it.
func matchSpan(line string, i int) (Segment, int, bool) {
	if strings.HasPrefix(line[i:], "**") {
		// At least one character between the markers; the closing pair is
		// the first one after it.
		if i+3 <= len(line) {
			if j := strings.Index(line[i+3:], "**"); j >= 0 {
				end := i + 3 + j
				return Bold(line[i+2 : end]), end + 2, true
			}
		}
	}

	if line[i] == '`' {
		if j := strings.IndexByte(line[i+1:], '`'); j > 0 {
			end := i + 1 + j
			return InlineCode(line[i+1 : end]), end + 1, true
		}
	}

	return Segment{}, 0, false
}

// =============================================================================
// FLATTENING
// =============================================================================

// PlainText flattens segments back into unstyled text. Markers are dropped;
// code blocks sit on their own lines.
func PlainText(segs []Segment) string {
	var sb strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case KindBreak:
			sb.WriteByte('\n')
		case KindSpacer:
		case KindCodeBlock:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
			sb.WriteString(seg.Text)
			sb.WriteByte('\n')
		default:
			sb.WriteString(seg.Text)
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
