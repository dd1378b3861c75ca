// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns message text into styled render segments.
//
// The segmenter understands exactly four constructs: plain text, **bold**,
// `inline code` and ``` fenced blocks with an optional language hint. It is
// a two-phase tokenizer (fence split, then a per-line inline scan) and is
// total: malformed input degrades to plain text.
//
// # Key Types
//
//   - Segment: one styled run (Kind, Text, Language)
//   - Kind: Plain, Bold, InlineCode, CodeBlock, Spacer, Break
//
// # Usage
//
//	for _, seg := range markdown.Segments(msg.Text) {
//	    switch seg.Kind {
//	    case markdown.KindBold:
//	        out.WriteString(boldStyle.Render(seg.Text))
//	    case markdown.KindCodeBlock:
//	        out.WriteString(highlight(seg.Language, seg.Text))
//	    }
//	}
package markdown
