// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a fenced code block ready for rendering.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
}

// NewCodeBlock creates a new code block.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language: language,
		Code:     code,
		MaxWidth: 80,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the block with a language badge, line numbers and syntax
// highlighting in the theme's code style.
func (c CodeBlock) Render(theme *styles.Theme) string {
	code := strings.Trim(c.Code, "\n")

	language := c.Language
	if language == "" {
		language = DetectLanguage(code)
	}

	highlighted := highlightCode(code, language, theme.CodeStyle)
	lines := strings.Split(strings.TrimRight(highlighted, "\n"), "\n")

	var body strings.Builder
	if language != "" {
		body.WriteString(theme.CodeBadge.Render(strings.ToLower(language)))
		body.WriteString("\n")
	}
	for i, line := range lines {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(theme.LineNumber.Render(fmt.Sprintf("%d", i+1)))
		body.WriteString("  ")
		body.WriteString(line)
	}

	style := theme.CodeBlock
	if c.MaxWidth > 0 {
		style = style.MaxWidth(c.MaxWidth)
	}
	return style.Render(body.String())
}

// RenderInlineCode renders inline code with a subtle background.
func RenderInlineCode(theme *styles.Theme, code string) string {
	return theme.InlineCode.Render(code)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// resolveLexer picks a lexer by name, then by content, then the plain-text
// fallback.
func resolveLexer(language, code string) chroma.Lexer {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlightCode applies ANSI syntax highlighting. On any chroma error the
// code is returned unchanged.
func highlightCode(code, language, styleName string) string {
	lexer := resolveLexer(language, code)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// DetectLanguage guesses the language of an unlabeled block. It returns ""
// when chroma has no opinion.
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
