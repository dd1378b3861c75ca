// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the ollama-chat TUI.

Each component is a small value with setters and a View method; none of them
own application state. The chat model feeds them what the controller
reports and composes their output.

# Components

  - MessageBubble (message.go) - one chat message, rendered from markdown segments
  - CodeBlock (codeblock.go) - Chroma-highlighted fenced block with line numbers
  - Sidebar (sidebar.go) - session list with the active session highlighted
  - Welcome (welcome.go) - greeting, active model and tip chips for empty sessions
  - StatusBar (statusbar.go) - typing indicator, notices and the selected model

# Usage

	theme := styles.NewTheme(cfg.UI.CodeStyle)
	transcript := components.RenderHistory(theme, sess.History, width, true)
*/
package components
