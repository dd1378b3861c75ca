// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ollama-chat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - assistant accent, sidebar title, typing indicator
  - Cyan - model name, inline code, key hints
  - Emerald, Rose, Amber - success, error and confirmation notices

Message bubbles use semantic tokens:

	UserBubbleBg      - Background for user messages
	AssistantBubbleBg - Background for assistant messages
	ErrorBubbleBg     - Background for failed generations

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.CodeStyle)
	theme.SetSize(width, height)
	if theme.GetLayoutMode().ShowSidebar() {
		// render the session list
	}
*/
package styles
