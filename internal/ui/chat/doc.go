// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view.
//
// The Model owns no conversation state of its own. Key presses become
// controller commands, and a PollTickMsg fired every PollInterval drains
// finished generations through Controller.Poll, so the Bubble Tea update
// loop stays the only goroutine that touches the session store.
//
// # Layout
//
//	┌ Sessions ┬ transcript or welcome ┐
//	│          │                       │
//	├──────────┴───────────────────────┤
//	│ prompt (or export path)          │
//	└ status bar ──────────────────────┘
//
// # Usage
//
//	m := chat.New(ctl, styles.NewTheme(cfg.UI.CodeStyle), chat.Config{
//	    PollInterval: cfg.Generation.PollInterval.Duration,
//	})
//	if err := chat.Run(m); err != nil {
//	    return err
//	}
package chat
