// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers.
//
// # Key Functions
//
//   - TruncateRunes: rune-safe truncation with a trailing "…"
//   - TruncateWidth, PadWidth: cell-aware layout helpers (go-runewidth)
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateRunes(prompt, 28)
//	row := util.PadWidth(title, sidebarWidth-2)
package util
