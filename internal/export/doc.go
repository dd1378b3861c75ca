// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes session transcripts to files.
//
// # Key Types
//
//   - Transcript: title, model and messages of one session
//   - Exporter: one output format (Markdown, plain text, JSON, HTML)
//   - Sink: destination for rendered bytes; FileSink writes atomically
//
// The format is chosen from the file extension; anything unknown is
// Markdown. Empty sessions are refused with ErrEmptyHistory.
//
// # Usage
//
//	path := export.ResolvePath(input, cfg.Export.Dir, sess.Title, cfg.Export.DefaultFormat)
//	err := export.Write(export.FromSession(sess, modelName), path, export.FileSink{})
package export
