// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/session"
	"github.com/jeranaias/ollama-chat/internal/util"
)

// ErrEmptyHistory is returned when exporting a session with no messages.
var ErrEmptyHistory = errors.New("no messages to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Transcript is the exportable view of one session.
type Transcript struct {
	Title    string
	Model    string
	Messages []model.Message
}

// FromSession builds a transcript of sess. modelName is recorded in formats
// that carry metadata.
func FromSession(sess *session.Session, modelName string) Transcript {
	msgs := make([]model.Message, len(sess.History))
	copy(msgs, sess.History)
	return Transcript{Title: sess.Title, Model: modelName, Messages: msgs}
}

// Exporter renders a transcript in one format. Output depends only on the
// transcript, so exporting the same history twice gives identical bytes.
type Exporter interface {
	// Export renders t. It returns ErrEmptyHistory when t has no messages.
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Sink receives rendered exports.
type Sink interface {
	Write(path string, content []byte) error
}

// FileSink writes exports to the local filesystem atomically, creating the
// parent directory as needed.
type FileSink struct {
	// Perm is the file mode of written files (default 0644).
	Perm os.FileMode
}

// Write implements Sink.
func (s FileSink) Write(path string, content []byte) error {
	perm := s.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := util.AtomicWriteFile(path, content, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

// ForFormat returns the exporter for a format name ("md", "txt", "json",
// "html", with or without a leading dot). Unknown names get Markdown.
func ForFormat(name string) Exporter {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "txt", "text":
		return TextExporter{}
	case "json":
		return JSONExporter{}
	case "html", "htm":
		return HTMLExporter{}
	default:
		return MarkdownExporter{}
	}
}

// ForPath picks the exporter from the extension of path.
func ForPath(path string) Exporter {
	return ForFormat(filepath.Ext(path))
}

// Write renders t with the exporter matching path and hands it to sink.
func Write(t Transcript, path string, sink Sink) error {
	content, err := ForPath(path).Export(t)
	if err != nil {
		return err
	}
	return sink.Write(path, content)
}

// ResolvePath turns user input into an export path. Empty input becomes
// "{title}.{format}" in dir; a bare file name is placed in dir; anything
// with a directory component is used as given.
func ResolvePath(input, dir, title, format string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		input = DefaultFilename(title, format)
	}
	if dir != "" && !filepath.IsAbs(input) && filepath.Base(input) == input {
		return filepath.Join(dir, input)
	}
	return input
}

// DefaultFilename returns "{title}.{format}" with the title made safe for
// every common filesystem.
func DefaultFilename(title, format string) string {
	ext := ForFormat(format).FileExtension()
	return sanitizeFilename(title) + ext
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), util.Ellipsis)
	s = util.TruncateRunes(s, 50)
	s = strings.TrimSuffix(s, util.Ellipsis)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._-")
	if out == "" {
		return "conversation"
	}
	return out
}
