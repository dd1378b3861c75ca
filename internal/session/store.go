// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/logging"
	"github.com/jeranaias/ollama-chat/internal/model"
	"github.com/jeranaias/ollama-chat/internal/util"
)

// TitleRunes is how many runes of the first prompt become the title.
const TitleRunes = 28

var (
	// ErrLastSession is returned when deleting the only remaining session.
	ErrLastSession = errors.New("there must be at least one session")

	// ErrIndexOutOfRange is returned for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("session index out of range")

	// ErrUnknownSession is returned when no session has the given id.
	ErrUnknownSession = errors.New("unknown session")

	// ErrInvalidRole is returned when appending a message that is neither
	// from the user nor from the assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one named conversation. Fields are owned by the Store and must
// be treated as read-only by callers.
type Session struct {
	// ID is a sequence number, never reused within a Store.
	ID int

	Title string

	// ThreadID names the model-side context. It changes on ClearHistory.
	ThreadID string

	// History grows only by Append and is emptied only by ClearHistory.
	History []model.Message

	CreatedAt time.Time
}

// IsEmpty reports whether the session has no messages.
func (s *Session) IsEmpty() bool {
	return len(s.History) == 0
}

// LastMessage returns the newest message, if any.
func (s *Session) LastMessage() (model.Message, bool) {
	if len(s.History) == 0 {
		return model.Message{}, false
	}
	return s.History[len(s.History)-1], true
}

func defaultTitle(id int) string {
	return fmt.Sprintf("Chat %d", id)
}

func newThreadID(id int) string {
	return fmt.Sprintf("thread_%d_%s", id, uuid.NewString())
}

// TitleFromPrompt derives a session title from the first prompt: the first
// TitleRunes runes on one line, plus "…" when the prompt was longer.
func TitleFromPrompt(prompt string) string {
	return util.TruncateRunes(util.SingleLine(prompt), TitleRunes)
}

// =============================================================================
// STORE
// =============================================================================

// Store is the ordered list of sessions plus the active index.
//
// It always holds at least one session and exactly one is active. It is not
// safe for concurrent use; the control loop owns it.
type Store struct {
	sessions []*Session
	active   int
	nextID   int
	log      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore creates a store holding one empty, active session.
func NewStore(opts ...Option) *Store {
	s := &Store{nextID: 1}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log)
	s.Create()
	return s
}

// Create appends a new empty session, makes it active and returns its id.
func (s *Store) Create() int {
	id := s.nextID
	s.nextID++

	s.sessions = append(s.sessions, &Session{
		ID:        id,
		Title:     defaultTitle(id),
		ThreadID:  newThreadID(id),
		CreatedAt: time.Now(),
	})
	s.active = len(s.sessions) - 1

	s.log.Debug("session created", zap.Int("id", id), zap.Int("count", len(s.sessions)))
	return id
}

// SwitchActive makes the session at index active.
func (s *Store) SwitchActive(index int) error {
	if !s.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.active = index
	return nil
}

// Delete removes the session at index and returns it. The last remaining
// session cannot be deleted.
//
// When the active session is removed, the one now at the same position (or
// the new last one) becomes active. When an earlier session is removed, the
// active index shifts so the same session stays active.
func (s *Store) Delete(index int) (*Session, error) {
	if !s.inRange(index) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if len(s.sessions) == 1 {
		return nil, ErrLastSession
	}

	removed := s.sessions[index]
	s.sessions = append(s.sessions[:index], s.sessions[index+1:]...)

	switch {
	case index < s.active:
		s.active--
	case index == s.active:
		s.active = min(index, len(s.sessions)-1)
	}

	s.log.Debug("session deleted", zap.Int("id", removed.ID), zap.Int("active", s.active))
	return removed, nil
}

// ClearHistory empties the session at index, resets its title and gives it
// a fresh thread. It returns the abandoned thread id.
func (s *Store) ClearHistory(index int) (string, error) {
	if !s.inRange(index) {
		return "", fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	sess := s.sessions[index]
	old := sess.ThreadID
	sess.History = nil
	sess.Title = defaultTitle(sess.ID)
	sess.ThreadID = newThreadID(sess.ID)

	s.log.Debug("session cleared", zap.Int("id", sess.ID), zap.String("old_thread", old))
	return old, nil
}

// Append adds msg to the session with the given id. The first user message
// of an empty session also becomes its title.
func (s *Store) Append(sessionID int, msg model.Message) error {
	sess, _, ok := s.ByID(sessionID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSession, sessionID)
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}

	if sess.IsEmpty() && msg.Role == model.RoleUser {
		sess.Title = TitleFromPrompt(msg.Text)
	}
	sess.History = append(sess.History, msg)
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Active returns the active session.
func (s *Store) Active() *Session {
	return s.sessions[s.active]
}

// ActiveIndex returns the position of the active session.
func (s *Store) ActiveIndex() int {
	return s.active
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

// At returns the session at index.
func (s *Store) At(index int) (*Session, error) {
	if !s.inRange(index) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return s.sessions[index], nil
}

// ByID finds a session and its current position by id.
func (s *Store) ByID(id int) (*Session, int, bool) {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return sess, i, true
		}
	}
	return nil, -1, false
}

// Sessions returns the sessions in display order. The slice is a copy; the
// sessions are not.
func (s *Store) Sessions() []*Session {
	out := make([]*Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *Store) inRange(index int) bool {
	return index >= 0 && index < len(s.sessions)
}
