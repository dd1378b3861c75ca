// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadChanged is returned when another step appended to the same
	// thread while this one was waiting on the backend.
	ErrThreadChanged = errors.New("thread changed during step")

	// ErrThreadForgotten is returned when the thread was forgotten while
	// the step was waiting on the backend. The reply is dropped.
	ErrThreadForgotten = errors.New("thread forgotten during step")

	// ErrEmptyReply is the cause of a ModelError when the backend answered
	// with no content.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// ModelError reports a failed backend call. Nothing is persisted to the
// thread when a step fails with this error.
type ModelError struct {
	ThreadID string
	Cause    error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model step failed: %v", e.Cause)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}
