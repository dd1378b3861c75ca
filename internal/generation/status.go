// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generation

// =============================================================================
// STATUS
// =============================================================================

// Status is the coordinator's lifecycle state.
type Status string

const (
	// StatusIdle means nothing is in flight and a request can be submitted.
	StatusIdle Status = "Idle"

	// StatusPending means a request was accepted but the worker has not
	// started it yet.
	StatusPending Status = "Pending"

	// StatusRunning means the worker is waiting on the model.
	StatusRunning Status = "Running"

	// StatusCompleted means a result is waiting to be polled.
	StatusCompleted Status = "Completed"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// Busy reports whether a request is in flight, from acceptance until its
// result has been delivered.
func (s Status) Busy() bool {
	return s != StatusIdle
}

// isValidTransition enforces Idle -> Pending -> Running -> Completed -> Idle.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusPending
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted
	case StatusCompleted:
		return to == StatusIdle
	default:
		return false
	}
}
