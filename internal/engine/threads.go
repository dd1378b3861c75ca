// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/patrickmn/go-cache"
)

// ThreadStore holds the message sequence of every thread.
//
// Sequences are replaced wholesale on append, never mutated in place, so a
// slice handed out by Load stays valid. A TTL of zero keeps threads until
// they are deleted. A deleted thread id is retired for good: a step that was
// in flight when it was deleted cannot bring it back.
type ThreadStore struct {
	mu      sync.Mutex
	items   *cache.Cache
	retired map[string]struct{}
}

// NewThreadStore creates an empty store. Threads untouched for ttl are
// dropped; ttl <= 0 disables expiry.
func NewThreadStore(ttl time.Duration) *ThreadStore {
	if ttl <= 0 {
		return &ThreadStore{items: cache.New(cache.NoExpiration, 0), retired: map[string]struct{}{}}
	}
	return &ThreadStore{items: cache.New(ttl, ttl), retired: map[string]struct{}{}}
}

// Load returns a copy of the thread's messages, empty for an unseen thread.
func (s *ThreadStore) Load(threadID string) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.get(threadID))
}

// Append adds msgs to the thread in one operation. baseLen is the length
// the caller observed when it loaded the thread; if the thread has moved
// on since, nothing is written and ErrThreadChanged is returned. Appending
// to a deleted thread fails with ErrThreadForgotten.
func (s *ThreadStore) Append(threadID string, baseLen int, msgs ...*schema.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.retired[threadID]; gone {
		return ErrThreadForgotten
	}
	current := s.get(threadID)
	if len(current) != baseLen {
		return ErrThreadChanged
	}

	next := make([]*schema.Message, 0, len(current)+len(msgs))
	next = append(next, current...)
	next = append(next, msgs...)
	s.items.SetDefault(threadID, next)
	return nil
}

// Delete drops a thread and retires its id. Deleting an unknown thread
// only retires the id.
func (s *ThreadStore) Delete(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Delete(threadID)
	s.retired[threadID] = struct{}{}
}

// Len returns the number of live threads.
func (s *ThreadStore) Len() int {
	return s.items.ItemCount()
}

func (s *ThreadStore) get(threadID string) []*schema.Message {
	if v, ok := s.items.Get(threadID); ok {
		return v.([]*schema.Message)
	}
	return nil
}

func clone(msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return out
}
