// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// =============================================================================
// MODEL DISCOVERY
// =============================================================================

const modelsCacheKey = "models"

// ModelSource lists the models installed on the server.
type ModelSource interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelLister resolves installed model names and caches them for a short TTL,
// so the model picker does not hit /api/tags on every refresh.
type ModelLister struct {
	source ModelSource
	cache  *cache.Cache
	log    *zap.Logger
}

// NewModelLister creates a lister over source. A ttl of zero disables caching.
func NewModelLister(source ModelSource, ttl time.Duration, log *zap.Logger) *ModelLister {
	if log == nil {
		log = zap.NewNop()
	}
	expiry := ttl
	if ttl <= 0 {
		expiry = time.Nanosecond
	}
	return &ModelLister{
		source: source,
		cache:  cache.New(expiry, time.Minute),
		log:    log.Named("models"),
	}
}

// Names returns the sorted model names. Failures are logged and yield an
// empty slice; callers treat "no models" as "backend unreachable".
func (l *ModelLister) Names(ctx context.Context) []string {
	if cached, ok := l.cache.Get(modelsCacheKey); ok {
		return append([]string(nil), cached.([]string)...)
	}

	infos, err := l.source.ListModels(ctx)
	if err != nil {
		l.log.Warn("list models failed", zap.Error(err))
		return []string{}
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Name != "" {
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)

	if len(names) > 0 {
		l.cache.SetDefault(modelsCacheKey, names)
	}
	l.log.Debug("listed models", zap.Int("count", len(names)))
	return append([]string(nil), names...)
}

// Invalidate drops the cached model list.
func (l *ModelLister) Invalidate() {
	l.cache.Delete(modelsCacheKey)
}

// RequireModels lists models and fails with ErrBackendUnavailable when none
// are available. The application must not start without a model.
func RequireModels(ctx context.Context, l *ModelLister) ([]string, error) {
	names := l.Names(ctx)
	if len(names) == 0 {
		return nil, ErrBackendUnavailable
	}
	return names, nil
}
