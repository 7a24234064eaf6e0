// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package preview stores short-lived thumbnails of staged uploads so the
// admin form can show them before the file reaches the backend.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/mediasite-go/internal/cache"
	"github.com/olegiv/mediasite-go/internal/imaging"
	"github.com/olegiv/mediasite-go/internal/payload"
)

const keyPrefix = "preview:"

// DefaultTTL bounds the lifetime of an unreleased preview.
const DefaultTTL = 30 * time.Minute

// Preview errors.
var (
	// ErrNotFound is returned by Open for unknown, expired or released references.
	ErrNotFound = errors.New("preview not found")
	// ErrNotImage is returned by Create for data that is not a supported image.
	ErrNotImage = errors.New("preview requires a jpeg, png, gif or webp image")
)

// Preview is the stored preview content.
type Preview struct {
	ContentType string
	Data        []byte
}

// Store implements imagefield.PreviewStore on top of a cache.Cache.
type Store struct {
	cache     cache.Cache
	processor *imaging.Processor
	ttl       time.Duration
	logger    *slog.Logger

	now func() time.Time

	mu   sync.Mutex
	live map[string]time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the cache lifetime of a preview.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithProcessor sets the thumbnail processor.
func WithProcessor(p *imaging.Processor) Option {
	return func(s *Store) { s.processor = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a preview store.
func New(c cache.Cache, opts ...Option) *Store {
	s := &Store{
		cache:     c,
		processor: imaging.NewProcessor(320, 320),
		ttl:       DefaultTTL,
		logger:    slog.Default(),
		now:       time.Now,
		live:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a thumbnail of f and returns its reference. The type is
// sniffed from the data; anything but a supported image is refused. An image
// that cannot be resized is stored unchanged.
func (s *Store) Create(ctx context.Context, f *payload.File) (string, error) {
	if f == nil {
		return "", errors.New("no file")
	}

	p := Preview{ContentType: imaging.DetectMimeType(f.Data), Data: f.Data}
	if !imaging.IsImage(p.ContentType) {
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, f.Name, p.ContentType)
	}
	if res, err := s.processor.Thumbnail(f.Data); err == nil {
		p = Preview{ContentType: res.MimeType, Data: res.Data}
	} else {
		s.logger.Debug("thumbnail failed, storing original", "file", f.Name, "error", err)
	}

	ref := uuid.New().String()
	if err := s.cache.Set(ctx, keyPrefix+ref, encode(p), s.ttl); err != nil {
		return "", fmt.Errorf("storing preview: %w", err)
	}

	s.mu.Lock()
	s.live[ref] = s.now().Add(s.ttl)
	s.mu.Unlock()
	return ref, nil
}

// Open returns the preview for ref.
func (s *Store) Open(ctx context.Context, ref string) (*Preview, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, ErrNotFound
	}
	raw, err := s.cache.Get(ctx, keyPrefix+ref)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.forget(ref)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading preview: %w", err)
	}
	p, ok := decode(raw)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Release deletes the preview for ref. Unknown references are ignored.
func (s *Store) Release(ctx context.Context, ref string) {
	s.forget(ref)
	if err := s.cache.Delete(ctx, keyPrefix+ref); err != nil {
		s.logger.Debug("releasing preview", "ref", ref, "error", err)
	}
}

func (s *Store) forget(ref string) {
	s.mu.Lock()
	delete(s.live, ref)
	s.mu.Unlock()
}

// Live returns the number of references that are neither released nor
// expired. Expired references are dropped.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for ref, expires := range s.live {
		if !now.Before(expires) {
			delete(s.live, ref)
		}
	}
	return len(s.live)
}

// encode stores the content type on the first line followed by the data.
func encode(p Preview) []byte {
	out := make([]byte, 0, len(p.ContentType)+1+len(p.Data))
	out = append(out, p.ContentType...)
	out = append(out, '\n')
	return append(out, p.Data...)
}

func decode(raw []byte) (*Preview, bool) {
	i := bytes.IndexByte(raw, '\n')
	if i < 0 {
		return nil, false
	}
	return &Preview{ContentType: string(raw[:i]), Data: raw[i+1:]}, true
}
