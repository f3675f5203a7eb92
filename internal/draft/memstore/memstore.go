// Package memstore keeps drafts in a size and age bounded in-process cache.
package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/gridform/internal/core/observability"
	"github.com/mohammed-shakir/gridform/internal/draft"
)

// Store holds encoded drafts so callers never share a request with the
// cache. The least recently used draft is dropped when size is reached.
type Store struct {
	lru *expirable.LRU[string, []byte]
}

var _ draft.Store = (*Store)(nil)

func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1024
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) Get(_ context.Context, id string) (draft.Draft, error) {
	start := time.Now()
	b, ok := s.lru.Get(id)
	if !ok {
		observability.ObserveStoreOp("memory", "get", nil, time.Since(start).Seconds())
		return draft.Draft{}, draft.ErrNotFound
	}
	d, err := draft.Decode(b)
	observability.ObserveStoreOp("memory", "get", err, time.Since(start).Seconds())
	return d, err
}

func (s *Store) Put(_ context.Context, d draft.Draft) error {
	start := time.Now()
	b, err := draft.Encode(d)
	if err == nil {
		s.lru.Add(d.ID, b)
	}
	observability.ObserveStoreOp("memory", "put", err, time.Since(start).Seconds())
	return err
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.lru.Remove(id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Len() int { return s.lru.Len() }
