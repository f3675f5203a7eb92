package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	mylog "github.com/mohammed-shakir/gridform/internal/logger"
)

const lockStripes = 64

// Service applies edits to stored drafts. Edits to one draft are
// serialized within the process; an edit that fails leaves the stored
// draft as it was.
type Service struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func() string
	locks   [lockStripes]sync.Mutex
}

type Option func(*Service)

func WithOpTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:   store,
		log:     logger,
		timeout: 250 * time.Millisecond,
		now:     time.Now,
		newID:   mylog.NewID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) lock(id string) func() {
	m := &s.locks[xxhash.Sum64String(id)%lockStripes]
	m.Lock()
	return m.Unlock
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create stores a new draft holding the default form.
func (s *Service) Create(ctx context.Context) (Draft, error) {
	d := Draft{ID: s.newID(), Request: model.NewMeshRequest(), UpdatedAt: s.now().UTC()}
	octx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.Put(octx, d); err != nil {
		return Draft{}, err
	}
	s.log.InfoContext(mylog.WithDraftID(ctx, d.ID), "draft created")
	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (Draft, error) {
	octx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.store.Get(octx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	defer s.lock(id)()
	octx, cancel := s.opCtx(ctx)
	defer cancel()
	if _, err := s.store.Get(octx, id); err != nil {
		return err
	}
	return s.store.Delete(octx, id)
}

// Reset discards every axis of the draft and restores the defaults.
func (s *Service) Reset(ctx context.Context, id string) (Draft, error) {
	return s.Update(ctx, id, func(r *model.MeshRequest) error {
		r.Reset()
		return nil
	})
}

// Update runs fn on a copy of the draft's request and stores the copy only
// when fn succeeds.
func (s *Service) Update(ctx context.Context, id string, fn func(*model.MeshRequest) error) (Draft, error) {
	defer s.lock(id)()
	octx, cancel := s.opCtx(ctx)
	defer cancel()

	d, err := s.store.Get(octx, id)
	if err != nil {
		return Draft{}, err
	}
	next := d.Request.Clone()
	if err := fn(next); err != nil {
		return d, err
	}
	d.Request = next
	d.UpdatedAt = s.now().UTC()
	if err := s.store.Put(octx, d); err != nil {
		return Draft{}, err
	}
	s.log.DebugContext(mylog.WithDraftID(ctx, id), "draft updated", "request", next.String())
	return d, nil
}

func (s *Service) Ping(ctx context.Context) error {
	octx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.store.Ping(octx)
}
