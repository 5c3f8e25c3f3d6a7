package persistence

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/infra/metrics"
)

const saveTimeout = 3 * time.Second

// Saver writes snapshots in the background. Only the latest pending
// snapshot is kept; failures are logged and dropped.
type Saver struct {
	store Store

	mu      sync.Mutex
	pending *State
	wake    chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSaver creates a stopped saver.
func NewSaver(store Store) *Saver {
	return &Saver{
		store: store,
		wake:  make(chan struct{}, 1),
	}
}

// Start launches the writer goroutine.
func (s *Saver) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Save queues a snapshot and returns immediately.
func (s *Saver) Save(st State) {
	s.mu.Lock()
	s.pending = &st
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close stops the writer and flushes any pending snapshot.
func (s *Saver) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.flush()
}

func (s *Saver) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.flush()
		}
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	st := s.pending
	s.pending = nil
	s.mu.Unlock()

	if st == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := Write(ctx, s.store, *st); err != nil {
		metrics.StorageErrors.WithLabelValues("save").Inc()
		zlog.Error().Msgf("failed to persist stations: %v", err)
		return
	}
	zlog.Debug().Msgf("stations persisted: count=%d", len(st.Stations))
}
