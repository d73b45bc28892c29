package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/session"
	"github.com/pokefinder/backend/internal/usecase"
	"go.uber.org/zap"
)

var errNothingToToggle = errors.New("no pokemon to toggle")

// Watcher receives every new outcome view of a session.
// It runs with the session locked and must not block.
type Watcher func(OutcomeView)

// Session is one client's lookup context: an aggregator plus the sprite selection
type Session struct {
	agg           *usecase.Aggregator
	stopListening func()
	done          chan struct{}
	closeOnce     sync.Once

	mu       sync.Mutex
	last     domain.Snapshot
	shiny    bool
	watchers map[uint64]Watcher
	nextID   uint64
}

// NewSession creates an idle session resolving queries with resolver
func NewSession(resolver usecase.Resolver, log *zap.Logger) *Session {
	s := &Session{
		agg:      usecase.NewAggregator(resolver, log),
		watchers: make(map[uint64]Watcher),
		done:     make(chan struct{}),
	}
	s.last = s.agg.Current()
	s.stopListening = s.agg.Subscribe(s.onSnapshot)
	return s
}

// NewSessionRegistry creates a registry that closes sessions when they expire or are deleted
func NewSessionRegistry(ttl time.Duration) *session.Registry[*Session] {
	return session.NewRegistry[*Session](ttl, session.DefaultCleanupInterval, func(_ string, s *Session) {
		s.Close()
	})
}

// onSnapshot mirrors the aggregator slot; a new found outcome resets the shiny selection
func (s *Session) onSnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = snap
	if snap.State == domain.StateFound {
		s.shiny = false
	}
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	view := NewOutcomeView(s.last, s.shiny)
	for _, w := range s.watchers {
		w(view)
	}
}

// Search issues a new query on the session's aggregator
func (s *Session) Search(name string) (uint64, error) {
	return s.agg.Search(name)
}

// AwaitView blocks until query seq is decided and returns the current view
func (s *Session) AwaitView(ctx context.Context, seq uint64) (OutcomeView, error) {
	if _, err := s.agg.Await(ctx, seq); err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

// View renders the current outcome
func (s *Session) View() OutcomeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewOutcomeView(s.last, s.shiny)
}

// ToggleShiny flips the sprite selection of the current Pokémon
func (s *Session) ToggleShiny() (OutcomeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last.State != domain.StateFound {
		return NewOutcomeView(s.last, s.shiny), errNothingToToggle
	}

	s.shiny = !s.shiny
	s.notifyLocked()
	return NewOutcomeView(s.last, s.shiny), nil
}

// Watch registers w and returns the current view together with a func that removes w
func (s *Session) Watch(w Watcher) (OutcomeView, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.watchers[id] = w

	var once sync.Once
	return NewOutcomeView(s.last, s.shiny), func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

// Done is closed once the session has been closed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops listening and cancels any lookup in flight
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.stopListening()
		s.agg.Close()
		close(s.done)
	})
}
