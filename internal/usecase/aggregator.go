package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/pokefinder/backend/internal/infrastructure/metrics"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Resolver turns a query into exactly one outcome
type Resolver interface {
	Resolve(ctx context.Context, query domain.LookupQuery) domain.Outcome
}

// Listener is called with every new value of the current-outcome slot.
// Listeners run while the slot is locked: they must be quick and must not call back into the Aggregator.
type Listener func(domain.Snapshot)

type subscription struct {
	id uint64
	fn Listener
}

// Aggregator owns the current-outcome slot and applies last-query-wins to concurrent searches
type Aggregator struct {
	resolver Resolver
	logger   *zap.Logger
	now      func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc
	wg      conc.WaitGroup

	mu        sync.Mutex
	seq       uint64
	current   domain.Snapshot
	cancel    context.CancelFunc
	pending   map[uint64]chan struct{}
	listeners []subscription
	nextSubID uint64
	closed    bool
}

// NewAggregator creates an idle aggregator resolving queries with resolver
func NewAggregator(resolver Resolver, log *zap.Logger) *Aggregator {
	ctx, stop := context.WithCancel(context.Background())
	a := &Aggregator{
		resolver: resolver,
		logger:   logger.OrNop(log).Named("aggregator"),
		now:      time.Now,
		baseCtx:  ctx,
		stop:     stop,
		pending:  make(map[uint64]chan struct{}),
	}
	a.current = domain.Snapshot{State: domain.StateIdle, UpdatedAt: a.now()}
	return a
}

// Search starts a lookup for raw and returns its sequence number.
// Blank input is rejected with domain.ErrInvalidQuery and leaves the slot untouched.
// Any query still in flight is superseded: its context is cancelled and its result ignored.
func (a *Aggregator) Search(raw string) (uint64, error) {
	query, err := domain.NewLookupQuery(raw)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, domain.ErrAggregatorClosed
	}

	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(a.baseCtx)
	a.cancel = cancel

	a.seq++
	seq := a.seq
	done := make(chan struct{})
	a.pending[seq] = done

	// The prior error is cleared; a found Pokémon stays until the new outcome replaces or drops it
	a.publishLocked(domain.Snapshot{
		Seq:       seq,
		State:     domain.StateQuerying,
		Query:     query.Name(),
		Pokemon:   a.current.Pokemon,
		UpdatedAt: a.now(),
	})
	a.mu.Unlock()

	a.logger.Debug("Query issued", zap.Uint64("seq", seq), zap.String("query", query.Name()))

	a.wg.Go(func() {
		a.run(ctx, cancel, seq, query, done)
	})

	return seq, nil
}

// run resolves one query and stores its outcome if it is still the latest
func (a *Aggregator) run(ctx context.Context, cancel context.CancelFunc, seq uint64, query domain.LookupQuery, done chan struct{}) {
	defer close(done)
	defer cancel()

	var outcome domain.Outcome
	var pc panics.Catcher
	pc.Try(func() {
		outcome = a.resolver.Resolve(ctx, query)
	})
	if r := pc.Recovered(); r != nil {
		a.logger.Error("Resolver panicked", zap.Uint64("seq", seq), zap.String("panic", r.String()))
		outcome = domain.TransientError(r.AsError())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.pending, seq)

	if a.closed || seq != a.seq {
		metrics.LookupsSuperseded.Inc()
		a.logger.Debug("Discarding superseded result",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", a.seq),
			zap.String("outcome", string(outcome.Kind)),
		)
		return
	}

	a.cancel = nil
	a.publishLocked(domain.SnapshotFor(seq, query.Name(), outcome, a.now()))
}

// publishLocked replaces the slot and notifies listeners; a.mu must be held
func (a *Aggregator) publishLocked(snap domain.Snapshot) {
	a.current = snap
	for _, sub := range a.listeners {
		sub.fn(snap)
	}
}

// Current returns the latest value of the slot
func (a *Aggregator) Current() domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Subscribe registers fn for every future slot change and returns a func that removes it
func (a *Aggregator) Subscribe(fn Listener) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSubID++
	id := a.nextSubID
	a.listeners = append(a.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, sub := range a.listeners {
				if sub.id == id {
					a.listeners = append(a.listeners[:i:i], a.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Await blocks until query seq has been stored or superseded, then returns the slot.
// Unknown or already finished sequence numbers return immediately.
func (a *Aggregator) Await(ctx context.Context, seq uint64) (domain.Snapshot, error) {
	a.mu.Lock()
	done, ok := a.pending[seq]
	a.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return a.Current(), ctx.Err()
		}
	}
	return a.Current(), nil
}

// Wait blocks until every started query has finished. It must not race with Search.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Close cancels in-flight queries, waits for them and rejects further searches
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.stop()
	a.wg.Wait()
}
