package correlation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TransactionID correlates a reply with its request. It is unique among a
// pool's outstanding exchanges and is never zero.
type TransactionID uint32

// Outcome is what an exchange resolves to: the device reply, or an error
// (ErrTimeout, ErrSessionLost, or a transport failure).
type Outcome[T any] struct {
	ID      TransactionID
	Reply   T
	Err     error
	Latency time.Duration
}

// Config bounds a pool.
type Config struct {
	// Capacity is the maximum number of outstanding exchanges.
	Capacity int

	// Timeout is how long an exchange may stay outstanding.
	Timeout time.Duration

	// ExpiryInterval is the Run loop cadence. Defaults to Timeout/4.
	ExpiryInterval time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Logger is the subset of logging.Logger the pool uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

type pending[T any] struct {
	future  *Future[Outcome[T]]
	created time.Time
}

// Pool tracks outstanding exchanges for one device session.
//
// Reserve, Resolve, Expire and FailAll may be called concurrently. Every
// reservation is resolved exactly once: removal from the pending map under
// the lock decides which caller completes it. Futures are completed after
// the lock is released, so completion callbacks may call back into the pool.
type Pool[T any] struct {
	mu      sync.Mutex
	pending map[TransactionID]*pending[T]
	lastID  TransactionID

	capacity int
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	logger   Logger
	loggerMu sync.RWMutex
}

// NewPool creates a pool.
func NewPool[T any](cfg Config) (*Pool[T], error) {
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidConfig, cfg.Capacity)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout %v", ErrInvalidConfig, cfg.Timeout)
	}
	if cfg.ExpiryInterval <= 0 {
		cfg.ExpiryInterval = cfg.Timeout / 4
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Pool[T]{
		pending:  make(map[TransactionID]*pending[T], cfg.Capacity),
		capacity: cfg.Capacity,
		timeout:  cfg.Timeout,
		interval: cfg.ExpiryInterval,
		now:      cfg.Clock,
		logger:   noopLogger{},
	}, nil
}

// SetLogger sets the logger for unmatched replies and expiries.
func (p *Pool[T]) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

func (p *Pool[T]) getLogger() Logger {
	p.loggerMu.RLock()
	defer p.loggerMu.RUnlock()
	return p.logger
}

// Reserve admits a new exchange and returns its id and result handle.
//
// At the ceiling, stale entries are expired first; if the pool is still
// full the call fails with ErrCapacityExceeded.
func (p *Pool[T]) Reserve() (TransactionID, *Future[Outcome[T]], error) {
	now := p.now()

	p.mu.Lock()
	var expired []expiredEntry[T]
	if len(p.pending) >= p.capacity {
		expired = p.collectExpiredLocked(now)
	}
	if len(p.pending) >= p.capacity {
		p.mu.Unlock()
		p.completeExpired(expired, now)
		return 0, nil, ErrCapacityExceeded
	}

	id := p.nextIDLocked()
	f := NewFuture[Outcome[T]]()
	p.pending[id] = &pending[T]{future: f, created: now}
	p.mu.Unlock()

	p.completeExpired(expired, now)
	return id, f, nil
}

// nextIDLocked returns the next id after lastID, skipping zero and ids
// still outstanding after a wrap.
func (p *Pool[T]) nextIDLocked() TransactionID {
	for {
		p.lastID++
		if p.lastID == 0 {
			continue
		}
		if _, inUse := p.pending[p.lastID]; !inUse {
			return p.lastID
		}
	}
}

// Resolve completes the exchange for id with reply or err.
//
// It reports false, and changes nothing, when id is not outstanding: the
// reply arrived after expiry, or it is a duplicate.
func (p *Pool[T]) Resolve(id TransactionID, reply T, err error) bool {
	p.mu.Lock()
	entry, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()

	if !ok {
		p.getLogger().Debug("unmatched reply discarded", "xid", uint32(id))
		return false
	}

	entry.future.Complete(Outcome[T]{
		ID:      id,
		Reply:   reply,
		Err:     err,
		Latency: p.now().Sub(entry.created),
	})
	return true
}

type expiredEntry[T any] struct {
	id    TransactionID
	entry *pending[T]
}

func (p *Pool[T]) collectExpiredLocked(now time.Time) []expiredEntry[T] {
	var out []expiredEntry[T]
	for id, entry := range p.pending {
		if now.Sub(entry.created) >= p.timeout {
			delete(p.pending, id)
			out = append(out, expiredEntry[T]{id: id, entry: entry})
		}
	}
	return out
}

func (p *Pool[T]) completeExpired(expired []expiredEntry[T], now time.Time) {
	if len(expired) == 0 {
		return
	}
	p.getLogger().Warn("exchanges expired", "count", len(expired), "timeout", p.timeout)
	for _, e := range expired {
		e.entry.future.Complete(Outcome[T]{
			ID:      e.id,
			Err:     ErrTimeout,
			Latency: now.Sub(e.entry.created),
		})
	}
}

// Expire resolves every exchange older than the timeout, as of now, with
// ErrTimeout. It returns how many were expired.
func (p *Pool[T]) Expire(now time.Time) int {
	p.mu.Lock()
	expired := p.collectExpiredLocked(now)
	p.mu.Unlock()

	p.completeExpired(expired, now)
	return len(expired)
}

// FailAll resolves every outstanding exchange with err and returns how
// many there were.
func (p *Pool[T]) FailAll(err error) int {
	p.mu.Lock()
	all := p.pending
	p.pending = make(map[TransactionID]*pending[T], p.capacity)
	p.mu.Unlock()

	now := p.now()
	for id, entry := range all {
		entry.future.Complete(Outcome[T]{
			ID:      id,
			Err:     err,
			Latency: now.Sub(entry.created),
		})
	}
	return len(all)
}

// Run expires stale exchanges on the configured cadence until ctx ends.
func (p *Pool[T]) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Expire(p.now())
		}
	}
}

// Outstanding returns the number of unresolved exchanges.
func (p *Pool[T]) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Capacity returns the configured ceiling.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}

// Timeout returns the configured exchange timeout.
func (p *Pool[T]) Timeout() time.Duration {
	return p.timeout
}
