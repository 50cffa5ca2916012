package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Type labels what a pool is used for.
type Type string

const (
	// IndexingPool runs detached document-indexing tasks.
	IndexingPool Type = "indexing"
	// TrackingPool runs fire-and-forget analytics writes.
	TrackingPool Type = "tracking"
	// BackgroundPool runs miscellaneous background tasks.
	BackgroundPool Type = "background"
)

// Config defines the configuration for a worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent workers.
	Capacity int
	// ExpiryDuration is how long idle workers live.
	ExpiryDuration time.Duration
	// Nonblocking makes Submit fail fast when the pool is full.
	Nonblocking bool
	// MaxBlockingTasks caps waiting tasks for blocking pools.
	MaxBlockingTasks int
	// PanicHandler overrides the default panic logging.
	PanicHandler func(interface{})
}

// IndexingPoolConfig bounds concurrent file indexing. Each task holds an
// extracted document in memory, so the cap stays small.
func IndexingPoolConfig() *Config {
	return &Config{
		Capacity:         8,
		ExpiryDuration:   60 * time.Second,
		Nonblocking:      false,
		MaxBlockingTasks: 200,
	}
}

// TrackingPoolConfig serves cheap analytics writes.
func TrackingPoolConfig() *Config {
	return &Config{
		Capacity:       50,
		ExpiryDuration: 30 * time.Second,
		Nonblocking:    true,
	}
}

// DefaultPoolConfig returns a general-purpose configuration.
func DefaultPoolConfig() *Config {
	return &Config{
		Capacity:       100,
		ExpiryDuration: 10 * time.Second,
	}
}

// Pool wraps an ants pool with task statistics and panic isolation.
type Pool struct {
	name     string
	typ      Type
	pool     *ants.Pool
	config   *Config
	stats    *statsCounter
	closed   atomic.Bool
	closedMu sync.Mutex
}

type statsCounter struct {
	SubmittedTasks atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	RejectedTasks  atomic.Int64
	PanicRecovered atomic.Int64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	SubmittedTasks int64
	CompletedTasks int64
	FailedTasks    int64
	RejectedTasks  int64
	PanicRecovered int64
}

// NewPool creates a new worker pool with the given configuration.
func NewPool(name string, typ Type, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	p := &Pool{
		name:   name,
		typ:    typ,
		config: config,
		stats:  &statsCounter{},
	}

	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
	}
	if config.PanicHandler != nil {
		opts = append(opts, ants.WithPanicHandler(config.PanicHandler))
	} else {
		opts = append(opts, ants.WithPanicHandler(func(r interface{}) {
			logger.Errorw("worker panic recovered", "pool", name, "panic", r)
		}))
	}

	antsPool, err := ants.NewPool(config.Capacity, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool

	logger.Infow("worker pool created", "name", name, "type", string(typ), "capacity", config.Capacity)

	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Type returns the pool type.
func (p *Pool) Type() Type { return p.typ }

// Running returns the number of busy workers.
func (p *Pool) Running() int { return p.pool.Running() }

// Free returns the number of available workers.
func (p *Pool) Free() int { return p.pool.Free() }

// Submit runs task on a pool worker.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		p.stats.SubmittedTasks.Add(1)
		defer func() {
			if r := recover(); r != nil {
				p.stats.PanicRecovered.Add(1)
				p.stats.FailedTasks.Add(1)
				// Re-panic so the ants panic handler logs it.
				panic(r)
			}
			p.stats.CompletedTasks.Add(1)
		}()
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.RejectedTasks.Add(1)
			return ErrPoolOverload
		}
		p.stats.FailedTasks.Add(1)
		return err
	}

	return nil
}

// SubmitDetached runs task on a pool worker, falling back to a plain
// goroutine when the pool rejects it. Detached work must run; the pool
// only bounds how much of it runs concurrently.
func (p *Pool) SubmitDetached(task func()) {
	if err := p.Submit(task); err != nil {
		logger.Warnw("pool submission failed, running detached task on goroutine",
			"pool", p.name, "error", err.Error())
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorw("detached task panic recovered", "pool", p.name, "panic", r)
				}
			}()
			task()
		}()
	}
}

// SubmitWithContext submits a task that is skipped if ctx is already
// cancelled when a worker picks it up.
func (p *Pool) SubmitWithContext(ctx context.Context, task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.Submit(func() {
		select {
		case <-ctx.Done():
			return
		default:
			task()
		}
	})
}

// Release closes the pool and frees its workers.
func (p *Pool) Release() {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return
	}

	p.closed.Store(true)
	p.pool.Release()
	logger.Infow("worker pool released", "name", p.name)
}

// ReleaseTimeout closes the pool, waiting up to timeout for running
// tasks to finish.
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return nil
	}

	p.closed.Store(true)
	return p.pool.ReleaseTimeout(timeout)
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		SubmittedTasks: p.stats.SubmittedTasks.Load(),
		CompletedTasks: p.stats.CompletedTasks.Load(),
		FailedTasks:    p.stats.FailedTasks.Load(),
		RejectedTasks:  p.stats.RejectedTasks.Load(),
		PanicRecovered: p.stats.PanicRecovered.Load(),
	}
}
