// Package persist saves board snapshots off the mutation path. A board
// mutation commits locally first; the dispatcher writes the latest snapshot
// later and retries on failure without ever reporting back to the board.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elementalai/elemental/internal/board"
)

// Sink stores a full board snapshot.
type Sink interface {
	SaveBoard(ctx context.Context, s board.Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s board.Snapshot) error

func (f SinkFunc) SaveBoard(ctx context.Context, s board.Snapshot) error { return f(ctx, s) }

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) SaveBoard(ctx context.Context, s board.Snapshot) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.SaveBoard(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrorHandler is told about snapshots that could not be saved after all
// retries.
type ErrorHandler func(s board.Snapshot, err error)

// Config tunes the dispatcher.
type Config struct {
	Debounce     time.Duration
	MaxRetries   int
	InitialRetry time.Duration
	MaxRetry     time.Duration
	SaveTimeout  time.Duration
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:     250 * time.Millisecond,
		MaxRetries:   3,
		InitialRetry: 100 * time.Millisecond,
		MaxRetry:     2 * time.Second,
		SaveTimeout:  5 * time.Second,
	}
}

// Dispatcher coalesces snapshots and saves the newest one after a quiet
// period. Notify never blocks.
type Dispatcher struct {
	sink    Sink
	cfg     Config
	onError ErrorHandler
	logger  *slog.Logger

	mu      sync.Mutex
	latest  *board.Snapshot
	saved   int64
	wake    chan struct{}
	closing chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithErrorHandler sets the callback for snapshots that were dropped.
func WithErrorHandler(h ErrorHandler) Option {
	return func(d *Dispatcher) { d.onError = h }
}

// WithLogWriter sends persistence failures to w as slog text lines.
func WithLogWriter(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
		}
	}
}

// NewDispatcher creates a dispatcher writing to sink.
func NewDispatcher(sink Sink, cfg Config, opts ...Option) *Dispatcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	d := &Dispatcher{
		sink:    sink,
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Listener returns a board.Listener that forwards snapshots to Notify.
func (d *Dispatcher) Listener() board.Listener {
	return d.Notify
}

// Notify records s as the newest state. Older unsaved snapshots of the same
// dispatcher are superseded.
func (d *Dispatcher) Notify(s board.Snapshot) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.latest == nil || s.Revision >= d.latest.Revision {
		d.latest = &s
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
	d.mu.Unlock()
}

// SavedRevision returns the newest revision written successfully.
func (d *Dispatcher) SavedRevision() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saved
}

// Start launches the background writer. It stops when ctx is cancelled or
// Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-d.wake:
			if !ok {
				d.flush(context.WithoutCancel(ctx))
				return
			}
		}

		if d.cfg.Debounce > 0 {
			timer := time.NewTimer(d.cfg.Debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.closing:
				// Close skips the rest of the quiet period.
				timer.Stop()
			case <-timer.C:
			}
		}
		d.flush(ctx)
	}
}

// Close stops accepting snapshots, writes the newest pending one and waits
// for the writer to exit or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	if started {
		close(d.closing)
		close(d.wake)
	}
	d.mu.Unlock()

	if !started {
		d.flush(ctx)
		return nil
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for persistence flush: %w", ctx.Err())
	}
}

// Flush writes the pending snapshot now, on the caller's goroutine.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.flush(ctx)
}

func (d *Dispatcher) flush(ctx context.Context) {
	d.mu.Lock()
	s := d.latest
	d.latest = nil
	d.mu.Unlock()
	if s == nil {
		return
	}

	err := d.save(ctx, *s)
	if err != nil {
		d.logger.ErrorContext(ctx, "board_persist_failed",
			"project_id", s.ProjectID,
			"revision", s.Revision,
			"error", err.Error(),
		)
		if d.onError != nil {
			d.onError(*s, err)
		}
		return
	}

	d.mu.Lock()
	if s.Revision > d.saved {
		d.saved = s.Revision
	}
	d.mu.Unlock()
}

func (d *Dispatcher) save(ctx context.Context, s board.Snapshot) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.cfg.InitialRetry
	if d.cfg.MaxRetry > 0 {
		policy.MaxInterval = d.cfg.MaxRetry
	}
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(policy, uint64(d.cfg.MaxRetries))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		saveCtx := ctx
		if d.cfg.SaveTimeout > 0 {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(ctx, d.cfg.SaveTimeout)
			defer cancel()
		}
		err := d.sink.SaveBoard(saveCtx, s)
		if err != nil {
			d.logger.WarnContext(ctx, "board_persist_retry",
				"project_id", s.ProjectID,
				"revision", s.Revision,
				"attempt", attempt,
				"error", err.Error(),
			)
			if errors.Is(err, ErrPermanent) {
				return backoff.Permanent(err)
			}
		}
		return err
	}, b)
}

// ErrPermanent marks sink errors that retrying cannot fix.
var ErrPermanent = errors.New("permanent persistence failure")
