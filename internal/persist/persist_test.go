package persist

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu    sync.Mutex
	saved []board.Snapshot
	fail  int32 // remaining failures
	err   error
}

func (r *recordingSink) SaveBoard(_ context.Context, s board.Snapshot) error {
	if atomic.AddInt32(&r.fail, -1) >= 0 {
		if r.err != nil {
			return r.err
		}
		return errors.New("sink unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	return nil
}

func (r *recordingSink) revisions() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, s := range r.saved {
		out = append(out, s.Revision)
	}
	return out
}

func fastConfig() Config {
	return Config{
		Debounce:     5 * time.Millisecond,
		MaxRetries:   3,
		InitialRetry: time.Millisecond,
		MaxRetry:     5 * time.Millisecond,
		SaveTimeout:  time.Second,
	}
}

func TestDispatcher_CoalescesToLatest(t *testing.T) {
	sink := &recordingSink{}
	cfg := fastConfig()
	cfg.Debounce = 50 * time.Millisecond
	d := NewDispatcher(sink, cfg)
	d.Start(context.Background())

	b := board.New("p1")
	b.Subscribe(d.Listener())
	for i := 0; i < 5; i++ {
		_, err := b.AddItem(domain.NewItem{Title: "idea"})
		require.NoError(t, err)
	}

	require.NoError(t, d.Close(context.Background()))
	revs := sink.revisions()
	require.NotEmpty(t, revs)
	assert.Equal(t, int64(5), revs[len(revs)-1])
	assert.Less(t, len(revs), 5, "intermediate snapshots are coalesced")
	assert.Equal(t, int64(5), d.SavedRevision())
}

func TestDispatcher_CloseCutsDebounceShort(t *testing.T) {
	sink := &recordingSink{}
	cfg := fastConfig()
	cfg.Debounce = time.Hour
	d := NewDispatcher(sink, cfg)
	d.Start(context.Background())

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 1})
	// Let the writer pick up the wake-up and start waiting out the debounce.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, d.Close(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, []int64{1}, sink.revisions())
	assert.Equal(t, int64(1), d.SavedRevision())
}

func TestDispatcher_MutationSucceedsWithoutPersistence(t *testing.T) {
	sink := &recordingSink{fail: 1000}
	d := NewDispatcher(sink, fastConfig())

	b := board.New("p1")
	b.Subscribe(d.Listener())
	_, err := b.AddItem(domain.NewItem{Title: "idea"})
	require.NoError(t, err, "board commits before persistence is even attempted")
	assert.Equal(t, 1, b.Len())

	require.NoError(t, d.Close(context.Background()))
	assert.Empty(t, sink.revisions())
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	sink := &recordingSink{fail: 2}
	d := NewDispatcher(sink, fastConfig())
	d.Start(context.Background())

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 1})
	require.Eventually(t, func() bool { return d.SavedRevision() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_ReportsExhaustedRetries(t *testing.T) {
	sink := &recordingSink{fail: 100}
	var logs bytes.Buffer
	var mu sync.Mutex
	var failed []int64
	d := NewDispatcher(sink, fastConfig(),
		WithLogWriter(&logs),
		WithErrorHandler(func(s board.Snapshot, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, s.Revision)
		}),
	)

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 3})
	d.Flush(context.Background())

	mu.Lock()
	assert.Equal(t, []int64{3}, failed)
	mu.Unlock()
	assert.Equal(t, int32(100-4), atomic.LoadInt32(&sink.fail), "one attempt plus three retries")
	assert.Contains(t, logs.String(), "board_persist_failed")
	assert.Contains(t, logs.String(), "attempt=4")
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_PermanentErrorStopsRetrying(t *testing.T) {
	sink := &recordingSink{fail: 100, err: ErrPermanent}
	var got error
	d := NewDispatcher(sink, fastConfig(), WithErrorHandler(func(_ board.Snapshot, err error) { got = err }))

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 1})
	d.Flush(context.Background())

	assert.ErrorIs(t, got, ErrPermanent)
	assert.Equal(t, int32(99), atomic.LoadInt32(&sink.fail))
}

func TestDispatcher_IgnoresOlderRevision(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, fastConfig())

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 4})
	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 2})
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, []int64{4}, sink.revisions())
}

func TestDispatcher_NotifyAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, fastConfig())
	d.Start(context.Background())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()), "close is idempotent")

	d.Notify(board.Snapshot{ProjectID: "p1", Revision: 9})
	d.Start(context.Background())
	assert.Empty(t, sink.revisions())
}

func TestDispatcher_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(&recordingSink{}, fastConfig())
	d.Start(ctx)
	cancel()

	select {
	case <-d.done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	boom := SinkFunc(func(context.Context, board.Snapshot) error { return errors.New("boom") })

	err := MultiSink{ok, nil, boom}.SaveBoard(context.Background(), board.Snapshot{Revision: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []int64{1}, ok.revisions())
}
