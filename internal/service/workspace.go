package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/persist"
	"github.com/elementalai/elemental/internal/repository"
)

// ActiveProjectKey is the settings key holding the current project id.
const ActiveProjectKey = "active_project"

var (
	// ErrNoBoard is returned by board operations before a project is open.
	ErrNoBoard = errors.New("no project is open")

	// ErrNoActiveProject means no project has been selected with "project use".
	ErrNoActiveProject = errors.New("no active project (run: elemental project use <id>)")
)

// Workspace owns the board of the project being worked on. Opening another
// project flushes and discards the previous board. Every board operation goes
// through the workspace so it is observed and persisted.
//
// A Workspace is driven by one goroutine, like the board it wraps.
type Workspace struct {
	store    repository.BoardRepo
	projects repository.ProjectRepo
	settings repository.SettingsRepo

	persistCfg persist.Config
	extraSinks []persist.Sink
	logWriter  io.Writer
	boardOpts  []board.Option
	observer   UseCaseObserver

	project     *domain.Project
	board       *board.Board
	drag        *board.DragController
	dispatcher  *persist.Dispatcher
	unsubscribe func()
	stop        context.CancelFunc

	mu         sync.Mutex
	persistErr error
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithPersistConfig tunes the background writer.
func WithPersistConfig(cfg persist.Config) WorkspaceOption {
	return func(w *Workspace) { w.persistCfg = cfg }
}

// WithExtraSink adds a sink that receives every saved snapshot besides the
// board store.
func WithExtraSink(s persist.Sink) WorkspaceOption {
	return func(w *Workspace) { w.extraSinks = append(w.extraSinks, s) }
}

// WithPersistLog sends persistence warnings to out.
func WithPersistLog(out io.Writer) WorkspaceOption {
	return func(w *Workspace) { w.logWriter = out }
}

// WithBoardOptions passes options to every board the workspace builds.
func WithBoardOptions(opts ...board.Option) WorkspaceOption {
	return func(w *Workspace) { w.boardOpts = append(w.boardOpts, opts...) }
}

// WithObserver sets the use-case observer.
func WithObserver(obs UseCaseObserver) WorkspaceOption {
	return func(w *Workspace) {
		if obs != nil {
			w.observer = obs
		}
	}
}

// NewWorkspace creates a workspace with no open project.
func NewWorkspace(store repository.BoardRepo, projects repository.ProjectRepo, settings repository.SettingsRepo, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		store:      store,
		projects:   projects,
		settings:   settings,
		persistCfg: persist.DefaultConfig(),
		observer:   NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open loads projectID's board, starts its writer and records it as the
// active project. A board already open is flushed and discarded first.
func (w *Workspace) Open(ctx context.Context, projectID string) (err error) {
	fields := map[string]any{"project_id": projectID}
	defer observe(ctx, w.observer, "open-board", time.Now().UTC(), fields, &err)

	p, err := w.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.Status == domain.ProjectArchived {
		return fmt.Errorf("%w: project %s is archived", domain.ErrValidation, p.DisplayID())
	}
	// The current board must reach the store before it is read back, or
	// reopening the same project would restore an older revision.
	if err = w.closeCurrent(ctx); err != nil {
		return err
	}
	snap, err := w.store.LoadBoard(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("loading board: %w", err)
	}
	b, err := board.FromSnapshot(snap, w.boardOpts...)
	if err != nil {
		return fmt.Errorf("restoring board: %w", err)
	}

	sinks := persist.MultiSink{w.store}
	sinks = append(sinks, w.extraSinks...)
	d := persist.NewDispatcher(sinks, w.persistCfg,
		persist.WithErrorHandler(w.recordPersistError),
		persist.WithLogWriter(w.logWriter),
	)
	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	d.Start(runCtx)

	w.project = p
	w.board = b
	w.drag = board.NewDragController(b)
	w.dispatcher = d
	w.stop = stop
	w.unsubscribe = b.Subscribe(d.Listener())
	fields["items"] = b.Len()

	if err = w.settings.Set(ctx, ActiveProjectKey, p.ID); err != nil {
		return fmt.Errorf("saving active project: %w", err)
	}
	return nil
}

// Switch is Open under the name the UI uses when changing project context.
func (w *Workspace) Switch(ctx context.Context, projectID string) error {
	return w.Open(ctx, projectID)
}

// OpenActive opens the project recorded by the last Open.
func (w *Workspace) OpenActive(ctx context.Context) error {
	id, err := w.ActiveProjectID(ctx)
	if err != nil {
		return err
	}
	return w.Open(ctx, id)
}

// ActiveProjectID returns the project recorded by the last Open, or
// ErrNoActiveProject.
func (w *Workspace) ActiveProjectID(ctx context.Context) (string, error) {
	id, ok, err := w.settings.Get(ctx, ActiveProjectKey)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", ErrNoActiveProject
	}
	return id, nil
}

// Close flushes the open board and stops its writer. It returns the last
// persistence failure seen since the board was opened, if any.
func (w *Workspace) Close(ctx context.Context) error {
	if err := w.closeCurrent(ctx); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.persistErr
	w.persistErr = nil
	return err
}

func (w *Workspace) closeCurrent(ctx context.Context) error {
	if w.board == nil {
		return nil
	}
	w.unsubscribe()
	err := w.dispatcher.Close(ctx)
	w.stop()

	w.project = nil
	w.board = nil
	w.drag = nil
	w.dispatcher = nil
	w.unsubscribe = nil
	w.stop = nil
	if err != nil {
		return fmt.Errorf("closing board: %w", err)
	}
	return nil
}

// Flush writes the newest snapshot now and reports the last persistence
// failure, if any.
func (w *Workspace) Flush(ctx context.Context) error {
	if w.dispatcher == nil {
		return ErrNoBoard
	}
	w.dispatcher.Flush(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.persistErr
	w.persistErr = nil
	return err
}

func (w *Workspace) recordPersistError(s board.Snapshot, err error) {
	w.mu.Lock()
	w.persistErr = fmt.Errorf("saving board revision %d: %w", s.Revision, err)
	w.mu.Unlock()
}

// Project returns the open project, or nil.
func (w *Workspace) Project() *domain.Project { return w.project }

// Board returns the open board, or nil.
func (w *Workspace) Board() *board.Board { return w.board }

// Snapshot returns a copy of the open board.
func (w *Workspace) Snapshot() (board.Snapshot, error) {
	if w.board == nil {
		return board.Snapshot{}, ErrNoBoard
	}
	return w.board.Snapshot(), nil
}

// SavedRevision is the newest revision the writer has stored.
func (w *Workspace) SavedRevision() int64 {
	if w.dispatcher == nil {
		return 0
	}
	return w.dispatcher.SavedRevision()
}

func (w *Workspace) run(ctx context.Context, name string, fields map[string]any, fn func(b *board.Board) error) (err error) {
	defer observe(ctx, w.observer, name, time.Now().UTC(), fields, &err)
	if w.board == nil {
		return ErrNoBoard
	}
	fields["project_id"] = w.board.ProjectID()
	err = fn(w.board)
	fields["revision"] = w.board.Revision()
	return err
}

func (w *Workspace) MoveItem(ctx context.Context, itemID string, target domain.ListID, index int) error {
	fields := map[string]any{"item_id": itemID, "target": string(target), "index": index}
	return w.run(ctx, "move-item", fields, func(b *board.Board) error {
		if err := b.MoveItem(itemID, target, index); err != nil {
			return err
		}
		fields["gate"] = b.GateState().String()
		return nil
	})
}

func (w *Workspace) Classify(ctx context.Context, itemID string, kind domain.Classification) error {
	fields := map[string]any{"item_id": itemID, "kind": string(kind)}
	return w.run(ctx, "classify-item", fields, func(b *board.Board) error {
		return b.Classify(itemID, kind)
	})
}

func (w *Workspace) RequestClassification(ctx context.Context, itemID string) error {
	return w.run(ctx, "request-classification", map[string]any{"item_id": itemID}, func(b *board.Board) error {
		return b.RequestClassification(itemID)
	})
}

// CancelClassification dismisses the open prompt and returns the item it
// was for, or "".
func (w *Workspace) CancelClassification(ctx context.Context) (string, error) {
	var dismissed string
	fields := map[string]any{}
	err := w.run(ctx, "cancel-classification", fields, func(b *board.Board) error {
		dismissed = b.CancelClassification()
		fields["item_id"] = dismissed
		return nil
	})
	return dismissed, err
}

func (w *Workspace) AddItem(ctx context.Context, data domain.NewItem) (string, error) {
	var id string
	fields := map[string]any{}
	err := w.run(ctx, "add-item", fields, func(b *board.Board) error {
		var err error
		id, err = b.AddItem(data)
		fields["item_id"] = id
		return err
	})
	return id, err
}

// Seed appends candidate names to Discovery and returns the new ids.
func (w *Workspace) Seed(ctx context.Context, names []string) ([]string, error) {
	var added []string
	fields := map[string]any{"candidates": len(names)}
	err := w.run(ctx, "seed-board", fields, func(b *board.Board) error {
		added = b.Seed(names)
		fields["added"] = len(added)
		return nil
	})
	return added, err
}

func (w *Workspace) UpdateItem(ctx context.Context, itemID string, patch domain.ItemPatch) error {
	return w.run(ctx, "update-item", map[string]any{"item_id": itemID}, func(b *board.Board) error {
		return b.UpdateItem(itemID, patch)
	})
}

func (w *Workspace) RemoveItem(ctx context.Context, itemID string) error {
	return w.run(ctx, "remove-item", map[string]any{"item_id": itemID}, func(b *board.Board) error {
		return b.RemoveItem(itemID)
	})
}

func (w *Workspace) ToggleComplete(ctx context.Context, itemID string) error {
	fields := map[string]any{"item_id": itemID}
	return w.run(ctx, "toggle-complete", fields, func(b *board.Board) error {
		if err := b.ToggleComplete(itemID); err != nil {
			return err
		}
		it, err := b.Item(itemID)
		if err == nil {
			fields["completed"] = it.Completed
		}
		return nil
	})
}

// DragStart begins a drag of itemID.
func (w *Workspace) DragStart(itemID string) error {
	if w.drag == nil {
		return ErrNoBoard
	}
	return w.drag.OnDragStart(itemID)
}

// DragOver previews where the dragged item would land over overID.
func (w *Workspace) DragOver(itemID, overID string) (board.Preview, error) {
	if w.drag == nil {
		return board.Preview{}, ErrNoBoard
	}
	return w.drag.OnDragOver(itemID, overID)
}

// DragEnd drops the dragged item on overID.
func (w *Workspace) DragEnd(ctx context.Context, itemID, overID string) error {
	fields := map[string]any{"item_id": itemID, "over": overID}
	return w.run(ctx, "drop-item", fields, func(b *board.Board) error {
		if err := w.drag.OnDragEnd(itemID, overID); err != nil {
			return err
		}
		fields["gate"] = b.GateState().String()
		return nil
	})
}

// DragCancel abandons the current drag.
func (w *Workspace) DragCancel() {
	if w.drag != nil {
		w.drag.OnDragCancel()
	}
}
