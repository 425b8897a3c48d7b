// Package board holds the four-list strategy board for one project and the
// Fix/Pivot classification gate that guards the Discovery to Validation move.
//
// A Board is driven synchronously by discrete user events and is not safe for
// concurrent use. Collaborators observe it through Subscribe, which hands out
// deep-copied Snapshots after every successful mutation.
package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/elementalai/elemental/internal/domain"
	"github.com/google/uuid"
)

// Listener receives a snapshot after each committed mutation. Listeners run
// synchronously on the mutating call and must not call back into the board.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Board is the ordered partition of a project's strategy items into the
// Discovery, Validation, Growth and Success lists.
type Board struct {
	projectID string
	lists     [4][]*domain.StrategyItem
	gate      Gate
	revision  int64

	subs   []subscription
	nextID int

	now   func() time.Time
	newID func() string
}

// Option configures a Board.
type Option func(*Board)

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDGenerator overrides how new item ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) { b.newID = fn }
}

// New creates an empty board for projectID.
func New(projectID string, opts ...Option) *Board {
	b := &Board{
		projectID: projectID,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
	for i := range b.lists {
		b.lists[i] = []*domain.StrategyItem{}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromSnapshot rebuilds a board from persisted state. A pending gate is kept
// only when it still points at an unclassified item in Validation.
func FromSnapshot(s Snapshot, opts ...Option) (*Board, error) {
	b := New(s.ProjectID, opts...)
	seen := make(map[string]domain.ListID)
	for key := range s.Lists {
		if _, ok := listIndex(key); !ok {
			return nil, &domain.TargetError{List: string(key)}
		}
	}
	for i, l := range domain.Lists {
		for _, it := range s.Lists[l] {
			if prev, dup := seen[it.ID]; dup {
				return nil, fmt.Errorf("item %s appears in both %s and %s", it.ID, prev, l)
			}
			seen[it.ID] = l
			c := it.Clone()
			c.Completed = l == domain.ListSuccess
			b.lists[i] = append(b.lists[i], &c)
		}
	}
	b.revision = s.Revision
	if s.Pending != "" {
		if it, l, _, ok := b.find(s.Pending); ok && l == domain.ListValidation && !it.IsClassified() {
			b.gate.open(s.Pending)
		}
	}
	return b, nil
}

// ProjectID returns the owning project.
func (b *Board) ProjectID() string { return b.projectID }

// Revision increases by one on every committed mutation.
func (b *Board) Revision() int64 { return b.revision }

// GateState reports whether a classification prompt is open.
func (b *Board) GateState() GateState { return b.gate.State() }

// Pending returns the item awaiting classification, if any.
func (b *Board) Pending() (string, bool) { return b.gate.Pending() }

// Len returns the total number of items on the board.
func (b *Board) Len() int {
	n := 0
	for _, l := range b.lists {
		n += len(l)
	}
	return n
}

// List returns a copy of one list in display order.
func (b *Board) List(id domain.ListID) ([]domain.StrategyItem, error) {
	idx, ok := listIndex(id)
	if !ok {
		return nil, &domain.TargetError{List: string(id)}
	}
	return cloneList(b.lists[idx]), nil
}

// Item returns a copy of the item with the given id.
func (b *Board) Item(itemID string) (domain.StrategyItem, error) {
	it, _, _, ok := b.find(itemID)
	if !ok {
		return domain.StrategyItem{}, notFound(itemID)
	}
	return it.Clone(), nil
}

// Locate returns the list holding itemID and its position within it.
func (b *Board) Locate(itemID string) (domain.ListID, int, error) {
	_, l, pos, ok := b.find(itemID)
	if !ok {
		return "", 0, notFound(itemID)
	}
	return l, pos, nil
}

// MoveItem removes the item from its list and inserts it into target at
// index, clamped to the target's bounds. Moving an unclassified item from
// Discovery into Validation opens the classification gate; the move stands
// but the caller must follow up with Classify.
//
// An unclassified item may not enter Growth or Success. When it is refused
// from Validation the gate is reopened for it. While the gate awaits one
// item, MoveItem refuses every other item.
func (b *Board) MoveItem(itemID string, target domain.ListID, index int) error {
	to, ok := listIndex(target)
	if !ok {
		return &domain.TargetError{List: string(target)}
	}
	item, from, pos, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}

	if pending, ok := b.gate.Pending(); ok && pending != itemID {
		return &domain.TransitionError{
			ItemID: itemID, From: from, To: target,
			Reason: fmt.Sprintf("classification pending for %s", pending),
		}
	}

	if !item.IsClassified() && (target == domain.ListGrowth || target == domain.ListSuccess) {
		if from == domain.ListValidation && !b.gate.awaiting(itemID) {
			b.gate.open(itemID)
			b.commit()
		}
		return &domain.TransitionError{
			ItemID: itemID, From: from, To: target,
			Reason: "classify as fix or pivot first",
		}
	}

	fromIdx, _ := listIndex(from)
	b.lists[fromIdx] = removeAt(b.lists[fromIdx], pos)
	b.lists[to] = insertAt(b.lists[to], index, item)
	if from != target {
		item.Completed = target == domain.ListSuccess
		item.UpdatedAt = b.now()
	}

	switch {
	case from == domain.ListDiscovery && target == domain.ListValidation && !item.IsClassified():
		b.gate.open(itemID)
	case b.gate.awaiting(itemID) && target != domain.ListValidation:
		b.gate.close()
	}

	b.commit()
	return nil
}

// Classify records the Fix/Pivot decision. Repeating the same kind is a
// no-op. Classifying the pending item closes the gate.
func (b *Board) Classify(itemID string, kind domain.Classification) error {
	if kind != domain.ClassFix && kind != domain.ClassPivot {
		return fmt.Errorf("%w: %q", domain.ErrInvalidClassification, kind)
	}
	item, _, _, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}

	changed := false
	if item.Classification != kind {
		item.Classification = kind
		item.UpdatedAt = b.now()
		changed = true
	}
	if b.gate.awaiting(itemID) {
		b.gate.close()
		changed = true
	}
	if changed {
		b.commit()
	}
	return nil
}

// RequestClassification reopens the prompt for an unclassified item sitting
// in Validation. Asking again for the already pending item is a no-op.
func (b *Board) RequestClassification(itemID string) error {
	item, l, _, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}
	if b.gate.awaiting(itemID) {
		return nil
	}
	if pending, ok := b.gate.Pending(); ok {
		return &domain.TransitionError{
			ItemID: itemID, From: l, To: l,
			Reason: fmt.Sprintf("classification pending for %s", pending),
		}
	}
	if l != domain.ListValidation || item.IsClassified() {
		return &domain.TransitionError{
			ItemID: itemID, From: l, To: l,
			Reason: "only unclassified items in validation need a decision",
		}
	}
	b.gate.open(itemID)
	b.commit()
	return nil
}

// CancelClassification dismisses the prompt. The item stays in Validation
// and stays unclassified. It returns the dismissed item id, or "".
func (b *Board) CancelClassification() string {
	pending, ok := b.gate.Pending()
	if !ok {
		return ""
	}
	b.gate.close()
	b.commit()
	return pending
}

// AddItem appends a new unclassified item to Discovery and returns its id.
func (b *Board) AddItem(data domain.NewItem) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	now := b.now()
	item := &domain.StrategyItem{
		ID:             b.newID(),
		ProjectID:      b.projectID,
		Title:          data.Title,
		Description:    data.Description,
		Classification: domain.Unclassified,
		Impact:         data.Impact,
		GrowthRate:     data.GrowthRate,
		Confidence:     data.Confidence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.lists[0] = append(b.lists[0], item)
	b.commit()
	return item.ID, nil
}

// Seed appends one Discovery item per candidate name, skipping blanks and
// titles already on the board. It returns the ids created, in order.
func (b *Board) Seed(names []string) []string {
	existing := make(map[string]bool, b.Len())
	for _, l := range b.lists {
		for _, it := range l {
			existing[strings.ToLower(it.Title)] = true
		}
	}

	now := b.now()
	var added []string
	for _, name := range names {
		title := strings.TrimSpace(name)
		key := strings.ToLower(title)
		if title == "" || existing[key] {
			continue
		}
		data := domain.NewItem{Title: title}
		if err := data.Validate(); err != nil {
			continue
		}
		existing[key] = true
		item := &domain.StrategyItem{
			ID:             b.newID(),
			ProjectID:      b.projectID,
			Title:          data.Title,
			Classification: domain.Unclassified,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		b.lists[0] = append(b.lists[0], item)
		added = append(added, item.ID)
	}
	if len(added) > 0 {
		b.commit()
	}
	return added
}

// UpdateItem merges patch into the item.
func (b *Board) UpdateItem(itemID string, patch domain.ItemPatch) error {
	item, _, _, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}
	if patch.IsEmpty() {
		return nil
	}
	if err := patch.Apply(item, b.now()); err != nil {
		return err
	}
	b.commit()
	return nil
}

// RemoveItem deletes the item from whichever list holds it.
func (b *Board) RemoveItem(itemID string) error {
	_, l, pos, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}
	idx, _ := listIndex(l)
	b.lists[idx] = removeAt(b.lists[idx], pos)
	if b.gate.awaiting(itemID) {
		b.gate.close()
	}
	b.commit()
	return nil
}

// ToggleComplete moves an item to the end of Success and marks it completed,
// or, when it is already in Success, back to the end of Discovery. It does
// not pass through the classification gate.
func (b *Board) ToggleComplete(itemID string) error {
	item, l, pos, ok := b.find(itemID)
	if !ok {
		return notFound(itemID)
	}
	idx, _ := listIndex(l)
	b.lists[idx] = removeAt(b.lists[idx], pos)

	target := domain.ListSuccess
	if l == domain.ListSuccess {
		target = domain.ListDiscovery
	}
	to, _ := listIndex(target)
	b.lists[to] = append(b.lists[to], item)
	item.Completed = target == domain.ListSuccess
	item.UpdatedAt = b.now()

	if b.gate.awaiting(itemID) {
		b.gate.close()
	}
	b.commit()
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (b *Board) Subscribe(fn Listener) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a deep copy of the current state.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		ProjectID: b.projectID,
		Revision:  b.revision,
		Lists:     make(map[domain.ListID][]domain.StrategyItem, len(domain.Lists)),
	}
	for i, l := range domain.Lists {
		s.Lists[l] = cloneList(b.lists[i])
	}
	s.Pending, _ = b.gate.Pending()
	return s
}

func (b *Board) commit() {
	b.revision++
	if len(b.subs) == 0 {
		return
	}
	subs := append([]subscription(nil), b.subs...)
	for _, s := range subs {
		s.fn(b.Snapshot())
	}
}

func (b *Board) find(itemID string) (*domain.StrategyItem, domain.ListID, int, bool) {
	for i, l := range b.lists {
		for pos, it := range l {
			if it.ID == itemID {
				return it, domain.Lists[i], pos, true
			}
		}
	}
	return nil, "", 0, false
}

func listIndex(id domain.ListID) (int, bool) {
	for i, l := range domain.Lists {
		if l == id {
			return i, true
		}
	}
	return 0, false
}

func notFound(itemID string) error {
	return &domain.NotFoundError{Kind: "item", ID: itemID}
}

func removeAt(items []*domain.StrategyItem, pos int) []*domain.StrategyItem {
	out := make([]*domain.StrategyItem, 0, len(items))
	out = append(out, items[:pos]...)
	return append(out, items[pos+1:]...)
}

func insertAt(items []*domain.StrategyItem, pos int, item *domain.StrategyItem) []*domain.StrategyItem {
	if pos < 0 {
		pos = 0
	}
	if pos > len(items) {
		pos = len(items)
	}
	out := make([]*domain.StrategyItem, 0, len(items)+1)
	out = append(out, items[:pos]...)
	out = append(out, item)
	return append(out, items[pos:]...)
}

func cloneList(items []*domain.StrategyItem) []domain.StrategyItem {
	out := make([]domain.StrategyItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}
