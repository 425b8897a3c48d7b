package board

import (
	"github.com/elementalai/elemental/internal/domain"
)

// Preview is where a dragged item would land if dropped now.
type Preview struct {
	List  domain.ListID
	Index int
}

// DragController turns pointer or keyboard drag callbacks into board moves.
// Hovering never mutates the board; the single MoveItem happens on drop, so
// the classification gate sees the true origin list.
type DragController struct {
	board   *Board
	active  string
	origin  domain.ListID
	preview *Preview
}

// NewDragController binds a controller to b.
func NewDragController(b *Board) *DragController {
	return &DragController{board: b}
}

// Active returns the item being dragged.
func (d *DragController) Active() (string, bool) {
	return d.active, d.active != ""
}

// Origin returns the list the active drag started from.
func (d *DragController) Origin() domain.ListID { return d.origin }

// OnDragStart records the item and its origin list.
func (d *DragController) OnDragStart(itemID string) error {
	l, _, err := d.board.Locate(itemID)
	if err != nil {
		return err
	}
	d.active = itemID
	d.origin = l
	d.preview = nil
	return nil
}

// OnDragOver computes the landing position for overID, which is either a
// list id (append to that list) or an item id (take that item's slot).
func (d *DragController) OnDragOver(itemID, overID string) (Preview, error) {
	if d.active != itemID {
		if err := d.OnDragStart(itemID); err != nil {
			return Preview{}, err
		}
	}
	p, err := d.resolve(overID)
	if err != nil {
		return Preview{}, err
	}
	d.preview = &p
	return p, nil
}

// OnDragEnd drops the item on overID. An empty overID or a drop on the item
// itself ends the drag without a move.
func (d *DragController) OnDragEnd(itemID, overID string) error {
	defer d.reset()
	if overID == "" || overID == itemID {
		_, _, err := d.board.Locate(itemID)
		return err
	}
	p, err := d.resolve(overID)
	if err != nil {
		return err
	}
	return d.board.MoveItem(itemID, p.List, p.Index)
}

// OnDragCancel abandons the drag. The board was never touched.
func (d *DragController) OnDragCancel() { d.reset() }

// LastPreview returns the most recent hover result.
func (d *DragController) LastPreview() (Preview, bool) {
	if d.preview == nil {
		return Preview{}, false
	}
	return *d.preview, true
}

func (d *DragController) resolve(overID string) (Preview, error) {
	if domain.ValidListIDs[overID] {
		l := domain.ListID(overID)
		items, err := d.board.List(l)
		if err != nil {
			return Preview{}, err
		}
		return Preview{List: l, Index: len(items)}, nil
	}
	l, pos, err := d.board.Locate(overID)
	if err != nil {
		return Preview{}, &domain.TargetError{List: overID}
	}
	return Preview{List: l, Index: pos}, nil
}

func (d *DragController) reset() {
	d.active = ""
	d.origin = ""
	d.preview = nil
}
