package board

// GateState is the classification prompt state.
type GateState int

const (
	GateIdle GateState = iota
	GateAwaiting
)

func (s GateState) String() string {
	if s == GateAwaiting {
		return "awaiting_classification"
	}
	return "idle"
}

// Gate tracks the single item, if any, waiting on a Fix/Pivot decision.
// It has no timeout; it holds until resolved or cancelled.
type Gate struct {
	itemID string
}

// State returns the current gate state.
func (g *Gate) State() GateState {
	if g.itemID == "" {
		return GateIdle
	}
	return GateAwaiting
}

// Pending returns the awaiting item id.
func (g *Gate) Pending() (string, bool) {
	return g.itemID, g.itemID != ""
}

func (g *Gate) open(itemID string) { g.itemID = itemID }

func (g *Gate) close() { g.itemID = "" }

func (g *Gate) awaiting(itemID string) bool {
	return g.itemID != "" && g.itemID == itemID
}
