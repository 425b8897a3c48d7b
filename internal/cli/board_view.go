package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/cli/formatter"
	"github.com/elementalai/elemental/internal/domain"
	"github.com/elementalai/elemental/internal/service"
)

func newBoardUICmd(app *App, projectRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(app, *projectRef, func(ctx context.Context, b *board.Board) error {
				_, err := tea.NewProgram(newBoardModel(ctx, app.Workspace), tea.WithAltScreen()).Run()
				return err
			})
		},
	}
}

type boardMode int

const (
	modeBrowse boardMode = iota
	modeDrag
	modeClassify
	modeAdd
)

type boardKeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Grab     key.Binding
	Cancel   key.Binding
	Complete key.Binding
	Remove   key.Binding
	Prompt   key.Binding
	Add      key.Binding
	Fix      key.Binding
	Pivot    key.Binding
	Quit     key.Binding
}

func defaultBoardKeys() boardKeyMap {
	return boardKeyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "list")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "list")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Grab:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "grab/drop")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Prompt:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "fix/pivot")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Fix:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix")),
		Pivot:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "pivot")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) help(mode boardMode) []key.Binding {
	switch mode {
	case modeDrag:
		return []key.Binding{k.Left, k.Up, k.Down, k.Grab, k.Cancel}
	case modeClassify:
		return []key.Binding{k.Fix, k.Pivot, k.Cancel}
	case modeAdd:
		return []key.Binding{k.Cancel}
	default:
		return []key.Binding{k.Left, k.Up, k.Grab, k.Complete, k.Remove, k.Prompt, k.Add, k.Quit}
	}
}

// boardModel is the interactive board. Items are dragged with the keyboard:
// grab, move the drop marker, drop. Every change goes through the workspace.
type boardModel struct {
	ctx  context.Context
	ws   *service.Workspace
	keys boardKeyMap

	mode    boardMode
	col     int
	row     int
	grabbed string
	preview *board.Preview

	form     *huh.Form
	formItem string
	kind     domain.Classification
	newTitle string

	width  int
	status string
	err    error
}

func newBoardModel(ctx context.Context, ws *service.Workspace) *boardModel {
	return &boardModel{ctx: ctx, ws: ws, keys: defaultBoardKeys()}
}

func (m *boardModel) Init() tea.Cmd {
	return m.checkGate()
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeDrag:
			return m.updateDrag(msg)
		case modeClassify:
			return m.updateClassify(msg)
		case modeAdd:
			return m.updateAdd(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *boardModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.moveColumn(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveColumn(1)
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.items(m.col))-1 {
			m.row++
		}
	case key.Matches(msg, m.keys.Grab):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.report(m.ws.DragStart(it.ID)) {
			m.mode = modeDrag
			m.grabbed = it.ID
			m.hover()
			m.status = "Dragging " + it.Title
		}
	case key.Matches(msg, m.keys.Complete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.report(m.ws.ToggleComplete(m.ctx, it.ID)) {
			m.status = "Toggled " + it.Title
			m.follow(it.ID)
		}
		return m, m.checkGate()
	case key.Matches(msg, m.keys.Remove):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.report(m.ws.RemoveItem(m.ctx, it.ID)) {
			m.status = "Removed " + it.Title
			m.clampRow()
		}
		return m, m.checkGate()
	case key.Matches(msg, m.keys.Prompt):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.report(m.ws.RequestClassification(m.ctx, it.ID))
		return m, m.checkGate()
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.newTitle = ""
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("New strategy").Placeholder("Title").Value(&m.newTitle),
		)).WithTheme(elementalHuhTheme()).WithShowHelp(false)
		return m, m.form.Init()
	}
	return m, nil
}

func (m *boardModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		id := m.grabbed
		m.ws.DragCancel()
		m.endDrag()
		m.follow(id)
		m.status = "Drag cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Left):
		m.moveColumn(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveColumn(1)
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.items(m.col)) {
			m.row++
		}
	case key.Matches(msg, m.keys.Grab):
		id := m.grabbed
		over := m.overID()
		err := m.ws.DragEnd(m.ctx, id, over)
		m.endDrag()
		if m.report(err) {
			m.status = "Dropped"
		}
		m.follow(id)
		return m, m.checkGate()
	default:
		return m, nil
	}
	m.hover()
	return m, nil
}

func (m *boardModel) updateClassify(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Fix):
		return m, m.classify(domain.ClassFix)
	case key.Matches(msg, m.keys.Pivot):
		return m, m.classify(domain.ClassPivot)
	case key.Matches(msg, m.keys.Cancel):
		return m, m.classify("")
	}
	return m.updateForm(msg)
}

func (m *boardModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m.closeForm()
		m.status = "Cancelled"
		return m, nil
	}
	return m.updateForm(msg)
}

// updateForm forwards msg to the open huh form and applies its answer once
// it completes.
func (m *boardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == modeClassify {
			return m, m.classify(m.kind)
		}
		m.addItem(m.newTitle)
		return m, nil
	case huh.StateAborted:
		if m.mode == modeClassify {
			return m, m.classify("")
		}
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

// classify answers the open prompt. An empty kind dismisses it and leaves
// the item unclassified in Validation.
func (m *boardModel) classify(kind domain.Classification) tea.Cmd {
	id := m.formItem
	m.closeForm()
	if kind == "" {
		if _, err := m.ws.CancelClassification(m.ctx); m.report(err) {
			m.status = "Left unclassified"
		}
		return nil
	}
	if m.report(m.ws.Classify(m.ctx, id, kind)) {
		m.status = "Classified as " + string(kind)
	}
	return m.checkGate()
}

func (m *boardModel) addItem(title string) {
	m.closeForm()
	if strings.TrimSpace(title) == "" {
		m.status = "Cancelled"
		return
	}
	id, err := m.ws.AddItem(m.ctx, domain.NewItem{Title: title})
	if m.report(err) {
		m.status = "Added " + strings.TrimSpace(title)
		m.follow(id)
	}
}

// checkGate opens the Fix/Pivot form when the board awaits a decision.
func (m *boardModel) checkGate() tea.Cmd {
	b := m.ws.Board()
	if b == nil {
		return nil
	}
	pending, ok := b.Pending()
	if !ok {
		return nil
	}
	it, err := b.Item(pending)
	if err != nil {
		return nil
	}
	m.mode = modeClassify
	m.formItem = pending
	m.form = newClassifyForm(it.Title, &m.kind)
	m.follow(pending)
	return m.form.Init()
}

func (m *boardModel) closeForm() {
	m.form = nil
	m.formItem = ""
	m.mode = modeBrowse
}

func (m *boardModel) endDrag() {
	m.mode = modeBrowse
	m.grabbed = ""
	m.preview = nil
}

// report records err for display and reports whether the action succeeded.
func (m *boardModel) report(err error) bool {
	m.err = err
	if err != nil {
		m.status = ""
		return false
	}
	return true
}

func (m *boardModel) items(col int) []domain.StrategyItem {
	b := m.ws.Board()
	if b == nil {
		return nil
	}
	items, _ := b.List(domain.Lists[col])
	return items
}

func (m *boardModel) selected() (domain.StrategyItem, bool) {
	items := m.items(m.col)
	if m.row < 0 || m.row >= len(items) {
		return domain.StrategyItem{}, false
	}
	return items[m.row], true
}

func (m *boardModel) moveColumn(delta int) {
	m.col = (m.col + delta + len(domain.Lists)) % len(domain.Lists)
	m.clampRow()
}

func (m *boardModel) clampRow() {
	limit := len(m.items(m.col))
	if m.mode != modeDrag {
		limit--
	}
	m.row = max(min(m.row, limit), 0)
}

// follow puts the cursor on itemID wherever it now is.
func (m *boardModel) follow(itemID string) {
	b := m.ws.Board()
	if b == nil || itemID == "" {
		m.clampRow()
		return
	}
	l, pos, err := b.Locate(itemID)
	if err != nil {
		m.clampRow()
		return
	}
	for i, id := range domain.Lists {
		if id == l {
			m.col = i
		}
	}
	m.row = pos
}

// overID is the drop target under the cursor: an item, or the column
// itself past its last item.
func (m *boardModel) overID() string {
	items := m.items(m.col)
	if m.row < len(items) {
		return items[m.row].ID
	}
	return string(domain.Lists[m.col])
}

func (m *boardModel) hover() {
	p, err := m.ws.DragOver(m.grabbed, m.overID())
	if !m.report(err) {
		m.preview = nil
		return
	}
	m.preview = &p
}

func (m *boardModel) View() string {
	var b strings.Builder

	if p := m.ws.Project(); p != nil {
		b.WriteString(formatter.Header(p.Name) + "\n\n")
	}
	snap, err := m.ws.Snapshot()
	if err != nil {
		return formatter.StyleRed.Render("Error: " + err.Error())
	}

	layout := formatter.BoardLayout{Width: m.width, Grabbed: m.grabbed, Preview: m.preview}
	if m.mode != modeDrag {
		if it, ok := m.selected(); ok {
			layout.Selected = it.ID
		}
	}
	b.WriteString(formatter.FormatBoard(snap, layout) + "\n\n")

	switch m.mode {
	case modeClassify:
		title := m.formItem
		if it, err := m.ws.Board().Item(m.formItem); err == nil {
			title = it.Title
		}
		b.WriteString(formatter.StyleYellow.Render("⚑ ") + formatter.Bold(title) + " needs a decision: fix or pivot?\n")
		b.WriteString(m.form.View() + "\n")
	case modeAdd:
		b.WriteString(m.form.View() + "\n")
	}

	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(formatter.Dim(m.status) + "\n")
	}
	b.WriteString(m.helpLine())
	return b.String()
}

func (m *boardModel) helpLine() string {
	parts := make([]string, 0, 8)
	for _, k := range m.keys.help(m.mode) {
		h := k.Help()
		parts = append(parts, fmt.Sprintf("%s %s", formatter.StyleHeader.Render(h.Key), formatter.Dim(h.Desc)))
	}
	return strings.Join(parts, formatter.Dim(" • "))
}
