// Package tui hosts a graph view in the terminal with bubbletea.
//
// The model is single-threaded within the bubbletea event loop; the layout
// loop of the view runs on its own goroutine and is only read through
// snapshots.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/plugin/render"
	"github.com/hrygo/notegraph/plugin/render/term"
	"github.com/hrygo/notegraph/server/internal/observability"
	"github.com/hrygo/notegraph/server/view"
)

const (
	headerHeight = 1
	footerHeight = 1
	surface      = "tui"
)

type readyMsg struct{}

type frameMsg time.Time

// Model is the bubbletea model of the graph view.
type Model struct {
	view    *view.View
	nav     *Navigator
	canvas  *term.Canvas
	spinner spinner.Model
	fps     int

	width, height int
	ready         bool
	opened        []string
	quitting      bool
}

// New returns a model for a mounted view. nav must be the navigator the
// view was created with.
func New(v *view.View, nav *Navigator, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		view:    v,
		nav:     nav,
		canvas:  term.New(0, 0),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyle)),
		fps:     fps,
	}
}

// Opened returns the ids of the notes activated during the session, in order.
func (m Model) Opened() []string {
	return m.opened
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitReady(), m.frame(), m.nav.wait())
}

func (m Model) waitReady() tea.Cmd {
	v := m.view
	return func() tea.Msg {
		<-v.Ready()
		return readyMsg{}
	}
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.Resize(m.width, max(m.height-headerHeight-footerHeight, 0))
		if r := m.view.Renderer(); r != nil {
			r.Resize(m.canvas.Size())
		}

	case readyMsg:
		m.ready = true
		if r := m.view.Renderer(); r != nil {
			r.Resize(m.canvas.Size())
		}

	case frameMsg:
		if r := m.view.Renderer(); r != nil {
			r.Draw(m.canvas)
			observability.GlobalMetrics().RecordFrame(surface)
		}
		return m, m.frame()

	case NavigateMsg:
		m.opened = append(m.opened, msg.NoteID)
		return m, m.nav.wait()

	case tea.BlurMsg:
		if r := m.view.Renderer(); r != nil {
			r.PointerLeave()
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) {
	r := m.view.Renderer()
	if r == nil {
		return
	}
	x, y := term.CellToPixel(msg.X, msg.Y-headerHeight)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			r.Wheel(-1)
		case tea.MouseButtonWheelDown:
			r.Wheel(1)
		case tea.MouseButtonLeft:
			r.PointerDown(x, y)
		}
	case tea.MouseActionRelease:
		r.PointerUp()
	case tea.MouseActionMotion:
		r.PointerMove(x, y)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	r := m.view.Renderer()
	if r == nil {
		return m, nil
	}
	switch msg.String() {
	case "t":
		r.SetShowSharedTagEdges(!r.Options().ShowSharedTagEdges)
	case "l":
		if r.Options().Labels == render.LabelsAlways {
			r.SetLabelMode(render.LabelsOnFocus)
		} else {
			r.SetLabelMode(render.LabelsAlways)
		}
	case "+", "=":
		r.Wheel(-1)
	case "-":
		r.Wheel(1)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderBody())
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("notegraph")
	status, _ := m.view.State()
	if g := m.view.Graph(); g != nil && status != view.StatusEmpty {
		s := g.Stats()
		return title + statusStyle.Render(fmt.Sprintf("  %d notes, %d links, %d shared-tag edges", s.NodeCount, s.LinkEdges, s.SharedTagEdges))
	}
	return title
}

func (m Model) renderBody() string {
	status, err := m.view.State()
	height := max(m.height-headerHeight-footerHeight, 1)
	place := func(s string) string {
		return lipgloss.Place(max(m.width, 1), height, lipgloss.Center, lipgloss.Center, s)
	}
	switch status {
	case view.StatusLoading:
		return place(m.spinner.View() + " Loading notes...")
	case view.StatusEmpty:
		return place(emptyStyle.Render(view.EmptyMessage))
	case view.StatusFailed:
		return place(errorStyle.Render(fmt.Sprintf("Could not load the graph: %v", err)))
	}
	return m.canvas.Render()
}

func (m Model) renderFooter() string {
	keys := []string{"[drag] pan", "[wheel/+/-] zoom", "[click] open", "[t] shared tags", "[l] labels", "[q] quit"}
	footer := helpStyle.Render(strings.Join(keys, "  "))
	if n := len(m.opened); n > 0 {
		footer += "  " + openedStyle.Render("opened "+m.noteTitle(m.opened[n-1]))
	}
	return footer
}

func (m Model) noteTitle(id string) string {
	if g := m.view.Graph(); g != nil {
		if node, ok := g.Node(id); ok {
			return node.Title
		}
	}
	return id
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff79c6"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a0a0b0"))
	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1fa8c"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	openedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8be9fd"))
)

// Titles resolves node ids to titles for hosts printing activated notes.
func Titles(g *graph.Graph, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if node, ok := g.Node(id); ok {
			out = append(out, node.Title)
		}
	}
	return out
}
