package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
	"github.com/matzehuels/treepack/pkg/tree"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle       = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

var encodingNames = func() []string {
	names := make([]string, len(palette.Encodings))
	for i, e := range palette.Encodings {
		names[i] = string(e)
	}
	return names
}()

// exploreRow is one top-level entry of the current layout.
type exploreRow struct {
	path   string
	kind   string
	radius float64
	drawn  int // nodes drawn inside it, itself included
}

// layoutMsg carries the result of a background layout pass.
type layoutMsg struct {
	layout scene.Layout
	next   history.Context
	cached bool
	err    error
}

// savedMsg reports written artifacts.
type savedMsg struct {
	paths []string
	err   error
}

// exploreModel is the bubbletea model of `treepack explore`.
type exploreModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	root   *tree.Node
	sess   *session.Session
	opts   pipeline.Options

	input  string
	output string

	layout scene.Layout
	rows   []exploreRow
	cursor int
	offset int
	height int
	busy   bool
	cached bool
	reset  bool
	status string
	saved  []string
	err    error
}

func newExploreModel(ctx context.Context, runner *pipeline.Runner, root *tree.Node, sess *session.Session, opts pipeline.Options) exploreModel {
	return exploreModel{
		ctx:    ctx,
		runner: runner,
		root:   root,
		sess:   sess,
		opts:   opts,
		height: 12,
		busy:   true,
		reset:  opts.Reset,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return m.relayout()
}

// relayout runs one pass against the session's context.
func (m exploreModel) relayout() tea.Cmd {
	ctx, runner, root, opts := m.ctx, m.runner, m.root, m.opts
	prev := m.sess.Context
	if m.reset {
		prev = history.Empty()
	}
	return func() tea.Msg {
		l, next, hit, err := runner.LayoutWithCacheInfo(ctx, root, prev, opts)
		return layoutMsg{layout: l, next: next, cached: hit, err: err}
	}
}

func (m exploreModel) save() tea.Cmd {
	ctx, runner, l, opts := m.ctx, m.runner, m.layout, m.opts
	input, output := m.input, m.output
	if sel, ok := m.selected(); ok {
		opts.Selected = sel
	}
	return func() tea.Msg {
		artifacts, err := runner.Render(ctx, l, opts)
		if err != nil {
			return savedMsg{err: err}
		}
		paths, err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   opts.Formats,
			input:     input,
			output:    output,
		})
		return savedMsg{paths: paths, err: err}
	}
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case layoutMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "layout failed: " + msg.err.Error()
			return m, nil
		}
		m.reset = false
		m.layout = msg.layout
		m.cached = msg.cached
		m.rows = exploreRows(msg.layout)
		m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
		m.sess.Source = m.input
		m.sess.Update(msg.next)
		if m.opts.SessionID != "" {
			if err := m.runner.SaveSession(m.ctx, m.sess); err != nil {
				m.status = "session not saved: " + err.Error()
				return m, nil
			}
		}
		m.status = ""
		return m, nil

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.saved = append(m.saved, msg.paths...)
		m.status = "saved " + strings.Join(msg.paths, ", ")
		return m, nil

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.offset = min(m.offset, m.cursor)
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
			return m, nil
		}

		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "+", "=":
			m.opts.MaxDepth++
		case "-", "_":
			if m.opts.MaxDepth <= 1 {
				return m, nil
			}
			m.opts.MaxDepth--
		case "e":
			m.opts.Encoding = nextEncoding(m.opts.Encoding)
		case "r":
			m.reset = true
		case "s":
			m.busy = true
			m.status = "saving..."
			return m, m.save()
		default:
			return m, nil
		}
		m.busy = true
		m.status = "laying out..."
		return m, m.relayout()
	}
	return m, nil
}

func (m exploreModel) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return "", false
	}
	return m.rows[m.cursor].path, true
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("treepack explore"))
	b.WriteString("  ")
	b.WriteString(StyleValue.Render(m.input))
	b.WriteString("\n")

	state := []string{
		fmt.Sprintf("depth %s", StyleNumber.Render(fmt.Sprint(m.opts.MaxDepth))),
		fmt.Sprintf("color %s", StyleNumber.Render(m.opts.Encoding)),
		fmt.Sprintf("%s/%s drawn", StyleNumber.Render(fmt.Sprint(len(m.layout.Nodes))), StyleNumber.Render(fmt.Sprint(m.layout.Total))),
		fmt.Sprintf("pass %s", StyleNumber.Render(fmt.Sprint(m.sess.Passes))),
	}
	if m.cached {
		state = append(state, styleCached.Render(iconCached))
	}
	b.WriteString(strings.Join(state, listDimStyle.Render(" · ")))
	b.WriteString("\n\n")

	if len(m.rows) > 0 {
		b.WriteString(m.table())
		b.WriteString("\n")
	} else if m.busy {
		b.WriteString(listDimStyle.Render("laying out..."))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(StyleWarning.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("↑/↓ select  +/- depth  e color  r reset  s save  q quit"))
	return b.String()
}

func (m exploreModel) table() string {
	end := min(m.offset+m.height, len(m.rows))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, r.path, r.kind, fmt.Sprintf("%.0f", r.radius), fmt.Sprint(r.drawn)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Path", "Kind", "Radius", "Drawn").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows)))
}

// exploreRows lists the depth-1 nodes of l, largest first, with the number
// of drawn nodes below each. Nodes arrive depth-first, so every deeper node
// belongs to the last depth-1 node seen.
func exploreRows(l scene.Layout) []exploreRow {
	var rows []exploreRow
	for _, n := range l.Nodes {
		switch {
		case n.Depth == 1:
			rows = append(rows, exploreRow{path: n.Path, kind: n.Kind, radius: n.R, drawn: 1})
		case n.Depth > 1 && len(rows) > 0:
			rows[len(rows)-1].drawn++
		}
	}
	slices.SortStableFunc(rows, func(a, b exploreRow) int {
		return cmp.Compare(b.radius, a.radius)
	})
	return rows
}
