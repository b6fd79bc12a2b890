// Package tui is an interactive terminal browser for solved trajectories.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/viz"
)

// Entry is one trajectory the browser can show.
type Entry struct {
	Title      string
	Names      []string
	Trajectory *dynamo.Trajectory[float64]
	// Derivative of the primary variable per sample, optional.
	Derivative []float64
}

type state int

const (
	stateMenu state = iota
	stateView
)

type mode int

const (
	modePlot mode = iota
	modePhase
)

type model struct {
	state   state
	entries []Entry
	cursor  int

	sample   int
	variable int
	mode     mode
	playing  bool
	speed    int

	width  int
	height int
}

// NewBrowser returns the browser model. With a single entry it opens that
// trajectory directly, otherwise it starts on the entry list.
func NewBrowser(entries ...Entry) tea.Model {
	m := model{
		entries: entries,
		speed:   1,
		width:   80,
		height:  24,
	}
	if len(entries) == 1 {
		m.state = stateView
	}
	return m
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) current() Entry { return m.entries[m.cursor] }

func (m model) samples() int {
	if len(m.entries) == 0 || m.current().Trajectory == nil {
		return 0
	}
	return m.current().Trajectory.Len()
}

func (m model) dim() int {
	if len(m.entries) == 0 || m.current().Trajectory == nil {
		return 0
	}
	return m.current().Trajectory.Dim()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateView || !m.playing {
			return m, nil
		}
		m.sample += m.speed
		if m.sample >= m.samples()-1 {
			m.sample = max(m.samples()-1, 0)
			m.playing = false
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateView:
		return m.viewKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.entries) > 0 {
			m.state = stateView
			m.sample, m.variable, m.playing = 0, 0, false
		}
	}
	return m, nil
}

func (m model) viewKey(msg tea.KeyMsg) (model, tea.Cmd) {
	last := max(m.samples()-1, 0)
	jump := max(m.samples()/10, 1)

	switch msg.String() {
	case "q", "esc":
		m.playing = false
		if len(m.entries) == 1 {
			return m, tea.Quit
		}
		m.state = stateMenu
		return m, tea.ClearScreen
	case "right", "l":
		m.sample = min(m.sample+1, last)
	case "left", "h":
		m.sample = max(m.sample-1, 0)
	case "pgdown", "L":
		m.sample = min(m.sample+jump, last)
	case "pgup", "H":
		m.sample = max(m.sample-jump, 0)
	case "home", "g":
		m.sample = 0
	case "end", "G":
		m.sample = last
	case "down", "j":
		m.variable = (m.variable + 1) % max(m.dim(), 1)
	case "up", "k":
		m.variable = (m.variable - 1 + max(m.dim(), 1)) % max(m.dim(), 1)
	case "tab":
		if m.mode == modePlot && m.dim() >= 2 {
			m.mode = modePhase
		} else {
			m.mode = modePlot
		}
	case "+", "=":
		m.speed = min(m.speed*2, 64)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "t":
		names := viz.ThemeNames()
		for i, n := range names {
			if n == viz.CurrentTheme.Name {
				viz.SetTheme(names[(i+1)%len(names)])
				break
			}
		}
	case " ", "p":
		if m.sample >= last {
			m.sample = 0
		}
		m.playing = !m.playing
		if m.playing {
			return m, tick()
		}
	}
	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateView:
		return m.viewTrajectory()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("   " + viz.Title.Render("p s m s i m") + "\n")
	b.WriteString("   " + viz.Separator(30) + "\n\n")

	if len(m.entries) == 0 {
		b.WriteString("   " + viz.Subtle.Render("no trajectories") + "\n")
	}
	for i, e := range m.entries {
		steps := 0
		if e.Trajectory != nil {
			steps = e.Trajectory.Len() - 1
		}
		info := fmt.Sprintf("%d steps", steps)
		if i == m.cursor {
			b.WriteString("   " + viz.Selected.Render("▸ "+fmt.Sprintf("%-36s", e.Title)) + viz.Subtle.Render(info) + "\n")
		} else {
			b.WriteString("     " + fmt.Sprintf("%-36s", e.Title) + viz.Subtle.Render(info) + "\n")
		}
	}

	b.WriteString("\n" + viz.KeyHint.Render("   ↑↓ select   enter open   q quit") + "\n")
	return b.String()
}

func (m model) name(j int) string {
	names := m.current().Names
	if j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("x%d", j)
}

func (m model) viewTrajectory() string {
	e := m.current()
	tr := e.Trajectory
	if tr == nil || tr.Len() == 0 {
		return "\n   " + viz.Subtle.Render("empty trajectory") + "\n"
	}

	cw := max(m.width-14, 40)
	ch := max(m.height-14, 6)

	var b strings.Builder
	b.WriteString("\n   " + viz.Title.Render(e.Title) + "\n")
	b.WriteString("   " + viz.Separator(cw) + "\n")

	switch m.mode {
	case modePhase:
		y := (m.variable + 1) % tr.Dim()
		portrait := analysis.PhasePortraitFromTrajectory(tr, m.variable, y)
		b.WriteString(viz.Subtle.Render(fmt.Sprintf("   %s vs %s", m.name(y), m.name(m.variable))) + "\n")
		for _, line := range strings.Split(viz.PhaseCanvas(portrait, cw/2, ch/2), "\n") {
			b.WriteString("   " + line + "\n")
		}
	default:
		b.WriteString(viz.PlotVariable(tr, m.variable, m.name(m.variable), cw, ch) + "\n")
	}

	b.WriteString("\n   " + viz.Sparkline(tr.Variable(m.variable), cw) + "\n")
	b.WriteString("   " + viz.ProgressBar(float64(m.sample)/float64(max(tr.Len()-1, 1)), cw) + "\n\n")

	b.WriteString(fmt.Sprintf("   %s %s   %s %s\n",
		viz.MetricLabel.Render("sample"), viz.MetricValue.Render(fmt.Sprintf("%d/%d", m.sample, tr.Len()-1)),
		viz.MetricLabel.Render("t"), viz.MetricValue.Render(fmt.Sprintf("%.6g", tr.Positions[m.sample]))))
	for j := 0; j < tr.Dim(); j++ {
		label := fmt.Sprintf("%-8s", m.name(j))
		if j == m.variable {
			label = viz.Selected.Render(label)
		} else {
			label = viz.MetricLabel.Render(label)
		}
		b.WriteString(fmt.Sprintf("   %s %s\n", label, viz.MetricValue.Render(fmt.Sprintf("% .12g", tr.Values[j][m.sample]))))
	}
	if m.sample < len(e.Derivative) {
		b.WriteString(fmt.Sprintf("   %s %s\n",
			viz.MetricLabel.Render(fmt.Sprintf("%-8s", "d/dt")),
			viz.MetricValue.Render(fmt.Sprintf("% .12g", e.Derivative[m.sample]))))
	}

	status := viz.StatusWarn.Render("paused")
	if m.playing {
		status = viz.StatusOK.Render(fmt.Sprintf("playing x%d", m.speed))
	}
	b.WriteString("\n   " + status + "\n")
	b.WriteString(viz.KeyHint.Render("   ←→ step  pgup/pgdn jump  ↑↓ variable  tab phase  space play  ± speed  t theme  q back") + "\n")

	return b.String()
}

// Run starts the browser on the terminal's alternate screen.
func Run(entries ...Entry) error {
	p := tea.NewProgram(NewBrowser(entries...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
