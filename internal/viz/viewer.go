package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/timemarch/internal/dynamo"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	frameRate     = time.Second / 30
)

// TickMsg advances playback by one row. Ticks from an earlier play
// session carry an old generation and are dropped.
type TickMsg struct {
	gen int
}

func tick(gen int) tea.Cmd {
	return tea.Tick(frameRate, func(time.Time) tea.Msg { return TickMsg{gen: gen} })
}

// Viewer replays a trajectory one row at a time.
type Viewer struct {
	traj          *dynamo.Trajectory
	title         string
	metrics       map[string]float64
	row           int
	playing       bool
	gen           int
	showHelp      bool
	theme         int
	styles        styles
	peaks         []float64
	width, height int
}

// NewViewer builds a viewer positioned on the first row. metrics may be nil.
func NewViewer(traj *dynamo.Trajectory, title string, metrics map[string]float64) Viewer {
	peaks := make([]float64, traj.Rows())
	for i := range peaks {
		peaks[i] = traj.Row(i).Interior().MaxAbs()
	}
	return Viewer{
		traj:    traj,
		title:   title,
		metrics: metrics,
		styles:  newStyles(Themes[0]),
		peaks:   peaks,
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Row is the index of the row currently shown.
func (v Viewer) Row() int { return v.row }

func (v Viewer) Playing() bool { return v.playing }

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
	case TickMsg:
		if !v.playing || msg.gen != v.gen {
			return v, nil
		}
		if v.row >= v.traj.Rows()-1 {
			v.playing = false
			return v, nil
		}
		v.row++
		return v, tick(v.gen)
	}
	return v, nil
}

func (v Viewer) handleKey(msg tea.KeyMsg) (Viewer, tea.Cmd) {
	last := v.traj.Rows() - 1
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return v, tea.Quit
	case " ":
		v.playing = !v.playing
		if v.playing {
			if v.row >= last {
				v.row = 0
			}
			v.gen++
			return v, tick(v.gen)
		}
	case "]", "right", "l":
		v.playing = false
		v.row = min(v.row+1, last)
	case "[", "left", "h":
		v.playing = false
		v.row = max(v.row-1, 0)
	case "g", "home":
		v.row = 0
	case "G", "end":
		v.row = last
	case "t", "T":
		v.theme = (v.theme + 1) % len(Themes)
		v.styles = newStyles(Themes[v.theme])
	case "?":
		v.showHelp = !v.showHelp
	}
	return v, nil
}

func (v Viewer) View() string {
	s := v.styles
	row := v.traj.Row(v.row)
	interior := row.Interior()
	t := v.traj.Times()[v.row]
	last := v.traj.Rows() - 1

	var b strings.Builder
	b.WriteString(s.title.Render(strings.ToUpper(v.title)) + "\n")
	b.WriteString(s.muted.Render(Separator(min(v.width-2, 60))) + "\n\n")

	graphWidth := min(max(v.width-12, 20), 100)
	graphHeight := min(max(v.height-14, 4), 20)
	b.WriteString(Profile(interior, graphWidth, graphHeight, fmt.Sprintf("t = %s", formatValue(t))) + "\n\n")

	status := s.muted.Render("PAUSED")
	if v.playing {
		status = s.status.Render("PLAYING")
	}
	if !row.IsValid() {
		status = s.warn.Render("NON-FINITE")
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %d/%d  %s\n",
		s.label.Render("row"), ProgressBar(float64(v.row)/float64(max(last, 1)), 30),
		s.value.Render("step"), v.row, last, status))

	b.WriteString(s.label.Render("ghosts") + s.value.Render(fmt.Sprintf("%s | %s", formatValue(row[0]), formatValue(row[len(row)-1]))) + "\n")
	b.WriteString(s.label.Render("max |x|") + s.value.Render(formatValue(interior.MaxAbs())) + "\n")
	b.WriteString(s.label.Render("history") + s.value.Render(Sparkline(v.peaks, 40)) + "\n")

	if len(v.metrics) > 0 {
		names := make([]string, 0, len(v.metrics))
		for name := range v.metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		var lines []string
		for _, name := range names {
			lines = append(lines, s.label.Render(name)+s.value.Render(formatValue(v.metrics[name])))
		}
		b.WriteString("\n" + s.panel.Render(strings.Join(lines, "\n")) + "\n")
	}

	if v.showHelp {
		b.WriteString("\n" + s.panel.Render(strings.Join([]string{
			s.key.Render("space") + s.muted.Render("  play/pause"),
			s.key.Render("[ ]") + s.muted.Render("    step back/forward"),
			s.key.Render("g G") + s.muted.Render("    first/last row"),
			s.key.Render("t") + s.muted.Render("      theme (" + Themes[v.theme].Name + ")"),
			s.key.Render("q") + s.muted.Render("      quit"),
		}, "\n")) + "\n")
	} else {
		b.WriteString("\n" + s.key.Render("space") + s.muted.Render(" play  ") +
			s.key.Render("[ ]") + s.muted.Render(" step  ") +
			s.key.Render("?") + s.muted.Render(" help  ") +
			s.key.Render("q") + s.muted.Render(" quit") + "\n")
	}
	return b.String()
}

// Run starts the viewer full screen and blocks until it exits.
func Run(traj *dynamo.Trajectory, title string, metrics map[string]float64) error {
	_, err := tea.NewProgram(NewViewer(traj, title, metrics), tea.WithAltScreen()).Run()
	return err
}
