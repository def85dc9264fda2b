// Package tui renders the growth simulation with bubbletea. The model
// follows the Elm loop: frame ticks drive the simulation, service
// messages are queued into it, and key input maps onto the two core
// entry points plus the read-only history cursor.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/tendril/internal/logging"
	"github.com/kingrea/tendril/internal/sim"
	"github.com/kingrea/tendril/internal/tokens"
)

// frameInterval paces the tick loop at 30 frames per second.
const frameInterval = time.Second / 30

const logPanelLines = 3

type frameMsg time.Time

type serviceMsg tokens.Message

type connectResultMsg struct{ err error }

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Commit key.Binding
	Parent key.Binding
	Child  key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous option")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next option")),
		Commit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit choice")),
		Parent: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "inspect parent")),
		Child:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "inspect child")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
)

// App is the bubbletea model. All simulation mutation funnels through
// Update, so the single-tick-boundary invariant holds by construction.
type App struct {
	sim    *sim.Simulation
	client *tokens.Client
	log    *zap.SugaredLogger
	tail   *logging.Tail
	keys   keyMap

	width  int
	height int
	// inspect walks up the selected path for history browsing;
	// zero means the current node. Never mutates the simulation.
	inspect int
	dialErr string
}

// NewApp wires the model to an already-constructed simulation and
// service client.
func NewApp(s *sim.Simulation, client *tokens.Client, log *zap.SugaredLogger, tail *logging.Tail) *App {
	return &App{
		sim:    s,
		client: client,
		log:    log,
		tail:   tail,
		keys:   defaultKeyMap(),
	}
}

// Init dials the service and starts the frame clock.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.connect(), a.frame())
}

func (a *App) connect() tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{err: a.client.Connect(context.Background())}
	}
}

func (a *App) frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-a.client.Messages()
		if !ok {
			return nil
		}
		return serviceMsg(msg)
	}
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case connectResultMsg:
		// The simulation starts either way: a failed dial parks it in
		// WAITING_FOR_TOKENS with the status flag down, per design.
		a.sim.Start()
		if msg.err != nil {
			a.dialErr = msg.err.Error()
			a.log.Errorw("service dial failed", "error", msg.err)
			return a, nil
		}
		return a, a.listen()

	case serviceMsg:
		a.sim.Deliver(tokens.Message(msg))
		return a, a.listen()

	case frameMsg:
		a.sim.Tick()
		return a, a.frame()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		_ = a.client.Close()
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		a.sim.AdvanceHighlight(-1)
	case key.Matches(msg, a.keys.Down):
		a.sim.AdvanceHighlight(1)
	case key.Matches(msg, a.keys.Commit):
		a.inspect = 0
		a.sim.CommitChoice()
	case key.Matches(msg, a.keys.Parent):
		if a.inspect < len(a.sim.SelectedPath())-1 {
			a.inspect++
		}
	case key.Matches(msg, a.keys.Child):
		if a.inspect > 0 {
			a.inspect--
		}
	}
	return a, nil
}

// View renders the canvas above the status footer.
func (a *App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return "starting…"
	}
	footer := a.renderFooter()
	canvasH := a.height - lipgloss.Height(footer) - 1
	if canvasH < 3 {
		canvasH = 3
	}
	c := newCanvas(a.width, canvasH, a.sim.WorkArea())
	c.drawScene(a.sim.Nodes(), a.sim.Attractors(), a.sim.CurrentID())
	return c.render() + "\n" + footer
}

func (a *App) renderFooter() string {
	sections := []string{a.renderStatus()}
	if opts := a.renderOptions(); opts != "" {
		sections = append(sections, opts)
	}
	if logs := a.renderLog(); logs != "" {
		sections = append(sections, logs)
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderStatus() string {
	conn := offlineStyle.Render("○ offline")
	if a.sim.Connected() {
		conn = onlineStyle.Render("● online")
	}
	parts := []string{
		highlightStyle.Render(a.sim.State().String()),
		conn,
		fmt.Sprintf("nodes %d", a.sim.NodeCount()),
		fmt.Sprintf("attractors %d", a.sim.ActiveAttractorCount()),
		fmt.Sprintf("background %d", a.sim.BackgroundTipCount()),
	}
	if a.sim.State() == sim.StateGrowing {
		parts = append(parts, fmt.Sprintf("steps %d", a.sim.StepsLeft()))
	}
	if a.dialErr != "" {
		parts = append(parts, offlineStyle.Render("dial: "+a.dialErr))
	}
	if hist := a.renderInspect(); hist != "" {
		parts = append(parts, hist)
	}
	line := statusStyle.Render(strings.Join(parts, "  "))
	prompt := promptStyle.Render(clip(a.sim.PromptState(), a.width-2))
	return line + "\n" + prompt
}

// renderInspect describes the ancestor selected with the history keys.
func (a *App) renderInspect() string {
	if a.inspect <= 0 {
		return ""
	}
	path := a.sim.SelectedPath()
	if a.inspect >= len(path) {
		return ""
	}
	nodes := a.sim.Nodes()
	n := nodes[path[a.inspect]]
	label := n.Token
	if !n.HasToken {
		label = "(growth)"
	}
	return dimStyle.Render(fmt.Sprintf("history -%d: #%d %q", a.inspect, n.ID, label))
}

func (a *App) renderOptions() string {
	d, ok := a.sim.CurrentDecision()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render("choose next token:"))
	for i, opt := range d.Options {
		b.WriteByte('\n')
		line := fmt.Sprintf("[%d] %-12q %s %5.1f%%", i+1, clip(opt.Label, 12), probBar(opt.Probability, 20), opt.Probability*100)
		if i == d.Highlight {
			b.WriteString(highlightStyle.Render("▸ " + line))
		} else {
			b.WriteString(dimStyle.Render("  " + line))
		}
	}
	return b.String()
}

func (a *App) renderLog() string {
	if a.tail == nil {
		return ""
	}
	lines := a.tail.Last(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	for i, l := range lines {
		lines[i] = clip(l, a.width-2)
	}
	return logStyle.Render(strings.Join(lines, "\n"))
}

// probBar renders the probability as a filled bar, matching the
// familiar block/shade glyph pair.
func probBar(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	filled := int(p * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}
