// Package sim owns the simulation context: the tree, the attractor
// field, and the navigation state machine that sequences the
// request-choose-grow loop. Everything mutates inside Tick and the two
// input entry points; the package assumes a single driving goroutine
// (bubbletea's update loop, or a test harness), which is the model's
// key simplifying invariant.
package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/tendril/internal/config"
	"github.com/kingrea/tendril/internal/field"
	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/growth"
	"github.com/kingrea/tendril/internal/noise"
	"github.com/kingrea/tendril/internal/tokens"
	"github.com/kingrea/tendril/internal/tree"
)

// State is the navigation state machine position.
type State int

const (
	// StateInit covers construction until the first option request.
	StateInit State = iota
	// StateWaiting awaits an option response; background growth only.
	StateWaiting
	// StateChoosing presents options and accepts navigation input.
	StateChoosing
	// StateGrowing runs the foreground step budget for a commit.
	StateGrowing
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWaiting:
		return "WAITING_FOR_TOKENS"
	case StateChoosing:
		return "CHOOSING"
	case StateGrowing:
		return "GROWING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OptionRequester issues one option request toward the service. The
// simulation enforces the single-outstanding-request rule.
type OptionRequester interface {
	RequestOptions(promptState string, desiredCount int) error
}

// Decision is the transient option set presented while CHOOSING.
// Directions align 1:1 with Options. Consumers treat slices read-only.
type Decision struct {
	Options    []tokens.Option
	Directions []geom.Vec2
	Highlight  int
	Anchor     int
}

type missedDirection struct {
	anchor int
	dir    geom.Vec2
}

// Simulation is the explicit context object owning all mutable growth
// state. Construct with New; drive with Tick.
type Simulation struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	src       noise.Source
	requester OptionRequester

	tree   *tree.Tree
	field  *field.Field
	params growth.Params

	state       State
	frame       int
	current     int
	decision    *Decision
	missed      []missedDirection
	bgTips      []int
	stepsLeft   int
	steer       geom.Vec2
	outstanding bool
	connected   bool
	prompt      string
	inbox       []tokens.Message
}

// New validates the configuration and builds the field and tree. A
// config the field or tree cannot be initialized from is the one fatal
// error class.
func New(cfg config.Config, log *zap.SugaredLogger, requester OptionRequester, src noise.Source) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	work := cfg.WorkArea()
	f, err := field.New(work, field.Params{
		Count:     cfg.Field.Count,
		Clustered: cfg.Field.Clustered,
		Frequency: cfg.Field.NoiseFrequency,
		Threshold: cfg.Field.NoiseThreshold,
		Seed:      cfg.Seed,
	}, src)
	if err != nil {
		return nil, err
	}
	root := geom.Vec2{X: work.Min.X + work.Width()/2, Y: work.Max.Y - cfg.Growth.SegmentLength}
	return &Simulation{
		cfg:       cfg,
		log:       log,
		src:       src,
		requester: requester,
		tree:      tree.New(root),
		field:     f,
		params: growth.Params{
			AttractionRadius: cfg.Growth.AttractionRadius,
			KillRadius:       cfg.Growth.KillRadius,
			SegmentLength:    cfg.Growth.SegmentLength,
			EdgeMargin:       cfg.Growth.EdgeMargin,
			Jitter:           cfg.Growth.Jitter,
			SteerDotMin:      cfg.Growth.SteerDotMin,
			Work:             work,
		},
		state:   StateInit,
		current: 0,
		prompt:  cfg.Prompt,
	}, nil
}

// Start completes INIT once the service channel is open: it issues the
// first option request and parks the machine in WAITING_FOR_TOKENS.
// A failed request is logged and recovered later via the connectivity
// status flow; it does not abort the session.
func (s *Simulation) Start() {
	s.state = StateWaiting
	s.request()
}

// Deliver queues an inbound service message. It is applied at the
// start of the next Tick, never synchronously.
func (s *Simulation) Deliver(msg tokens.Message) {
	s.inbox = append(s.inbox, msg)
}

// Tick performs exactly one logical frame: queued messages first, then
// at most one foreground growth step or one throttled background pass.
func (s *Simulation) Tick() {
	s.drainInbox()
	switch s.state {
	case StateGrowing:
		s.foregroundStep()
	case StateWaiting, StateChoosing:
		if s.frame%s.cfg.Session.BackgroundEvery == 0 {
			s.backgroundPass()
		}
	}
	s.frame++
}

// AdvanceHighlight moves the highlighted option cyclically. Ignored
// outside CHOOSING.
func (s *Simulation) AdvanceHighlight(delta int) {
	if s.state != StateChoosing || s.decision == nil {
		return
	}
	k := len(s.decision.Options)
	s.decision.Highlight = ((s.decision.Highlight+delta)%k + k) % k
}

// CommitChoice locks in the highlighted option: the current node takes
// the option's label and probability, every other direction is
// recorded as missed, and the machine enters GROWING with the full
// step budget. Ignored outside CHOOSING.
func (s *Simulation) CommitChoice() {
	if s.state != StateChoosing || s.decision == nil {
		return
	}
	d := s.decision
	chosen := d.Options[d.Highlight]
	s.tree.SetToken(s.current, chosen.Label, chosen.Probability)
	s.prompt += chosen.Label
	for i, dir := range d.Directions {
		if i == d.Highlight {
			continue
		}
		s.missed = append(s.missed, missedDirection{anchor: d.Anchor, dir: dir})
	}
	s.steer = d.Directions[d.Highlight]
	s.stepsLeft = s.cfg.Session.StepBudget
	s.decision = nil
	s.state = StateGrowing
	s.log.Infow("choice committed",
		"token", chosen.Label,
		"probability", chosen.Probability,
		"missed", len(s.missed),
	)
}

func (s *Simulation) drainInbox() {
	if len(s.inbox) == 0 {
		return
	}
	queued := s.inbox
	s.inbox = nil
	for _, msg := range queued {
		switch msg.Kind {
		case tokens.KindOptions:
			s.handleOptions(msg.Options)
		case tokens.KindStatus:
			s.handleStatus(msg)
		default:
			s.log.Debugw("ignoring message", "kind", msg.Kind)
		}
	}
}

func (s *Simulation) handleOptions(opts []tokens.Option) {
	if s.state != StateWaiting {
		s.log.Warnw("discarding option response outside WAITING_FOR_TOKENS", "state", s.state.String())
		return
	}
	s.outstanding = false
	if len(opts) == 0 {
		s.log.Warnw("empty option response; no valid moves")
		if s.cfg.Session.RetryEmptyOptions {
			s.request()
		}
		return
	}
	dirs := growth.OptionDirections(s.tree, s.field, s.current, len(opts), s.params, s.src, s.frame)
	s.decision = &Decision{
		Options:    opts,
		Directions: dirs,
		Highlight:  0,
		Anchor:     s.current,
	}
	s.state = StateChoosing
	s.log.Infow("options received", "count", len(opts))
}

func (s *Simulation) handleStatus(msg tokens.Message) {
	wasConnected := s.connected
	s.connected = msg.Connected
	if msg.Connected == wasConnected {
		return
	}
	if msg.Connected {
		s.log.Infow("option channel up", "detail", msg.Detail)
		// A request lost to the outage would park the machine
		// forever; reissue it now that the channel is back.
		if s.state == StateWaiting && !s.outstanding {
			s.request()
		}
	} else {
		s.log.Warnw("option channel down", "detail", msg.Detail)
		s.outstanding = false
	}
}

// foregroundStep runs one steered growth invocation and advances the
// current pointer. The episode always consumes its full budget; when
// the counter hits zero the recorded missed directions spawn as
// background tips and the next option request goes out.
func (s *Simulation) foregroundStep() {
	target := s.steer
	if id, grew := growth.Step(s.tree, s.field, s.current, &target, s.params, s.src, tree.RoleSelected, true, float64(s.frame)); grew {
		s.current = id
	}
	s.stepsLeft--
	if s.stepsLeft > 0 {
		return
	}
	s.spawnMissed()
	s.state = StateWaiting
	s.request()
}

// spawnMissed turns every recorded missed direction into a missed
// child of its branch point and queues it for background growth.
func (s *Simulation) spawnMissed() {
	for _, m := range s.missed {
		anchor := s.tree.Node(m.anchor).Pos
		pos := s.params.Work.Clamp(anchor.Add(m.dir.Scale(s.params.SegmentLength)))
		id := s.tree.Add(m.anchor, pos, tree.RoleMissed)
		s.bgTips = append(s.bgTips, id)
	}
	s.missed = nil
}

// backgroundPass grows the missed branches, spending at most the
// configured node cap across all tips. Exhausted tips leave the queue;
// that is normal termination, not an error.
func (s *Simulation) backgroundPass() {
	if len(s.bgTips) == 0 {
		return
	}
	budget := s.cfg.Session.BackgroundCap
	next := make([]int, 0, len(s.bgTips))
	for _, tip := range s.bgTips {
		if budget == 0 {
			next = append(next, tip)
			continue
		}
		ids := growth.BranchBackground(s.tree, s.field, tip, s.params, budget)
		budget -= len(ids)
		next = append(next, ids...)
	}
	s.bgTips = next
}

func (s *Simulation) request() {
	if err := s.requester.RequestOptions(s.prompt, s.cfg.DesiredCount()); err != nil {
		s.log.Warnw("option request failed", "error", err)
		s.outstanding = false
		return
	}
	s.outstanding = true
}

// State returns the current machine state.
func (s *Simulation) State() State { return s.state }

// Frame returns the tick counter.
func (s *Simulation) Frame() int { return s.frame }

// CurrentID returns the ID of the current node.
func (s *Simulation) CurrentID() int { return s.current }

// StepsLeft returns the remaining foreground step budget.
func (s *Simulation) StepsLeft() int { return s.stepsLeft }

// Connected reports the service channel status flag.
func (s *Simulation) Connected() bool { return s.connected }

// PromptState returns the accumulated text along the selected path.
func (s *Simulation) PromptState() string { return s.prompt }

// Nodes returns a read-only copy of the tree arena for presentation.
func (s *Simulation) Nodes() []tree.Node { return s.tree.Nodes() }

// NodeCount returns the current tree size.
func (s *Simulation) NodeCount() int { return s.tree.Len() }

// Attractors returns the live attractor positions for presentation.
func (s *Simulation) Attractors() []geom.Vec2 { return s.field.ActivePositions() }

// ActiveAttractorCount returns how many attractors remain live.
func (s *Simulation) ActiveAttractorCount() int { return s.field.ActiveCount() }

// CurrentDecision returns the pending option set while CHOOSING. The
// returned slices are shared and must not be mutated.
func (s *Simulation) CurrentDecision() (Decision, bool) {
	if s.decision == nil {
		return Decision{}, false
	}
	return *s.decision, true
}

// SelectedPath returns node IDs from the current node up to the root.
func (s *Simulation) SelectedPath() []int { return s.tree.PathToRoot(s.current) }

// BackgroundTipCount returns how many missed tips are still growing.
func (s *Simulation) BackgroundTipCount() int { return len(s.bgTips) }

// WorkArea returns the rectangle growth is confined to.
func (s *Simulation) WorkArea() geom.Rect { return s.params.Work }
