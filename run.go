package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

var (
	ErrTooManyRuns = errors.New("too many active runs")
	ErrNoChoice    = errors.New("no such upgrade choice")
)

// Sender delivers messages to one connected client.
type Sender interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// RunOptions are shared by every run a RunManager creates.
type RunOptions struct {
	Tuning         *sim.Config
	DB             *DB
	Analytics      *Analytics
	Log            *zap.Logger
	TickRate       int
	BroadcastEvery int
	MaxRuns        int
}

// Run drives one playthrough: it owns the world state, steps it at a fixed
// rate with the latest input, and streams frames to its owner.
type Run struct {
	ID   string
	Seed uint64

	mu         sync.Mutex
	state      *sim.WorldState
	view       sim.Viewport
	input      sim.StepInput
	useLatch   bool
	remote     sim.Vec2 // joystick from an attached phone controller
	owner      Sender
	controller Sender
	user       Identity
	options    []sim.UpgradeOption // offered while leveling up
	tick       uint64
	finished   bool

	opts    *RunOptions
	log     *zap.Logger
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func newRun(opts *RunOptions, user Identity, owner Sender, view sim.Viewport, seed uint64) *Run {
	id := GenerateUUID()
	return &Run{
		ID:    id,
		Seed:  seed,
		state: sim.NewRun(opts.Tuning, view, seed),
		view:  view,
		owner: owner,
		user:  user,
		opts:  opts,
		log:   opts.Log.With(zap.String("run", id), zap.String("user", user.Username)),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Loop ticks the run until Stop is called. Callers mark the run running
// before starting it; see RunManager.Create.
func (r *Run) Loop() {
	defer close(r.done)

	interval := time.Second / time.Duration(r.opts.TickRate)
	dt := 1.0 / float64(r.opts.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.update(dt)
		case <-r.stop:
			return
		}
	}
}

// Stop terminates the loop and waits for it to exit.
func (r *Run) Stop() {
	r.mu.Lock()
	running := r.running
	if running {
		r.running = false
		close(r.stop)
	}
	r.mu.Unlock()
	if running {
		<-r.done
	}
}

// Start moves the run from NotStarted to Playing.
func (r *Run) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := sim.Start(r.state)
	if err != nil {
		return err
	}
	r.state = next
	r.track(EvtRunStart, fmt.Sprintf("seed=%d", r.Seed))
	r.log.Info("run started", zap.Uint64("seed", r.Seed))
	return nil
}

// SetInput replaces the held keys and joystick. A use press stays latched
// until a step consumes it.
func (r *Run) SetInput(msg InputMsg) {
	keys := make(map[string]bool, len(msg.Keys))
	for _, k := range msg.Keys {
		keys[k] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input.Movement = sim.Vec2{X: msg.MX, Y: msg.MY}
	r.input.Keys = keys
	if msg.Use {
		r.useLatch = true
	}
}

// SetRemoteInput takes joystick input from the phone controller. While it
// is non-zero it overrides the owner's own movement.
func (r *Run) SetRemoteInput(mx, my float64, use bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remote = sim.Vec2{X: mx, Y: my}
	if use {
		r.useLatch = true
	}
}

func (r *Run) stepInput() sim.StepInput {
	in := r.input
	if !r.remote.IsZero() {
		in.Movement = r.remote
	}
	in.UseItemPressed = r.useLatch
	return in
}

// update advances the run by dt and publishes the result.
func (r *Run) update(dt float64) {
	r.mu.Lock()
	if !r.state.Status.Simulating() {
		r.mu.Unlock()
		return
	}
	r.state = sim.Step(r.state, dt, r.stepInput(), r.view, r.opts.Tuning)
	r.useLatch = false
	r.tick++
	s := r.state

	for _, ev := range s.Events {
		r.track(string(ev.Kind), ev.Text)
		r.log.Debug("event", zap.String("kind", string(ev.Kind)), zap.String("text", ev.Text), zap.Float64("t", s.GameTime))
	}

	var upgrades *UpgradesMsg
	if s.Status == sim.StatusLevelingUp && r.options == nil {
		r.options = sim.UpgradeOptions(s, r.opts.Tuning)
		upgrades = &UpgradesMsg{Pending: s.PendingLevelUps, Options: NewUpgradeChoices(r.options, r.opts.Tuning)}
	}

	var summary *sim.RunSummary
	if s.Status.Terminal() && !r.finished {
		r.finished = true
		sum := sim.Summary(s)
		summary = &sum
	}

	var frame []byte
	if r.tick%uint64(r.opts.BroadcastEvery) == 0 || len(s.Events) > 0 || upgrades != nil || summary != nil {
		frame = r.encodeFrame()
	}
	owner := r.owner
	r.mu.Unlock()

	if frame != nil {
		owner.SendBinary(frame)
	}
	if upgrades != nil {
		owner.SendJSON(Envelope{T: MsgUpgrades, Data: upgrades})
	}
	if summary != nil {
		r.finish(*summary)
	}
}

// encodeFrame must be called with r.mu held.
func (r *Run) encodeFrame() []byte {
	data, err := msgpack.Marshal(NewStateFrame(r.state, r.tick))
	if err != nil {
		r.log.Error("encode frame", zap.Error(err))
		return nil
	}
	return data
}

// track must be called with r.mu held.
func (r *Run) track(kind, detail string) {
	if r.opts.Analytics == nil {
		return
	}
	r.opts.Analytics.Track(RunEvent{
		RunID:    r.ID,
		UserID:   r.user.UserID,
		Kind:     kind,
		Detail:   detail,
		GameTime: r.state.GameTime,
	})
}

// finish persists the result of a terminal run. It runs once per run.
func (r *Run) finish(sum sim.RunSummary) {
	msg := RunOverMsg{
		Victory:      sum.Victory,
		Score:        sum.Score,
		ScoreText:    sim.FormatMarketCap(sum.Score),
		Peak:         sum.PeakBalance,
		Kills:        sum.Kills,
		Level:        sum.Level,
		Duration:     sum.Duration,
		BossDefeated: sum.BossDefeated,
	}
	log := r.log.With(zap.Float64("score", sum.Score), zap.Int("kills", sum.Kills), zap.Bool("victory", sum.Victory))

	if db := r.opts.DB; db != nil && r.user.UserID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := db.RecordRun(ctx, r.ID, r.user.UserID, sum); err != nil {
			log.Error("record run", zap.Error(err))
		}
		newHigh, err := db.SubmitScore(ctx, r.user.UserID, r.user.Username, sum.Score, sum.PeakBalance)
		if err != nil {
			log.Error("submit score", zap.Error(err))
		}
		msg.NewHigh = newHigh
		unlocked, err := CheckAchievements(ctx, db, r.user.UserID, sum)
		if err != nil {
			log.Warn("check achievements", zap.Error(err))
		}
		msg.Achievements = unlocked
	}

	r.mu.Lock()
	r.track(EvtRunEnd, msg.ScoreText)
	if msg.NewHigh {
		r.track(EvtNewHigh, msg.ScoreText)
	}
	owner := r.owner
	r.mu.Unlock()

	log.Info("run over", zap.Bool("new_high", msg.NewHigh))
	owner.SendJSON(Envelope{T: MsgRunOver, Data: msg})
}

// transition applies a lifecycle function and pushes a fresh frame.
func (r *Run) transition(fn func(*sim.WorldState) (*sim.WorldState, error)) error {
	r.mu.Lock()
	next, err := fn(r.state)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = next
	frame := r.encodeFrame()
	owner := r.owner
	r.mu.Unlock()

	if frame != nil {
		owner.SendBinary(frame)
	}
	return nil
}

func (r *Run) Pause() error  { return r.transition(sim.Pause) }
func (r *Run) Resume() error { return r.transition(sim.Resume) }

// ShowLeaderboard moves a finished run to the leaderboard screen.
func (r *Run) ShowLeaderboard() error { return r.transition(sim.ShowLeaderboard) }

// ChooseUpgrade applies the i-th offered option. If more level-ups are
// pending, the next set of choices is sent.
func (r *Run) ChooseUpgrade(i int) error {
	var next *UpgradesMsg
	err := r.transition(func(s *sim.WorldState) (*sim.WorldState, error) {
		if i < 0 || i >= len(r.options) {
			return s, ErrNoChoice
		}
		n, err := sim.ApplyUpgrade(s, r.options[i], r.opts.Tuning)
		if err != nil {
			return s, err
		}
		r.options = nil
		if n.Status == sim.StatusLevelingUp {
			r.options = sim.UpgradeOptions(n, r.opts.Tuning)
			next = &UpgradesMsg{Pending: n.PendingLevelUps, Options: NewUpgradeChoices(r.options, r.opts.Tuning)}
		}
		return n, nil
	})
	if err != nil {
		return err
	}
	if next != nil {
		r.owner.SendJSON(Envelope{T: MsgUpgrades, Data: next})
	}
	return nil
}

// SetController attaches or detaches (nil) the phone controller.
func (r *Run) SetController(c Sender) {
	r.mu.Lock()
	r.controller = c
	if c == nil {
		r.remote = sim.Vec2{}
	}
	owner := r.owner
	r.mu.Unlock()

	if c != nil {
		owner.SendJSON(Envelope{T: MsgCtrlOn})
	} else {
		owner.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// Status returns the current run status.
func (r *Run) Status() sim.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Status
}

// Snapshot returns a copy of the current world state.
func (r *Run) Snapshot() *sim.WorldState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// RunManager creates and tracks the active runs.
type RunManager struct {
	mu   sync.RWMutex
	runs map[string]*Run
	opts RunOptions
}

// NewRunManager creates a RunManager
func NewRunManager(opts RunOptions) *RunManager {
	return &RunManager{
		runs: make(map[string]*Run),
		opts: opts,
	}
}

// Create starts a new run for user, streaming to owner.
func (m *RunManager) Create(user Identity, owner Sender, view sim.Viewport, seed uint64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) >= m.opts.MaxRuns {
		return nil, ErrTooManyRuns
	}
	if seed == 0 {
		seed = newSeed()
	}
	r := newRun(&m.opts, user, owner, view, seed)
	if err := r.Start(); err != nil {
		return nil, err
	}
	m.runs[r.ID] = r
	r.running = true
	go r.Loop()
	return r, nil
}

// Get returns a run by ID
func (m *RunManager) Get(id string) *Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs[id]
}

// Remove stops and forgets a run.
func (m *RunManager) Remove(id string) {
	m.mu.Lock()
	r, ok := m.runs[id]
	delete(m.runs, id)
	m.mu.Unlock()
	if ok {
		r.Stop()
	}
}

// Count returns the number of active runs
func (m *RunManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// StopAll stops every run.
func (m *RunManager) StopAll() {
	m.mu.Lock()
	runs := m.runs
	m.runs = make(map[string]*Run)
	m.mu.Unlock()
	for _, r := range runs {
		r.Stop()
	}
}
