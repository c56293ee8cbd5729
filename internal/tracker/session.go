package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nse-tracker/internal/board"
	"nse-tracker/internal/market"
)

type RunState string

const (
	StateIdle    RunState = "idle"
	StateRunning RunState = "running"
)

// Reason tells a renderer what produced a view.
type Reason string

const (
	ReasonTick     Reason = "tick"
	ReasonSymbols  Reason = "symbols"
	ReasonInterval Reason = "interval"
	ReasonStart    Reason = "start"
	ReasonStop     Reason = "stop"
)

type View struct {
	Reason      Reason         `json:"reason"`
	State       RunState       `json:"state"`
	RunID       string         `json:"run_id,omitempty"`
	IntervalSec int            `json:"interval_sec"`
	Tick        uint64         `json:"tick"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Board       board.Snapshot `json:"board"`
}

type BatchFetcher interface {
	FetchAll(ctx context.Context, symbols []market.Symbol) []market.Result
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRenderer(r ...Renderer) Option {
	return func(s *Session) {
		s.renderers = append(s.renderers, r...)
	}
}

// WithIntervalUnit scales IntervalSec; tests use milliseconds.
func WithIntervalUnit(unit time.Duration) Option {
	return func(s *Session) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// Session owns the display state, the refresh config and the running flag.
// UI shells change it only through its methods; the refresh loop is the only
// writer of quotes.
type Session struct {
	fetcher   BatchFetcher
	logger    *zap.Logger
	renderers []Renderer
	unit      time.Duration

	// renderMu is held from building a view until every renderer has it,
	// so renderers see views in the order the state changed.
	renderMu sync.Mutex

	mu        sync.Mutex
	board     *board.State
	interval  int
	running   bool
	runID     string
	tick      uint64
	updatedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewSession(fetcher BatchFetcher, opts ...Option) *Session {
	s := &Session{
		fetcher:  fetcher,
		logger:   zap.NewNop(),
		unit:     time.Second,
		board:    board.Reconcile(nil, nil),
		interval: DefaultIntervalSec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSymbols parses raw and reconciles the board against it. Quotes survive
// only when the ordered symbol list is unchanged.
func (s *Session) SetSymbols(raw string) []market.Symbol {
	symbols := market.ParseSymbols(raw)

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	prev := s.board
	if prev.Len() == 0 && len(symbols) == 0 {
		s.mu.Unlock()
		return symbols
	}
	s.board = board.Reconcile(prev, symbols)
	changed := s.board != prev
	v := s.viewLocked(ReasonSymbols)
	s.mu.Unlock()

	if changed {
		s.logger.Info("symbol list changed",
			zap.String("symbols", market.JoinSymbols(symbols)),
			zap.Uint64("generation", v.Board.Generation),
		)
		s.render(v)
	}
	return symbols
}

// SetInterval takes effect from the next wait.
func (s *Session) SetInterval(sec int) error {
	if err := ValidateInterval(sec); err != nil {
		return err
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if s.interval == sec {
		s.mu.Unlock()
		return nil
	}
	s.interval = sec
	v := s.viewLocked(ReasonInterval)
	s.mu.Unlock()

	s.logger.Info("refresh interval changed", zap.Int("interval_sec", sec))
	s.render(v)
	return nil
}

// Start moves the session to running. The first fetch happens one interval
// later. It reports false if the session was already running.
func (s *Session) Start() (string, bool) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if s.running {
		id := s.runID
		s.mu.Unlock()
		return id, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.runID = uuid.NewString()
	s.cancel = cancel
	s.done = done
	runID := s.runID
	v := s.viewLocked(ReasonStart)
	s.mu.Unlock()

	s.logger.Info("auto refresh started", zap.String("run_id", runID), zap.Int("interval_sec", v.IntervalSec))
	go s.loop(ctx, runID, done)
	s.render(v)
	return runID, true
}

// Stop cancels the refresh loop, including a pass in flight, and returns
// once the loop has exited. No fetch is issued after Stop returns.
func (s *Session) Stop() bool {
	s.mu.Lock()
	wasRunning := s.running
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if !wasRunning {
		return false
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	v := s.View()
	v.Reason = ReasonStop
	s.logger.Info("auto refresh stopped", zap.String("run_id", v.RunID), zap.Uint64("tick", v.Tick))
	s.render(v)
	return true
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) Config() RefreshConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RefreshConfig{
		Symbols:     s.board.Symbols(),
		IntervalSec: s.interval,
		Running:     s.running,
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked("")
}

func (s *Session) viewLocked(reason Reason) View {
	state := StateIdle
	if s.running {
		state = StateRunning
	}
	return View{
		Reason:      reason,
		State:       state,
		RunID:       s.runID,
		IntervalSec: s.interval,
		Tick:        s.tick,
		UpdatedAt:   s.updatedAt,
		Board:       s.board.Snapshot(),
	}
}

func (s *Session) loop(ctx context.Context, runID string, done chan struct{}) {
	defer close(done)
	logger := s.logger.With(zap.String("run_id", runID))

	timer := time.NewTimer(s.waitDuration())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("refresh loop exiting")
			return
		case <-timer.C:
		}
		s.refresh(ctx, logger)
		if ctx.Err() != nil {
			logger.Debug("refresh loop exiting after pass")
			return
		}
		timer.Reset(s.waitDuration())
	}
}

func (s *Session) refresh(ctx context.Context, logger *zap.Logger) {
	s.mu.Lock()
	gen := s.board.Generation()
	symbols := s.board.Symbols()
	s.mu.Unlock()

	results := s.fetcher.FetchAll(ctx, symbols)
	batch := board.BatchFromResults(gen, results)

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	applied := s.board.Apply(batch)
	s.tick++
	s.updatedAt = time.Now()
	v := s.viewLocked(ReasonTick)
	s.mu.Unlock()

	if applied < len(symbols) {
		logger.Debug("partial refresh",
			zap.Int("applied", applied),
			zap.Int("rows", len(symbols)),
			zap.Uint64("generation", gen),
		)
	}
	for _, r := range results {
		if r.Quote.Failed() {
			logger.Warn("quote unavailable",
				zap.String("symbol", string(r.Symbol)),
				zap.String("status", string(r.Quote.Status)),
			)
		}
	}
	s.render(v)
}

func (s *Session) waitDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.interval) * s.unit
}

func (s *Session) render(v View) {
	for _, r := range s.renderers {
		r.Render(v)
	}
}
