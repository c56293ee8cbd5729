// Package notify pushes a DingTalk message when a symbol on the board starts
// failing or recovers.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nse-tracker/internal/market"
	"nse-tracker/internal/tracker"
)

type Sender interface {
	SendMarkdown(ctx context.Context, title, markdown string) error
}

type Config struct {
	Cooldown    time.Duration
	PerMinute   int
	SendTimeout time.Duration
}

type ChangeKind string

const (
	ChangeDown      ChangeKind = "down"
	ChangeRecovered ChangeKind = "recovered"
)

type Change struct {
	Symbol market.Symbol
	Kind   ChangeKind
	Quote  market.Quote
}

// Notifier is a tracker.Renderer. It compares each view against the
// previous one of the same board generation.
type Notifier struct {
	sender  Sender
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	prev       []market.Quote
	lastSent   map[string]time.Time

	wg sync.WaitGroup
}

var _ tracker.Renderer = (*Notifier)(nil)

func New(sender Sender, cfg Config, logger *zap.Logger) *Notifier {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.PerMinute)/60), cfg.PerMinute)
	}
	return &Notifier{
		sender:   sender,
		cfg:      cfg,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

func (n *Notifier) Render(v tracker.View) {
	changes := n.diff(v)
	if len(changes) == 0 {
		return
	}
	if n.limiter != nil && !n.limiter.Allow() {
		n.logger.Warn("notification dropped by rate limit", zap.Int("changes", len(changes)))
		return
	}
	n.markSent(changes)

	title, markdown := buildMarkdown(changes)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.SendTimeout)
		defer cancel()
		if err := n.sender.SendMarkdown(ctx, title, markdown); err != nil {
			n.logger.Warn("notification send failed", zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) diff(v tracker.View) []Change {
	rows := v.Board.Rows
	n.mu.Lock()
	defer n.mu.Unlock()

	current := make([]market.Quote, len(rows))
	for i, r := range rows {
		current[i] = r.Quote
	}
	if v.Board.Generation != n.generation || len(n.prev) != len(current) {
		n.generation = v.Board.Generation
		n.prev = current
		return nil
	}

	now := n.now()
	var changes []Change
	for i, row := range rows {
		prev := n.prev[i]
		var kind ChangeKind
		switch {
		case row.Quote.Failed() && !prev.Failed():
			kind = ChangeDown
		case row.Quote.IsPrice() && prev.Failed():
			kind = ChangeRecovered
		default:
			continue
		}
		if last, ok := n.lastSent[cooldownKey(row.Symbol, kind)]; ok && n.cfg.Cooldown > 0 && now.Sub(last) < n.cfg.Cooldown {
			continue
		}
		changes = append(changes, Change{Symbol: row.Symbol, Kind: kind, Quote: row.Quote})
	}
	n.prev = current
	return changes
}

// markSent starts the cooldown for changes that are actually pushed.
func (n *Notifier) markSent(changes []Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	for _, c := range changes {
		n.lastSent[cooldownKey(c.Symbol, c.Kind)] = now
	}
}

func cooldownKey(symbol market.Symbol, kind ChangeKind) string {
	return string(symbol) + ":" + string(kind)
}

func buildMarkdown(changes []Change) (string, string) {
	down := 0
	lines := make([]string, 0, len(changes)+1)
	lines = append(lines, "**NSE quote status**")
	for _, c := range changes {
		if c.Kind == ChangeDown {
			down++
		}
		lines = append(lines, fmt.Sprintf("- %s %s: %s", c.Symbol, c.Kind, c.Quote))
	}
	title := fmt.Sprintf("%d symbol(s) failing", down)
	if down == 0 {
		title = "quotes recovered"
	}
	return title, strings.Join(lines, "\n")
}
