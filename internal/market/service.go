package market

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Result struct {
	Index  int    `json:"index"`
	Symbol Symbol `json:"symbol"`
	Quote  Quote  `json:"quote"`
}

// Service fans a symbol list out to a QuoteFetcher, spacing outbound
// requests by a fixed minimum interval.
type Service struct {
	fetcher     QuoteFetcher
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
}

func NewService(fetcher QuoteFetcher, minInterval time.Duration, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Service{
		fetcher:     fetcher,
		limiter:     limiter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchAll fetches every symbol and returns results in symbol order. Once
// ctx is cancelled no new fetch starts, and fetches that were cut short are
// left out so the caller keeps whatever it had before.
func (s *Service) FetchAll(ctx context.Context, symbols []Symbol) []Result {
	if len(symbols) == 0 {
		return nil
	}
	slots := make([]Quote, len(symbols))
	done := make([]bool, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := s.wait(ctx); err != nil {
				return nil
			}
			q := s.fetcher.Fetch(ctx, sym)
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = q
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(symbols))
	for i, sym := range symbols {
		if done[i] {
			out = append(out, Result{Index: i, Symbol: sym, Quote: slots[i]})
		}
	}
	if skipped := len(symbols) - len(out); skipped > 0 {
		s.logger.Debug("fetch pass cut short", zap.Int("skipped", skipped), zap.Int("total", len(symbols)))
	}
	return out
}

func (s *Service) wait(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}
