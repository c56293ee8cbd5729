package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultHomeURL        = "https://www.nseindia.com"
	DefaultAPIBaseURL     = "https://www.nseindia.com/api"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultAcceptLanguage = "en-US,en;q=0.9"
	DefaultReferer        = "https://www.nseindia.com/"
	DefaultTimeout        = 10 * time.Second

	maxQuoteBody = 4 << 20
)

type SessionMode string

const (
	// SessionReuse primes cookies once and re-primes only after the quote
	// endpoint rejects the session.
	SessionReuse SessionMode = "reuse"
	// SessionPerRequest primes a fresh cookie jar for every fetch.
	SessionPerRequest SessionMode = "per_request"
)

func ParseSessionMode(s string) (SessionMode, error) {
	switch SessionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SessionReuse:
		return SessionReuse, nil
	case SessionPerRequest:
		return SessionPerRequest, nil
	}
	return "", fmt.Errorf("unknown session mode: %q", s)
}

// errSessionRejected marks a 401/403 from the quote endpoint. It wraps
// ErrFetchFailed so it folds into FetchFailed if it escapes.
var errSessionRejected = fmt.Errorf("%w: session rejected", ErrFetchFailed)

type NSEConfig struct {
	HomeURL        string
	APIBaseURL     string
	Timeout        time.Duration
	SessionMode    SessionMode
	UserAgent      string
	AcceptLanguage string
	Referer        string
}

type NSEFetcher struct {
	cfg       NSEConfig
	transport http.RoundTripper
	logger    *zap.Logger

	mu         sync.Mutex
	client     *http.Client
	primed     bool
	sessionGen uint64
}

type nseQuoteResp struct {
	PriceInfo *nsePriceInfo `json:"priceInfo"`
}

type nsePriceInfo struct {
	LastPrice *decimal.Decimal `json:"lastPrice"`
}

func NewNSEFetcher(cfg NSEConfig, transport http.RoundTripper, logger *zap.Logger) *NSEFetcher {
	if cfg.HomeURL == "" {
		cfg.HomeURL = DefaultHomeURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SessionMode == "" {
		cfg.SessionMode = SessionReuse
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = DefaultAcceptLanguage
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if transport == nil {
		transport = NewTransport()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NSEFetcher{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
	}
}

func (p *NSEFetcher) Fetch(ctx context.Context, symbol Symbol) Quote {
	price, err := p.LastPrice(ctx, symbol)
	if err != nil {
		q := QuoteFromError(err)
		p.logger.Debug("quote fetch failed",
			zap.String("symbol", string(symbol)),
			zap.String("status", string(q.Status)),
			zap.Error(err),
		)
		return q
	}
	return PriceQuote(price)
}

// LastPrice returns priceInfo.lastPrice for symbol. Errors wrap ErrNetwork
// for transport failures and ErrFetchFailed for everything else.
func (p *NSEFetcher) LastPrice(ctx context.Context, symbol Symbol) (decimal.Decimal, error) {
	if p.cfg.SessionMode == SessionPerRequest {
		client := p.newClient()
		if err := p.prime(ctx, client); err != nil {
			return decimal.Zero, err
		}
		return p.requestQuote(ctx, client, symbol)
	}

	client, gen, err := p.session(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := p.requestQuote(ctx, client, symbol)
	if !errors.Is(err, errSessionRejected) {
		return price, err
	}

	p.logger.Info("quote session rejected, priming a new one", zap.String("symbol", string(symbol)))
	p.dropSession(gen)
	client, _, err = p.session(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return p.requestQuote(ctx, client, symbol)
}

func (p *NSEFetcher) session(ctx context.Context) (*http.Client, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		p.client = p.newClient()
		p.primed = false
		p.sessionGen++
	}
	if !p.primed {
		if err := p.prime(ctx, p.client); err != nil {
			return nil, 0, err
		}
		p.primed = true
	}
	return p.client, p.sessionGen, nil
}

// dropSession discards the shared session unless another caller already
// replaced it.
func (p *NSEFetcher) dropSession(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionGen == gen {
		p.client = nil
		p.primed = false
	}
}

func (p *NSEFetcher) newClient() *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{
		Timeout:   p.cfg.Timeout,
		Transport: p.transport,
		Jar:       jar,
	}
}

func (p *NSEFetcher) prime(ctx context.Context, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.HomeURL, nil)
	if err != nil {
		return fmt.Errorf("build prime request: %w: %w", ErrFetchFailed, err)
	}
	p.setHeaders(req)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("prime session: %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxQuoteBody))
	return nil
}

func (p *NSEFetcher) requestQuote(ctx context.Context, client *http.Client, symbol Symbol) (decimal.Decimal, error) {
	u, err := url.Parse(p.cfg.APIBaseURL + "/quote-equity")
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid api base url: %w: %w", ErrFetchFailed, err)
	}
	q := u.Query()
	q.Set("symbol", string(symbol))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w: %w", ErrFetchFailed, err)
	}
	p.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request quote %s: %w: %w", symbol, ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return decimal.Zero, fmt.Errorf("quote %s: %w (http %d)", symbol, errSessionRejected, resp.StatusCode)
	default:
		return decimal.Zero, fmt.Errorf("quote %s: %w (http %d)", symbol, ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBody))
	if err != nil {
		return decimal.Zero, fmt.Errorf("read quote %s: %w: %w", symbol, ErrNetwork, err)
	}
	var payload nseQuoteResp
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode quote %s: %w: %w", symbol, ErrFetchFailed, err)
	}
	if payload.PriceInfo == nil || payload.PriceInfo.LastPrice == nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w: missing priceInfo.lastPrice", symbol, ErrFetchFailed)
	}
	return *payload.PriceInfo.LastPrice, nil
}

func (p *NSEFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept-Language", p.cfg.AcceptLanguage)
	req.Header.Set("Referer", p.cfg.Referer)
}
