// Package probe checks ranked candidates against a live target with
// throttled GET requests.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bastiangx/oracle/internal/logger"
	"github.com/bastiangx/oracle/pkg/score"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

var ErrInvalidTarget = errors.New("probe: invalid target")

//go:generate mockgen -package=mocks -destination=../mocks/mock_doer.go github.com/bastiangx/oracle/internal/probe Doer

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configure a Prober.
type Options struct {
	// BaseURL is the scheme and host, optionally with a path prefix.
	BaseURL string
	// StaticPattern is appended verbatim after every path, e.g. "?api_key=x".
	StaticPattern string
	// Throttle is the minimum gap between requests. Zero disables throttling.
	Throttle   time.Duration
	Timeout    time.Duration
	ValidCodes []int
	UserAgent  string
}

// DefaultOptions returns the command-line defaults without a target.
func DefaultOptions() Options {
	return Options{
		Throttle:   500 * time.Millisecond,
		Timeout:    5 * time.Second,
		ValidCodes: []int{http.StatusOK, http.StatusUnauthorized, http.StatusForbidden},
		UserAgent:  "oracle/1",
	}
}

// Result is the outcome of one request. Status is 0 when no response arrived.
type Result struct {
	Candidate score.Candidate
	URL       string
	Status    int
	Reachable bool
	Err       error
	Elapsed   time.Duration
}

// Prober sends candidates to one target, one at a time.
type Prober struct {
	opts    Options
	base    string
	client  Doer
	limiter *rate.Limiter
	valid   map[int]bool
	logger  *log.Logger
}

// New checks the target URL. A nil client uses http.Client with the
// configured timeout.
func New(opts Options, client Doer) (*Prober, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if len(opts.ValidCodes) == 0 {
		opts.ValidCodes = DefaultOptions().ValidCodes
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	}
	valid := make(map[int]bool, len(opts.ValidCodes))
	for _, c := range opts.ValidCodes {
		valid[c] = true
	}
	return &Prober{
		opts:    opts,
		base:    strings.TrimRight(u.String(), "/"),
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		valid:   valid,
		logger:  logger.New("probe"),
	}, nil
}

// URL builds the request URL for a candidate path.
func (p *Prober) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.base + path + p.opts.StaticPattern
}

// Reachable reports whether status counts as a live endpoint.
func (p *Prober) Reachable(status int) bool {
	return p.valid[status]
}

// Check sends one request without waiting on the limiter.
func (p *Prober) Check(ctx context.Context, c score.Candidate) (res Result) {
	res = Result{Candidate: c, URL: p.URL(c.Path)}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	reqCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	if p.opts.UserAgent != "" {
		req.Header.Set("User-Agent", p.opts.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	res.Status = resp.StatusCode
	res.Reachable = p.Reachable(resp.StatusCode)
	return res
}

// Probe checks every candidate in order, waiting on the throttle before each
// request, and hands each result to fn as soon as it is known. It returns the
// number of reachable candidates, or the context error if cancelled.
func (p *Prober) Probe(ctx context.Context, cands []score.Candidate, fn func(Result)) (int, error) {
	reachable := 0
	for _, c := range cands {
		if err := p.limiter.Wait(ctx); err != nil {
			return reachable, err
		}
		res := p.Check(ctx, c)
		if res.Err != nil {
			if ctx.Err() != nil {
				return reachable, ctx.Err()
			}
			p.logger.Debugf("%s: %v", res.URL, res.Err)
		}
		if res.Reachable {
			reachable++
		}
		if fn != nil {
			fn(res)
		}
	}
	return reachable, nil
}
