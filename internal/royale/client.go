// Package royale is a small client for the game's public API.
package royale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.clashroyale.com/v1"

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
	Metrics    *metrics.Recorder
	// RateLimit caps requests per second. Zero or less means unlimited.
	RateLimit float64
	Burst     int
}

// Client calls the game API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
	metrics *metrics.Recorder
	limiter *rate.Limiter
}

// NewClient builds a client. Missing options fall back to defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    opts.HTTPClient,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// buildURL joins the base URL with an endpoint whose %s verbs receive escaped tags.
func (c *Client) buildURL(endpoint string, tags ...string) string {
	args := make([]any, len(tags))
	for i, t := range tags {
		args[i] = url.PathEscape(tournament.NormalizeTag(t))
	}
	return c.baseURL + fmt.Sprintf(endpoint, args...)
}

// makeAPIRequest performs an authenticated GET and decodes the JSON body.
func (c *Client) makeAPIRequest(ctx context.Context, op, target string, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &UpstreamError{Op: op, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, "error", time.Since(start))
		return &UpstreamError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.metrics.ObserveUpstream(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorDto
		_ = json.Unmarshal(body, &apiErr)
		c.log.Debug(ctx, "upstream request failed",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
			logger.String("reason", apiErr.Reason))

		if resp.StatusCode == http.StatusNotFound {
			return &UpstreamError{Op: op, Status: resp.StatusCode, Err: ErrNotFound}
		}
		reason := apiErr.Reason
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", reason)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}

// GetTournamentByTag fetches a tournament and its member list.
func (c *Client) GetTournamentByTag(ctx context.Context, tag string) (*tournament.Snapshot, error) {
	var dto tournamentDto
	if err := c.makeAPIRequest(ctx, "tournament", c.buildURL("/tournaments/%s", tag), &dto); err != nil {
		return nil, err
	}

	snap, err := parseTournament(&dto)
	if err != nil {
		return nil, &UpstreamError{Op: "tournament", Status: http.StatusOK, Err: err}
	}
	c.log.Debug(ctx, "tournament fetched",
		logger.String("tag", snap.Tag),
		logger.Int("members", len(snap.Members)))
	return snap, nil
}

// GetPlayerBattleLog fetches a player's recent battles, newest first.
func (c *Client) GetPlayerBattleLog(ctx context.Context, tag string) ([]tournament.BattleRecord, error) {
	var dtos []battleDto
	err := c.makeAPIRequest(ctx, "battlelog", c.buildURL("/players/%s/battlelog", tag), &dtos)
	c.metrics.BattleLogFetch(err == nil)
	if err != nil {
		return nil, err
	}

	records, err := parseBattleLog(dtos)
	if err != nil {
		return nil, &UpstreamError{Op: "battlelog", Status: http.StatusOK, Err: err}
	}
	return records, nil
}
