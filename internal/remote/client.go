package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mkendall/tandem/internal/model"
)

// simulatedErrorMessage is the message every call fails with while the
// force-fail toggle is on.
const simulatedErrorMessage = "Simulated network error"

// Config holds remote sync API configuration.
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Client talks to the legacy remote sync API. Every response is wrapped in
// a uniform {success, data, error} envelope; every failure mode surfaces as
// a typed *Error, never as a panic or an untyped fault.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.RWMutex
	simulate bool
}

// NewClient creates a remote client. The zero Timeout defaults to 10s.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// SetSimulateFailure toggles the deterministic force-fail mode used for
// resilience testing. While enabled, every call returns a network error
// without touching the wire.
func (c *Client) SetSimulateFailure(on bool) {
	c.mu.Lock()
	c.simulate = on
	c.mu.Unlock()
	c.logger.Info("simulate network failure toggled", "enabled", on)
}

// SimulatingFailure reports whether force-fail mode is active.
func (c *Client) SimulatingFailure() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.simulate
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.SimulatingFailure() {
		return newError(KindNetworkUnavailable, simulatedErrorMessage, nil)
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(KindNetworkUnavailable, "remote unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return newError(KindAuthRejected, fmt.Sprintf("remote rejected credentials (status %d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusNotFound:
		return newError(KindNotFound, "remote resource not found", nil)
	case resp.StatusCode >= 500:
		return newError(KindNetworkUnavailable, fmt.Sprintf("remote returned status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return newError(KindMalformedResponse, fmt.Sprintf("remote rejected request (status %d)", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return newError(KindMalformedResponse, "decode envelope", err)
	}
	if !env.Success {
		// A 2xx with success=false means the remote broke its own contract.
		return newError(KindMalformedResponse, "remote reported failure: "+env.Error, nil)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return newError(KindMalformedResponse, "decode payload", err)
		}
	}
	return nil
}

type questsPayload struct {
	Quests []model.Quest `json:"quests"`
}

// FetchQuests returns the remote quest set for a couple and date key. An
// empty set is a normal answer, not an error.
func (c *Client) FetchQuests(ctx context.Context, coupleID int64, dateKey string) ([]model.Quest, error) {
	q := url.Values{}
	q.Set("couple_id", fmt.Sprint(coupleID))
	q.Set("date", dateKey)

	var payload questsPayload
	if err := c.do(ctx, http.MethodGet, "/api/sync/daily-quests", q, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Quests == nil {
		payload.Quests = []model.Quest{}
	}
	return payload.Quests, nil
}

type pushQuestsRequest struct {
	CoupleID int64         `json:"couple_id"`
	Date     string        `json:"date"`
	Quests   []model.Quest `json:"quests"`
}

// PushQuests writes a generated quest set to the remote source so the
// partner's device converges on it. Last writer wins at the remote layer;
// the write is not rolled back if the caller stops waiting.
func (c *Client) PushQuests(ctx context.Context, coupleID int64, dateKey string, quests []model.Quest) error {
	req := pushQuestsRequest{CoupleID: coupleID, Date: dateKey, Quests: quests}
	return c.do(ctx, http.MethodPost, "/api/sync/daily-quests", nil, req, nil)
}

// LovePoints is the remote ledger snapshot.
type LovePoints struct {
	Total        int                 `json:"total"`
	Transactions []model.LedgerEntry `json:"transactions"`
}

// FetchLovePoints returns the remote love-point total and transaction
// history for a couple.
func (c *Client) FetchLovePoints(ctx context.Context, coupleID int64) (*LovePoints, error) {
	q := url.Values{}
	q.Set("couple_id", fmt.Sprint(coupleID))

	var payload LovePoints
	if err := c.do(ctx, http.MethodGet, "/api/sync/love-points", q, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Transactions == nil {
		payload.Transactions = []model.LedgerEntry{}
	}
	return &payload, nil
}

type sessionsPayload struct {
	Sessions []model.QuizSession `json:"sessions"`
}

// FetchSessions returns the remote quiz-session history for a couple,
// newest first.
func (c *Client) FetchSessions(ctx context.Context, coupleID int64) ([]model.QuizSession, error) {
	q := url.Values{}
	q.Set("couple_id", fmt.Sprint(coupleID))

	var payload sessionsPayload
	if err := c.do(ctx, http.MethodGet, "/api/sync/quiz-sessions", q, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Sessions == nil {
		payload.Sessions = []model.QuizSession{}
	}
	return payload.Sessions, nil
}
