package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ws "github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/mkendall/tandem/internal/model"
)

// QuestEvent is one quest-set update delivered over the remote push channel.
type QuestEvent struct {
	CoupleID int64         `json:"couple_id"`
	DateKey  string        `json:"date_key"`
	Quests   []model.Quest `json:"quests"`
}

// Subscription is a cancellable handle on the remote push channel for one
// couple. Events() closes after Cancel returns; Cancel is safe to call from
// teardown paths and guarantees the background goroutine has exited.
type Subscription struct {
	events chan QuestEvent
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the stream of quest-set updates.
func (s *Subscription) Events() <-chan QuestEvent {
	return s.events
}

// Cancel tears the subscription down and waits for the reader to exit.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// SubscribeQuests opens the realtime push channel for a couple. The
// connection is managed in the background: dial failures and dropped
// connections are retried with capped exponential backoff until the
// subscription is cancelled, so a remote outage delays events rather than
// killing the handle.
func (c *Client) SubscribeQuests(ctx context.Context, coupleID int64) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		events: make(chan QuestEvent, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.runSubscription(ctx, coupleID, s)
	return s
}

func (c *Client) runSubscription(ctx context.Context, coupleID int64, s *Subscription) {
	defer close(s.done)
	defer close(s.events)

	for {
		conn, err := c.dialWithBackoff(ctx, coupleID)
		if err != nil {
			// Only a cancelled context ends the backoff loop.
			return
		}

		c.readLoop(ctx, conn, s)
		conn.Close(ws.StatusNormalClosure, "")

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("realtime channel dropped, reconnecting", "couple_id", coupleID)
	}
}

func (c *Client) dialWithBackoff(ctx context.Context, coupleID int64) (*ws.Conn, error) {
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))

	var conn *ws.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.SimulatingFailure() {
			return retry.RetryableError(newError(KindNetworkUnavailable, simulatedErrorMessage, nil))
		}

		q := url.Values{}
		q.Set("couple_id", fmt.Sprint(coupleID))
		wsURL := httpToWS(c.cfg.BaseURL) + "/api/sync/realtime?" + q.Encode()

		header := http.Header{}
		if c.cfg.AuthToken != "" {
			header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
		}

		dialed, _, err := ws.Dial(ctx, wsURL, &ws.DialOptions{HTTPHeader: header})
		if err != nil {
			return retry.RetryableError(newError(KindNetworkUnavailable, "dial realtime channel", err))
		}
		conn = dialed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) readLoop(ctx context.Context, conn *ws.Conn, s *Subscription) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var ev QuestEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("drop malformed realtime event", "error", err)
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func httpToWS(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
