package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krishn-cti/remit-go/internal/broker/messages"
	"github.com/krishn-cti/remit-go/internal/integrations/push"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Pusher доставляет поставленные в очередь пуши через провайдера.
// Доставка best-effort: битое сообщение или отказ провайдера не
// останавливают разбор очереди.
type Pusher struct {
	client push.Client
	rl     RateLimiter

	perTokenPerMinute int64

	startedAtUnixNano   int64
	lastMessageUnixNano atomic.Int64
	totalReceived       atomic.Int64
	totalSent           atomic.Int64
	totalThrottled      atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(client push.Client, rl RateLimiter) *Pusher {
	return &Pusher{
		client:            client,
		rl:                rl,
		perTokenPerMinute: 30,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (p *Pusher) WithRateLimit(perTokenPerMinute int64) *Pusher {
	if perTokenPerMinute > 0 {
		p.perTokenPerMinute = perTokenPerMinute
	}
	return p
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	TotalReceived  int64      `json:"totalReceived"`
	TotalSent      int64      `json:"totalSent"`
	TotalThrottled int64      `json:"totalThrottled"`
	TotalErrors    int64      `json:"totalErrors"`
	LastError      string     `json:"lastError,omitempty"`
}

func (p *Pusher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalReceived:  p.totalReceived.Load(),
		TotalSent:      p.totalSent.Load(),
		TotalThrottled: p.totalThrottled.Load(),
		TotalErrors:    p.totalErrors.Load(),
	}
	if n := p.lastMessageUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastMessageAt = &t
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

func (p *Pusher) noteError(err error) {
	p.totalErrors.Add(1)
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
}

// Handle обрабатывает одно сообщение из очереди. Всегда возвращает nil:
// consumer коммитит только при успехе, а повторная доставка пуша хуже
// потерянной.
func (p *Pusher) Handle(ctx context.Context, _, value []byte) error {
	now := time.Now().UTC()
	p.lastMessageUnixNano.Store(now.UnixNano())
	p.totalReceived.Add(1)

	var msg messages.NotificationQueued
	if err := json.Unmarshal(value, &msg); err != nil {
		p.noteError(err)
		slog.Error("malformed queued notification", "error", err.Error())
		return nil
	}
	if msg.PushToken == "" {
		return nil
	}

	if p.rl != nil && p.perTokenPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:push:%s:%s", msg.PushToken, now.Format("200601021504"))
		allowed, n, err := p.rl.Allow(ctx, minuteKey, p.perTokenPerMinute, 70*time.Second)
		if err != nil {
			p.noteError(err)
			slog.Error("push rate limiter", "order_code", msg.OrderCode, "error", err.Error())
			return nil
		}
		if !allowed {
			p.totalThrottled.Add(1)
			slog.Warn("push throttled", "order_code", msg.OrderCode, "count", n)
			return nil
		}
	}

	if err := p.client.Send(ctx, push.Message{
		Token: msg.PushToken,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	}); err != nil {
		p.noteError(err)
		slog.Error("push send failed", "order_code", msg.OrderCode, "notification_id", msg.NotificationID, "error", err.Error())
		return nil
	}

	p.totalSent.Add(1)
	slog.Info("push sent", "order_code", msg.OrderCode, "notification_id", msg.NotificationID)
	return nil
}
