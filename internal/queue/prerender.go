// Package queue implements the Redis-backed invoice prerender queue. Order
// ingestion enqueues a prerender task per order; the worker renders the PDF
// into the artifact cache ahead of the first download. Tasks live in a sorted
// set scored by availability time, with a processing set for redelivery after
// worker crashes and a dead letter list for exhausted tasks.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/greenmantra/backend-store/internal/resilience"
)

// Kind names the single task kind this queue carries.
const Kind = "invoice-prerender"

// Enqueuer publishes prerender tasks. Tasks are deduplicated per order within
// the DedupTTL window, so re-submitting an order does not stack renders.
type Enqueuer struct {
	R        *redis.Client
	Prefix   string
	DedupTTL time.Duration
}

type message struct {
	OrderID     string `json:"orderId"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	AvailableAt int64  `json:"available_at"`
}

// EnqueuePrerender schedules a prerender for the order after the given delay.
func (e Enqueuer) EnqueuePrerender(ctx context.Context, orderID string, delay time.Duration) error {
	if e.R == nil {
		return errors.New("queue: redis client not configured")
	}
	if orderID == "" {
		return errors.New("queue: order id is required")
	}
	ttl := e.DedupTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := e.R.SetNX(ctx, dedupKey(e.Prefix, orderID), "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	msg := message{OrderID: orderID, MaxAttempts: 10, AvailableAt: time.Now().Add(delay).UnixNano()}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.R.ZAdd(ctx, queueKey(e.Prefix), redis.Z{Score: float64(msg.AvailableAt), Member: raw}).Err()
}

// Worker consumes prerender tasks until its context is cancelled.
type Worker struct {
	R                 *redis.Client
	Prefix            string
	Concurrency       int
	VisibilityTimeout time.Duration
	RetryBase         time.Duration
	RetryJitter       float64
	Handler           func(ctx context.Context, orderID string) error
	Log               zerolog.Logger
}

// Run processes tasks. Active tasks sit in a processing set scored by their
// visibility deadline; a ticker requeues entries whose deadline passed.
func (w Worker) Run(ctx context.Context) error {
	if w.R == nil {
		return errors.New("queue: worker redis client not configured")
	}
	if w.Handler == nil {
		return errors.New("queue: worker handler not configured")
	}
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	visibility := w.VisibilityTimeout
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	retryBase := w.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}

	qKey := queueKey(w.Prefix)
	pKey := processingKey(w.Prefix)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	requeueTicker := time.NewTicker(time.Second)
	defer requeueTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-requeueTicker.C:
			if err := w.requeueExpired(ctx, pKey, qKey); err != nil {
				return err
			}
		default:
		}

		res, err := w.R.ZPopMin(ctx, qKey, 1).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if err == redis.Nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		if len(res) == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		member, ok := res[0].Member.(string)
		if !ok {
			continue
		}
		msg, err := decode(member)
		if err != nil {
			continue
		}
		now := time.Now().UnixNano()
		if msg.AvailableAt > now {
			// not due yet, push back and wait
			w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: member})
			sleep := time.Duration(msg.AvailableAt - now)
			if sleep > time.Second {
				sleep = time.Second
			}
			time.Sleep(sleep)
			continue
		}

		msg.Attempt++
		rawBytes, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		raw := string(rawBytes)
		deadline := time.Now().Add(visibility).UnixNano()
		if err := w.R.ZAdd(ctx, pKey, redis.Z{Score: float64(deadline), Member: raw}).Err(); err != nil {
			return err
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(raw string, m message) {
			defer func() { <-sem }()
			defer wg.Done()
			jobCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := w.Handler(jobCtx, m.OrderID); err != nil {
				w.Log.Warn().Err(err).Str("order_id", m.OrderID).Int("attempt", m.Attempt).Msg("prerender task failed")
				Processed.WithLabelValues("error").Inc()
				w.handleFailure(jobCtx, qKey, pKey, raw, m, retryBase)
				return
			}
			Processed.WithLabelValues("ok").Inc()
			w.ack(jobCtx, pKey, raw, m)
		}(raw, msg)
	}
}

func (w Worker) handleFailure(ctx context.Context, qKey, pKey, raw string, msg message, base time.Duration) {
	_ = w.R.ZRem(ctx, pKey, raw)
	if msg.MaxAttempts > 0 && msg.Attempt >= msg.MaxAttempts {
		rawBytes, err := json.Marshal(msg)
		if err != nil {
			return
		}
		_ = w.R.LPush(ctx, dlqKey(w.Prefix), rawBytes).Err()
		_ = w.R.Del(ctx, dedupKey(w.Prefix, msg.OrderID)).Err()
		Processed.WithLabelValues("dead").Inc()
		return
	}
	delay := resilience.Backoff(base, msg.Attempt, w.RetryJitter)
	msg.AvailableAt = time.Now().Add(delay).UnixNano()
	rawBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: string(rawBytes)}).Err()
}

func (w Worker) ack(ctx context.Context, pKey, raw string, msg message) {
	_ = w.R.ZRem(ctx, pKey, raw)
	_ = w.R.Del(ctx, dedupKey(w.Prefix, msg.OrderID)).Err()
}

func (w Worker) requeueExpired(ctx context.Context, pKey, qKey string) error {
	now := float64(time.Now().UnixNano())
	due, err := w.R.ZRangeByScore(ctx, pKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, raw := range due {
		msg, err := decode(raw)
		if err != nil {
			continue
		}
		_ = w.R.ZRem(ctx, pKey, raw).Err()
		msg.AvailableAt = time.Now().UnixNano()
		encoded, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		_ = w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: encoded}).Err()
	}
	return nil
}

func decode(raw string) (message, error) {
	var msg message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return message{}, err
	}
	return msg, nil
}

func queueKey(prefix string) string {
	if prefix == "" {
		return "queue:" + Kind
	}
	return prefix + ":queue:" + Kind
}

func processingKey(prefix string) string {
	return queueKey(prefix) + ":processing"
}

func dlqKey(prefix string) string {
	return queueKey(prefix) + ":dlq"
}

func dedupKey(prefix, orderID string) string {
	if prefix == "" {
		return "queue:dedup:" + Kind + ":" + orderID
	}
	return prefix + ":dedup:" + Kind + ":" + orderID
}
