package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldType  = "type"
	fieldEvent = "event"
)

// StreamConfig configures the Redis Streams dispatcher.
type StreamConfig struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
	MaxLen   int64
	Count    int64
	// ClaimIdle is how long a delivered but unacknowledged message waits
	// before this consumer claims it for another attempt.
	ClaimIdle time.Duration
}

// StreamDispatcher publishes events to a Redis stream and delivers them to
// local subscribers through a consumer group. A message is acknowledged only
// after every handler succeeds. Failed messages stay pending and are claimed
// again once they have been idle for ClaimIdle.
type StreamDispatcher struct {
	client    *redis.Client
	cfg       StreamConfig
	logger    *zap.Logger
	handlers  handlerSet
	once      sync.Once
	groupErr  error
	lastClaim time.Time
}

// NewStreamDispatcher builds a dispatcher over client.
func NewStreamDispatcher(client *redis.Client, cfg StreamConfig, logger *zap.Logger) (*StreamDispatcher, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if strings.TrimSpace(cfg.Stream) == "" {
		return nil, errors.New("events stream required")
	}
	if cfg.Group == "" {
		cfg.Group = "default"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = uuid.NewString()
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 10000
	}
	if cfg.Count <= 0 {
		cfg.Count = 10
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = 30 * time.Second
	}
	return &StreamDispatcher{client: client, cfg: cfg, logger: logger}, nil
}

// Publish appends the event to the stream.
func (d *StreamDispatcher) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.cfg.Stream,
		MaxLen: d.cfg.MaxLen,
		Approx: true,
		Values: map[string]any{
			fieldType:  string(event.Type),
			fieldEvent: string(raw),
		},
	}).Err()
}

// Subscribe registers a handler for the given event type.
func (d *StreamDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.handlers.add(eventType, handler)
}

// Run consumes the stream until ctx is cancelled.
func (d *StreamDispatcher) Run(ctx context.Context) error {
	if err := d.ensureGroup(ctx); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(d.lastClaim) >= d.cfg.ClaimIdle {
			d.lastClaim = time.Now()
			if _, err := d.reclaim(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("event reclaim failed", zap.Error(err))
			}
		}
		if _, err := d.poll(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn("event stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

func (d *StreamDispatcher) ensureGroup(ctx context.Context) error {
	d.once.Do(func() {
		err := d.client.XGroupCreateMkStream(ctx, d.cfg.Stream, d.cfg.Group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			d.groupErr = fmt.Errorf("create consumer group: %w", err)
		}
	})
	return d.groupErr
}

// poll reads one batch and returns how many messages were acknowledged.
func (d *StreamDispatcher) poll(ctx context.Context) (int, error) {
	streams, err := d.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    d.cfg.Group,
		Consumer: d.cfg.Consumer,
		Streams:  []string{d.cfg.Stream, ">"},
		Count:    d.cfg.Count,
		Block:    d.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	acked := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if d.handle(ctx, msg) {
				acked++
			}
		}
	}
	return acked, nil
}

// reclaim takes over messages that have been pending longer than ClaimIdle,
// from this or a departed consumer, and retries them. It returns how many were
// acknowledged.
func (d *StreamDispatcher) reclaim(ctx context.Context) (int, error) {
	acked := 0
	start := "0-0"
	for {
		msgs, next, err := d.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   d.cfg.Stream,
			Group:    d.cfg.Group,
			Consumer: d.cfg.Consumer,
			MinIdle:  d.cfg.ClaimIdle,
			Start:    start,
			Count:    d.cfg.Count,
		}).Result()
		if err != nil {
			return acked, err
		}
		for _, msg := range msgs {
			if d.handle(ctx, msg) {
				acked++
			}
		}
		if next == "" || next == "0-0" {
			return acked, nil
		}
		start = next
	}
}

func (d *StreamDispatcher) handle(ctx context.Context, msg redis.XMessage) bool {
	raw, _ := msg.Values[fieldEvent].(string)
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		d.logger.Warn("dropping undecodable event", zap.String("message_id", msg.ID), zap.Error(err))
		d.ack(ctx, msg.ID)
		return true
	}
	if err := d.handlers.deliver(ctx, event); err != nil {
		d.logger.Warn("event handler failed; left pending",
			zap.String("message_id", msg.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return false
	}
	d.ack(ctx, msg.ID)
	return true
}

func (d *StreamDispatcher) ack(ctx context.Context, id string) {
	if err := d.client.XAck(ctx, d.cfg.Stream, d.cfg.Group, id).Err(); err != nil {
		d.logger.Warn("event ack failed", zap.String("message_id", id), zap.Error(err))
	}
}
