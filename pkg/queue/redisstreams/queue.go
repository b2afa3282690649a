// Package redisstreams implements pkg/queue.Queue over a single Redis
// Stream + consumer group, generalizing the per-project stream discovery
// and retry/DLQ pattern used for telemetry batch consumption into a
// fixed-name, single-stream queue suitable for the two named queues this
// pipeline needs (TraceUpsert, EvaluationExecution).
package redisstreams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"brokle/pkg/queue"
	"brokle/pkg/ulid"
)

// Config tunes one Queue instance.
type Config struct {
	// Stream is the Redis Stream key, e.g. "queue:trace-upsert".
	Stream string
	// ConsumerGroup is shared by every worker process consuming Stream.
	ConsumerGroup string
	// ConsumerID must be unique per process within ConsumerGroup.
	ConsumerID string
	// BatchSize is the max messages read per XReadGroup call.
	BatchSize int
	// BlockDuration is how long XReadGroup blocks waiting for new entries.
	BlockDuration time.Duration
	// MaxDeliveries is how many times a message may be handed to a
	// handler before it is moved to the dead-letter stream.
	MaxDeliveries int64
	// ClaimMinIdle is how long a pending entry must be idle before
	// another consumer may claim and retry it (crash recovery).
	ClaimMinIdle time.Duration
}

func (c *Config) setDefaults() {
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "workers"
	}
	if c.ConsumerID == "" {
		c.ConsumerID = "worker-" + ulid.New().String()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = time.Second
	}
	if c.MaxDeliveries <= 0 {
		c.MaxDeliveries = 3
	}
	if c.ClaimMinIdle <= 0 {
		c.ClaimMinIdle = 30 * time.Second
	}
}

// Queue is a redis-streams-backed implementation of queue.Queue.
type Queue struct {
	client  *redis.Client
	logger  *logrus.Logger
	cfg     Config
	running int32
	quit    chan struct{}
}

// New creates a Queue over a single fixed stream key. ensureGroup should be
// called once before Consume (New does not touch Redis).
func New(client *redis.Client, logger *logrus.Logger, cfg Config) *Queue {
	cfg.setDefaults()
	return &Queue{client: client, logger: logger, cfg: cfg, quit: make(chan struct{})}
}

// Enqueue appends payload to the stream and returns the stream entry ID.
func (q *Queue) Enqueue(ctx context.Context, payload []byte) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		Values: map[string]interface{}{"data": payload},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("redisstreams: enqueue to %s: %w", q.cfg.Stream, err)
	}
	return id, nil
}

// ensureGroup idempotently creates the consumer group at the tail of the
// stream's history the first time it is needed; BUSYGROUP is ignored.
func (q *Queue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.cfg.Stream, q.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("redisstreams: create group %s on %s: %w", q.cfg.ConsumerGroup, q.cfg.Stream, err)
	}
	return nil
}

// Consume blocks, reading and dispatching messages until ctx is done or
// Stop is called. At-least-once: a message is only XAck'd after handler
// returns nil or after it is safely parked in the dead-letter stream.
func (q *Queue) Consume(ctx context.Context, handler queue.Handler) error {
	if !atomic.CompareAndSwapInt32(&q.running, 0, 1) {
		return errors.New("redisstreams: queue already consuming")
	}
	defer atomic.StoreInt32(&q.running, 0)

	if err := q.ensureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-q.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := q.reclaimStale(ctx, handler); err != nil {
			q.logger.WithError(err).Warn("redisstreams: reclaim pass failed")
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.ConsumerGroup,
			Consumer: q.cfg.ConsumerID,
			Streams:  []string{q.cfg.Stream, ">"},
			Count:    int64(q.cfg.BatchSize),
			Block:    q.cfg.BlockDuration,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			q.logger.WithError(err).Error("redisstreams: XReadGroup failed")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handle(ctx, msg, handler)
			}
		}
	}
}

// reclaimStale hands pending entries idle longer than ClaimMinIdle (e.g.
// left behind by a crashed consumer) to this consumer for another attempt.
func (q *Queue) reclaimStale(ctx context.Context, handler queue.Handler) error {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.cfg.Stream,
		Group:    q.cfg.ConsumerGroup,
		Consumer: q.cfg.ConsumerID,
		MinIdle:  q.cfg.ClaimMinIdle,
		Start:    "0",
		Count:    int64(q.cfg.BatchSize),
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	for _, msg := range msgs {
		q.handle(ctx, msg, handler)
	}
	return nil
}

func (q *Queue) handle(ctx context.Context, msg redis.XMessage, handler queue.Handler) {
	data, _ := msg.Values["data"].(string)

	deliveries, _ := q.deliveryCount(ctx, msg.ID)

	err := handler(ctx, queue.Message{
		ID:          msg.ID,
		Data:        []byte(data),
		EnqueuedAt:  idTimestamp(msg.ID),
		DeliveryNum: int(deliveries),
	})

	if err == nil {
		q.ack(ctx, msg.ID)
		return
	}

	if deliveries >= q.cfg.MaxDeliveries {
		if dlqErr := q.moveToDLQ(ctx, msg, err); dlqErr != nil {
			q.logger.WithError(dlqErr).WithField("message_id", msg.ID).Error("redisstreams: failed to move message to DLQ")
			return // left pending; a later pass will retry the DLQ write too
		}
		q.ack(ctx, msg.ID)
		return
	}

	q.logger.WithError(err).WithField("message_id", msg.ID).Warn("redisstreams: handler failed, leaving pending for redelivery")
}

func (q *Queue) ack(ctx context.Context, id string) {
	if err := q.client.XAck(ctx, q.cfg.Stream, q.cfg.ConsumerGroup, id).Err(); err != nil {
		q.logger.WithError(err).WithField("message_id", id).Warn("redisstreams: ack failed")
	}
}

func (q *Queue) deliveryCount(ctx context.Context, id string) (int64, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.Stream,
		Group:  q.cfg.ConsumerGroup,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 1, err
	}
	return pending[0].RetryCount, nil
}

func (q *Queue) moveToDLQ(ctx context.Context, msg redis.XMessage, cause error) error {
	dlqStream := q.cfg.Stream + ":dlq"
	data, _ := msg.Values["data"].(string)

	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: dlqStream,
		Values: map[string]interface{}{
			"data":          data,
			"original_id":   msg.ID,
			"failure":       cause.Error(),
			"dead_lettered": time.Now().Unix(),
		},
	}).Err()
}

// idTimestamp extracts the millisecond timestamp embedded in a stream ID
// of the form "<ms>-<seq>".
func idTimestamp(streamID string) time.Time {
	ms := streamID
	if idx := strings.IndexByte(streamID, '-'); idx >= 0 {
		ms = streamID[:idx]
	}

	var millis int64
	for _, r := range ms {
		if r < '0' || r > '9' {
			return time.Now()
		}
		millis = millis*10 + int64(r-'0')
	}
	if millis == 0 {
		return time.Now()
	}
	return time.UnixMilli(millis)
}

// Stop signals a running Consume loop to return after its current pass.
func (q *Queue) Stop() {
	select {
	case <-q.quit:
	default:
		close(q.quit)
	}
}
