package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/desoc-network/govx/pkg/retry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamAPI is the subset of Client a StreamConsumer needs.
type StreamAPI interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) error
	XReadGroup(ctx context.Context, group, consumer, stream, id string, count int64, block time.Duration) ([]redis.XStream, error)
	XAck(ctx context.Context, stream, group string, ids ...string) (int64, error)
}

var _ StreamAPI = (*Client)(nil)

// StreamConsumerConfig configures a StreamConsumer.
type StreamConsumerConfig struct {
	// Stream is the Redis stream name to consume from (required).
	Stream string

	// Group is the consumer group name (required).
	Group string

	// Consumer is the consumer name within the group (required).
	Consumer string

	// Count is the max number of entries to read per batch. Default: 100.
	Count int64

	// Block is how long to wait for new entries. Default: 5 seconds.
	Block time.Duration

	// Retry controls the wait after a read or handler failure. Only the delay
	// schedule is used; the consumer retries until its context ends.
	Retry retry.Config

	// Logger for logging. If nil, uses a no-op logger.
	Logger *zap.Logger
}

// MessageHandler processes a stream message. Returning nil acknowledges it.
// Returning an error leaves it pending; the consumer backs off and delivers
// it again before anything that follows it in the stream.
type MessageHandler func(ctx context.Context, msg Message) error

// Message represents a single stream entry with parsed fields.
type Message struct {
	// ID is the Redis stream entry ID (e.g., "1234567890123-0").
	ID string

	// Stream is the stream name this message came from.
	Stream string

	// Values contains the entry fields as key-value pairs.
	Values map[string]any
}

// StreamConsumer consumes one stream through a consumer group, one entry at a
// time and in stream order.
type StreamConsumer struct {
	client StreamAPI
	config StreamConsumerConfig
	logger *zap.Logger
}

// NewStreamConsumer creates a new stream consumer.
func NewStreamConsumer(client StreamAPI, config StreamConsumerConfig) (*StreamConsumer, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Stream == "" {
		return nil, errors.New("stream name is required")
	}
	if config.Group == "" || config.Consumer == "" {
		return nil, errors.New("consumer group and consumer name are required")
	}

	// Apply defaults
	if config.Count == 0 {
		config.Count = 100
	}
	if config.Block == 0 {
		config.Block = 5 * time.Second
	}
	if config.Retry.InitialDelay == 0 {
		config.Retry = retry.Config{
			InitialDelay:  time.Second,
			MaxDelay:      30 * time.Second,
			Multiplier:    2,
			JitterEnabled: true,
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StreamConsumer{
		client: client,
		config: config,
		logger: logger.With(zap.String("stream", config.Stream)),
	}, nil
}

// Run creates the consumer group if needed and calls handler for each entry.
// Blocks until ctx is cancelled.
//
// Entries this consumer read but never acknowledged (an earlier crash or a
// handler error) are delivered first, so a failed entry is retried before any
// later entry of the same stream.
func (sc *StreamConsumer) Run(ctx context.Context, handler MessageHandler) error {
	if err := sc.client.XGroupCreateMkStream(ctx, sc.config.Stream, sc.config.Group, "0"); err != nil {
		return err
	}
	sc.logger.Info("Consumer group ready",
		zap.String("group", sc.config.Group),
		zap.String("consumer", sc.config.Consumer))

	pending := true
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			sc.logger.Info("Stream consumer shutting down")
			return ctx.Err()
		default:
		}

		id := ">"
		if pending {
			id = "0"
		}

		messages, err := sc.readMessages(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, redis.Nil) {
				// Block timeout without new entries.
				continue
			}
			attempt++
			if !sc.wait(ctx, attempt, "Error reading from stream, will retry", err) {
				return ctx.Err()
			}
			continue
		}

		if pending && len(messages) == 0 {
			pending = false
			continue
		}

		failed := false
		for _, msg := range messages {
			if err := sc.processMessage(ctx, handler, msg); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				attempt++
				failed = true
				if !sc.wait(ctx, attempt, "Error processing message, will redeliver", err, zap.String("id", msg.ID)) {
					return ctx.Err()
				}
				break
			}
		}
		if failed {
			pending = true
			continue
		}
		attempt = 0
	}
}

// wait logs err and sleeps for the backoff of attempt. It returns false if
// ctx ended first.
func (sc *StreamConsumer) wait(ctx context.Context, attempt int, msg string, err error, fields ...zap.Field) bool {
	delay := retry.Backoff(sc.config.Retry, attempt)
	sc.logger.Warn(msg, append(fields,
		zap.Error(err),
		zap.Int("attempt", attempt),
		zap.Duration("retryIn", delay))...)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// readMessages reads a batch of messages from the stream. Pending reads do
// not block.
func (sc *StreamConsumer) readMessages(ctx context.Context, id string) ([]Message, error) {
	block := sc.config.Block
	if id != ">" {
		block = -1
	}
	streams, err := sc.client.XReadGroup(ctx, sc.config.Group, sc.config.Consumer, sc.config.Stream, id, sc.config.Count, block)
	if err != nil {
		return nil, err
	}

	var messages []Message
	for _, stream := range streams {
		for _, xmsg := range stream.Messages {
			messages = append(messages, Message{
				ID:     xmsg.ID,
				Stream: stream.Stream,
				Values: xmsg.Values,
			})
		}
	}
	return messages, nil
}

// processMessage runs handler and acknowledges the message on success.
func (sc *StreamConsumer) processMessage(ctx context.Context, handler MessageHandler, msg Message) error {
	if err := handler(ctx, msg); err != nil {
		return err
	}

	if _, ackErr := sc.client.XAck(ctx, sc.config.Stream, sc.config.Group, msg.ID); ackErr != nil {
		// Unacked entries are redelivered from the pending list; projection
		// is idempotent so that is harmless.
		sc.logger.Warn("Failed to acknowledge message",
			zap.String("id", msg.ID),
			zap.Error(ackErr))
	}
	return nil
}

// GetData is a helper to extract the "data" field from a message.
// Returns nil if not found.
func (m *Message) GetData() []byte {
	switch data := m.Values["data"].(type) {
	case string:
		return []byte(data)
	case []byte:
		return data
	}
	return nil
}

// GetChainID is a helper to extract the chain ID field from a message.
// Checks both "chainId" and "chain_id" field names.
// Returns 0 if not found or not parseable.
func (m *Message) GetChainID() uint64 {
	val, ok := m.Values["chainId"]
	if !ok {
		val, ok = m.Values["chain_id"]
	}
	if !ok {
		return 0
	}
	return parseUint64(val)
}

// parseUint64 converts various types to uint64.
func parseUint64(v any) uint64 {
	switch val := v.(type) {
	case uint64:
		return val
	case int64:
		return uint64(val)
	case float64:
		return uint64(val)
	case int:
		return uint64(val)
	case string:
		// Redis returns numbers as strings
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
