package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/config"
)

const (
	defaultMaxWait = 500 * time.Millisecond

	// pollTimeout bounds a single fetch so cancellation is noticed promptly.
	pollTimeout = 5 * time.Second

	commitTimeout = 5 * time.Second
)

// Logger interface for optional logging support.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MessageReader is the subset of *kafkago.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Handler processes one message. A returned error is logged and the
// message is still committed, so a malformed record never blocks its
// partition.
type Handler func(ctx context.Context, key, value []byte) error

// Consumer reads a topic as part of a consumer group and commits each
// message after its handler returns.
type Consumer struct {
	reader MessageReader
	topic  string
	logger Logger
}

// NewConsumer builds a group reader from the kafka config section.
func NewConsumer(cfg config.KafkaConfig) (*Consumer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, fmt.Errorf("%w: group_id is required", ErrInvalidConfig)
	}

	maxWait := time.Duration(cfg.MaxWait) * time.Millisecond
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxWait,
	})
	return NewConsumerWithReader(reader, cfg.Topic), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(reader MessageReader, topic string) *Consumer {
	return &Consumer{reader: reader, topic: topic, logger: noopLogger{}}
}

// SetLogger sets the logger for the consumer.
func (c *Consumer) SetLogger(logger Logger) {
	c.logger = logger
}

// Run fetches and handles messages until ctx is cancelled or the reader
// is closed. Both return nil; only unrecoverable reader errors are
// returned.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	c.logger.Info("kafka consumer started", "topic", c.topic)
	defer c.logger.Info("kafka consumer stopped", "topic", c.topic)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fetchCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, kafkago.ErrGroupClosed):
				return nil
			}
			return fmt.Errorf("fetching from %s: %w", c.topic, err)
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Warn("kafka message rejected",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		commitCtx, commitCancel := context.WithTimeout(ctx, commitTimeout)
		err = c.reader.CommitMessages(commitCtx, msg)
		commitCancel()
		if err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
