package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/queue"
)

// Consumer drains certificate events from a queue into a sink.
type Consumer struct {
	q      queue.Queue
	sink   Sink
	logger *zap.Logger
}

// NewConsumer wires a queue to a sink.
func NewConsumer(q queue.Queue, sink Sink, logger *zap.Logger) *Consumer {
	return &Consumer{q: q, sink: sink, logger: logger.With(zap.String("component", "audit_consumer"))}
}

// Run processes messages until ctx is cancelled. Malformed messages and sink
// failures are logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}

	c.logger.Info("consumer started, waiting for events")
	for msg := range messages {
		if msg.Type != TypeIssued && msg.Type != TypeVerified {
			c.logger.Debug("skipping message", zap.String("type", msg.Type))
			continue
		}
		evt, err := Decode(msg)
		if err != nil {
			c.logger.Warn("dropping malformed event", zap.Error(err))
			continue
		}
		if err := c.sink.Record(ctx, evt); err != nil {
			c.logger.Error("failed to record event",
				zap.String("type", evt.Type),
				zap.String("code", evt.Code),
				zap.Error(err),
			)
			continue
		}
	}
	c.logger.Info("consumer stopped")
	return nil
}
