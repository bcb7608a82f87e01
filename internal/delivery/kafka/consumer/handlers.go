package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/thequeue/internal/delivery/kafka"
	"github.com/vogiaan1904/thequeue/internal/service"
)

// rejected commands are dropped: replaying them cannot succeed.
var rejected = []error{
	service.ErrSessionNotFound,
	service.ErrSessionInactive,
	service.ErrRequestNotFound,
	service.ErrRequestExists,
	service.ErrInvalidStatus,
	service.ErrInvalidMutation,
}

func isRejected(err error) bool {
	for _, target := range rejected {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// HandleQueueCommand applies one command as a queue mutation. Undecodable or
// rejected commands are logged and acknowledged. Other failures are returned
// so the offset is left unmarked.
func (c *Consumer) HandleQueueCommand(ctx context.Context, message *sarama.ConsumerMessage) error {
	var cmd kafka.QueueCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		c.l.Warnf(ctx, "delivery.kafka.consumer.HandleQueueCommand: dropping undecodable command at offset %d: %v",
			message.Offset, err)
		return nil
	}

	ctx = c.l.WithFields(ctx, "session_id", cmd.SessionID, "command_id", cmd.CommandID, "kind", cmd.Kind)

	res, err := c.queueSvc.Submit(ctx, cmd.SessionID, cmd.ToInput())
	if err != nil {
		if isRejected(err) {
			c.l.Warnf(ctx, "delivery.kafka.consumer.HandleQueueCommand: command rejected: %v", err)
			return nil
		}
		return err
	}

	c.l.Debugf(ctx, "delivery.kafka.consumer.HandleQueueCommand: applied, request=%s", res.Request.ID)
	return nil
}
