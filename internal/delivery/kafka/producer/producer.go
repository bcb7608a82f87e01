package producer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/thequeue/internal/delivery/kafka"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

// ErrBacklogFull is returned when the producer's input buffer is full.
var ErrBacklogFull = errors.New("kafka producer backlog full")

// Producer mirrors committed session events onto Kafka. It satisfies
// service.EventMirror. PublishQueueEvent only enqueues, so calls made in
// commit order reach each session's partition in that order without waiting
// on the broker.
type Producer interface {
	PublishQueueEvent(ctx context.Context, ev *models.Event) error
	Close() error
}

type implProducer struct {
	l     logger.Logger
	prod  sarama.AsyncProducer
	topic string
	wg    sync.WaitGroup
}

func NewProducer(prod sarama.AsyncProducer, topic string, l logger.Logger) Producer {
	if topic == "" {
		topic = kafka.DefaultEventsTopic
	}
	p := &implProducer{
		l:     l,
		prod:  prod,
		topic: topic,
	}
	p.wg.Go(p.drainErrors)
	return p
}

func (p *implProducer) drainErrors() {
	for perr := range p.prod.Errors() {
		session := ""
		if perr.Msg != nil && perr.Msg.Key != nil {
			if key, err := perr.Msg.Key.Encode(); err == nil {
				session = string(key)
			}
		}
		p.l.Errorf(context.Background(), "delivery.kafka.producer.drainErrors: session=%s: %v", session, perr.Err)
	}
}

func (p *implProducer) PublishQueueEvent(ctx context.Context, ev *models.Event) error {
	val, err := json.Marshal(ev)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishQueueEvent: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.SessionID), // Partition by session_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{Key: []byte(kafka.HeaderEventType), Value: []byte(ev.Type)},
			{Key: []byte(kafka.HeaderSequence), Value: []byte(strconv.FormatUint(ev.Sequence, 10))},
			{Key: []byte(kafka.HeaderTimestamp), Value: []byte(time.Now().Format(time.RFC3339))},
		},
	}

	select {
	case p.prod.Input() <- msg:
		return nil
	default:
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishQueueEvent: dropping %s seq=%d: %v", ev.Type, ev.Sequence, ErrBacklogFull)
		return ErrBacklogFull
	}
}

// Close flushes buffered messages and waits for their delivery reports.
func (p *implProducer) Close() error {
	p.prod.AsyncClose()
	p.wg.Wait()
	return nil
}
