package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafka "github.com/vogiaan1904/thequeue/internal/delivery/kafka"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

func header(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishQueueEvent(t *testing.T) {
	ap := mocks.NewAsyncProducer(t, nil)
	p := NewProducer(ap, "events", logger.InitializeTestZapLogger())

	ev := &models.Event{
		Type:      models.EventTypeRequestCreated,
		SessionID: "sess-1",
		Sequence:  7,
		Request:   &models.Request{ID: "r1", SessionID: "sess-1", SongTitle: "A", Position: 1},
	}

	ap.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "events" {
			return fmt.Errorf("topic = %q, want events", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "sess-1" {
			return fmt.Errorf("key = %q, want sess-1", key)
		}
		if got := header(msg, kafka.HeaderEventType); got != string(models.EventTypeRequestCreated) {
			return fmt.Errorf("event_type header = %q", got)
		}
		if got := header(msg, kafka.HeaderSequence); got != "7" {
			return fmt.Errorf("sequence header = %q, want 7", got)
		}

		val, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got models.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Request == nil || got.Request.ID != "r1" {
			return fmt.Errorf("payload request = %+v, want r1", got.Request)
		}
		return nil
	})

	if err := p.PublishQueueEvent(context.Background(), ev); err != nil {
		t.Fatalf("PublishQueueEvent failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestPublishQueueEventKeepsInputOrder(t *testing.T) {
	ap := mocks.NewAsyncProducer(t, nil)
	p := NewProducer(ap, "", logger.InitializeTestZapLogger())

	for want := uint64(1); want <= 3; want++ {
		ap.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			if got := header(msg, kafka.HeaderSequence); got != fmt.Sprint(want) {
				return fmt.Errorf("sequence header = %s, want %d", got, want)
			}
			return nil
		})
	}

	for seq := uint64(1); seq <= 3; seq++ {
		if err := p.PublishQueueEvent(context.Background(), &models.Event{
			Type: models.EventTypeRequestCreated, SessionID: "s", Sequence: seq,
		}); err != nil {
			t.Fatalf("PublishQueueEvent(%d) failed: %v", seq, err)
		}
	}
	_ = p.Close()
}

func TestPublishQueueEventFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	l := logger.InitializeZapLogger(logger.ZapConfig{Level: "debug", Encoding: "json", Output: &buf})

	ap := mocks.NewAsyncProducer(t, nil)
	p := NewProducer(ap, "", l)

	ap.ExpectInputAndFail(errors.New("broker down"))

	// Delivery is asynchronous: enqueueing succeeds and the failure is reported later.
	if err := p.PublishQueueEvent(context.Background(), &models.Event{Type: models.EventTypeSessionEnded, SessionID: "s"}); err != nil {
		t.Fatalf("PublishQueueEvent() = %v, want nil", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if out := buf.String(); !strings.Contains(out, "broker down") || !strings.Contains(out, "session=s") {
		t.Errorf("log output = %q, want the delivery failure for session s", out)
	}
}
