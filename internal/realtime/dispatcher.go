// Package realtime fans committed queue events out to the live subscribers of
// a session.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

type Dispatcher struct {
	reg *Registry
	l   logger.Logger
}

func NewDispatcher(reg *Registry, l logger.Logger) *Dispatcher {
	return &Dispatcher{
		reg: reg,
		l:   l,
	}
}

// Publish delivers ev to every subscriber of room at the time of the call.
// Subscribers that fail are removed from the room and closed; their errors
// are logged, not returned. Only an encoding failure is returned.
func (d *Dispatcher) Publish(ctx context.Context, room string, ev *models.Event) (int, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("realtime: encode %s event: %w", ev.Type, err)
	}

	subs := d.reg.Snapshot(room)
	var failed []Subscriber
	for _, sub := range subs {
		if err := sub.Send(ctx, data); err != nil {
			d.l.Warnf(ctx, "realtime.Dispatcher.Publish: session=%s subscriber=%s: %v", room, sub.ID(), err)
			failed = append(failed, sub)
		}
	}

	for _, sub := range failed {
		d.reg.Leave(room, sub)
		if err := sub.Close(); err != nil {
			d.l.Debugf(ctx, "realtime.Dispatcher.Publish: close subscriber=%s: %v", sub.ID(), err)
		}
	}

	d.l.Debugf(ctx, "realtime.Dispatcher.Publish: session=%s type=%s seq=%d delivered=%d evicted=%d",
		room, ev.Type, ev.Sequence, len(subs)-len(failed), len(failed))

	return len(subs) - len(failed), nil
}

func (d *Dispatcher) Registry() *Registry {
	return d.reg
}
