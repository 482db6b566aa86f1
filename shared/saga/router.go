package saga

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/shared/events"
	"github.com/pkg/errors"
)

// EventRouter dispatches inbound saga messages to the handlers registered for
// their topic. Each service owns one router and plugs it into its subscriber.
type EventRouter struct {
	routes []route
}

type route struct {
	pattern events.Topic
	handler events.EventHandler
}

// NewEventRouter creates a new event router
func NewEventRouter() *EventRouter {
	return &EventRouter{}
}

// RegisterHandler registers an event handler for a topic pattern (see events.Topic.Matches)
func (r *EventRouter) RegisterHandler(pattern events.Topic, handler events.EventHandler) {
	r.routes = append(r.routes, route{pattern: pattern, handler: handler})
}

// HandlerID identifies the router to the SQS subscriber
func (r *EventRouter) HandlerID() string {
	return "saga-event-router"
}

// Handle routes an event to every matching handler. The first handler error
// is returned so the message stays on the queue and is redelivered.
func (r *EventRouter) Handle(ctx context.Context, event *events.Event) error {
	matched := false
	for _, rt := range r.routes {
		if !event.Topic.Matches(rt.pattern) {
			continue
		}
		matched = true

		if err := rt.handler.Handle(ctx, event); err != nil {
			return errors.Wrapf(err, "handler failed for topic %s", event.Topic)
		}
	}

	if !matched {
		slog.WarnContext(ctx, "no handlers registered for topic",
			"topic", event.Topic.String(),
			"event_id", event.ID.String(),
		)
	}

	return nil
}
