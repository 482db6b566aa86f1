package infrastructure

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/draftea/food-ordering/shared/events"
	"github.com/pkg/errors"
)

var _ events.Subscriber = (*SQSSubscriberAdapter)(nil)

// SQSSubscriberAdapter adapts SQSEventSubscriber to the events.Subscriber interface
type SQSSubscriberAdapter struct {
	mu            sync.Mutex
	client        SQSAPI
	queueURL      string
	opts          []SQSSubscriberOption
	sqsSubscriber *SQSEventSubscriber
}

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter
func NewSQSSubscriberAdapter(cfg aws.Config, queueURL string, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	return newSQSSubscriberAdapter(sqs.NewFromConfig(cfg), queueURL, opts...)
}

func newSQSSubscriberAdapter(client SQSAPI, queueURL string, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	return &SQSSubscriberAdapter{
		client:   client,
		queueURL: queueURL,
		opts:     opts,
	}
}

// eventHandlerAdapter gives a plain events.EventHandler a handler id
type eventHandlerAdapter struct {
	handler events.EventHandler
}

func (a *eventHandlerAdapter) HandlerID() string {
	if h, ok := a.handler.(interface{ HandlerID() string }); ok {
		return h.HandlerID()
	}
	return "event-handler-adapter"
}

func (a *eventHandlerAdapter) Handle(ctx context.Context, event *events.Event) error {
	return a.handler.Handle(ctx, event)
}

// Subscribe starts consuming the queue with handler. Only one handler can
// be attached, route topics with a saga.EventRouter.
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, handler events.EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sqsSubscriber != nil {
		return errors.New("subscriber is already running")
	}

	if handler == nil {
		return errors.New("no handler configured")
	}

	subscriber := NewSQSEventSubscriber(s.client, s.queueURL, &eventHandlerAdapter{handler: handler}, s.opts...)
	if err := subscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.sqsSubscriber = subscriber
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sqsSubscriber == nil {
		return nil
	}

	if err := s.sqsSubscriber.Stop(ctx); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}

	s.sqsSubscriber = nil
	return nil
}
