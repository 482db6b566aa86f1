package saga

import "context"

// Step is one participant-facing step of a choreographed saga.
//
// T is the inbound payload delivered by the participant that executed the
// remote part of the step. Process advances the workflow and yields S,
// Rollback compensates and yields U. Both return the zero value of their
// event type when the payload had already been applied, so a redelivered
// message never produces a second event.
type Step[T any, S any, U any] interface {
	Process(ctx context.Context, data T) (S, error)
	Rollback(ctx context.Context, data T) (U, error)
}

// EmptyEvent is returned by steps whose branch does not notify anybody
type EmptyEvent struct{}
