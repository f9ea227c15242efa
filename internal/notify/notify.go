// Package notify delivers list completion notices to the original author.
// Delivery is best effort: callers enqueue and move on, failures are logged.
package notify

import "context"

// Completion is the notice sent when a copy of an author's list is finished.
type Completion struct {
	ListName          string
	AuthorEmail       string
	AuthorUsername    string
	CompleterUsername string
}

// Sender performs one synchronous delivery attempt.
type Sender interface {
	Send(ctx context.Context, n Completion) error
}

// Notifier accepts notices without blocking the caller on delivery.
type Notifier interface {
	NotifyCompletion(ctx context.Context, n Completion)
}

// Discard drops every notice. Useful when no mail transport is configured.
type Discard struct{}

func (Discard) NotifyCompletion(context.Context, Completion) {}
