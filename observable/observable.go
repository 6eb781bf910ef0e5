package observable

import (
	"context"
)

// SubscriberFunc is the producer function of an Observable.
// It is called once per subscription with the SubscriptionObserver to emit through and returns the
// teardown to run when the subscription ends. Both results may be nil. A returned error, or a panic,
// is delivered as error notification of the subscription.
type SubscriberFunc[T any] func(observer SubscriptionObserver[T]) (Unsubscribable, error)

// Observable is a lazily started push sequence of values of type T.
// Nothing is produced until Subscribe is called, and every subscription runs the subscriber function anew.
//
// Observables are not safe for concurrent use. All notifications are delivered synchronously on the
// goroutine that triggered them.
type Observable[T any] struct {
	subscriber      SubscriberFunc[T]
	instrumentation *instrumentation
}

// New creates an Observable from a subscriber function and optional configuration.
func New[T any](subscriber SubscriberFunc[T], options ...Option) (*Observable[T], error) {
	if subscriber == nil {
		return nil, ErrNilSubscriberFunc
	}

	in, err := newInstrumentation(options)
	if err != nil {
		return nil, err
	}

	return &Observable[T]{
		subscriber:      subscriber,
		instrumentation: in,
	}, nil
}

// Subscribe subscribes the observer to this observable.
//
// The observer can be an Observer[T], a *Observer[T], a func(T) or func(T) error used as next handler,
// or any value implementing some of StartObserver, NextObserver[T], ErrorObserver and CompleteObserver.
// Anything else yields ErrInvalidObserver.
//
// A non-nil error next to a subscription reports a terminal error that no error handler took while
// subscribing. The subscription is closed then.
func (o *Observable[T]) Subscribe(observer any) (Subscription, error) {
	return o.SubscribeContext(context.Background(), observer)
}

// SubscribeContext behaves like Subscribe.
// The context is passed to the contextual logger, the metrics and the tracing collector.
func (o *Observable[T]) SubscribeContext(ctx context.Context, observer any) (Subscription, error) {
	obs, err := toObserver[T](observer)
	if err != nil {
		return nil, err
	}

	return o.subscribe(ctx, obs)
}

// SubscribeFunc subscribes with positional callbacks. The error and complete callbacks may be nil.
func (o *Observable[T]) SubscribeFunc(next func(T), errorFn func(error), complete func()) (Subscription, error) {
	obs, err := fromCallbacks(next, errorFn, complete)
	if err != nil {
		return nil, err
	}

	return o.subscribe(context.Background(), obs)
}

// Subscribable returns the observable itself, which makes every Observable an InteropObservable.
func (o *Observable[T]) Subscribable() Subscribable[T] {
	return o
}

func (o *Observable[T]) subscribe(ctx context.Context, obs *observer[T]) (Subscription, error) {
	return newSubscription(ctx, obs, o.subscriber, o.instrumentation)
}
