package observable

import (
	"context"
)

// subscription owns one subscription lifecycle: the observer, the subscription observer handed to the
// subscriber function and the teardown returned by it.
type subscription[T any] struct {
	observer             *observer[T]
	subscriptionObserver *subscriptionObserver[T]
	teardown             Unsubscribable
	lifecycle            *lifecycle
}

// newSubscription starts the subscriber function for obs.
// The returned error is the terminal error nobody handled while subscribing. In that case the
// subscription is already closed.
func newSubscription[T any](
	ctx context.Context,
	obs *observer[T],
	subscriber SubscriberFunc[T],
	in *instrumentation,
) (*subscription[T], error) {

	s := &subscription[T]{
		observer:  obs,
		lifecycle: in.startLifecycle(ctx),
	}

	if obs.start != nil {
		start := obs.start
		if err := invoke(func() error { start(s); return nil }); err != nil {
			s.lifecycle.unhandledError(err)
			s.close(statusError)

			return s, err
		}

		// unsubscribed from within Start
		if s.observer == nil {
			return s, nil
		}
	}

	so := newSubscriptionObserver(obs, s.close, s.cleanup, s.lifecycle)
	s.subscriptionObserver = so

	var teardown Unsubscribable
	err := invoke(func() error {
		var subscriberErr error
		teardown, subscriberErr = subscriber(so)

		return subscriberErr
	})

	if !isNilTeardown(teardown) {
		s.teardown = teardown
	}

	if err != nil {
		return s, so.Error(toError(err))
	}

	if s.Closed() {
		if cleanupErr := invoke(func() error { s.cleanup(); return nil }); cleanupErr != nil {
			s.lifecycle.cleanupFailed(cleanupErr)
		}
	}

	return s, nil
}

// Unsubscribe cancels the subscription. The teardown runs at most once, no matter how often
// Unsubscribe is called or whether the subscription already terminated.
func (s *subscription[T]) Unsubscribe() {
	defer s.close(statusUnsubscribed)

	s.cleanup()
}

func (s *subscription[T]) Closed() bool {
	return s.observer == nil
}

func (s *subscription[T]) close(status string) {
	if s.observer == nil {
		return
	}

	s.observer = nil

	if so := s.subscriptionObserver; so != nil {
		s.subscriptionObserver = nil
		so.close(status)
	}

	s.lifecycle.finish(status)
}

// cleanup nils the teardown before calling it, so a re-entrant call finds nothing left to run.
func (s *subscription[T]) cleanup() {
	teardown := s.teardown
	if teardown == nil {
		return
	}

	s.teardown = nil
	teardown.Unsubscribe()
	s.lifecycle.teardownExecuted()
}
