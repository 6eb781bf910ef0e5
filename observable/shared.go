package observable

import (
	"context"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/multierr"
)

// SharedObservable multicasts one run of its multicast subscriber function to all current subscribers.
//
// The multicast function starts when the first subscriber arrives and is torn down when the last one
// leaves. A later first subscriber starts it again. Once it signalled an error or completion, the
// SharedObservable stays terminated: late subscribers receive the stored error or the completion
// immediately and the multicast function is never called again.
type SharedObservable[T any] struct {
	*Observable[T]

	multicast   SubscriberFunc[T]
	subscribers *orderedmap.OrderedMap[uint64, SubscriptionObserver[T]]
	nextKey     uint64
	newest      SubscriptionObserver[T]
	teardown    Unsubscribable
	completed   bool
	err         error
}

// NewShared creates a SharedObservable from a multicast subscriber function and optional configuration.
func NewShared[T any](multicast SubscriberFunc[T], options ...Option) (*SharedObservable[T], error) {
	if multicast == nil {
		return nil, ErrNilSubscriberFunc
	}

	in, err := newInstrumentation(options)
	if err != nil {
		return nil, err
	}

	shared := &SharedObservable[T]{multicast: multicast}
	shared.init(in)

	return shared, nil
}

func (s *SharedObservable[T]) init(in *instrumentation) {
	s.subscribers = orderedmap.New[uint64, SubscriptionObserver[T]]()
	s.Observable = &Observable[T]{
		subscriber:      s.subscribe,
		instrumentation: in,
	}
}

// Subscribable returns the shared observable itself.
func (s *SharedObservable[T]) Subscribable() Subscribable[T] {
	return s
}

func (s *SharedObservable[T]) terminated() bool {
	return s.completed || s.err != nil
}

// subscribe is the subscriber function of the embedded Observable, called once per subscriber.
func (s *SharedObservable[T]) subscribe(observer SubscriptionObserver[T]) (Unsubscribable, error) {
	switch {
	case s.completed:
		return nil, observer.Complete()

	case s.err != nil:
		return nil, observer.Error(s.err)
	}

	ctx := contextOf(observer)
	key := s.nextKey
	s.nextKey++
	s.subscribers.Set(key, observer)
	s.newest = observer
	s.instrumentation.subscriberCountChanged(ctx, s.subscribers.Len())

	var multicastErr error
	if s.subscribers.Len() == 1 {
		s.instrumentation.multicastStarted(ctx)

		var teardown Unsubscribable
		err := invoke(func() error {
			var subscriberErr error
			teardown, subscriberErr = s.multicast(fanout[T]{shared: s})

			return subscriberErr
		})

		if !isNilTeardown(teardown) {
			s.teardown = teardown
		}

		switch {
		case err == nil:
			// multicast running

		case isMemberError(err) || s.terminated():
			// a subscriber's own failure, or the outcome of an Error the producer already signalled
			multicastErr = memberCause(err)

		default:
			multicastErr = memberCause(fanout[T]{shared: s}.Error(toError(err)))
		}
	}

	return TeardownFunc(func() { s.remove(ctx, key) }), multicastErr
}

// remove drops a subscriber and tears the multicast down once nobody is left.
func (s *SharedObservable[T]) remove(ctx context.Context, key uint64) {
	if _, present := s.subscribers.Delete(key); !present {
		return
	}

	s.instrumentation.subscriberCountChanged(ctx, s.subscribers.Len())

	if s.subscribers.Len() > 0 {
		return
	}

	s.instrumentation.multicastStopped(ctx)

	teardown := s.teardown
	if teardown == nil {
		return
	}

	s.teardown = nil
	teardown.Unsubscribe()
}

// snapshot copies the current subscribers, so members may leave or join during a broadcast.
func (s *SharedObservable[T]) snapshot() []SubscriptionObserver[T] {
	members := make([]SubscriptionObserver[T], 0, s.subscribers.Len())
	for pair := s.subscribers.Oldest(); pair != nil; pair = pair.Next() {
		members = append(members, pair.Value)
	}

	return members
}

// broadcast notifies all members and marks their combined errors as memberError.
func (s *SharedObservable[T]) broadcast(notify func(member SubscriptionObserver[T]) error) error {
	var err error
	for _, member := range s.snapshot() {
		err = multierr.Append(err, notify(member))
	}

	if err == nil {
		return nil
	}

	return &memberError{err: err}
}

// memberError carries errors returned by subscribers during a broadcast.
// They belong to the subscribers and never become the terminal error of the SharedObservable.
type memberError struct {
	err error
}

func (e *memberError) Error() string {
	return e.err.Error()
}

func (e *memberError) Unwrap() error {
	return e.err
}

// Errors exposes the combined member errors to multierr.Errors.
func (e *memberError) Errors() []error {
	return multierr.Errors(e.err)
}

func isMemberError(err error) bool {
	var member *memberError
	return errors.As(err, &member)
}

// memberCause strips the memberError mark before an error is handed back to a subscriber.
func memberCause(err error) error {
	var member *memberError
	if errors.As(err, &member) {
		return member.err
	}

	return err
}

// fanout is the observer handed to the multicast subscriber function.
// Errors returned by its methods are the subscribers' errors, marked as memberError.
type fanout[T any] struct {
	shared *SharedObservable[T]
}

// Closed reports the closed state of the most recently added subscriber only, even after that
// subscriber left. It does not tell whether all subscribers are gone.
func (f fanout[T]) Closed() bool {
	return f.shared.newest == nil || f.shared.newest.Closed()
}

func (f fanout[T]) Next(value T) error {
	return f.shared.broadcast(func(member SubscriptionObserver[T]) error {
		return member.Next(value)
	})
}

func (f fanout[T]) Error(err error) error {
	if f.shared.terminated() {
		return nil
	}

	if err == nil {
		err = toError(err)
	}
	f.shared.err = err

	return f.shared.broadcast(func(member SubscriptionObserver[T]) error {
		return member.Error(err)
	})
}

func (f fanout[T]) Complete() error {
	if f.shared.terminated() {
		return nil
	}

	f.shared.completed = true

	return f.shared.broadcast(func(member SubscriptionObserver[T]) error {
		return member.Complete()
	})
}

// contextOf returns the subscribe context carried by a subscription observer.
func contextOf[T any](observer SubscriptionObserver[T]) context.Context {
	if so, ok := observer.(*subscriptionObserver[T]); ok && so.lifecycle != nil {
		return so.lifecycle.ctx
	}

	return context.Background()
}
