package observable

import (
	"fmt"
	"iter"
	"slices"
)

// Of returns an Observable which synchronously emits the items in order and then completes,
// all before Subscribe returns.
func Of[T any](items ...T) *Observable[T] {
	return &Observable[T]{
		subscriber:      emitAll(slices.Values(items)),
		instrumentation: &instrumentation{name: defaultObservableName},
	}
}

// OfShared is Of for a SharedObservable. The first subscriber receives the items,
// later subscribers only the replayed completion.
func OfShared[T any](items ...T) *SharedObservable[T] {
	shared := &SharedObservable[T]{multicast: emitAll(slices.Values(items))}
	shared.init(&instrumentation{name: defaultObservableName})

	return shared
}

// From converts source into an Observable. The source shapes are checked in this order:
//
//   - []T, iter.Seq[T], func(func(T) bool), <-chan T and chan T are emitted synchronously, then completed
//   - an InteropObservable[T] is asked for its Subscribable; an *Observable[T] is returned unchanged,
//     anything else is wrapped so subscriptions are delegated to it
//   - a Subscribable[T] is wrapped the same way
//
// Any other source yields ErrNotObservable. The options only apply when a new Observable is created.
func From[T any](source any, options ...Option) (*Observable[T], error) {
	return from(source, options, New[T])
}

// FromShared is From for a SharedObservable. Only a *SharedObservable[T] is returned unchanged.
func FromShared[T any](source any, options ...Option) (*SharedObservable[T], error) {
	return from(source, options, NewShared[T])
}

func from[T any, O Subscribable[T]](
	source any,
	options []Option,
	construct func(subscriber SubscriberFunc[T], options ...Option) (O, error),
) (O, error) {

	var zero O

	if items, ok := toSeq[T](source); ok {
		return construct(emitAll(items), options...)
	}

	if interop, ok := source.(InteropObservable[T]); ok {
		subscribable := interop.Subscribable()
		if subscribable == nil {
			return zero, fmt.Errorf("%w: %T returned no subscribable", ErrNotObservable, source)
		}

		if same, ok := subscribable.(O); ok {
			return same, nil
		}

		return construct(delegateTo[T](subscribable), options...)
	}

	if subscribable, ok := source.(Subscribable[T]); ok && subscribable != nil {
		return construct(delegateTo[T](subscribable), options...)
	}

	return zero, fmt.Errorf("%w: %T", ErrNotObservable, source)
}

// toSeq returns the elements of source if it is one of the supported iterable shapes.
func toSeq[T any](source any) (iter.Seq[T], bool) {
	switch s := source.(type) {
	case []T:
		return slices.Values(s), true

	case iter.Seq[T]:
		return s, s != nil

	case func(yield func(T) bool):
		return s, s != nil

	case <-chan T:
		return receiveAll(s), s != nil

	case chan T:
		return receiveAll((<-chan T)(s)), s != nil
	}

	return nil, false
}

// receiveAll yields the channel's values until it is closed. Emission therefore blocks the subscribing
// goroutine until the sender closes the channel.
func receiveAll[T any](ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range ch {
			if !yield(v) {
				return
			}
		}
	}
}

func emitAll[T any](items iter.Seq[T]) SubscriberFunc[T] {
	return func(observer SubscriptionObserver[T]) (Unsubscribable, error) {
		for item := range items {
			if observer.Closed() {
				return nil, nil
			}

			if err := observer.Next(item); err != nil {
				return nil, err
			}
		}

		return nil, observer.Complete()
	}
}

// delegateTo subscribes the observer to source and hands the resulting subscription back as teardown.
func delegateTo[T any](source Subscribable[T]) SubscriberFunc[T] {
	return func(observer SubscriptionObserver[T]) (Unsubscribable, error) {
		subscription, err := source.Subscribe(observer)
		if subscription == nil {
			return nil, err
		}

		return subscription, err
	}
}
