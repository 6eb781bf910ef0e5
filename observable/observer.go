package observable

import (
	"fmt"
	"reflect"
)

// StartObserver receives the subscription before the subscriber function runs.
// Unsubscribing inside Start prevents the subscriber function from being called at all.
type StartObserver interface {
	Start(subscription Subscription)
}

// NextObserver receives the next value in the sequence.
// A returned error is redirected into the error path of the same subscription.
type NextObserver[T any] interface {
	Next(value T) error
}

// ErrorObserver receives the sequence error.
type ErrorObserver interface {
	Error(err error) error
}

// CompleteObserver receives the completion notification.
type CompleteObserver interface {
	Complete() error
}

// Observer is an observer assembled from optional callbacks.
// Nil fields are treated as absent handlers, exactly like an observer object lacking the method.
type Observer[T any] struct {
	Start    func(subscription Subscription)
	Next     func(value T) error
	Error    func(err error) error
	Complete func() error
}

// observer is the canonical capability record every supported observer shape is resolved into.
type observer[T any] struct {
	start    func(subscription Subscription)
	next     func(value T) error
	error    func(err error) error
	complete func() error
}

// toObserver resolves the observer shape once, so nothing after subscribe dispatches on it again.
func toObserver[T any](v any) (*observer[T], error) {
	switch o := v.(type) {
	case nil:
		return nil, ErrInvalidObserver

	case Observer[T]:
		return fromObserverFuncs(o), nil

	case *Observer[T]:
		if o == nil {
			return nil, ErrInvalidObserver
		}
		return fromObserverFuncs(*o), nil

	case func(T) error:
		if o == nil {
			return nil, ErrInvalidObserver
		}
		return &observer[T]{next: o}, nil

	case func(T):
		if o == nil {
			return nil, ErrInvalidObserver
		}
		return &observer[T]{next: func(value T) error { o(value); return nil }}, nil
	}

	if isNilPointer(v) {
		return nil, fmt.Errorf("%w: nil %T", ErrInvalidObserver, v)
	}

	obs := &observer[T]{}
	capable := false
	if s, ok := v.(StartObserver); ok {
		obs.start, capable = s.Start, true
	}
	if n, ok := v.(NextObserver[T]); ok {
		obs.next, capable = n.Next, true
	}
	if e, ok := v.(ErrorObserver); ok {
		obs.error, capable = e.Error, true
	}
	if c, ok := v.(CompleteObserver); ok {
		obs.complete, capable = c.Complete, true
	}

	if !capable && !isObjectLike(v) {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidObserver, v)
	}

	return obs, nil
}

func fromObserverFuncs[T any](o Observer[T]) *observer[T] {
	return &observer[T]{
		start:    o.Start,
		next:     o.Next,
		error:    o.Error,
		complete: o.Complete,
	}
}

// fromCallbacks builds the record for the positional subscribe form.
func fromCallbacks[T any](next func(T), errorFn func(error), complete func()) (*observer[T], error) {
	if next == nil {
		return nil, ErrInvalidObserver
	}

	obs := &observer[T]{next: func(value T) error { next(value); return nil }}
	if errorFn != nil {
		obs.error = func(err error) error { errorFn(err); return nil }
	}
	if complete != nil {
		obs.complete = func() error { complete(); return nil }
	}

	return obs, nil
}

// isObjectLike reports whether v can act as an observer object. Scalars and functions of
// unsupported signatures cannot.
func isObjectLike(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Map:
		return true
	default:
		return false
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map) && rv.IsNil()
}
