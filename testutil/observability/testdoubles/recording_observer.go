package testdoubles

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/AntonStoeckl/observable-go/observable"
)

// Notification kinds recorded by RecordingObserver.
const (
	KindStart    = "start"
	KindNext     = "next"
	KindError    = "error"
	KindComplete = "complete"
)

// Notification is one call an observer received.
type Notification[T any] struct {
	Kind  string
	Value T
	Err   error
}

type notificationJSON struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON renders the notification as {"kind": ..., "value": ...} or {"kind": ..., "error": ...}.
func (n Notification[T]) MarshalJSON() ([]byte, error) {
	payload := notificationJSON{Kind: n.Kind}

	switch n.Kind {
	case KindNext:
		payload.Value = n.Value
	case KindError:
		if n.Err != nil {
			payload.Error = n.Err.Error()
		}
	}

	return jsoniter.ConfigFastest.Marshal(payload)
}

// RecordingObserver records every notification it receives.
// The exported fields configure how it reacts; the zero value just records.
type RecordingObserver[T any] struct {
	// NextErr is returned from every Next call.
	NextErr error
	// ErrorErr is returned from every Error call.
	ErrorErr error
	// CompleteErr is returned from every Complete call.
	CompleteErr error
	// UnsubscribeOnStart cancels the subscription inside Start.
	UnsubscribeOnStart bool
	// UnsubscribeAfter cancels the subscription after that many values; zero never does.
	UnsubscribeAfter int
	// OnNext is called for every value after it was recorded.
	OnNext func(value T)

	notifications []Notification[T]
	subscription  observable.Subscription
	closedOnError []bool
}

// NewRecordingObserver creates a RecordingObserver without any configured behavior.
func NewRecordingObserver[T any]() *RecordingObserver[T] {
	return &RecordingObserver[T]{}
}

// Start implements observable.StartObserver.
func (r *RecordingObserver[T]) Start(subscription observable.Subscription) {
	r.subscription = subscription
	r.notifications = append(r.notifications, Notification[T]{Kind: KindStart})

	if r.UnsubscribeOnStart {
		subscription.Unsubscribe()
	}
}

// Next implements observable.NextObserver.
func (r *RecordingObserver[T]) Next(value T) error {
	r.notifications = append(r.notifications, Notification[T]{Kind: KindNext, Value: value})

	if r.OnNext != nil {
		r.OnNext(value)
	}

	if r.UnsubscribeAfter > 0 && len(r.Values()) == r.UnsubscribeAfter && r.subscription != nil {
		r.subscription.Unsubscribe()
	}

	return r.NextErr
}

// Error implements observable.ErrorObserver.
func (r *RecordingObserver[T]) Error(err error) error {
	r.notifications = append(r.notifications, Notification[T]{Kind: KindError, Err: err})
	r.closedOnError = append(r.closedOnError, r.subscription != nil && r.subscription.Closed())

	return r.ErrorErr
}

// Complete implements observable.CompleteObserver.
func (r *RecordingObserver[T]) Complete() error {
	r.notifications = append(r.notifications, Notification[T]{Kind: KindComplete})

	return r.CompleteErr
}

// Subscription returns the subscription received in Start.
func (r *RecordingObserver[T]) Subscription() observable.Subscription {
	return r.subscription
}

// Notifications returns a copy of all recorded notifications.
func (r *RecordingObserver[T]) Notifications() []Notification[T] {
	return append([]Notification[T](nil), r.notifications...)
}

// Kinds returns the kinds of all recorded notifications in order.
func (r *RecordingObserver[T]) Kinds() []string {
	return lo.Map(r.notifications, func(n Notification[T], _ int) string { return n.Kind })
}

// Values returns the values of all recorded next notifications in order.
func (r *RecordingObserver[T]) Values() []T {
	return lo.FilterMap(r.notifications, func(n Notification[T], _ int) (T, bool) {
		return n.Value, n.Kind == KindNext
	})
}

// Errors returns the errors of all recorded error notifications in order.
func (r *RecordingObserver[T]) Errors() []error {
	return lo.FilterMap(r.notifications, func(n Notification[T], _ int) (error, bool) {
		return n.Err, n.Kind == KindError
	})
}

// Completed reports whether a completion was recorded.
func (r *RecordingObserver[T]) Completed() bool {
	return lo.ContainsBy(r.notifications, func(n Notification[T]) bool { return n.Kind == KindComplete })
}

// SubscriptionClosedOnError reports, per recorded error, whether the subscription was already closed
// when the error arrived.
func (r *RecordingObserver[T]) SubscriptionClosedOnError() []bool {
	return append([]bool(nil), r.closedOnError...)
}

// JSON renders all recorded notifications as JSON array.
func (r *RecordingObserver[T]) JSON() (string, error) {
	data, err := jsoniter.ConfigFastest.Marshal(r.notifications)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

var (
	_ observable.StartObserver     = (*RecordingObserver[int])(nil)
	_ observable.NextObserver[int] = (*RecordingObserver[int])(nil)
	_ observable.ErrorObserver     = (*RecordingObserver[int])(nil)
	_ observable.CompleteObserver  = (*RecordingObserver[int])(nil)
)
