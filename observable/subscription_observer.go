package observable

// SubscriptionObserver is handed to a subscriber function and guards delivery to the subscribed observer.
// After Error or Complete, or after the subscription was cancelled, no further values reach the observer.
type SubscriptionObserver[T any] interface {
	// Closed reports whether the subscription is closed.
	Closed() bool

	// Next sends the next value to the observer. It is a no-op once closed.
	// An error returned by the observer's next handler is redirected into Error. Only when that fails,
	// too, the original error is returned.
	Next(value T) error

	// Error closes the subscription and sends the error to the observer.
	// Without an error handler the error itself is returned.
	Error(err error) error

	// Complete closes the subscription and notifies the observer about the completion.
	Complete() error
}

type subscriptionObserver[T any] struct {
	observer  *observer[T]
	onClose   func(status string)
	onCleanup func()
	lifecycle *lifecycle
}

func newSubscriptionObserver[T any](
	obs *observer[T],
	onClose func(status string),
	onCleanup func(),
	lc *lifecycle,
) *subscriptionObserver[T] {

	return &subscriptionObserver[T]{
		observer:  obs,
		onClose:   onClose,
		onCleanup: onCleanup,
		lifecycle: lc,
	}
}

// close nils the observer and notifies the owner exactly once.
func (o *subscriptionObserver[T]) close(status string) {
	if o.observer == nil {
		return
	}

	o.observer = nil
	o.onClose(status)
}

func (o *subscriptionObserver[T]) Closed() bool {
	return o.observer == nil
}

func (o *subscriptionObserver[T]) Next(value T) error {
	obs := o.observer
	if obs == nil || obs.next == nil {
		return nil
	}

	nextErr := invoke(func() error { return obs.next(value) })
	if nextErr == nil {
		return nil
	}

	if err := o.Error(nextErr); err != nil {
		return nextErr
	}

	return nil
}

func (o *subscriptionObserver[T]) Error(err error) error {
	if err == nil {
		err = toError(err)
	}

	obs := o.observer

	var onError func(err error) error
	if obs != nil {
		onError = obs.error

		// recorded before closing, while the span is still open
		if onError == nil {
			o.lifecycle.unhandledError(err)
		}
	}

	o.close(statusError)
	defer o.cleanupQuietly()

	if onError == nil {
		return err
	}

	return invoke(func() error { return onError(err) })
}

func (o *subscriptionObserver[T]) Complete() error {
	obs := o.observer
	o.close(statusCompleted)

	if obs != nil && obs.complete != nil {
		if err := invoke(obs.complete); err != nil {
			o.cleanupQuietly()

			return err
		}
	}

	return invoke(func() error {
		o.onCleanup()
		return nil
	})
}

// cleanupQuietly runs the cleanup hook while another notification is being delivered.
// A failing teardown is reported but never replaces the primary result.
func (o *subscriptionObserver[T]) cleanupQuietly() {
	err := invoke(func() error {
		o.onCleanup()
		return nil
	})

	if err != nil {
		o.lifecycle.cleanupFailed(err)
	}
}
