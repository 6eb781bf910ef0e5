package observable

// Unsubscribable is anything that can be unsubscribed.
// It is the teardown type returned by subscriber functions.
type Unsubscribable interface {
	Unsubscribe()
}

// TeardownFunc adapts a plain callback to Unsubscribable.
type TeardownFunc func()

// Unsubscribe calls f.
func (f TeardownFunc) Unsubscribe() {
	f()
}

// Subscription is returned by Subscribe and can be used to cancel the subscription.
type Subscription interface {
	Unsubscribable

	// Closed reports whether the subscription is closed. Once true it stays true.
	Closed() bool
}

// Subscribable is anything an observer can be subscribed to.
// T names the element type for the reader. It is not part of the method set, so the compiler
// cannot tell subscribables of different element types apart.
type Subscribable[T any] interface {
	Subscribe(observer any) (Subscription, error)
}

// InteropObservable is implemented by observable sources which can hand out a subscribable view of
// themselves. It is the interoperability convention used by From to convert foreign observables.
type InteropObservable[T any] interface {
	Subscribable() Subscribable[T]
}

// IsUnsubscribable reports whether v can be unsubscribed.
func IsUnsubscribable(v any) bool {
	u, ok := v.(Unsubscribable)
	return ok && !isNilTeardown(u)
}

// IsSubscribable reports whether v accepts observers of type T.
func IsSubscribable[T any](v any) bool {
	_, ok := v.(Subscribable[T])
	return ok
}

// isNilTeardown reports whether the teardown is absent, including a nil TeardownFunc inside the interface.
func isNilTeardown(teardown Unsubscribable) bool {
	if teardown == nil {
		return true
	}

	if f, ok := teardown.(TeardownFunc); ok && f == nil {
		return true
	}

	return false
}
