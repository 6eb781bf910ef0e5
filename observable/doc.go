// Package observable provides push-based, lazily started and cancellable sequences.
//
// An Observable wraps a subscriber function. Every call to Subscribe runs that function with a
// SubscriptionObserver, which delivers values, an error or the completion to the subscribed observer
// and guarantees that the teardown returned by the subscriber function runs exactly once.
// A SharedObservable runs its subscriber function once for all current subscribers and replays
// its terminal state to subscribers arriving later.
//
// Key features:
//   - Observers as Observer[T] structs, plain next functions or any type implementing the observer interfaces
//   - Guarded delivery: nothing reaches an observer after an error, the completion or Unsubscribe
//   - Exactly-once teardown, no matter how the subscription ends
//   - Conversion of slices, iter.Seq, channels and foreign subscribables with From
//   - Optional logging, metrics and tracing via functional options
//
// Errors take the place of exceptions: handlers and subscriber functions return them, and panics raised
// by them are recovered and turned into errors. An error that no error handler takes is returned to
// whoever triggered it, in the end to the caller of Subscribe.
//
// Observables are not safe for concurrent use. All notifications are delivered synchronously.
//
// Usage examples:
//
//	ticks, _ := observable.New(func(o observable.SubscriptionObserver[int]) (observable.Unsubscribable, error) {
//		for i := range 3 {
//			if err := o.Next(i); err != nil {
//				return nil, err
//			}
//		}
//		return nil, o.Complete()
//	}, observable.WithName("ticks"), observable.WithLogger(slog.Default()))
//
//	subscription, err := ticks.Subscribe(func(v int) { fmt.Println(v) })
//
//	// Multicast with terminal replay
//	shared := observable.OfShared("a", "b")
//	_, _ = shared.Subscribe(observable.Observer[string]{
//		Next:     func(v string) error { fmt.Println(v); return nil },
//		Complete: func() error { fmt.Println("done"); return nil },
//	})
package observable
