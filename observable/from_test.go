package observable_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/observable-go/observable"
	"github.com/AntonStoeckl/observable-go/testutil/observability/testdoubles"
)

// foreignSubscription is a subscription not created by package observable.
type foreignSubscription struct {
	closed         bool
	unsubscribeCnt *int
}

func (s *foreignSubscription) Unsubscribe() {
	s.closed = true
	*s.unsubscribeCnt++
}

func (s *foreignSubscription) Closed() bool {
	return s.closed
}

// foreignSource is a subscribable implemented outside of package observable.
// It emits its values to observers implementing the observer interfaces and then completes.
type foreignSource struct {
	values         []int
	subscribeCnt   int
	unsubscribeCnt int
}

func (f *foreignSource) Subscribe(observer any) (observable.Subscription, error) {
	f.subscribeCnt++

	if next, ok := observer.(observable.NextObserver[int]); ok {
		for _, v := range f.values {
			if err := next.Next(v); err != nil {
				return nil, err
			}
		}
	}

	if complete, ok := observer.(observable.CompleteObserver); ok {
		if err := complete.Complete(); err != nil {
			return nil, err
		}
	}

	return &foreignSubscription{unsubscribeCnt: &f.unsubscribeCnt}, nil
}

// foreignInterop exposes a foreignSource through the interop accessor.
type foreignInterop struct {
	source *foreignSource
}

func (f foreignInterop) Subscribable() observable.Subscribable[int] {
	return f.source
}

type nilInterop struct{}

func (nilInterop) Subscribable() observable.Subscribable[int] {
	return nil
}

func Test_From_Iterables(t *testing.T) {
	buffered := make(chan int, 3)
	buffered <- 1
	buffered <- 2
	buffered <- 3
	close(buffered)

	receiveOnly := make(chan int, 3)
	receiveOnly <- 1
	receiveOnly <- 2
	receiveOnly <- 3
	close(receiveOnly)

	testCases := []struct {
		name   string
		source any
	}{
		{name: "slice", source: []int{1, 2, 3}},
		{name: "iter.Seq", source: slices.Values([]int{1, 2, 3})},
		{name: "range func", source: func(yield func(int) bool) {
			for _, v := range []int{1, 2, 3} {
				if !yield(v) {
					return
				}
			}
		}},
		{name: "channel", source: buffered},
		{name: "receive-only channel", source: (<-chan int)(receiveOnly)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			recorder := testdoubles.NewRecordingObserver[int]()

			// act
			source, err := observable.From[int](tc.source)
			require.NoError(t, err)
			_, err = source.Subscribe(recorder)

			// assert
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, recorder.Values())
			assert.True(t, recorder.Completed(), "the observable should complete after the last element")
		})
	}
}

func Test_From_ReturnsObservablesUnchanged(t *testing.T) {
	// setup
	source := observable.Of(1, 2)

	// act
	converted, err := observable.From[int](source)

	// assert
	require.NoError(t, err)
	assert.Same(t, source, converted, "an observable should be returned as it is")
}

func Test_From_WrapsSharedObservables(t *testing.T) {
	// setup
	shared := observable.OfShared(1, 2)
	recorder := testdoubles.NewRecordingObserver[int]()

	// act
	converted, err := observable.From[int](shared)
	require.NoError(t, err)
	_, err = converted.Subscribe(recorder)

	// assert
	require.NoError(t, err)
	assert.NotSame(t, shared.Observable, converted, "a shared observable should be wrapped")
	assert.Equal(t, []int{1, 2}, recorder.Values())
	assert.True(t, recorder.Completed())
}

func Test_FromShared(t *testing.T) {
	t.Run("returns shared observables unchanged", func(t *testing.T) {
		// setup
		shared := observable.OfShared(1)

		// act
		converted, err := observable.FromShared[int](shared)

		// assert
		require.NoError(t, err)
		assert.Same(t, shared, converted)
	})

	t.Run("wraps observables", func(t *testing.T) {
		// setup
		first := testdoubles.NewRecordingObserver[int]()
		late := testdoubles.NewRecordingObserver[int]()

		// act
		converted, err := observable.FromShared[int](observable.Of(1, 2))
		require.NoError(t, err)
		_, err = converted.Subscribe(first)
		require.NoError(t, err)
		_, err = converted.Subscribe(late)
		require.NoError(t, err)

		// assert
		assert.Equal(t, []int{1, 2}, first.Values())
		assert.True(t, first.Completed())
		assert.Empty(t, late.Values(), "a late subscriber should only get the replayed completion")
		assert.True(t, late.Completed())
	})

	t.Run("converts iterables", func(t *testing.T) {
		// setup
		recorder := testdoubles.NewRecordingObserver[string]()

		// act
		converted, err := observable.FromShared[string]([]string{"a"}, observable.WithName("letters"))
		require.NoError(t, err)
		_, err = converted.Subscribe(recorder)

		// assert
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, recorder.Values())
	})
}

func Test_From_ForeignSubscribables(t *testing.T) {
	testCases := []struct {
		name    string
		wrapped func(source *foreignSource) any
	}{
		{name: "subscribable", wrapped: func(source *foreignSource) any { return source }},
		{name: "interop observable", wrapped: func(source *foreignSource) any { return foreignInterop{source: source} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			foreign := &foreignSource{values: []int{7, 8}}
			recorder := testdoubles.NewRecordingObserver[int]()

			// act
			converted, err := observable.From[int](tc.wrapped(foreign))
			require.NoError(t, err)
			assert.Equal(t, 0, foreign.subscribeCnt, "conversion should not subscribe")

			subscription, err := converted.Subscribe(recorder)
			require.NoError(t, err)

			// assert
			assert.Equal(t, 1, foreign.subscribeCnt, "subscribing should be delegated")
			assert.Equal(t, []int{7, 8}, recorder.Values())
			assert.True(t, recorder.Completed())
			assert.True(t, subscription.Closed())
			assert.Equal(t, 1, foreign.unsubscribeCnt, "the foreign subscription should be released as teardown")
		})
	}
}

func Test_From_RejectsNonObservables(t *testing.T) {
	var nilChannel chan int

	testCases := []struct {
		name   string
		source any
	}{
		{name: "nil", source: nil},
		{name: "int", source: 42},
		{name: "string", source: "abc"},
		{name: "slice of another type", source: []string{"a"}},
		{name: "nil channel", source: nilChannel},
		{name: "interop returning nil", source: nilInterop{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			converted, err := observable.From[int](tc.source)

			// assert
			assert.ErrorIs(t, err, observable.ErrNotObservable)
			assert.Nil(t, converted)
		})
	}
}

func Test_From_RejectsInvalidOptions(t *testing.T) {
	// act
	converted, err := observable.From[int]([]int{1}, observable.WithName(""))

	// assert
	assert.ErrorIs(t, err, observable.ErrEmptyObservableName)
	assert.Nil(t, converted)
}
