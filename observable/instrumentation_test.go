package observable_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/observable-go/observable"
	"github.com/AntonStoeckl/observable-go/testutil/observability/testdoubles"
)

func failingSource(t *testing.T, err error, options ...observable.Option) *observable.Observable[int] {
	t.Helper()

	source, newErr := observable.New(func(observable.SubscriptionObserver[int]) (observable.Unsubscribable, error) {
		return nil, err
	}, options...)
	require.NoError(t, newErr)

	return source
}

func Test_Logging(t *testing.T) {
	t.Run("logs subscribe and close of a completed subscription", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		source, err := observable.From[int]([]int{1, 2}, observable.WithName("numbers"), observable.WithLogger(slog.New(logHandler)))
		require.NoError(t, err)

		// act
		_, err = source.Subscribe(func(int) {})
		require.NoError(t, err)

		// assert
		assert.True(t,
			logHandler.HasDebugLogWithMessage("observable operation: subscribed").
				WithAttribute("observable", "numbers").
				WithAttributeKey("subscription_id").
				Assert(),
			"the subscription should be logged at debug level",
		)
		assert.True(t,
			logHandler.HasInfoLogWithMessage("observable operation: subscription closed").
				WithAttribute("observable", "numbers").
				WithAttribute("status", "completed").
				WithAttributeKey("subscription_id").
				WithDurationMS().
				Assert(),
			"the closed subscription should be logged at info level",
		)
		assert.Equal(t, 1, logHandler.CountLogsWithMessage(slog.LevelInfo, "observable operation: subscription closed"))
	})

	t.Run("logs the executed teardown and the unsubscribed status", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		teardowns := 0
		source, _ := captured[int](t, countingTeardown(&teardowns), observable.WithLogger(slog.New(logHandler)))
		subscription, err := source.Subscribe(func(int) {})
		require.NoError(t, err)

		// act
		subscription.Unsubscribe()
		subscription.Unsubscribe()

		// assert
		assert.Equal(t, 1, teardowns)
		assert.Equal(t, 1, logHandler.CountLogsWithMessage(slog.LevelDebug, "observable operation: teardown executed"))
		assert.True(t,
			logHandler.HasInfoLogWithMessage("observable operation: subscription closed").
				WithAttribute("status", "unsubscribed").
				WithAttribute("observable", "observable").
				Assert(),
			"the default name should be used",
		)
	})

	t.Run("logs unhandled errors at error level", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		source := failingSource(t, errors.New("boom"), observable.WithLogger(slog.New(logHandler)))

		// act
		_, err := source.Subscribe(func(int) {})

		// assert
		assert.EqualError(t, err, "boom")
		assert.True(t,
			logHandler.HasErrorLogWithMessage("observable operation: unhandled error").
				WithAttribute("error", "boom").
				WithAttributeKey("subscription_id").
				Assert(),
		)
		assert.Equal(t, 1, logHandler.CountLogsWithMessage(slog.LevelError, "observable operation: unhandled error"),
			"the unhandled error should be logged once")
		assert.True(t,
			logHandler.HasInfoLogWithMessage("observable operation: subscription closed").
				WithAttribute("status", "error").
				Assert(),
		)
	})

	t.Run("does not log handled errors at error level", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		source := failingSource(t, errors.New("boom"), observable.WithLogger(slog.New(logHandler)))

		// act
		_, err := source.Subscribe(testdoubles.NewRecordingObserver[int]())

		// assert
		require.NoError(t, err)
		assert.Equal(t, 0, logHandler.CountLogsWithMessage(slog.LevelError, "observable operation: unhandled error"))
	})

	t.Run("logs swallowed teardown failures at warn level", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		source, so := captured[int](t,
			observable.TeardownFunc(func() { panic("teardown broke") }),
			observable.WithLogger(slog.New(logHandler)),
		)
		_, err := source.Subscribe(testdoubles.NewRecordingObserver[int]())
		require.NoError(t, err)

		// act
		err = so().Error(errors.New("primary"))

		// assert
		require.NoError(t, err, "the teardown failure must not replace the handled error")
		assert.True(t,
			logHandler.HasWarnLogWithMessage("observable operation: teardown failed").
				WithAttribute("error", "teardown broke").
				Assert(),
		)
	})

	t.Run("logs the multicast lifecycle of shared observables", func(t *testing.T) {
		// setup
		logHandler := testdoubles.NewLogHandlerSpy(false)
		f := newSharedFixture(t, observable.WithName("ticks"), observable.WithLogger(slog.New(logHandler)))
		_, first := f.subscribe(t)
		_, second := f.subscribe(t)

		// act
		first.Unsubscribe()
		second.Unsubscribe()

		// assert
		assert.True(t, logHandler.HasDebugLogWithMessage("observable operation: multicast started").
			WithAttribute("observable", "ticks").
			Assert())
		assert.True(t, logHandler.HasDebugLogWithMessage("observable operation: multicast stopped").Assert())
		assert.Equal(t, 4, logHandler.CountLogsWithMessage(slog.LevelDebug, "observable operation: subscriber count changed"))
		assert.True(t, logHandler.HasDebugLogWithMessage("observable operation: subscriber count changed").
			WithAttribute("subscriber_count", "1").
			Assert())
	})
}

func Test_ContextualLogging(t *testing.T) {
	// setup
	loggerSpy := testdoubles.NewContextualLoggerSpy(true)
	source := failingSource(t, errors.New("boom"), observable.WithContextualLogger(loggerSpy))

	// act
	_, err := source.Subscribe(func(int) {})

	// assert
	require.Error(t, err)
	assert.True(t, loggerSpy.HasLog("debug", "observable operation: subscribed"))
	assert.True(t, loggerSpy.HasLog("error", "observable operation: unhandled error"))
	assert.True(t, loggerSpy.HasLog("info", "observable operation: subscription closed"))
}

func Test_Metrics(t *testing.T) {
	t.Run("records subscriptions, durations and teardowns", func(t *testing.T) {
		// setup
		metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
		teardowns := 0
		source, so := captured[int](t, countingTeardown(&teardowns),
			observable.WithName("numbers"), observable.WithMetrics(metricsSpy))
		_, err := source.Subscribe(func(int) {})
		require.NoError(t, err)

		// act
		require.NoError(t, so().Complete())

		// assert
		assert.True(t, metricsSpy.HasCounterRecordForMetric("observable_subscriptions_total").
			WithObservable("numbers").
			Assert())
		assert.True(t, metricsSpy.HasDurationRecordForMetric("observable_subscription_duration_seconds").
			WithObservable("numbers").
			WithStatus("completed").
			Assert())
		assert.Equal(t, 1, metricsSpy.CountDurationRecordsForMetric("observable_subscription_duration_seconds"))
		assert.Equal(t, 1, metricsSpy.CountCounterRecordsForMetric("observable_teardowns_total"))
	})

	t.Run("records unhandled errors", func(t *testing.T) {
		// setup
		metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
		source := failingSource(t, errors.New("boom"), observable.WithMetrics(metricsSpy))

		// act
		_, err := source.Subscribe(func(int) {})

		// assert
		require.Error(t, err)
		assert.True(t, metricsSpy.HasCounterRecordForMetric("observable_unhandled_errors_total").
			WithErrorType("unhandled").
			Assert())
		assert.True(t, metricsSpy.HasDurationRecordForMetric("observable_subscription_duration_seconds").
			WithStatus("error").
			Assert())
	})

	t.Run("records swallowed teardown failures", func(t *testing.T) {
		// setup
		metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
		source, so := captured[int](t,
			observable.TeardownFunc(func() { panic("teardown broke") }),
			observable.WithMetrics(metricsSpy),
		)
		recorder := testdoubles.NewRecordingObserver[int]()
		recorder.CompleteErr = errors.New("complete failed")
		_, err := source.Subscribe(recorder)
		require.NoError(t, err)

		// act
		err = so().Complete()

		// assert
		assert.EqualError(t, err, "complete failed")
		assert.True(t, metricsSpy.HasCounterRecordForMetric("observable_cleanup_failures_total").
			WithErrorType("cleanup").
			Assert())
		assert.Equal(t, 0, metricsSpy.CountCounterRecordsForMetric("observable_teardowns_total"),
			"a failed teardown should not count as executed")
	})

	t.Run("records shared subscriber counts and multicast starts", func(t *testing.T) {
		// setup
		metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
		f := newSharedFixture(t, observable.WithName("ticks"), observable.WithMetrics(metricsSpy))

		// act
		_, first := f.subscribe(t)
		_, second := f.subscribe(t)
		first.Unsubscribe()
		second.Unsubscribe()
		f.subscribe(t)

		// assert
		assert.Equal(t, []float64{1, 2, 1, 0, 1}, metricsSpy.ValuesForMetric("observable_shared_subscribers"))
		assert.True(t, metricsSpy.HasValueRecordForMetric("observable_shared_subscribers").
			WithObservable("ticks").
			Assert())
		assert.Equal(t, 2, metricsSpy.CountCounterRecordsForMetric("observable_multicast_starts_total"),
			"the multicast should have been started twice")
	})

	t.Run("records nothing without a collector", func(t *testing.T) {
		// act
		subscription, err := observable.Of(1).Subscribe(func(int) {})

		// assert
		require.NoError(t, err)
		assert.True(t, subscription.Closed())
	})
}

func Test_Tracing(t *testing.T) {
	t.Run("finishes the span once with the closing status", func(t *testing.T) {
		// setup
		tracingSpy := testdoubles.NewTracingCollectorSpy(true)
		source, err := observable.From[int]([]int{1}, observable.WithName("numbers"), observable.WithTracing(tracingSpy))
		require.NoError(t, err)

		// act
		subscription, err := source.Subscribe(func(int) {})
		require.NoError(t, err)
		subscription.Unsubscribe()

		// assert
		assert.Equal(t, 1, tracingSpy.CountSpanRecordsForName("observable.subscription"))
		assert.True(t, tracingSpy.HasSpanRecordForName("observable.subscription").
			WithStartAttribute("observable", "numbers").
			WithStartAttributeKey("subscription_id").
			WithStatus("completed").
			FinishedOnce().
			Assert(),
			"unsubscribing after completion must not finish the span again",
		)
	})

	t.Run("marks unsubscribed spans", func(t *testing.T) {
		// setup
		tracingSpy := testdoubles.NewTracingCollectorSpy(true)
		source, _ := captured[int](t, nil, observable.WithTracing(tracingSpy))
		subscription, err := source.Subscribe(func(int) {})
		require.NoError(t, err)

		// act
		subscription.Unsubscribe()

		// assert
		assert.True(t, tracingSpy.HasSpanRecordForName("observable.subscription").
			WithStatus("unsubscribed").
			FinishedOnce().
			Assert())
	})

	t.Run("tags unhandled errors on the span", func(t *testing.T) {
		// setup
		tracingSpy := testdoubles.NewTracingCollectorSpy(true)
		source := failingSource(t, errors.New("boom"), observable.WithTracing(tracingSpy))

		// act
		_, err := source.Subscribe(func(int) {})

		// assert
		require.Error(t, err)
		assert.True(t, tracingSpy.HasSpanRecordForName("observable.subscription").
			WithStatus("error").
			WithSpanAttribute("error_type", "unhandled").
			FinishedOnce().
			Assert())
	})
}
