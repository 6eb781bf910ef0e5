package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/AntonStoeckl/observable-go/observable"
)

var errProducerStopped = errors.New("producer stopped")

// Scenario is one demonstrated use of the observable package.
type Scenario struct {
	Name string
	Run  func(ctx context.Context) error
}

type ScenarioRunner struct {
	cfg     Config
	options []observable.Option
	printer *Printer
}

func NewScenarioRunner(cfg Config, options []observable.Option, printer *Printer) *ScenarioRunner {
	return &ScenarioRunner{cfg: cfg, options: options, printer: printer}
}

func (r *ScenarioRunner) Scenarios() []Scenario {
	return []Scenario{
		{Name: "unicast", Run: r.unicast},
		{Name: "multicast", Run: r.multicast},
		{Name: "replay", Run: r.replay},
		{Name: "interop", Run: r.interop},
	}
}

func (r *ScenarioRunner) withName(name string) []observable.Option {
	return append(slices.Clone(r.options), observable.WithName(name))
}

func (r *ScenarioRunner) observer(scenario string, subscriber int) printingObserver {
	return printingObserver{scenario: scenario, subscriber: fmt.Sprintf("s%d", subscriber), printer: r.printer}
}

// unicast subscribes twice to the same cold observable; each subscription gets its own run.
func (r *ScenarioRunner) unicast(ctx context.Context) error {
	source, err := observable.From[int](r.cfg.Values, r.withName("unicast")...)
	if err != nil {
		return err
	}

	for i := 1; i <= 2; i++ {
		if _, err := source.SubscribeContext(ctx, r.observer("unicast", i)); err != nil {
			return err
		}
	}

	return nil
}

// multicast lets all subscribers join before the producer emits, so all of them see every value.
func (r *ScenarioRunner) multicast(ctx context.Context) error {
	var emitter observable.SubscriptionObserver[int]

	shared, err := observable.NewShared(func(o observable.SubscriptionObserver[int]) (observable.Unsubscribable, error) {
		emitter = o
		return nil, nil
	}, r.withName("multicast")...)
	if err != nil {
		return err
	}

	for i := 1; i <= r.cfg.Subscribers; i++ {
		if _, err := shared.SubscribeContext(ctx, r.observer("multicast", i)); err != nil {
			return err
		}
	}

	for _, value := range r.cfg.Values {
		if err := emitter.Next(value); err != nil {
			return err
		}
	}

	return emitter.Complete()
}

// replay terminates a shared observable with an error and then subscribes late.
func (r *ScenarioRunner) replay(ctx context.Context) error {
	shared, err := observable.NewShared(func(o observable.SubscriptionObserver[int]) (observable.Unsubscribable, error) {
		for _, value := range r.cfg.Values {
			if err := o.Next(value); err != nil {
				return nil, err
			}
		}

		return nil, errProducerStopped
	}, r.withName("replay")...)
	if err != nil {
		return err
	}

	for i := 1; i <= r.cfg.Subscribers; i++ {
		if _, err := shared.SubscribeContext(ctx, r.observer("replay", i)); err != nil {
			return err
		}
	}

	return nil
}

// interop converts an iterator and a channel and subscribes through plain callbacks.
func (r *ScenarioRunner) interop(ctx context.Context) error {
	fromSeq, err := observable.From[int](slices.Values(r.cfg.Values), r.withName("interop-seq")...)
	if err != nil {
		return err
	}

	values := make(chan int, len(r.cfg.Values))
	for _, value := range r.cfg.Values {
		values <- value
	}
	close(values)

	fromChan, err := observable.From[int]((<-chan int)(values), r.withName("interop-chan")...)
	if err != nil {
		return err
	}

	sum := 0
	for _, source := range []*observable.Observable[int]{fromSeq, fromChan} {
		_, err := source.SubscribeContext(ctx, observable.Observer[int]{
			Next: func(value int) error {
				sum += value
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	return r.printer.Print("interop", map[string]int{"sum": sum})
}
