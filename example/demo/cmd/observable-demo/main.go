package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/observable-go/observable"
)

const (
	defaultValues      = "1,2,3"
	defaultSubscribers = 2
	demoName           = "observable-demo"
)

type Config struct {
	Values               []int
	Subscribers          int
	ObservabilityEnabled bool
	DebugLogging         bool
}

func main() {
	cfg := parseFlags()
	ctx := context.Background()

	obs, err := cfg.NewObservabilityConfig()
	if err != nil {
		log.Fatalf("Failed to create observability providers: %v", err)
	}
	defer obs.Shutdown(ctx)

	printer := NewPrinter(os.Stdout)
	runner := NewScenarioRunner(cfg, obs.Options(), printer)

	for _, scenario := range runner.Scenarios() {
		if err := scenario.Run(ctx); err != nil {
			log.Fatalf("Scenario %s failed: %v", scenario.Name, err)
		}
	}

	if err := obs.Report(ctx, printer); err != nil {
		log.Printf("Failed to collect telemetry: %v", err)
	}
}

func parseFlags() Config {
	var (
		values        = flag.String("values", defaultValues, "Comma-separated integers emitted by every scenario")
		subscribers   = flag.Int("subscribers", defaultSubscribers, "Number of subscribers of the shared scenarios")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		debug         = flag.Bool("debug", false, "Log subscription lifecycle events at debug level")
	)

	flag.Parse()

	parsed, err := parseValues(*values)
	if err != nil {
		log.Fatalf("Invalid values '%s': %v", *values, err)
	}

	if *subscribers < 1 {
		log.Fatalf("Invalid subscribers %d: must be at least 1", *subscribers)
	}

	return Config{
		Values:               parsed,
		Subscribers:          *subscribers,
		ObservabilityEnabled: *observability,
		DebugLogging:         *debug,
	}
}

func parseValues(valuesStr string) ([]int, error) {
	if strings.TrimSpace(valuesStr) == "" {
		return nil, nil
	}

	parts := strings.Split(valuesStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid value '%s': %w", part, err)
		}
		values = append(values, value)
	}

	return values, nil
}

// NewLogger creates the slog logger handed to the observables via WithLogger.
func (c Config) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if c.DebugLogging {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

var _ observable.Logger = (*slog.Logger)(nil)
