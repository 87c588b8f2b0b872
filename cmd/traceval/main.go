package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traceval/internal/app/catalog"
	"traceval/internal/app/evaluator"
	"traceval/internal/compiler/gofront"
	"traceval/internal/domain/eval"
	kafkainfra "traceval/internal/infra/kafka"
	"traceval/internal/launcher/dockerexec"
	"traceval/internal/launcher/hostexec"
	"traceval/internal/ports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadAppConfig()

	launcher, err := newLauncher(cfg)
	if err != nil {
		log.Fatalf("failed to initialize launcher: %v", err)
	}

	service, err := evaluator.NewService(gofront.New(gofront.Config{}), launcher, evaluator.Config{
		RuntimeCommand: cfg.RuntimeCommand,
		DefaultLimits:  cfg.DefaultLimits,
	})
	if err != nil {
		log.Fatalf("failed to initialize evaluator: %v", err)
	}
	defer func() {
		if cerr := service.Close(); cerr != nil {
			log.Printf("warning: failed to close evaluator: %v", cerr)
		}
	}()

	requests, onOutcome, cleanup, err := newRequestFlow(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize request flow: %v", err)
	}
	defer cleanup()

	if err := service.EvaluateFromSource(ctx, requests, cfg.MaxRequests, cfg.MaxParallel, onOutcome); err != nil {
		log.Fatalf("failed to evaluate requests: %v", err)
	}
}

func newLauncher(cfg appConfig) (ports.Launcher, error) {
	if cfg.Backend == backendDocker {
		return dockerexec.New(dockerexec.Config{Image: cfg.DockerImage})
	}
	return hostexec.New(), nil
}

// newRequestFlow wires where requests come from and where outcomes go. Kafka
// mode consumes evaluate messages and publishes every outcome; local mode
// drains the built-in worksheet catalogue and prints to the console only.
func newRequestFlow(ctx context.Context, cfg appConfig) (ports.RequestSource, func(eval.Outcome), func(), error) {
	if cfg.Mode == modeLocal {
		return catalog.NewService(cfg.WorkingDir), printOutcome, func() {}, nil
	}

	consumer, err := kafkainfra.NewConsumer(kafkainfra.Config{
		Brokers:    cfg.KafkaBrokers,
		Topic:      cfg.RequestsTopic,
		GroupID:    cfg.GroupID,
		WorkingDir: cfg.WorkingDir,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize kafka consumer: %w", err)
	}

	publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.OutcomesTopic,
	})
	if err != nil {
		_ = consumer.Close()
		return nil, nil, nil, fmt.Errorf("initialize kafka publisher: %w", err)
	}

	onOutcome := func(outcome eval.Outcome) {
		if err := publisher.PublishOutcome(ctx, outcome); err != nil {
			log.Printf("warning: failed to publish outcome %q: %v", outcome.RequestID, err)
		}
		printOutcome(outcome)
	}

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Printf("warning: failed to close kafka publisher: %v", err)
		}
		if err := consumer.Close(); err != nil {
			log.Printf("warning: failed to close kafka consumer: %v", err)
		}
	}

	return consumer, onOutcome, cleanup, nil
}

func printOutcome(outcome eval.Outcome) {
	switch outcome.Status {
	case eval.StatusSuccess:
		fmt.Printf("request %q exited with code %d after %s\n",
			outcome.RequestID, outcome.ExitCode, outcome.Duration.Round(time.Millisecond))
		if outcome.Output != "" {
			fmt.Print(outcome.Output)
		}
	case eval.StatusCompileFailure:
		log.Printf("request %q failed to compile with %d error(s)", outcome.RequestID, outcome.Report.ErrorCount())
		for _, diag := range outcome.Report.Diagnostics {
			if diag.Position != nil {
				log.Printf("  %s:%d:%d: %s", diag.Severity, diag.Position.Line, diag.Position.Column, diag.Message)
			} else {
				log.Printf("  %s: %s", diag.Severity, diag.Message)
			}
		}
	default:
		log.Printf("request %q failed: %v", outcome.RequestID, outcome.Cause)
	}
}
