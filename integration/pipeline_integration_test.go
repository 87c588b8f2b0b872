//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"

	"traceval/internal/app/evaluator"
	"traceval/internal/compiler/gofront"
	"traceval/internal/domain/eval"
	kafkainfra "traceval/internal/infra/kafka"
	"traceval/internal/launcher/hostexec"
	"traceval/internal/testhelpers"
)

func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	kafkaContainer, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.7.0")
	if err != nil {
		t.Skipf("kafka container unavailable: %v", err)
	}
	defer kafkaContainer.Terminate(context.Background())

	brokers, err := kafkaContainer.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to obtain broker addresses: %v", err)
	}
	if len(brokers) == 0 {
		t.Fatal("no brokers returned by kafka container")
	}
	broker := brokers[0]

	const (
		requestsTopic = "integration-requests"
		outcomesTopic = "integration-outcomes"
	)

	if err := testhelpers.WaitForKafkaBroker(ctx, broker); err != nil {
		t.Fatalf("wait for kafka broker: %v", err)
	}
	if err := testhelpers.EnsureKafkaTopic(ctx, broker, requestsTopic); err != nil {
		t.Fatalf("ensure requests topic: %v", err)
	}
	if err := testhelpers.EnsureKafkaTopic(ctx, broker, outcomesTopic); err != nil {
		t.Fatalf("ensure outcomes topic: %v", err)
	}

	runtimePath := writeRuntimeStub(t)
	workdir := t.TempDir()

	service, err := evaluator.NewService(gofront.New(gofront.Config{}), hostexec.New(), evaluator.Config{
		RuntimeCommand: runtimePath,
		DefaultLimits:  eval.RunLimits{TimeLimit: 15 * time.Second},
	})
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	defer service.Close()

	consumer, err := kafkainfra.NewConsumer(kafkainfra.Config{
		Brokers:    []string{broker},
		Topic:      requestsTopic,
		GroupID:    "pipeline-integration-consumer",
		WorkingDir: workdir,
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	defer consumer.Close()

	publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
		Brokers: []string{broker},
		Topic:   outcomesTopic,
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer publisher.Close()

	evalCtx, evalCancel := context.WithCancel(ctx)
	defer evalCancel()

	errCh := make(chan error, 1)
	sendErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	go func() {
		defer evalCancel()
		err := service.EvaluateFromSource(evalCtx, consumer, 1, 1, func(outcome eval.Outcome) {
			if pubErr := publisher.PublishOutcome(evalCtx, outcome); pubErr != nil {
				sendErr(fmt.Errorf("publish outcome: %w", pubErr))
				evalCancel()
			}
		})
		sendErr(err)
	}()

	requestID := "pipeline-request"
	payload, err := json.Marshal(map[string]any{
		"type":        "evaluate",
		"id":          requestID,
		"entry_point": "scratch.Main",
		"source":      "package scratch\n\nfunc Main() {\n\tprintln(\"compile me\")\n}\n",
	})
	if err != nil {
		t.Fatalf("marshal evaluate payload: %v", err)
	}

	if err := testhelpers.PublishMessage(ctx, broker, requestsTopic, requestID, payload); err != nil {
		t.Fatalf("publish evaluate message: %v", err)
	}

	outcomesReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   outcomesTopic,
		GroupID: "pipeline-integration-outcomes",
	})
	defer outcomesReader.Close()

	msgCtx, msgCancel := context.WithTimeout(ctx, time.Minute)
	defer msgCancel()

	msg, err := outcomesReader.ReadMessage(msgCtx)
	if err != nil {
		t.Fatalf("read outcome message: %v", err)
	}

	var envelope struct {
		ID        string    `json:"id"`
		Status    string    `json:"status"`
		Output    string    `json:"output"`
		ExitCode  *int      `json:"exit_code"`
		Error     string    `json:"error"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		t.Fatalf("decode outcome message: %v", err)
	}

	if envelope.ID != requestID {
		t.Fatalf("expected outcome for %q, got %q", requestID, envelope.ID)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success outcome, got %q (error %q)", envelope.Status, envelope.Error)
	}
	if envelope.ExitCode == nil || *envelope.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", envelope.ExitCode)
	}
	if envelope.Output != "hello from the worksheet runtime\n" {
		t.Fatalf("unexpected runtime output %q", envelope.Output)
	}

	if _, err := os.Stat(filepath.Join(workdir, "Main$instrumented.go")); err != nil {
		t.Fatalf("expected the materialized source to persist: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("pipeline evaluation error: %v", err)
	}
}

func writeRuntimeStub(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracevm")
	script := "#!/bin/sh\nprintf 'hello from the worksheet runtime\\n'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write runtime stub: %v", err)
	}
	return path
}
