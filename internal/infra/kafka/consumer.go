package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// Config describes how to connect to a Kafka cluster for consuming
// evaluation requests.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	// WorkingDir is applied to requests that do not carry one.
	WorkingDir string
	MinBytes   int
	MaxBytes   int
	MaxWait    time.Duration
}

var _ ports.RequestSource = (*Consumer)(nil)

// Consumer wraps a kafka-go reader to implement ports.RequestSource.
type Consumer struct {
	reader     messageReader
	workingDir string
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// NewConsumer builds a new Consumer from the provided configuration.
func NewConsumer(cfg Config) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic must be provided")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "traceval-worker"
	}

	readerConfig := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	}

	if readerConfig.MinBytes == 0 {
		readerConfig.MinBytes = 1
	}
	if readerConfig.MaxBytes == 0 {
		readerConfig.MaxBytes = 10 * 1024 * 1024
	}
	if readerConfig.MaxWait == 0 {
		readerConfig.MaxWait = time.Second
	}

	return newConsumer(kafkago.NewReader(readerConfig), cfg.WorkingDir), nil
}

func newConsumer(reader messageReader, workingDir string) *Consumer {
	return &Consumer{reader: reader, workingDir: workingDir}
}

// NextRequest blocks until the next evaluate message is available in Kafka
// or the context is cancelled. A done message surfaces as io.EOF.
func (c *Consumer) NextRequest(ctx context.Context) (eval.Request, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return eval.Request{}, err
	}

	req, err := decodeEvaluateMessage(msg)
	if err != nil {
		return eval.Request{}, err
	}
	if req.WorkingDir == "" {
		req.WorkingDir = c.workingDir
	}

	return req, nil
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
