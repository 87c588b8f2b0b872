package ports

import (
	"context"

	"traceval/internal/domain/eval"
)

// OutcomePublisher publishes evaluation outcomes to an external system.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome eval.Outcome) error
	Close() error
}
