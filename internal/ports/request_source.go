package ports

import (
	"context"

	"traceval/internal/domain/eval"
)

// RequestSource provides evaluation requests from an external system.
// Implementations return io.EOF once the stream is exhausted.
type RequestSource interface {
	NextRequest(ctx context.Context) (eval.Request, error)
}
