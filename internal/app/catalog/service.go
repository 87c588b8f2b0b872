package catalog

import (
	"context"
	"io"
	"sync"
	"time"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// Service implements ports.RequestSource by returning predefined worksheet
// evaluation requests. It backs the local mode of the binary, where no broker
// is available.
type Service struct {
	mu       sync.Mutex
	requests []eval.Request
	index    int
}

var _ ports.RequestSource = (*Service)(nil)

// NewService builds a catalogue seeded with demo worksheets. All seeded
// requests materialize into workingDir.
func NewService(workingDir string) *Service {
	return &Service{
		requests: []eval.Request{
			{
				ID:         "hello",
				EntryPoint: "scratch.Main",
				Source:     "package scratch\n\nfunc Main() {\n\tprintln(\"Hello from the traceval worksheet!\")\n}\n",
				WorkingDir: workingDir,
			},
			{
				ID:         "sums",
				EntryPoint: "sums.Main",
				Source:     "package sums\n\nfunc Main() {\n\ttotal := 0\n\tfor i := 1; i <= 10; i++ {\n\t\ttotal += i\n\t}\n\tprintln(\"total:\", total)\n}\n",
				WorkingDir: workingDir,
			},
		},
	}
}

// NextRequest returns the next catalogued request, or io.EOF once the
// catalogue is exhausted.
func (s *Service) NextRequest(ctx context.Context) (eval.Request, error) {
	select {
	case <-ctx.Done():
		return eval.Request{}, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.requests) {
		return eval.Request{}, io.EOF
	}

	req := s.requests[s.index]
	s.index++

	return req, nil
}

// AddRequest allows extending the catalogue at runtime.
func (s *Service) AddRequest(req eval.Request) {
	if req.ID == "" {
		req.ID = time.Now().UTC().Format(time.RFC3339Nano)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
}
