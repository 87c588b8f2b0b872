package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// EvaluateFromSource pulls requests from the supplied source and evaluates
// them with bounded parallelism.
//
// If maxRequests is greater than zero the loop stops after the specified
// number of requests has been consumed. Otherwise it keeps consuming until
// the context is cancelled or the source signals completion via io.EOF.
//
// When onOutcome is provided it is invoked once per consumed request;
// evaluator faults are folded into an error-status outcome so no request
// goes unanswered.
func (s *Service) EvaluateFromSource(
	ctx context.Context,
	requests ports.RequestSource,
	maxRequests int,
	maxParallel int,
	onOutcome func(eval.Outcome),
) error {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallel)
	processed := 0

	finish := func(err error) error {
		wg.Wait()
		return err
	}

	for {
		if maxRequests > 0 && processed >= maxRequests {
			return finish(nil)
		}

		req, err := requests.NextRequest(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return finish(nil)
			}

			return finish(fmt.Errorf("get next request: %w", err))
		}

		sem <- struct{}{}
		wg.Add(1)
		processed++
		go func(req eval.Request) {
			defer wg.Done()
			defer func() { <-sem }()

			started := time.Now()
			outcome, err := s.Evaluate(ctx, req)
			if err != nil {
				outcome = eval.ErrorOutcome(req.ID, err, time.Since(started))
			}
			if onOutcome != nil {
				onOutcome(outcome)
			}
		}(req)
	}
}
