package automation

import (
	"context"
)

// Probe tries to act on one candidate selector.
type Probe func(ctx context.Context, selector string) error

// FindFirstMatch runs probe over candidates in order and returns the first
// selector it succeeds on. Candidate failures are expected and only reported
// once all of them failed, as a *LocatorExhaustedError naming target.
// Cancellation of ctx stops the search and is returned as is.
func FindFirstMatch(ctx context.Context, target string, candidates []string, probe Probe) (string, error) {
	var last error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := probe(ctx, c)
		if err == nil {
			return c, nil
		}
		last = err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", &LocatorExhaustedError{
		Target:     target,
		Candidates: append([]string(nil), candidates...),
		Attempts:   len(candidates),
		Last:       last,
	}
}
