package dispatch

import (
	"context"
	"time"
)

// repoWriteAttempts and repoWriteDelay bound the internal retry spec.md §7
// requires for status writes before a repository failure is surfaced on the
// Error Channel: small and linear, independent of the Retry Controller's
// own exponential backoff, which governs dispatch attempts, not repo I/O.
const (
	repoWriteAttempts = 3
	repoWriteDelay    = 100 * time.Millisecond
)

// withRepoRetry runs fn up to repoWriteAttempts times, waiting
// repoWriteDelay between attempts, returning the last error if none
// succeed.
func withRepoRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < repoWriteAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == repoWriteAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(repoWriteDelay):
		}
	}
	return err
}
