package ports

import "context"

// Locker is a cooperative, non-blocking mutual-exclusion primitive shared by
// every process that runs the background jobs.
type Locker interface {
	// TryLock attempts to take key without waiting. held is false when another
	// holder owns it.
	TryLock(ctx context.Context, key int64) (held bool, err error)
	// Unlock releases a key taken by this process. Releasing a key that is not
	// held is a no-op.
	Unlock(ctx context.Context, key int64) error
}
