package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across several server replicas.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl even if never released.
	// The returned UnlockFunc must be called once the critical section ends.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
