package security

import (
	"context"
	"runtime"

	"userhub/internal/observability"
	"userhub/internal/worker"
)

// Hasher runs bcrypt work on a bounded pool so hashing never blocks the
// request-dispatch goroutines. Concurrent hash operations are capped by the
// pool size (one per CPU by default).
type Hasher struct {
	cost int
	pool *worker.Pool
	prom *observability.Prom
}

// NewHasher creates a hasher with the given bcrypt cost. workers<=0 sizes the
// pool to the number of CPUs. prom may be nil.
func NewHasher(cost, workers int, prom *observability.Prom) *Hasher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Hasher{
		cost: cost,
		pool: worker.NewPool(workers),
		prom: prom,
	}
}

type hashResult struct {
	hash string
	err  error
}

// Hash derives the one-way password hash off the calling goroutine.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ch := make(chan hashResult, 1)

	h.pool.Submit(func() {
		hash, err := HashPassword(plain, h.cost)
		ch <- hashResult{hash: hash, err: err}
	})

	var out hashResult

	err := h.observe("hash", func() error {
		select {
		case out = <-ch:
			return out.err
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil {
		return "", err
	}

	return out.hash, nil
}

// Compare verifies a candidate password against a stored hash on the pool.
// Returns nil on match.
func (h *Hasher) Compare(ctx context.Context, hash, plain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := make(chan error, 1)

	h.pool.Submit(func() {
		ch <- CheckPassword(hash, plain)
	})

	return h.observe("compare", func() error {
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Stop waits for in-flight hashing to finish.
func (h *Hasher) Stop() {
	h.pool.Stop()
}

func (h *Hasher) observe(op string, fn func() error) error {
	if h.prom == nil {
		return fn()
	}

	return h.prom.ObserveHash(op, fn)
}
