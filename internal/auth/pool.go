package auth

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool bounds how many password hashing jobs run at once.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *logrus.Logger
}

// NewPool returns a pool running at most workers jobs concurrently.
// A non-positive value selects runtime.NumCPU().
func NewPool(workers int, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pool{
		sem:    make(chan struct{}, workers),
		logger: logger,
	}
}

// Run executes fn on a pool worker and waits for it. If ctx ends first Run
// returns ctx.Err(); a job that already started still runs to completion in
// the background and must not touch state the caller reads after an error.
func (p *Pool) Run(ctx context.Context, fn func()) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.sem <- struct{}{}:
	}

	done := make(chan struct{})
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits for in-flight jobs.
func (p *Pool) Shutdown() {
	p.wg.Wait()
	p.logger.Info("hash pool stopped")
}
