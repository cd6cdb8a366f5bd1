/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package sem wraps golang.org/x/sync/semaphore.Weighted with a small
// worker-counting API. It backs connection-cap enforcement: an accept loop
// acquires one unit per live connection and blocks, without busy-looping,
// once the configured cap is reached.
package sem

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Sem bounds the number of concurrently running workers.
type Sem interface {
	// New returns a fresh Sem with the same weight, derived from this
	// one's context.
	New() Sem
	// Weighted returns the configured concurrency limit, or -1 if
	// unlimited.
	Weighted() int64
	// NewWorker blocks until a slot is available or the context is
	// done.
	NewWorker() error
	// NewWorkerTry acquires a slot without blocking, returning false if
	// none is available.
	NewWorkerTry() bool
	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()
	// WaitAll blocks until every currently acquired slot has been
	// released.
	WaitAll() error
	// DeferMain is WaitAll with the error discarded, meant to be used
	// with defer in the owning goroutine.
	DeferMain()
	// Err returns the context's error, if any.
	Err() error
}

// MaxSimultaneous returns the default concurrency limit used when New is
// called with nbrSimultaneous == 0: the runtime's GOMAXPROCS.
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous clamps n to [1, MaxSimultaneous()], substituting
// MaxSimultaneous() for any n < 1.
func SetSimultaneous(n int64) int64 {
	max := int64(MaxSimultaneous())
	if n < 1 || n > max {
		return max
	}
	return n
}

type weightedSem struct {
	ctx context.Context
	w   int64
	sem *semaphore.Weighted
}

type unlimitedSem struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// New returns a Sem bound to ctx. If nbrSimultaneous == 0, the limit is
// MaxSimultaneous(). If nbrSimultaneous < 0, the semaphore is unlimited
// (WaitGroup-backed, for pure "wait for everyone to finish" use).
// Otherwise the limit is nbrSimultaneous.
func New(ctx context.Context, nbrSimultaneous int64) Sem {
	if nbrSimultaneous < 0 {
		return &unlimitedSem{ctx: ctx}
	}

	if nbrSimultaneous == 0 {
		nbrSimultaneous = int64(MaxSimultaneous())
	}

	return &weightedSem{
		ctx: ctx,
		w:   nbrSimultaneous,
		sem: semaphore.NewWeighted(nbrSimultaneous),
	}
}

func (s *weightedSem) New() Sem {
	return New(s.ctx, s.w)
}

func (s *weightedSem) Weighted() int64 { return s.w }

func (s *weightedSem) NewWorker() error {
	return s.sem.Acquire(s.ctx, 1)
}

func (s *weightedSem) NewWorkerTry() bool {
	return s.sem.TryAcquire(1)
}

func (s *weightedSem) DeferWorker() {
	s.sem.Release(1)
}

func (s *weightedSem) WaitAll() error {
	if err := s.sem.Acquire(s.ctx, s.w); err != nil {
		return err
	}
	s.sem.Release(s.w)
	return nil
}

func (s *weightedSem) DeferMain() {
	_ = s.WaitAll()
}

func (s *weightedSem) Err() error {
	return s.ctx.Err()
}

func (s *unlimitedSem) New() Sem {
	return New(s.ctx, -1)
}

func (s *unlimitedSem) Weighted() int64 { return -1 }

func (s *unlimitedSem) NewWorker() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.wg.Add(1)
	return nil
}

func (s *unlimitedSem) NewWorkerTry() bool {
	return s.NewWorker() == nil
}

func (s *unlimitedSem) DeferWorker() {
	s.wg.Done()
}

func (s *unlimitedSem) WaitAll() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *unlimitedSem) DeferMain() {
	_ = s.WaitAll()
}

func (s *unlimitedSem) Err() error {
	return s.ctx.Err()
}
