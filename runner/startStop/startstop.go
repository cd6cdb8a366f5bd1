/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop implements a generic start/stop lifecycle runner: a
// long-running function is launched in its own goroutine and joined on
// Stop. It backs every worker goroutine in this module (accept loops,
// connection workers, client workers).
package startStop

import (
	"context"
	"sync"
	"time"
)

// Func is a lifecycle function: start functions block until the context is
// canceled or the work is done; stop functions perform any teardown needed
// to make a blocked start function return.
type Func func(ctx context.Context) error

// Runner manages one start/stop lifecycle.
type Runner interface {
	// Start launches the start function in its own goroutine. If the
	// runner is already running, it is stopped first.
	Start(ctx context.Context) error
	// Stop calls the stop function and blocks until the start function's
	// goroutine has returned. Safe to call multiple times and on a
	// runner that was never started.
	Stop(ctx context.Context) error
	// Restart stops then starts the runner.
	Restart(ctx context.Context) error
	// IsRunning reports whether the start function's goroutine is
	// currently active.
	IsRunning() bool
	// Uptime returns how long the runner has been running, or zero if
	// it is not running.
	Uptime() time.Duration
	// ErrorsLast returns the last error returned by the start or stop
	// function, or nil if none occurred since the last Start.
	ErrorsLast() error
	// ErrorsList returns every error returned by the start or stop
	// function since the last Start.
	ErrorsList() []error
}

type runner struct {
	mu      sync.Mutex
	start   Func
	stop    Func
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	started time.Time
	errs    []error
}

// New returns a Runner wrapping the given start/stop functions. Either may
// be nil: a missing start or stop function still cancels the start
// function's context, but records an error retrievable via ErrorsLast.
func New(start, stop Func) Runner {
	return &runner{
		start: start,
		stop:  stop,
	}
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		_ = r.Stop(ctx)
		r.mu.Lock()
	}

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.cancel = cancel
	r.done = done
	r.running = true
	r.started = time.Now()
	r.errs = nil
	start := r.start
	r.mu.Unlock()

	go func() {
		defer close(done)

		var err error
		if start == nil {
			err = errStartStopNilFunc.Error(nil)
		} else {
			err = start(cctx)
		}

		r.mu.Lock()
		r.running = false
		if err != nil {
			r.errs = append(r.errs, err)
		}
		r.mu.Unlock()
	}()

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	if err := r.Stop(ctx); err != nil {
		return err
	}
	return r.Start(ctx)
}

func (r *runner) ErrorsLast() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	done := r.done
	stop := r.stop
	r.mu.Unlock()

	var err error
	if stop == nil {
		err = errStartStopNilStopFunc.Error(nil)
	} else {
		err = stop(ctx)
	}
	if err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return 0
	}
	return time.Since(r.started)
}
