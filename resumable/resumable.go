/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package resumable implements a stackless cooperative coroutine: a handler
// is a plain function, re-entered from the top on every tick, that uses R
// to skip past work it already completed on a prior tick. It is a Go
// rendition of the protothread pattern (suspend/resume via a saved
// resumption point rather than a saved stack) without the line-number
// macros that pattern normally relies on in C.
package resumable

// Result is the two-outcome contract a handler reports to its caller on
// every tick: either it suspended partway through (Yielded) or it ran to
// completion (Ended).
type Result int

const (
	// Yielded means the handler suspended at a WaitUntil/Restart and
	// should be called again on the next tick.
	Yielded Result = iota
	// Ended means the handler ran to completion (Exit or End) and holds
	// no state that needs to survive to another tick.
	Ended
)

// R holds one handler's resumption point. The zero value is a handler that
// has not yet run. R is not safe for concurrent use: a handler and its R
// are expected to be driven by a single worker goroutine per tick, matching
// the one-worker-per-connection model they back.
type R struct {
	pc   int
	call int
}

// Begin marks the start of a tick. It must be the first call on r in the
// handler body. It always returns true; it exists so a handler reads the
// same shape as the PT_BEGIN/PT_END pair it mirrors.
func (r *R) Begin() bool {
	r.call = 0
	return true
}

// WaitUntil reports whether the handler should suspend here. Call order,
// not line number, identifies a site: each WaitUntil call reached during a
// tick is counted in the order it executes, and that count is compared
// against the point saved by a previous suspend. Calls before the saved
// point are assumed already satisfied and skipped without evaluating cond,
// exactly like falling through a switch statement past already-executed
// cases. On the tick where r resumes at the saved call site, cond is
// evaluated; if still false, WaitUntil returns true and the handler must
// immediately `return resumable.Yielded`. Once cond is true, WaitUntil
// returns false and clears the resumption point.
func (r *R) WaitUntil(cond bool) bool {
	r.call++
	id := r.call

	if id < r.pc {
		return false
	}

	if !cond {
		r.pc = id
		return true
	}

	if id == r.pc {
		r.pc = 0
	}
	return false
}

// Restart resets r to its initial state and reports Yielded, mirroring
// PT_RESTART: the next tick re-enters the handler from the top.
func (r *R) Restart() Result {
	r.pc = 0
	r.call = 0
	return Yielded
}

// Exit resets r and reports Ended, for a handler that terminates early
// before reaching its final statement.
func (r *R) Exit() Result {
	r.pc = 0
	r.call = 0
	return Ended
}

// End resets r and reports Ended, for a handler that has run every step to
// completion.
func (r *R) End() Result {
	r.pc = 0
	r.call = 0
	return Ended
}

// Done reports whether r is at its initial state, i.e. not suspended
// mid-sequence.
func (r *R) Done() bool {
	return r.pc == 0
}
