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

// Package conn implements the connection worker (CO): the per-connection
// state machine shared by the server's accepted connections and the
// client's outbound connection. A CO owns one net.Conn, one receive
// buffer, and one cooperative resumable handler invocation per worker
// tick.
package conn

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	libatm "github.com/rcurtis/tcpc/atomic"
	"github.com/rcurtis/tcpc/logger"
	"github.com/rcurtis/tcpc/resumable"
	"github.com/rcurtis/tcpc/runner/startStop"
	"github.com/rcurtis/tcpc/size"
	"github.com/rcurtis/tcpc/socket/config"
)

// State is the CO's lifecycle state word.
type State int32

const (
	// StateInactive means the worker is not running; the CO may still
	// hold a socket if it has not been started yet, or may have just
	// finished cleanup.
	StateInactive State = 0
	// StateActive means the worker loop is running and the socket is
	// valid.
	StateActive State = 1
	// StateStopping means teardown has been requested; the worker will
	// observe it at the top of its next iteration (or sooner, on a
	// failed read) and proceed to cleanup.
	StateStopping State = -1
)

// Handler is the set of callbacks a CO invokes over its lifetime:
// OnNewConnection exactly once before any data arrives, OnData once per
// worker tick, OnClose exactly once as the CO tears down.
type Handler interface {
	OnNewConnection(c *Conn)
	OnData(c *Conn, n int) resumable.Result
	OnClose(c *Conn)
}

// Conn is one connection worker (CO or KO — the two are structurally
// identical; only the owning component and whether a registry back-
// reference is wired differ).
type Conn struct {
	nc      net.Conn
	cfg     config.Conn
	handler Handler

	rxMu      sync.Mutex
	rxBufSize size.Size // left behind by OnNewConnection; allocated once, after it returns
	rxBuf     []byte
	rxN       int

	state        int32
	lastActivity int64 // unix nanoseconds, atomic

	cr   resumable.R
	priv libatm.Value[interface{}]

	runner startStop.Runner

	// onCleanup is invoked exactly once after OnClose and socket close,
	// before the runner's Stop returns. The server wires this to unlink
	// the CO from its registry and decrement the connection counter; a
	// standalone client leaves it nil.
	onCleanup func(c *Conn)

	log logger.FuncLog
}

// SetLogger installs the logging function used to report transient
// worker-loop errors (e.g. a read error that is not a plain timeout).
// Nil, the default, disables logging.
func (c *Conn) SetLogger(l logger.FuncLog) {
	c.log = l
}

func (c *Conn) logWarning(message string, err error) {
	if c.log == nil {
		return
	}
	if l := c.log(); l != nil {
		l.Warning(message, nil, err)
	}
}

// New wraps nc as a CO. handler may be nil for a connection that is
// purely driven from the outside (tests, relays). onCleanup, if non-nil,
// runs once after the worker's own teardown (OnClose + socket close) and
// before Stop returns.
//
// The receive buffer itself is not allocated here: it is sized from
// cfg.BufferSize() by default but allocated only once the worker loop's
// OnNewConnection call has returned, so a handler can call SetRxBufSize
// first to override it, matching accept-then-new_conn-then-allocate
// ordering.
func New(nc net.Conn, cfg config.Conn, handler Handler, onCleanup func(c *Conn)) *Conn {
	c := &Conn{
		nc:        nc,
		cfg:       cfg,
		handler:   handler,
		rxBufSize: cfg.BufferSize(),
		onCleanup: onCleanup,
		priv:      libatm.NewValue[interface{}](),
	}
	c.runner = startStop.New(c.run, c.requestStop)
	c.touch()
	return c
}

// SetRxBufSize overrides the receive buffer size that would otherwise
// default to the configured BufferSize. It has an effect only when
// called from within OnNewConnection, before the buffer is allocated;
// calling it afterward does nothing.
func (c *Conn) SetRxBufSize(sz size.Size) {
	c.rxBufSize = sz
}

// RemoteAddr returns the underlying connection's remote address, or nil if
// the CO has no connection (never happens once New has returned).
func (c *Conn) RemoteAddr() net.Addr {
	if c.nc == nil {
		return nil
	}
	return c.nc.RemoteAddr()
}

// LocalAddr returns the underlying connection's local address.
func (c *Conn) LocalAddr() net.Addr {
	if c.nc == nil {
		return nil
	}
	return c.nc.LocalAddr()
}

// State returns the CO's current lifecycle state.
func (c *Conn) State() State {
	return State(atomic.LoadInt32(&c.state))
}

// IsActive reports whether the worker loop is currently running.
func (c *Conn) IsActive() bool {
	return c.State() == StateActive
}

// IsStopping reports whether teardown has been requested but not yet
// completed.
func (c *Conn) IsStopping() bool {
	return c.State() == StateStopping
}

func (c *Conn) setState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

// RequestStop requests STOPPING directly, mirroring "the app setting
// STOPPING directly" as an ACTIVE -> STOPPING trigger. It does not block;
// use Stop to wait for teardown to finish.
func (c *Conn) RequestStop() {
	if c.State() == StateActive {
		c.setState(StateStopping)
	}
}

// Lock acquires the receive buffer for blocking access, for use by the
// handler or application code that needs to read the buffer outside the
// worker's own tick.
func (c *Conn) Lock() { c.rxMu.Lock() }

// Unlock releases the receive buffer.
func (c *Conn) Unlock() { c.rxMu.Unlock() }

// TryLock attempts to acquire the receive buffer without blocking.
func (c *Conn) TryLock() bool { return c.rxMu.TryLock() }

// Data returns the bytes read into the receive buffer on the most recent
// successful read. The caller must hold the buffer (Lock/TryLock) for a
// consistent view if it is not the worker goroutine itself.
func (c *Conn) Data() []byte {
	return c.rxBuf[:c.rxN]
}

// Resumable returns the CR state the handler's OnData should drive.
func (c *Conn) Resumable() *resumable.R {
	return &c.cr
}

// Priv returns the application's private slot, or nil if unset.
func (c *Conn) Priv() interface{} {
	return c.priv.Load()
}

// SetPriv stores v in the application's private slot, for state the
// handler needs to keep across suspensions (the CR itself preserves no
// local variables).
func (c *Conn) SetPriv(v interface{}) {
	c.priv.Store(v)
}

// Write sends p on the underlying connection. It returns ErrInvalidState
// once the worker has left StateActive, rather than writing to a socket
// that is already mid-teardown or closed.
func (c *Conn) Write(p []byte) (int, error) {
	if c.State() != StateActive {
		return 0, ErrInvalidState.Error(nil)
	}
	return c.nc.Write(p)
}

func (c *Conn) touch() {
	atomic.StoreInt64(&c.lastActivity, time.Now().UnixNano())
}

func (c *Conn) idleFor() time.Duration {
	last := atomic.LoadInt64(&c.lastActivity)
	return time.Since(time.Unix(0, last))
}

// Start launches the worker loop.
func (c *Conn) Start(ctx context.Context) error {
	return c.runner.Start(ctx)
}

// Stop requests teardown and blocks until the worker loop has finished
// cleanup.
func (c *Conn) Stop(ctx context.Context) error {
	return c.runner.Stop(ctx)
}

// IsRunning reports whether the worker's lifecycle runner is active. It
// agrees with IsActive except for the brief window between the runner
// launching and the worker reaching StateActive.
func (c *Conn) IsRunning() bool {
	return c.runner.IsRunning()
}

func (c *Conn) requestStop(ctx context.Context) error {
	c.RequestStop()
	// Unblock a worker parked in Read by forcing an immediate deadline,
	// rather than waiting out the rest of the current poll interval.
	_ = c.nc.SetReadDeadline(time.Now())
	return nil
}

// run is the worker loop's start function: poll, read, invoke the
// handler, repeat, then clean up.
func (c *Conn) run(ctx context.Context) error {
	c.setState(StateActive)

	if c.handler != nil {
		c.handler.OnNewConnection(c)
	}
	c.rxBuf = make([]byte, c.rxBufSize)

	poll := c.cfg.Poll().Time()
	idle := c.cfg.Idle().Time()

	for c.State() == StateActive {
		select {
		case <-ctx.Done():
			c.setState(StateStopping)
		default:
		}
		if c.State() != StateActive {
			break
		}

		n := 0
		if c.rxMu.TryLock() {
			_ = c.nc.SetReadDeadline(time.Now().Add(poll))
			rn, err := c.nc.Read(c.rxBuf)
			c.rxN = 0
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					// no data this tick: a run of these is what the idle
					// timeout counts, since it means the socket itself
					// is quiet, not just lock-contended.
					if idle > 0 && c.idleFor() > idle {
						c.setState(StateStopping)
					}
				} else {
					if !errors.Is(err, io.EOF) {
						c.logWarning("connection read failed, closing", err)
					}
					c.setState(StateStopping)
				}
			} else if rn == 0 {
				c.setState(StateStopping)
			} else {
				n = rn
				c.rxN = rn
				c.touch()
			}
			c.rxMu.Unlock()
		}

		if c.handler != nil {
			if c.handler.OnData(c, n) == resumable.Ended {
				c.setState(StateStopping)
			}
		}
	}

	if c.handler != nil {
		c.handler.OnClose(c)
	}
	_ = c.nc.Close()
	if c.onCleanup != nil {
		c.onCleanup(c)
	}
	c.setState(StateInactive)
	return nil
}
