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

// Package tcp implements the accept worker (SO): a TCP listener that
// accepts connections up to a configured cap, wires each one into a CO,
// and tracks them in a registry it drains on shutdown.
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rcurtis/tcpc/ioutils/mapCloser"
	"github.com/rcurtis/tcpc/logger"
	"github.com/rcurtis/tcpc/runner/startStop"
	"github.com/rcurtis/tcpc/semaphore/sem"
	"github.com/rcurtis/tcpc/socket/config"
	"github.com/rcurtis/tcpc/socket/conn"
)

// Server is the accept worker. Construct with New; Listen starts accepting
// and Stop drains the registry and joins the accept goroutine.
type Server struct {
	mu       sync.Mutex
	cfg      config.Server
	connCfg  config.Conn
	handler  conn.Handler
	updateFn func(net.Conn)

	listener net.Listener
	cap      sem.Sem
	registry *connRegistry
	// sockets is a belt-and-suspenders guard: every accepted net.Conn is
	// added here so that cancelling the Listen context force-closes any
	// socket whose CO never reached its own cleanup (panic, deadlock).
	sockets mapCloser.Closer

	runner startStop.Runner

	log logger.FuncLog
}

// SetLogger installs the logging function used to report transient accept
// errors. Nil, the default, disables logging.
func (s *Server) SetLogger(l logger.FuncLog) {
	s.log = l
}

func (s *Server) logWarning(message string, err error) {
	if s.log == nil {
		return
	}
	if l := s.log(); l != nil {
		l.Warning(message, nil, err)
	}
}

// New validates srvCfg and returns a Server ready to Listen. updateFn, if
// non-nil, is called with each accepted net.Conn before it is wired into a
// CO (e.g. to set socket options); handler receives the CO lifecycle
// callbacks.
func New(updateFn func(net.Conn), handler conn.Handler, srvCfg config.Server, connCfg config.Conn) (*Server, error) {
	if err := srvCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress.Error(nil), err.Error())
	}

	s := &Server{
		cfg:      srvCfg,
		connCfg:  connCfg,
		handler:  handler,
		updateFn: updateFn,
		registry: newConnRegistry(),
	}
	s.runner = startStop.New(s.run, s.stop)
	return s, nil
}

// IsRunning reports whether the accept loop is active.
func (s *Server) IsRunning() bool {
	return s.runner.IsRunning()
}

// IsGone reports whether the server has no listening socket and no
// registered CO, i.e. it has never been started or has fully torn down
// after Stop.
func (s *Server) IsGone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener == nil && s.registry.len() == 0
}

// OpenConnections returns the number of COs currently registered.
func (s *Server) OpenConnections() int64 {
	return s.registry.len()
}

// Addr returns the bound listener's address, or nil if the server is not
// currently listening. Useful when Listen was configured with an ephemeral
// port (":0").
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen starts the accept loop. It returns once the listening socket is
// bound; the accept loop itself runs in its own goroutine until Stop.
func (s *Server) Listen(ctx context.Context) error {
	if s.IsRunning() {
		return ErrAlreadyRunning.Error(nil)
	}

	ln, err := net.Listen(s.cfg.Network.String(), s.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSocket.Error(nil), err.Error())
	}

	s.mu.Lock()
	s.listener = ln
	s.cap = sem.New(ctx, int64(s.cfg.MaxConn()))
	s.sockets = mapCloser.New(ctx)
	s.mu.Unlock()

	return s.runner.Start(ctx)
}

// Stop signals every live CO to stop, closes the listener, and waits for
// the accept loop to exit and the registry to drain.
func (s *Server) Stop(ctx context.Context) error {
	if !s.IsRunning() {
		return nil
	}
	return s.runner.Stop(ctx)
}

func (s *Server) run(ctx context.Context) error {
	for {
		s.mu.Lock()
		ln := s.listener
		s.mu.Unlock()
		if ln == nil {
			return nil
		}

		if err := s.cap.NewWorker(); err != nil {
			return nil // context done: shutdown requested
		}

		nc, err := ln.Accept()
		if err != nil {
			s.cap.DeferWorker()
			if ctx.Err() != nil {
				return nil
			}
			s.logWarning("accept failed, continuing", err)
			continue
		}

		if s.updateFn != nil {
			s.updateFn(nc)
		}

		s.sockets.Add(nc)

		co := conn.New(nc, s.connCfg, s.handler, func(c *conn.Conn) {
			s.registry.remove(c)
			s.cap.DeferWorker()
		})
		co.SetLogger(s.log)
		s.registry.add(co)

		if err := co.Start(context.Background()); err != nil {
			s.registry.remove(co)
			s.cap.DeferWorker()
			_ = nc.Close()
		}
	}
}

func (s *Server) stop(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	s.registry.stopAll(ctx)

	s.mu.Lock()
	sockets := s.sockets
	s.mu.Unlock()
	if sockets != nil {
		_ = sockets.Close()
	}

	return nil
}
