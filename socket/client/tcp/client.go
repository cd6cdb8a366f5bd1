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

// Package tcp implements the outbound connection worker (KO): dial a TCP
// endpoint and drive the resulting connection through the same worker
// loop the accept side uses.
package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/rcurtis/tcpc/logger"
	"github.com/rcurtis/tcpc/socket/config"
	"github.com/rcurtis/tcpc/socket/conn"
)

// Client is the KO. Construct with New, dial with Open, and release with
// Close — Close never busy-waits; it signals the worker and blocks on its
// own teardown completing.
type Client struct {
	cfg     config.Client
	connCfg config.Conn
	handler conn.Handler

	co  *conn.Conn
	log logger.FuncLog
}

// SetLogger installs the logging function the underlying CO uses to
// report transient worker-loop errors. Takes effect on the next Open.
func (k *Client) SetLogger(l logger.FuncLog) {
	k.log = l
}

// New validates cliCfg and returns a Client ready to Open.
func New(handler conn.Handler, cliCfg config.Client, connCfg config.Conn) (*Client, error) {
	if err := cliCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress.Error(nil), err.Error())
	}

	return &Client{
		cfg:     cliCfg,
		connCfg: connCfg,
		handler: handler,
	}, nil
}

// IsOpen reports whether the client currently owns a live connection.
func (k *Client) IsOpen() bool {
	return k.co != nil && k.co.IsActive()
}

// Conn returns the underlying CO once Open has succeeded, or nil.
func (k *Client) Conn() *conn.Conn {
	return k.co
}

// Open dials the configured endpoint and starts the CO worker loop. It
// returns once the worker has been launched; the worker itself runs in
// its own goroutine until Close, a protocol-level end, or a peer close.
func (k *Client) Open(ctx context.Context) error {
	if k.IsOpen() {
		return ErrAlreadyOpen.Error(nil)
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, k.cfg.Network.String(), k.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSocket.Error(nil), err.Error())
	}

	k.co = conn.New(nc, k.connCfg, k.handler, nil)
	k.co.SetLogger(k.log)
	return k.co.Start(context.Background())
}

// Close signals the worker to stop and blocks until teardown completes,
// or ctx is done — never a spin loop (REDESIGN FLAG: client close is
// signal-and-join, not busy-wait).
func (k *Client) Close(ctx context.Context) error {
	if k.co == nil {
		return ErrNotOpen.Error(nil)
	}
	return k.co.Stop(ctx)
}
