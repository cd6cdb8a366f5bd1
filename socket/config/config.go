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

// Package config defines the TCP-only configuration surface for the
// server (SO), client (KO) and connection (CO) objects.
package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"

	libptc "github.com/rcurtis/tcpc/network/protocol"
	"github.com/rcurtis/tcpc/size"

	libdur "github.com/rcurtis/tcpc/duration"
)

var validate = validator.New()

// DefaultMaxConnections is the cap applied when Server.MaxConnections is
// left at its zero value.
const DefaultMaxConnections = 100

// DefaultListenBacklog is the value Backlog reports when
// Server.ListenBacklog is left at its zero value. net.Listen gives no
// portable way to pass a backlog through to the listen(2) syscall, so
// this value is carried for API completeness and for callers that
// construct their own listener, but the server's own Listen does not
// apply it.
const DefaultListenBacklog = 10

// DefaultRxBufSize is the receive-buffer size applied when Conn.RxBufSize
// is left at its zero value.
const DefaultRxBufSize = 1024 * size.SizeUnit

// DefaultPollTimeout is the worker loop poll timeout applied when
// Conn.PollTimeout is left at its zero value.
const DefaultPollTimeout = libdur.Duration(10_000_000) // 10ms, see duration.Duration

// Client configures a TCP dialer (KO).
type Client struct {
	Network libptc.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address string                 `mapstructure:"address" json:"address" yaml:"address" validate:"required" toml:"address"`
}

// Validate checks that the configuration describes a resolvable TCP
// endpoint.
func (c Client) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if !c.Network.IsTCP() {
		return ErrInvalidProtocol.Error(nil)
	}

	if _, err := net.ResolveTCPAddr(c.Network.String(), c.Address); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress.Error(nil), err.Error())
	}

	return nil
}

// Server configures a TCP listener (SO).
type Server struct {
	Network        libptc.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address        string                 `mapstructure:"address" json:"address" yaml:"address" validate:"required" toml:"address"`
	MaxConnections int                    `mapstructure:"max_connections" json:"max_connections" yaml:"max_connections" toml:"max_connections"`
	ListenBacklog  int                    `mapstructure:"listen_backlog" json:"listen_backlog" yaml:"listen_backlog" toml:"listen_backlog"`
}

// Validate checks that the configuration describes a bindable TCP
// endpoint.
func (s Server) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}

	if !s.Network.IsTCP() {
		return ErrInvalidProtocol.Error(nil)
	}

	if _, err := net.ResolveTCPAddr(s.Network.String(), s.Address); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress.Error(nil), err.Error())
	}

	if s.MaxConnections < 0 {
		return ErrInvalidMaxConnections.Error(nil)
	}

	return nil
}

// MaxConn returns MaxConnections, or DefaultMaxConnections if unset.
func (s Server) MaxConn() int {
	if s.MaxConnections <= 0 {
		return DefaultMaxConnections
	}
	return s.MaxConnections
}

// Backlog returns ListenBacklog, or DefaultListenBacklog if unset. See
// DefaultListenBacklog for why the server does not apply this itself.
func (s Server) Backlog() int {
	if s.ListenBacklog <= 0 {
		return DefaultListenBacklog
	}
	return s.ListenBacklog
}

// Conn configures the per-connection worker loop shared by CO and KO.
type Conn struct {
	RxBufSize      size.Size       `mapstructure:"rx_buffer_size" json:"rx_buffer_size" yaml:"rx_buffer_size" toml:"rx_buffer_size"`
	PollTimeout    libdur.Duration `mapstructure:"poll_timeout" json:"poll_timeout" yaml:"poll_timeout" toml:"poll_timeout"`
	ConIdleTimeout libdur.Duration `mapstructure:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
}

// BufferSize returns RxBufSize, or DefaultRxBufSize if unset.
func (c Conn) BufferSize() size.Size {
	if c.RxBufSize <= 0 {
		return DefaultRxBufSize
	}
	return c.RxBufSize
}

// Poll returns PollTimeout, or DefaultPollTimeout if unset.
func (c Conn) Poll() libdur.Duration {
	if c.PollTimeout <= 0 {
		return DefaultPollTimeout
	}
	return c.PollTimeout
}

// Idle returns ConIdleTimeout, the duration of inactivity after which a
// connection worker tears itself down. Zero means no idle timeout.
func (c Conn) Idle() libdur.Duration {
	return c.ConIdleTimeout
}
