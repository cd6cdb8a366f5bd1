/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

// Package protocol defines the address-family enum used by the socket
// configuration and transport layers.
package protocol

import "strings"

// NetworkProtocol identifies an address family / transport for a listener
// or dialer, mirroring the string accepted by the relevant "net" package
// constructor (net.Listen, net.Dial, ...).
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkUnix
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkIP
	NetworkIP4
	NetworkIP6
	NetworkUnixGram
)

var names = map[NetworkProtocol]string{
	NetworkUnix:     "unix",
	NetworkTCP:      "tcp",
	NetworkTCP4:     "tcp4",
	NetworkTCP6:     "tcp6",
	NetworkUDP:      "udp",
	NetworkUDP4:     "udp4",
	NetworkUDP6:     "udp6",
	NetworkIP:       "ip",
	NetworkIP4:      "ip4",
	NetworkIP6:      "ip6",
	NetworkUnixGram: "unixgram",
}

// Parse returns the NetworkProtocol matching the given string, case
// insensitively. It returns NetworkEmpty if the string does not match any
// known protocol.
func Parse(s string) NetworkProtocol {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range names {
		if n == s {
			return p
		}
	}
	return NetworkEmpty
}

// String returns the canonical lowercase name of the protocol, as accepted
// by the standard "net" package, or an empty string for an unknown value.
func (p NetworkProtocol) String() string {
	return names[p]
}

// Code is an alias of String kept for symmetry with other enum types in
// this module that distinguish a short Code() from a descriptive String().
func (p NetworkProtocol) Code() string {
	return p.String()
}

func (p NetworkProtocol) Int() int       { return int(p) }
func (p NetworkProtocol) Int64() int64   { return int64(p) }
func (p NetworkProtocol) Uint() uint     { return uint(p) }
func (p NetworkProtocol) Uint64() uint64 { return uint64(p) }

// IsTCP reports whether the protocol is one of the TCP address families.
func (p NetworkProtocol) IsTCP() bool {
	return p == NetworkTCP || p == NetworkTCP4 || p == NetworkTCP6
}

func (p NetworkProtocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *NetworkProtocol) UnmarshalText(b []byte) error {
	*p = Parse(string(b))
	return nil
}

func (p NetworkProtocol) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *NetworkProtocol) UnmarshalJSON(b []byte) error {
	*p = Parse(strings.Trim(string(b), `"`))
	return nil
}
