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

// Package codec implements the framed key/value wire protocol shared by the
// server and client connection workers: an ordered set of text headers
// followed by an opaque binary payload, serialized behind the literal
// "PACKIT\n" start line with a self-describing Content-Length header.
package codec

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/rcurtis/tcpc/list"
)

const (
	// HeaderStart is the fixed 7-byte line that opens every frame.
	HeaderStart = "PACKIT\n"
	// MaxKeyLen is the longest a header key may be.
	MaxKeyLen = 64
	// MaxValueLen is the longest a header value may be.
	MaxValueLen = 1024
	// BucketCount is the fixed number of hash buckets backing header
	// lookup.
	BucketCount = 32
	// ContentLengthKey is the header Send injects automatically.
	ContentLengthKey = "Content-Length"
)

// TransmitFunc writes p to some underlying transport, returning the number
// of bytes written. An error, or a non-positive count with a nil error, is
// a fatal transmit failure.
type TransmitFunc func(p []byte) (int, error)

// Record is a single header: a (key, value) pair. Keys are immutable once
// inserted; a record's Value is replaced in place by re-adding its key.
type Record struct {
	Key   string
	Value string
}

// Message is the codec's in-memory frame: an ordered, uniquely-keyed set of
// header records plus a borrowed payload. A Message is not safe for
// concurrent use.
type Message struct {
	order   *list.List[*Record]
	index   *list.Index[string, *list.Element[*Record]]
	payload []byte
}

// New returns an empty Message.
func New() *Message {
	return &Message{
		order: list.New[*Record](),
		index: list.NewIndex[string, *list.Element[*Record]](BucketCount, hashKey),
	}
}

// hashKey is the summation-of-char-times-31 hash used by the wire format's
// bucket index, taken modulo the fixed bucket count.
func hashKey(key string) uint32 {
	var h uint32
	for i := 0; i < len(key); i++ {
		h += uint32(key[i]) * 31
	}
	return h
}

func validateKey(key string) error {
	if len(key) > MaxKeyLen {
		return ErrKeyTooLong.Error(nil)
	}
	if strings.ContainsAny(key, ":\n") {
		return ErrInvalidKey.Error(nil)
	}
	return nil
}

func validateValue(value string) error {
	if len(value) > MaxValueLen {
		return ErrValueTooLong.Error(nil)
	}
	if strings.Contains(value, "\n") {
		return ErrInvalidValue.Error(nil)
	}
	return nil
}

// Add inserts a new header, or replaces the value of an existing one with
// the same key in place (insertion order is unaffected by replacement). On
// validation failure the Message is left unchanged.
func (m *Message) Add(key, value string) (*Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := validateValue(value); err != nil {
		return nil, err
	}

	rec := &Record{Key: key, Value: value}

	if el, ok := m.index.Get(key); ok {
		el.Value = rec
		return rec, nil
	}

	el := m.order.PushBack(rec)
	m.index.Set(key, el)
	return rec, nil
}

// AddUint renders v as decimal ASCII and adds it as a header.
func (m *Message) AddUint(key string, v uint64) (*Record, error) {
	return m.Add(key, strconv.FormatUint(v, 10))
}

// AddInt renders v as decimal ASCII and adds it as a header.
func (m *Message) AddInt(key string, v int64) (*Record, error) {
	return m.Add(key, strconv.FormatInt(v, 10))
}

// Get returns the header stored under key, if any.
func (m *Message) Get(key string) (*Record, bool) {
	el, ok := m.index.Get(key)
	if !ok {
		return nil, false
	}
	return el.Value, true
}

// All returns every header in insertion order.
func (m *Message) All() []*Record {
	return m.order.All()
}

// SetPayload attaches p as the Message's payload. The Message borrows p; it
// is never copied or mutated.
func (m *Message) SetPayload(p []byte) {
	m.payload = p
}

// Payload returns the Message's current payload.
func (m *Message) Payload() []byte {
	return m.payload
}

// frame renders the header block and returns it alongside the payload, the
// Content-Length header freshly injected or replaced to match the current
// payload length.
func (m *Message) frame() ([]byte, []byte, error) {
	if _, err := m.AddUint(ContentLengthKey, uint64(len(m.payload))); err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(HeaderStart)
	for _, r := range m.All() {
		buf.WriteString(r.Key)
		buf.WriteByte(':')
		buf.WriteString(r.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	return buf.Bytes(), m.payload, nil
}

// Send injects the Content-Length header and writes the complete frame to
// transmit as a single concatenated buffer.
func (m *Message) Send(transmit TransmitFunc) error {
	header, payload, err := m.frame()
	if err != nil {
		return err
	}

	full := header
	if len(payload) > 0 {
		full = append(append([]byte(nil), header...), payload...)
	}

	n, err := transmit(full)
	if err != nil {
		return err
	}
	if n <= 0 {
		return ErrTransmitFailed.Error(nil)
	}
	return nil
}

// AppendBuffers injects the Content-Length header and appends the frame's
// header block and payload to buffers as separate scatter-write segments,
// without concatenating them into one buffer, for direct use against a
// net.Conn via net.Buffers.WriteTo.
func (m *Message) AppendBuffers(buffers net.Buffers) (net.Buffers, error) {
	header, payload, err := m.frame()
	if err != nil {
		return buffers, err
	}

	buffers = append(buffers, header)
	if len(payload) > 0 {
		buffers = append(buffers, payload)
	}
	return buffers, nil
}

// Close releases every header record, leaving the Message empty. The
// payload buffer is not touched.
func (m *Message) Close() {
	m.order = list.New[*Record]()
	m.index = list.NewIndex[string, *list.Element[*Record]](BucketCount, hashKey)
}

// Decode reads one frame from r and reconstructs the Message it encodes:
// the same header set, insertion order, and payload bytes Send wrote. It is
// the inverse of Send, used to verify the wire format round-trips and
// available to any collaborator that wants to treat received bytes as a
// framed Message rather than raw bytes.
func Decode(r io.Reader) (*Message, error) {
	br := bufio.NewReader(r)

	start := make([]byte, len(HeaderStart))
	if _, err := io.ReadFull(br, start); err != nil {
		return nil, err
	}
	if string(start) != HeaderStart {
		return nil, ErrMalformedFrame.Error(nil)
	}

	m := New()
	clen := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			break
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			return nil, ErrMalformedFrame.Error(nil)
		}
		if _, err := m.Add(kv[0], kv[1]); err != nil {
			return nil, err
		}
		if kv[0] == ContentLengthKey {
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				return nil, err
			}
			clen = n
		}
	}

	if clen > 0 {
		payload := make([]byte, clen)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, err
		}
		m.SetPayload(payload)
	}

	return m, nil
}
