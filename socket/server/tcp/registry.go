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

package tcp

import (
	"context"
	"sync"

	"github.com/rcurtis/tcpc/list"
	"github.com/rcurtis/tcpc/socket/conn"
)

// connRegistry tracks the live COs a Server has accepted, keyed by the
// list element so removal is O(1) without a linear scan.
type connRegistry struct {
	mu   sync.Mutex
	live *list.List[*conn.Conn]
	elem map[*conn.Conn]*list.Element[*conn.Conn]
}

func newConnRegistry() *connRegistry {
	return &connRegistry{
		live: list.New[*conn.Conn](),
		elem: make(map[*conn.Conn]*list.Element[*conn.Conn]),
	}
}

func (r *connRegistry) add(c *conn.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elem[c] = r.live.PushBack(c)
}

func (r *connRegistry) remove(c *conn.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.elem[c]; ok {
		r.live.Remove(e)
		delete(r.elem, c)
	}
}

func (r *connRegistry) len() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(r.live.Len())
}

// stopAll requests every live CO stop and waits for each to finish
// teardown, draining the registry as each one's onCleanup fires.
func (r *connRegistry) stopAll(ctx context.Context) {
	r.mu.Lock()
	cs := r.live.All()
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range cs {
		wg.Add(1)
		go func(c *conn.Conn) {
			defer wg.Done()
			_ = c.Stop(ctx)
		}(c)
	}
	wg.Wait()
}
