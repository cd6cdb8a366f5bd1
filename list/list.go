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

// Package list implements an owning, ordered, doubly-linked collection of
// values and a fixed-bucket hash index built on top of it. It is the one
// container both the connection registry (ordered, O(1) remove-by-handle)
// and the frame codec's keyed header lookup (hashed, chained) are built
// from.
package list

import "sync"

// Element is an opaque handle to a value stored in a List. It is returned
// by PushBack/PushFront and is the only way to Remove a specific value in
// O(1).
type Element[T any] struct {
	next, prev *Element[T]
	list       *List[T]
	Value      T
}

// Next returns the next element in the list, or nil if e is the last
// element.
func (e *Element[T]) Next() *Element[T] {
	if e == nil || e.list == nil {
		return nil
	}
	if n := e.next; n != &e.list.root {
		return n
	}
	return nil
}

// Prev returns the previous element in the list, or nil if e is the first
// element.
func (e *Element[T]) Prev() *Element[T] {
	if e == nil || e.list == nil {
		return nil
	}
	if p := e.prev; p != &e.list.root {
		return p
	}
	return nil
}

// List is a doubly-linked circular list with a sentinel root node, in the
// style of ll_t: the root's next/prev point at the first/last real
// elements, and an empty list is root.next == root.prev == &root.
type List[T any] struct {
	mu   sync.Mutex
	root Element[T]
	len  int
	init bool
}

func (l *List[T]) lazyInit() {
	if !l.init {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.init = true
	}
}

// New returns an empty List.
func New[T any]() *List[T] {
	l := &List[T]{}
	l.lazyInit()
	return l
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.len
}

// Front returns the first element, or nil if the list is empty.
func (l *List[T]) Front() *Element[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last element, or nil if the list is empty.
func (l *List[T]) Back() *Element[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *List[T]) insert(v T, at *Element[T]) *Element[T] {
	e := &Element[T]{Value: v, list: l}
	n := at.next
	at.next = e
	e.prev = at
	e.next = n
	n.prev = e
	l.len++
	return e
}

// PushFront inserts v at the front of the list and returns its handle.
func (l *List[T]) PushFront(v T) *Element[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	return l.insert(v, &l.root)
}

// PushBack inserts v at the back of the list and returns its handle.
func (l *List[T]) PushBack(v T) *Element[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lazyInit()
	return l.insert(v, l.root.prev)
}

// Remove deletes e from the list. No-op if e is nil or already removed.
func (l *List[T]) Remove(e *Element[T]) {
	if e == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.list != l {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

// Each calls fn for every element in order, front to back. fn may remove
// the current element (the element it is called with) safely; removing any
// other element during iteration is not supported.
//
// Each locks the list only between steps, not for the whole walk, so fn
// may call Remove on the current element without deadlocking. This means
// a concurrent mutation from another goroutine during the walk is not
// serialized against it; every caller in this codebase holds its own
// outer lock across a whole Each/All (connRegistry.mu, Index.mu), which
// is where that guarantee actually needs to live. A caller using List
// directly, without such an outer lock, must add one to iterate safely
// against concurrent writers.
func (l *List[T]) Each(fn func(e *Element[T])) {
	l.mu.Lock()
	l.lazyInit()
	cur := l.root.next
	l.mu.Unlock()

	for cur != &l.root {
		l.mu.Lock()
		next := cur.next
		l.mu.Unlock()
		fn(cur)
		cur = next
	}
}

// All returns every value currently in the list, in order.
func (l *List[T]) All() []T {
	out := make([]T, 0, l.Len())
	l.Each(func(e *Element[T]) {
		out = append(out, e.Value)
	})
	return out
}
