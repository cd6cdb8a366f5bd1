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

package list

import "sync"

// entry pairs a key with its value, chained through a List bucket exactly
// like hl_node_t chains through a hash table slot.
type entry[K comparable, T any] struct {
	key K
	val T
}

// Index is a fixed-bucket-count hash table keyed by K, storing values of
// type T. Collisions within a bucket are chained through a List, the same
// container used for plain ordered storage: one data structure serves both
// roles the C original split across ll_t and hl_node_t.
type Index[K comparable, T any] struct {
	mu      sync.RWMutex
	buckets []*List[entry[K, T]]
	hash    func(K) uint32
	size    int
}

// NewIndex returns an Index with the given fixed bucket count, hashing keys
// with hash. bucketCount must be > 0.
func NewIndex[K comparable, T any](bucketCount int, hash func(K) uint32) *Index[K, T] {
	if bucketCount <= 0 {
		bucketCount = 1
	}
	buckets := make([]*List[entry[K, T]], bucketCount)
	for i := range buckets {
		buckets[i] = New[entry[K, T]]()
	}
	return &Index[K, T]{buckets: buckets, hash: hash}
}

func (idx *Index[K, T]) bucket(key K) *List[entry[K, T]] {
	return idx.buckets[idx.hash(key)%uint32(len(idx.buckets))]
}

// Set stores value under key, overwriting any existing value for that key.
func (idx *Index[K, T]) Set(key K, value T) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.bucket(key)
	found := false
	b.Each(func(e *Element[entry[K, T]]) {
		if e.Value.key == key {
			e.Value.val = value
			found = true
		}
	})
	if !found {
		b.PushBack(entry[K, T]{key: key, val: value})
		idx.size++
	}
}

// Get returns the value stored under key, if any.
func (idx *Index[K, T]) Get(key K) (T, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out T
	found := false
	idx.bucket(key).Each(func(e *Element[entry[K, T]]) {
		if !found && e.Value.key == key {
			out = e.Value.val
			found = true
		}
	})
	return out, found
}

// Delete removes the entry stored under key, if any.
func (idx *Index[K, T]) Delete(key K) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.bucket(key)
	var target *Element[entry[K, T]]
	b.Each(func(e *Element[entry[K, T]]) {
		if e.Value.key == key {
			target = e
		}
	})
	if target != nil {
		b.Remove(target)
		idx.size--
	}
}

// Len returns the number of entries currently stored.
func (idx *Index[K, T]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// All returns every value currently stored, in unspecified (bucket) order.
func (idx *Index[K, T]) All() []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]T, 0, idx.size)
	for _, b := range idx.buckets {
		b.Each(func(e *Element[entry[K, T]]) {
			out = append(out, e.Value.val)
		})
	}
	return out
}
