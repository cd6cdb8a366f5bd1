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

// Package size implements a byte-size value type with human-readable
// parsing and formatting, used for receive-buffer sizing.
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size represents a quantity of bytes.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo      = SizeUnit * 1024
	SizeMega      = SizeKilo * 1024
	SizeGiga      = SizeMega * 1024
	SizeTera      = SizeGiga * 1024
	SizePeta      = SizeTera * 1024
	SizeExa       = SizePeta * 1024
)

var units = []struct {
	suffix string
	size   Size
}{
	{"EB", SizeExa},
	{"PB", SizePeta},
	{"TB", SizeTera},
	{"GB", SizeGiga},
	{"MB", SizeMega},
	{"KB", SizeKilo},
	{"E", SizeExa},
	{"P", SizePeta},
	{"T", SizeTera},
	{"G", SizeGiga},
	{"M", SizeMega},
	{"K", SizeKilo},
	{"B", SizeUnit},
}

// Parse converts a human-readable size ("1K", "10MB", "512B", "1024") into
// a Size. A bare number is interpreted as a byte count.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("size: empty value")
	}

	up := strings.ToUpper(s)
	for _, u := range units {
		if strings.HasSuffix(up, u.suffix) {
			n := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return 0, fmt.Errorf("size: invalid value %q: %w", s, err)
			}
			return Size(f * float64(u.size)), nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("size: invalid value %q: %w", s, err)
	}
	return Size(f), nil
}

// ParseSize is a deprecated alias of Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseInt64 converts a raw byte count into a Size.
func ParseInt64(i int64) Size {
	if i < 0 {
		return 0
	}
	return Size(i)
}

func (s Size) Int64() int64 {
	if s > Size(1<<63-1) {
		return int64(1<<63 - 1)
	}
	return int64(s)
}

func (s Size) Uint64() uint64 { return uint64(s) }
func (s Size) Float64() float64 { return float64(s) }

// Code formats the size with the given unit separator rune (0 means no
// separator) using the largest unit that divides it evenly, e.g.
// "4KB", "1MB".
func (s Size) Code(sep rune) string {
	var sp string
	if sep != 0 {
		sp = string(sep)
	}

	for _, u := range units {
		if u.size > SizeUnit && s >= u.size && s%u.size == 0 {
			return fmt.Sprintf("%d%s%s", uint64(s/u.size), sp, u.suffix)
		}
	}
	return fmt.Sprintf("%d%sB", uint64(s), sp)
}

func (s Size) String() string {
	return s.Code(0)
}
