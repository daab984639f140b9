// Copyright (c) 2023 Enver Bisevac
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package validator

import (
	"slices"
	"strings"

	"golang.org/x/exp/constraints"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func Positive[T constraints.Ordered](value T) bool {
	var zero T
	return value > zero
}

func Between[T constraints.Ordered](value, min, max T) bool {
	return value >= min && value <= max
}

func LessThan[T constraints.Ordered](value, limit T) bool {
	return value < limit
}

func In[T comparable](value T, safelist ...T) bool {
	return slices.Contains(safelist, value)
}

func NotIn[T comparable](value T, blocklist ...T) bool {
	return !slices.Contains(blocklist, value)
}
