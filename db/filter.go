// Copyright 2020 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package db

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// URIModifier adds a query directive to the URL of a database location.
//
// ModifyURI never mutates its argument.
type URIModifier interface {
	ModifyURI(u *url.URL) *url.URL
}

// Filter is a value-range or pagination directive that can be attached to a Query.
type Filter interface {
	URIModifier
}

type paramFilter struct {
	name  string
	value string
}

func (f *paramFilter) ModifyURI(u *url.URL) *url.URL {
	return withParam(u, f.name, f.value)
}

// EqualTo returns a Filter that matches the children whose ordered value is equal to v.
//
// v must be a string, a number, a boolean or nil.
func EqualTo(v interface{}) (Filter, error) {
	if v != nil && !isScalar(v) {
		return nil, invalidArgument("equalTo value must be a string, a number, a boolean or nil; got %T", v)
	}
	return newValueFilter("equalTo", v)
}

// StartAt returns a Filter that matches the children whose ordered value is greater than or
// equal to v.
func StartAt(v interface{}) (Filter, error) {
	return newScalarFilter("startAt", v)
}

// StartAfter returns a Filter that matches the children whose ordered value is strictly greater
// than v.
func StartAfter(v interface{}) (Filter, error) {
	return newScalarFilter("startAfter", v)
}

// EndAt returns a Filter that matches the children whose ordered value is less than or equal
// to v.
func EndAt(v interface{}) (Filter, error) {
	return newScalarFilter("endAt", v)
}

// EndBefore returns a Filter that matches the children whose ordered value is strictly less
// than v.
func EndBefore(v interface{}) (Filter, error) {
	return newScalarFilter("endBefore", v)
}

// LimitToFirst returns a Filter that keeps the first n children of the ordered result.
func LimitToFirst(n int) (Filter, error) {
	return newLimitFilter("limitToFirst", n)
}

// LimitToLast returns a Filter that keeps the last n children of the ordered result.
func LimitToLast(n int) (Filter, error) {
	return newLimitFilter("limitToLast", n)
}

// Shallow returns a Filter that only retrieves the keys of the direct children.
func Shallow() Filter {
	return &paramFilter{name: "shallow", value: "true"}
}

func newScalarFilter(name string, v interface{}) (Filter, error) {
	if !isScalar(v) {
		return nil, invalidArgument("%s value must be a string, a number or a boolean; got %T", name, v)
	}
	return newValueFilter(name, v)
}

func newValueFilter(name string, v interface{}) (Filter, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, invalidArgument("failed to encode %s value: %v", name, err)
	}
	return &paramFilter{name: name, value: string(b)}, nil
}

func newLimitFilter(name string, n int) (Filter, error) {
	if n < 1 {
		return nil, invalidArgument("%s limit must be a positive integer; got %d", name, n)
	}
	return &paramFilter{name: name, value: strconv.Itoa(n)}, nil
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func withParam(u *url.URL, name, value string) *url.URL {
	modified := *u
	q := modified.Query()
	q.Set(name, value)
	modified.RawQuery = q.Encode()
	return &modified
}
