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
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is a JSON object whose entries keep the order a Sorter put them in.
type OrderedMap = orderedmap.OrderedMap[string, interface{}]

// Sorter is the single ordering directive that can be attached to a Query.
//
// ModifyValue re-sorts a decoded result the same way the server orders it. JSON objects are
// returned as an *OrderedMap. Other values are returned unchanged.
type Sorter interface {
	URIModifier
	ModifyValue(v interface{}) interface{}
}

type entry struct {
	Key   string
	Value interface{}
}

type sorter struct {
	orderBy string
	less    func(a, b *entry) bool
}

func (s *sorter) ModifyURI(u *url.URL) *url.URL {
	return withParam(u, "orderBy", s.orderBy)
}

func (s *sorter) ModifyValue(v interface{}) interface{} {
	entries, ok := entriesOf(v)
	if !ok {
		return v
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return s.less(entries[i], entries[j])
	})
	om := orderedmap.New[string, interface{}](len(entries))
	for _, e := range entries {
		om.Set(e.Key, e.Value)
	}
	return om
}

// OrderByKey returns a Sorter that orders children by their keys.
func OrderByKey() Sorter {
	return &sorter{
		orderBy: `"$key"`,
		less: func(a, b *entry) bool {
			return compareKeys(a.Key, b.Key) < 0
		},
	}
}

// OrderByValue returns a Sorter that orders children by their values.
func OrderByValue() Sorter {
	return &sorter{
		orderBy: `"$value"`,
		less: func(a, b *entry) bool {
			return compareEntries(a.Value, b.Value, a.Key, b.Key) < 0
		},
	}
}

// OrderByChild returns a Sorter that orders children by the value found at the given path of
// each child.
func OrderByChild(path string) (Sorter, error) {
	if path == "" {
		return nil, invalidArgument("child path must be a non-empty string")
	}
	if strings.HasPrefix(path, "/") {
		return nil, invalidArgument("invalid child path with leading slash: %q", path)
	}
	segs := parsePath(path)
	if err := validatePath(segs); err != nil {
		return nil, err
	}

	orderBy, err := json.Marshal(strings.Join(segs, "/"))
	if err != nil {
		return nil, err
	}
	return &sorter{
		orderBy: string(orderBy),
		less: func(a, b *entry) bool {
			return compareEntries(childValue(a.Value, segs), childValue(b.Value, segs), a.Key, b.Key) < 0
		},
	}, nil
}

func entriesOf(v interface{}) ([]*entry, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		entries := make([]*entry, 0, len(m))
		for k, v := range m {
			entries = append(entries, &entry{Key: k, Value: v})
		}
		// Map iteration order is random. Start from key order so that the result is deterministic.
		sort.Slice(entries, func(i, j int) bool {
			return compareKeys(entries[i].Key, entries[j].Key) < 0
		})
		return entries, true
	case *OrderedMap:
		if m == nil {
			return nil, false
		}
		entries := make([]*entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			entries = append(entries, &entry{Key: p.Key, Value: p.Value})
		}
		return entries, true
	}
	return nil, false
}

func childValue(v interface{}, segs []string) interface{} {
	for _, s := range segs {
		switch m := v.(type) {
		case map[string]interface{}:
			v = m[s]
		case *OrderedMap:
			v, _ = m.Get(s)
		case []interface{}:
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(m) {
				return nil
			}
			v = m[i]
		default:
			return nil
		}
	}
	return v
}

func compareEntries(a, b interface{}, aKey, bKey string) int {
	if c := compareValues(a, b); c != 0 {
		return c
	}
	return compareKeys(aKey, bKey)
}

const (
	rankNull = iota
	rankFalse
	rankTrue
	rankNumber
	rankString
	rankObject
)

func rank(v interface{}) int {
	switch t := v.(type) {
	case nil:
		return rankNull
	case bool:
		if t {
			return rankTrue
		}
		return rankFalse
	case string:
		return rankString
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	return rankObject
}

func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case rankNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return compareFloats(fa, fb)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

// compareKeys orders keys that parse as 32-bit integers numerically before all other keys, which
// are ordered lexicographically.
func compareKeys(a, b string) int {
	ia, aInt := intKey(a)
	ib, bInt := intKey(b)
	switch {
	case aInt && bInt:
		if ia != ib {
			return compareFloats(float64(ia), float64(ib))
		}
		return strings.Compare(a, b)
	case aInt:
		return -1
	case bInt:
		return 1
	}
	return strings.Compare(a, b)
}

func intKey(k string) (int64, bool) {
	i, err := strconv.ParseInt(k, 10, 32)
	if err != nil {
		return 0, false
	}
	return i, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return math.NaN(), false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
