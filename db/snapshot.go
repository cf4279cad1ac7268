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
	"strconv"
	"strings"
)

// Snapshot is an immutable copy of the data at a database location.
type Snapshot struct {
	ref   *Ref
	value interface{}
}

func newSnapshot(r *Ref, v interface{}) *Snapshot {
	return &Snapshot{ref: r, value: v}
}

// Key returns the key of the location this Snapshot was taken from.
func (s *Snapshot) Key() string {
	return s.ref.Key
}

// Ref returns the location this Snapshot was taken from.
func (s *Snapshot) Ref() *Ref {
	return s.ref
}

// Value returns the decoded data of this Snapshot. Ordered query results are held in an
// *OrderedMap.
func (s *Snapshot) Value() interface{} {
	return s.value
}

// Unmarshal stores the data of this Snapshot in the value pointed to by v.
func (s *Snapshot) Unmarshal(v interface{}) error {
	b, err := json.Marshal(s.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Exists returns true if this Snapshot contains any data.
func (s *Snapshot) Exists() bool {
	return s.value != nil
}

// Child returns a Snapshot of the data at the given relative path. The returned Snapshot
// does not exist if there is no data at that path.
func (s *Snapshot) Child(path string) (*Snapshot, error) {
	r, err := s.ref.Child(strings.Trim(path, "/"))
	if err != nil {
		return nil, err
	}
	return newSnapshot(r, childValue(s.value, parsePath(path))), nil
}

// HasChild returns true if there is data at the given relative path.
func (s *Snapshot) HasChild(path string) bool {
	return childValue(s.value, parsePath(path)) != nil
}

// HasChildren returns true if this Snapshot holds an object or an array with at least one
// child.
func (s *Snapshot) HasChildren() bool {
	return s.NumChildren() > 0
}

// NumChildren returns the number of direct children of this Snapshot.
func (s *Snapshot) NumChildren() int {
	switch v := s.value.(type) {
	case map[string]interface{}:
		return len(v)
	case *OrderedMap:
		return v.Len()
	case []interface{}:
		return len(v)
	}
	return 0
}

// Children returns Snapshots of the direct children of this Snapshot. Ordered query results
// keep their order. Other objects are returned in key order.
func (s *Snapshot) Children() []*Snapshot {
	var children []*Snapshot
	add := func(key string, v interface{}) {
		children = append(children, newSnapshot(s.childRef(key), v))
	}

	switch v := s.value.(type) {
	case *OrderedMap:
		for p := v.Oldest(); p != nil; p = p.Next() {
			add(p.Key, p.Value)
		}
	case map[string]interface{}:
		entries, _ := entriesOf(v)
		for _, e := range entries {
			add(e.Key, e.Value)
		}
	case []interface{}:
		for i, c := range v {
			if c != nil {
				add(strconv.Itoa(i), c)
			}
		}
	}
	return children
}

func (s *Snapshot) childRef(key string) *Ref {
	segs := append(append([]string{}, s.ref.segs...), key)
	return &Ref{
		Key:    key,
		Path:   "/" + strings.Join(segs, "/"),
		segs:   segs,
		client: s.ref.client,
	}
}
