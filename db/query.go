// Copyright 2018 Google Inc. All Rights Reserved.
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
	"context"
	"encoding/json"
	"net/url"

	"github.com/firebase/firebase-rest-go/internal"
)

// Query represents a complex query that can be executed on a Ref.
//
// Complex queries can consist of up to 2 components: a required ordering constraint, and an
// optional filtering constraint. At the server, data is first sorted according to the given
// ordering constraint (e.g. order by child). Then the filtering constraint (e.g. limit, range)
// is applied on the sorted data to produce the final result. Despite the ordering constraint,
// the final result is returned by the server as an unordered collection. Therefore the values
// read from a Query are sorted once more on the client.
//
// Queries are immutable. Every method that adds a constraint returns a new Query.
type Query struct {
	ref     *Ref
	filters []Filter
	sorter  Sorter
}

// Ref returns the database location this Query executes on.
func (q *Query) Ref() *Ref {
	return q.ref
}

// WithFilter returns a new Query with the given Filter appended to the existing ones.
func (q *Query) WithFilter(f Filter) *Query {
	filters := make([]Filter, 0, len(q.filters)+1)
	filters = append(filters, q.filters...)
	return &Query{
		ref:     q.ref,
		filters: append(filters, f),
		sorter:  q.sorter,
	}
}

// WithSorter returns a new Query ordered by the given Sorter.
//
// A Query can only be ordered once. Returns an unsupported query error if q already has a Sorter.
func (q *Query) WithSorter(s Sorter) (*Query, error) {
	if q.sorter != nil {
		return nil, newAlreadyOrdered(q)
	}
	return &Query{
		ref:     q.ref,
		filters: q.filters,
		sorter:  s,
	}, nil
}

// OrderByChild returns a new Query ordered by the value at the given child path.
func (q *Query) OrderByChild(path string) (*Query, error) {
	s, err := OrderByChild(path)
	if err != nil {
		return nil, err
	}
	return q.WithSorter(s)
}

// OrderByKey returns a new Query ordered by key.
func (q *Query) OrderByKey() (*Query, error) {
	return q.WithSorter(OrderByKey())
}

// OrderByValue returns a new Query ordered by value.
func (q *Query) OrderByValue() (*Query, error) {
	return q.WithSorter(OrderByValue())
}

// LimitToFirst returns a new Query limited to the first n results.
func (q *Query) LimitToFirst(n int) (*Query, error) {
	return q.filter(LimitToFirst(n))
}

// LimitToLast returns a new Query limited to the last n results.
func (q *Query) LimitToLast(n int) (*Query, error) {
	return q.filter(LimitToLast(n))
}

// EqualTo returns a new Query matching the children whose ordered value is equal to v.
func (q *Query) EqualTo(v interface{}) (*Query, error) {
	return q.filter(EqualTo(v))
}

// StartAt returns a new Query matching the children whose ordered value is at least v.
func (q *Query) StartAt(v interface{}) (*Query, error) {
	return q.filter(StartAt(v))
}

// StartAfter returns a new Query matching the children whose ordered value is greater than v.
func (q *Query) StartAfter(v interface{}) (*Query, error) {
	return q.filter(StartAfter(v))
}

// EndAt returns a new Query matching the children whose ordered value is at most v.
func (q *Query) EndAt(v interface{}) (*Query, error) {
	return q.filter(EndAt(v))
}

// EndBefore returns a new Query matching the children whose ordered value is less than v.
func (q *Query) EndBefore(v interface{}) (*Query, error) {
	return q.filter(EndBefore(v))
}

// Shallow returns a new Query that only retrieves the keys of the direct children.
func (q *Query) Shallow() *Query {
	return q.WithFilter(Shallow())
}

func (q *Query) filter(f Filter, err error) (*Query, error) {
	if err != nil {
		return nil, err
	}
	return q.WithFilter(f), nil
}

// URL returns the location of the Query relative to the database root, with all of its
// constraints applied as query parameters.
func (q *Query) URL() *url.URL {
	u := q.ref.target()
	if q.sorter != nil {
		u = q.sorter.ModifyURI(u)
	}
	for _, f := range q.filters {
		u = f.ModifyURI(u)
	}
	return u
}

func (q *Query) String() string {
	return q.ref.client.resolve(q.URL())
}

// Get executes the Query and populates v with the results.
//
// Data deserialization is performed using https://golang.org/pkg/encoding/json/#Unmarshal, and
// therefore v has the same requirements as the json package. Specifically, it must be a pointer,
// and must not be nil. Results are not re-sorted when decoded into v. Use GetValue or GetOrdered
// to read the results in order.
func (q *Query) Get(ctx context.Context, v interface{}) error {
	body, err := q.fetch(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// GetValue executes the Query and returns its decoded result.
//
// If the Query is ordered and the result is a JSON object, it is returned as an *OrderedMap
// sorted by the Query's Sorter.
func (q *Query) GetValue(ctx context.Context) (interface{}, error) {
	body, err := q.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	if q.sorter != nil {
		v = q.sorter.ModifyValue(v)
	}
	return v, nil
}

// GetSnapshot executes the Query and returns its result as a Snapshot of the queried location.
func (q *Query) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	v, err := q.GetValue(ctx)
	if err != nil {
		return nil, err
	}
	return newSnapshot(q.ref, v), nil
}

// GetOrdered executes the Query and returns the children of the result as Snapshots, in the
// order of the Query's Sorter.
//
// Returns an error if the Query is not ordered.
func (q *Query) GetOrdered(ctx context.Context) ([]*Snapshot, error) {
	if q.sorter == nil {
		return nil, invalidArgument("GetOrdered() requires an ordered query")
	}
	s, err := q.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Children(), nil
}

func (q *Query) fetch(ctx context.Context) ([]byte, error) {
	resp, err := q.ref.client.get(ctx, q.URL())
	if err != nil {
		if IsDatabaseNotFound(err) || internal.IsConnectionFailed(err) {
			return nil, err
		}
		return nil, newUnsupportedQuery(q, err)
	}
	return resp.Body, nil
}
