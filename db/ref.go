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
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Ref represents a node in the Firebase Realtime Database.
//
// Refs are immutable. Navigating from a Ref always returns a new Ref that shares the same Client.
type Ref struct {
	Key  string
	Path string

	segs   []string
	client *Client
}

// Parent returns a reference to the parent of the current node.
//
// Returns an error if the current reference points to the root of the database.
func (r *Ref) Parent() (*Ref, error) {
	l := len(r.segs)
	if l == 0 {
		return nil, invalidArgument("the root reference has no parent")
	}
	return r.client.NewRef(strings.Join(r.segs[:l-1], "/"))
}

// Root returns a reference to the root of the database.
func (r *Ref) Root() *Ref {
	return &Ref{Path: "/", client: r.client}
}

// Child returns a reference to the specified child node.
//
// The path may contain several segments separated by slashes. Returns an error if the resulting
// path is invalid.
func (r *Ref) Child(path string) (*Ref, error) {
	if strings.HasPrefix(path, "/") {
		return nil, invalidArgument("invalid child path with leading slash: %q", path)
	}
	return r.client.NewRef(r.Path + "/" + path)
}

// URL returns the absolute URL of this database location.
func (r *Ref) URL() string {
	return r.client.dbURLConfig.BaseURL + r.Path
}

// Get retrieves the value at the current database location, and stores it in the value pointed to
// by v.
//
// Data deserialization is performed using https://golang.org/pkg/encoding/json/#Unmarshal, and
// therefore v has the same requirements as the json package. Specifically, it must be a pointer,
// and must not be nil.
func (r *Ref) Get(ctx context.Context, v interface{}) error {
	resp, err := r.client.get(ctx, r.target())
	if err != nil {
		return err
	}
	return resp.Unmarshal(http.StatusOK, v)
}

// GetSnapshot retrieves the value at the current database location as a Snapshot.
func (r *Ref) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	var v interface{}
	if err := r.Get(ctx, &v); err != nil {
		return nil, err
	}
	return newSnapshot(r, v), nil
}

// GetWithETag retrieves the value at the current database location, along with its ETag.
func (r *Ref) GetWithETag(ctx context.Context, v interface{}) (string, error) {
	resp, etag, err := r.client.getWithETag(ctx, r.target())
	if err != nil {
		return "", err
	}
	if err := resp.Unmarshal(http.StatusOK, v); err != nil {
		return "", err
	}
	return etag, nil
}

// GetShallow performs a shallow read on the current database location.
//
// Shallow reads do not retrieve the child nodes of the current reference.
func (r *Ref) GetShallow(ctx context.Context, v interface{}) error {
	resp, err := r.client.get(ctx, Shallow().ModifyURI(r.target()))
	if err != nil {
		return err
	}
	return resp.Unmarshal(http.StatusOK, v)
}

// ChildKeys returns the keys of the direct children of the current location, sorted
// lexicographically. Returns an empty slice if the location holds a scalar or no value.
func (r *Ref) ChildKeys(ctx context.Context) ([]string, error) {
	var children map[string]interface{}
	if err := r.GetShallow(ctx, &children); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return []string{}, nil
		}
		return nil, err
	}

	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetIfChanged retrieves the value and ETag of the current database location only if the specified
// ETag does not match.
//
// If the specified ETag does not match, returns true along with the latest ETag of the database
// location. The value of the database location will be stored in v just like a regular Get() call.
// If the etag matches, returns false along with the same ETag passed into the function. No data
// will be stored in v in this case.
func (r *Ref) GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error) {
	resp, err := r.client.getIfNoneMatch(ctx, r.target(), etag)
	if err != nil {
		return false, "", err
	}
	if resp.Status == http.StatusNotModified {
		return false, etag, nil
	}
	if err := resp.Unmarshal(http.StatusOK, v); err != nil {
		return false, "", err
	}
	return true, resp.Header.Get(etagHeader), nil
}

// Set stores the value v in the current database node.
//
// Set uses https://golang.org/pkg/encoding/json/#Marshal to serialize values into JSON. Therefore
// v has the same requirements as the json package. Values like functions and channels cannot be
// saved into Realtime Database. Setting a nil value removes the node.
func (r *Ref) Set(ctx context.Context, v interface{}) error {
	if v == nil {
		return r.Delete(ctx)
	}
	return r.client.set(ctx, r.target(), v)
}

// SetIfUnchanged conditionally sets the data at this location to the given value.
//
// Sets the data at this location to v only if the specified ETag matches. Returns true if the
// value is written. Returns false if no changes are made to the database.
func (r *Ref) SetIfUnchanged(ctx context.Context, etag string, v interface{}) (bool, error) {
	if _, err := r.client.setWithETag(ctx, r.target(), v, etag); err != nil {
		if IsPreconditionFailed(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Push creates a new child node at the current location, and returns a reference to it.
//
// If v is not nil, it will be set as the initial value of the new child node. If v is nil, the
// new child node will be created with empty string as the value.
func (r *Ref) Push(ctx context.Context, v interface{}) (*Ref, error) {
	if v == nil {
		v = ""
	}
	name, err := r.client.push(ctx, r.target(), v)
	if err != nil {
		return nil, err
	}
	return r.Child(name)
}

// Update modifies the specified child keys of the current location to the provided values.
func (r *Ref) Update(ctx context.Context, v map[string]interface{}) error {
	if len(v) == 0 {
		return invalidArgument("value argument must be a non-empty map")
	}
	for k := range v {
		if err := validatePath(parsePath(k)); err != nil {
			return err
		}
	}
	return r.client.update(ctx, r.target(), v)
}

// Delete removes this node from the database.
func (r *Ref) Delete(ctx context.Context) error {
	return r.client.remove(ctx, r.target())
}

// Query returns a Query over this location without any filters or ordering.
func (r *Ref) Query() *Query {
	return &Query{ref: r}
}

// OrderByChild returns a Query that orders data by child values before applying filters.
func (r *Ref) OrderByChild(path string) (*Query, error) {
	s, err := OrderByChild(path)
	if err != nil {
		return nil, err
	}
	return r.Query().WithSorter(s)
}

// OrderByKey returns a Query that orders data by key before applying filters.
func (r *Ref) OrderByKey() *Query {
	q, _ := r.Query().WithSorter(OrderByKey())
	return q
}

// OrderByValue returns a Query that orders data by value before applying filters.
func (r *Ref) OrderByValue() *Query {
	q, _ := r.Query().WithSorter(OrderByValue())
	return q
}

// LimitToFirst returns a Query limited to the first n children of this location.
func (r *Ref) LimitToFirst(n int) (*Query, error) {
	return r.Query().LimitToFirst(n)
}

// LimitToLast returns a Query limited to the last n children of this location.
func (r *Ref) LimitToLast(n int) (*Query, error) {
	return r.Query().LimitToLast(n)
}

// EqualTo returns a Query matching the children equal to v.
func (r *Ref) EqualTo(v interface{}) (*Query, error) {
	return r.Query().EqualTo(v)
}

// StartAt returns a Query matching the children greater than or equal to v.
func (r *Ref) StartAt(v interface{}) (*Query, error) {
	return r.Query().StartAt(v)
}

// StartAfter returns a Query matching the children strictly greater than v.
func (r *Ref) StartAfter(v interface{}) (*Query, error) {
	return r.Query().StartAfter(v)
}

// EndAt returns a Query matching the children less than or equal to v.
func (r *Ref) EndAt(v interface{}) (*Query, error) {
	return r.Query().EndAt(v)
}

// EndBefore returns a Query matching the children strictly less than v.
func (r *Ref) EndBefore(v interface{}) (*Query, error) {
	return r.Query().EndBefore(v)
}

// Shallow returns a Query that only retrieves the keys of the direct children of this location.
func (r *Ref) Shallow() *Query {
	return r.Query().WithFilter(Shallow())
}

func (r *Ref) target() *url.URL {
	return pathURL(r.Path)
}

func (r *Ref) String() string {
	return r.Path
}
