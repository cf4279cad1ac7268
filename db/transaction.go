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
	"context"
	"encoding/json"
)

// Transaction performs optimistic read-modify-write cycles on one or more database locations.
//
// Every location must be read with Snapshot before it can be written with Set or Remove. Writes
// only succeed if the location has not changed since it was read. Each location is guarded
// independently: a failed write does not undo writes that already succeeded on other locations.
//
// A Transaction must not be shared between goroutines.
type Transaction struct {
	client *Client
	etags  map[string]string
}

func newTransaction(c *Client) *Transaction {
	return &Transaction{
		client: c,
		etags:  make(map[string]string),
	}
}

// Snapshot reads the data at the given location and records its ETag in the Transaction.
func (t *Transaction) Snapshot(ctx context.Context, r *Ref) (*Snapshot, error) {
	resp, etag, err := t.client.getWithETag(ctx, r.target())
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, err
	}
	t.etags[r.Path] = etag
	return newSnapshot(r, v), nil
}

// Set writes v to the given location, provided the location has not changed since it was
// snapshotted.
//
// Returns an error if the location was never snapshotted in this Transaction, or if the location
// has changed remotely in the meantime. A successful Set makes further writes to the same
// location possible.
func (t *Transaction) Set(ctx context.Context, r *Ref, v interface{}) error {
	etag, ok := t.etags[r.Path]
	if !ok {
		return newReferenceHasNotBeenSnapshotted(r)
	}

	newETag, err := t.client.setWithETag(ctx, r.target(), v, etag)
	if err != nil {
		return newTransactionFailed(r, err)
	}
	if newETag != "" {
		t.etags[r.Path] = newETag
	}
	return nil
}

// Remove deletes the given location, provided the location has not changed since it was
// snapshotted.
func (t *Transaction) Remove(ctx context.Context, r *Ref) error {
	etag, ok := t.etags[r.Path]
	if !ok {
		return newReferenceHasNotBeenSnapshotted(r)
	}

	newETag, err := t.client.removeWithETag(ctx, r.target(), etag)
	if err != nil {
		return newTransactionFailed(r, err)
	}
	if newETag != "" {
		t.etags[r.Path] = newETag
	}
	return nil
}
