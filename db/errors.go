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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	databaseErrorCode = "databaseErrorCode"
	queryKey          = "query"
	referenceKey      = "reference"

	permissionDenied               = "PERMISSION_DENIED"
	preconditionFailed             = "PRECONDITION_FAILED"
	databaseNotFound               = "DATABASE_NOT_FOUND"
	unsupportedQuery               = "UNSUPPORTED_QUERY"
	transactionFailed              = "TRANSACTION_FAILED"
	referenceHasNotBeenSnapshotted = "REFERENCE_HAS_NOT_BEEN_SNAPSHOTTED"
	databaseError                  = "DATABASE_ERROR"
)

// IsPermissionDenied checks if the given error was caused by the database rules or the
// credentials rejecting the request.
func IsPermissionDenied(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, permissionDenied)
}

// IsPreconditionFailed checks if the given error was caused by a conditional request whose ETag
// did not match.
func IsPreconditionFailed(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, preconditionFailed)
}

// IsDatabaseNotFound checks if the given error was caused by a database URL that does not point
// to an existing database.
func IsDatabaseNotFound(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, databaseNotFound)
}

// IsUnsupportedQuery checks if the given error was caused by a query that cannot be executed.
func IsUnsupportedQuery(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, unsupportedQuery)
}

// IsTransactionFailed checks if the given error was caused by a failed transactional write.
func IsTransactionFailed(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, transactionFailed)
}

// IsReferenceHasNotBeenSnapshotted checks if the given error was caused by a transactional write
// to a reference the transaction never read.
func IsReferenceHasNotBeenSnapshotted(err error) bool {
	return internal.HasExtValue(err, databaseErrorCode, referenceHasNotBeenSnapshotted)
}

// QueryFromError returns the Query that caused the given error, or nil.
func QueryFromError(err error) *Query {
	if v, ok := extValue(err, queryKey).(*Query); ok {
		return v
	}
	return nil
}

// RefFromError returns the reference that caused the given error, or nil.
func RefFromError(err error) *Ref {
	if v, ok := extValue(err, referenceKey).(*Ref); ok {
		return v
	}
	return nil
}

func extValue(err error, key string) interface{} {
	var fe *internal.FirebaseError
	if !errors.As(err, &fe) || fe.Ext == nil {
		return nil
	}
	return fe.Ext[key]
}

func (c *Client) newDatabaseError(resp *internal.Response) error {
	fe := internal.NewFirebaseError(resp)
	reason := internal.ErrorReason(resp.Body)

	switch resp.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		fe.Ext[databaseErrorCode] = permissionDenied
		fe.String = reason
	case http.StatusPreconditionFailed:
		fe.Ext[databaseErrorCode] = preconditionFailed
		fe.String = reason
	case http.StatusNotFound:
		fe.Ext[databaseErrorCode] = databaseNotFound
		fe.String = c.databaseNotFoundMessage()
	default:
		fe.Ext[databaseErrorCode] = databaseError
		fe.String = fmt.Sprintf("http error status: %d; reason: %s", resp.Status, reason)
	}
	return fe
}

func (c *Client) databaseNotFoundMessage() string {
	dbURL := c.dbURLConfig.BaseURL
	suggested := strings.Replace(dbURL, c.dbURLConfig.Namespace, c.dbURLConfig.Namespace+"-default-rtdb", 1)
	return fmt.Sprintf("the database at %s could not be found; "+
		"databases created after September 2020 are named <project-id>-default-rtdb, "+
		"so the correct url is most likely %s", dbURL, suggested)
}

func newUnsupportedQuery(q *Query, cause error) error {
	fe := &internal.FirebaseError{
		ErrorCode: internal.FailedPrecondition,
		String:    fmt.Sprintf("unsupported query: %s", unsupportedQueryReason(q, cause)),
		Ext: map[string]interface{}{
			databaseErrorCode: unsupportedQuery,
			queryKey:          q,
		},
	}
	var cfe *internal.FirebaseError
	if errors.As(cause, &cfe) {
		fe.ErrorCode = cfe.ErrorCode
		fe.Response = cfe.Response
	}
	return fe.WithCause(cause)
}

func unsupportedQueryReason(q *Query, cause error) string {
	msg := cause.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "index not defined"):
		return fmt.Sprintf("%s; add \".indexOn\" for the ordered child to the database rules at %q", msg, q.ref.Path)
	case strings.Contains(lower, "orderby must be defined"):
		return fmt.Sprintf("%s; filters can only be applied to an ordered query", msg)
	case strings.Contains(lower, "key index passed non-string"):
		return fmt.Sprintf("%s; queries ordered by key only accept string filter values", msg)
	}
	return msg
}

func newAlreadyOrdered(q *Query) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    "unsupported query: this query is already ordered",
		Ext: map[string]interface{}{
			databaseErrorCode: unsupportedQuery,
			queryKey:          q,
		},
	}
}

func newReferenceHasNotBeenSnapshotted(r *Ref) error {
	return &internal.FirebaseError{
		ErrorCode: internal.FailedPrecondition,
		String:    fmt.Sprintf("the reference %q has not been snapshotted", r.Path),
		Ext: map[string]interface{}{
			databaseErrorCode: referenceHasNotBeenSnapshotted,
			referenceKey:      r,
		},
	}
}

func newTransactionFailed(r *Ref, cause error) error {
	fe := &internal.FirebaseError{
		ErrorCode: internal.Aborted,
		Ext: map[string]interface{}{
			databaseErrorCode: transactionFailed,
			referenceKey:      r,
		},
	}
	if IsPreconditionFailed(cause) {
		fe.String = fmt.Sprintf("the reference %q has changed remotely since the transaction has been started", r.Path)
	} else {
		fe.String = fmt.Sprintf("the transaction on %q failed: %v", r.Path, cause)
	}

	var cfe *internal.FirebaseError
	if errors.As(cause, &cfe) {
		fe.Response = cfe.Response
	}
	return fe.WithCause(cause)
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       make(map[string]interface{}),
	}
}
