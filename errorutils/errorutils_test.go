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

package errorutils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/firebase/firebase-rest-go/internal"
)

func TestPredicates(t *testing.T) {
	predicates := map[internal.ErrorCode]func(error) bool{
		internal.InvalidArgument:    IsInvalidArgument,
		internal.FailedPrecondition: IsFailedPrecondition,
		internal.OutOfRange:         IsOutOfRange,
		internal.Unauthenticated:    IsUnauthenticated,
		internal.PermissionDenied:   IsPermissionDenied,
		internal.NotFound:           IsNotFound,
		internal.Conflict:           IsConflict,
		internal.Aborted:            IsAborted,
		internal.AlreadyExists:      IsAlreadyExists,
		internal.ResourceExhausted:  IsResourceExhausted,
		internal.Cancelled:          IsCancelled,
		internal.DataLoss:           IsDataLoss,
		internal.Unknown:            IsUnknown,
		internal.Internal:           IsInternal,
		internal.Unavailable:        IsUnavailable,
		internal.DeadlineExceeded:   IsDeadlineExceeded,
	}

	for code, check := range predicates {
		fe := &internal.FirebaseError{ErrorCode: code, String: "test error"}
		if !check(fe) {
			t.Errorf("[%s] predicate(FirebaseError) = false; want = true", code)
		}
		if !check(fmt.Errorf("wrapped: %w", fe)) {
			t.Errorf("[%s] predicate(wrapped FirebaseError) = false; want = true", code)
		}
		if check(errors.New("test error")) {
			t.Errorf("[%s] predicate(non-Firebase error) = true; want = false", code)
		}
		for other, otherCheck := range predicates {
			if other != code && otherCheck(fe) {
				t.Errorf("[%s] predicate for %s = true; want = false", code, other)
			}
		}
	}
}

func TestIsConnectionFailed(t *testing.T) {
	fe := &internal.FirebaseError{
		ErrorCode: internal.Unavailable,
		Ext:       map[string]interface{}{internal.ConnectionFailedKey: true},
	}
	if !IsConnectionFailed(fe) {
		t.Errorf("IsConnectionFailed() = false; want = true")
	}
	if IsConnectionFailed(&internal.FirebaseError{ErrorCode: internal.Unavailable}) {
		t.Errorf("IsConnectionFailed() = true; want = false")
	}
}

func TestHTTPResponse(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusNotFound}
	fe := &internal.FirebaseError{ErrorCode: internal.NotFound, Response: resp}
	if got := HTTPResponse(fe); got != resp {
		t.Errorf("HTTPResponse() = %v; want = %v", got, resp)
	}
	if got := HTTPResponse(errors.New("test error")); got != nil {
		t.Errorf("HTTPResponse() = %v; want = nil", got)
	}
}
