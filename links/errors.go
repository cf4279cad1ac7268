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

package links

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	linksErrorCode = "linksErrorCode"

	failedToCreateLink    = "FAILED_TO_CREATE_DYNAMIC_LINK"
	failedToShortenLink   = "FAILED_TO_SHORTEN_LONG_DYNAMIC_LINK"
	failedToGetStatistics = "FAILED_TO_GET_STATISTICS_FOR_DYNAMIC_LINK"
)

// IsFailedToCreateDynamicLink checks if the given error was raised while creating a dynamic link.
func IsFailedToCreateDynamicLink(err error) bool {
	return internal.HasExtValue(err, linksErrorCode, failedToCreateLink)
}

// IsFailedToShortenLongDynamicLink checks if the given error was raised while shortening a long
// dynamic link.
func IsFailedToShortenLongDynamicLink(err error) bool {
	return internal.HasExtValue(err, linksErrorCode, failedToShortenLink)
}

// IsFailedToGetStatistics checks if the given error was raised while retrieving the statistics
// of a dynamic link.
func IsFailedToGetStatistics(err error) bool {
	return internal.HasExtValue(err, linksErrorCode, failedToGetStatistics)
}

// failedError returns an error converter that uses the message of a {"error": {"message": ...}}
// response body, or the fallback for any other body.
func failedError(kind, fallback string) internal.CreateErrFn {
	return func(resp *internal.Response) error {
		err := internal.NewFirebaseError(resp)
		err.String = fallback
		err.Ext[linksErrorCode] = kind

		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(resp.Body, &body); jsonErr == nil && body.Error.Message != "" {
			err.String = body.Error.Message
		}
		return err
	}
}

// wrapTransportError attaches the kind to errors raised before a response could be converted.
// Errors that already carry the kind are returned as is.
func wrapTransportError(err error, kind, prefix string) error {
	if internal.HasExtValue(err, linksErrorCode, kind) {
		return err
	}
	code := internal.Unknown
	var fe *internal.FirebaseError
	if errors.As(err, &fe) {
		code = fe.ErrorCode
	}
	return (&internal.FirebaseError{
		ErrorCode: code,
		String:    fmt.Sprintf("%s: %v", prefix, err),
		Ext:       map[string]interface{}{linksErrorCode: kind},
	}).WithCause(err)
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{},
	}
}
