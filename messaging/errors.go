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

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	messagingErrorCode = "messagingErrorCode"
	retryAfterKey      = "retryAfter"
	messagingDetail    = "messagingDetail"

	invalidMessage     = "INVALID_MESSAGE"
	authentication     = "AUTHENTICATION_ERROR"
	notFound           = "NOT_FOUND"
	quotaExceeded      = "QUOTA_EXCEEDED"
	serverError        = "SERVER_ERROR"
	serverUnavailable  = "SERVER_UNAVAILABLE"
	messagingError     = "MESSAGING_ERROR"
	tooManyTopics      = "TOO_MANY_TOPICS"
	unregisteredDevice = "UNREGISTERED"
)

var fcmErrorKinds = map[int]string{
	http.StatusBadRequest:          invalidMessage,
	http.StatusUnauthorized:        authentication,
	http.StatusForbidden:           authentication,
	http.StatusNotFound:            notFound,
	http.StatusTooManyRequests:     quotaExceeded,
	http.StatusInternalServerError: serverError,
	http.StatusServiceUnavailable:  serverUnavailable,
}

// IsInvalidMessage checks if the given error was caused by a message the backend rejected as
// malformed.
func IsInvalidMessage(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, invalidMessage)
}

// IsAuthenticationError checks if the given error was caused by missing or insufficient
// credentials.
func IsAuthenticationError(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, authentication)
}

// IsNotFound checks if the given error was caused by a target that no longer exists.
func IsNotFound(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, notFound)
}

// IsUnregistered checks if the given error was due to a registration token that became invalid.
func IsUnregistered(err error) bool {
	return internal.HasExtValue(err, messagingDetail, unregisteredDevice) || IsNotFound(err)
}

// IsQuotaExceeded checks if the given error was caused by exceeding a sending quota.
func IsQuotaExceeded(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, quotaExceeded)
}

// IsServerError checks if the given error was caused by an internal FCM server error.
func IsServerError(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, serverError)
}

// IsServerUnavailable checks if the given error was caused by FCM being temporarily unavailable.
func IsServerUnavailable(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, serverUnavailable)
}

// IsMessagingError checks if the given error is an FCM error that fits no other category.
func IsMessagingError(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, messagingError)
}

// IsTooManyTopics checks if the given error was caused by a device subscribed to too many topics.
func IsTooManyTopics(err error) bool {
	return internal.HasExtValue(err, messagingErrorCode, tooManyTopics)
}

// RetryAfter returns the delay the server asked for before the request is attempted again.
// Returns zero if the error carries no such hint.
func RetryAfter(err error) time.Duration {
	for ; err != nil; err = errors.Unwrap(err) {
		if fe, ok := err.(*internal.FirebaseError); ok {
			if d, ok := fe.Ext[retryAfterKey].(time.Duration); ok {
				return d
			}
		}
	}
	return 0
}

// handleFCMError converts an FCM error response into a FirebaseError.
func handleFCMError(resp *internal.Response) error {
	fe := internal.NewFirebaseErrorOnePlatform(resp)
	kind, ok := fcmErrorKinds[resp.Status]
	if !ok {
		kind = messagingError
	}
	fe.Ext[messagingErrorCode] = kind
	if detail := fcmErrorDetail(resp.Body); detail != "" {
		fe.Ext[messagingDetail] = detail
	}
	if reason := internal.ErrorReason(resp.Body); reason != "" {
		fe.String = reason
	} else {
		fe.String = fmt.Sprintf("http error status: %d", resp.Status)
	}

	if kind == quotaExceeded || kind == serverUnavailable {
		if d := internal.ParseRetryAfter(resp.Header); d > 0 {
			fe.Ext[retryAfterKey] = d
		}
	}
	return fe
}

// fcmErrorDetail extracts the FCM specific error code from the details of a OnePlatform error.
func fcmErrorDetail(body []byte) string {
	var fcmError struct {
		Error struct {
			Details []struct {
				Type      string `json:"@type"`
				ErrorCode string `json:"errorCode"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &fcmError); err != nil {
		return ""
	}
	for _, d := range fcmError.Error.Details {
		if d.Type == "type.googleapis.com/google.firebase.fcm.v1.FcmError" {
			return d.ErrorCode
		}
	}
	return ""
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{},
	}
}
