// Copyright 2022 Google Inc. All Rights Reserved.
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

package appcheck

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	appCheckErrorCode = "appCheckErrorCode"

	invalidToken     = "INVALID_APP_CHECK_TOKEN"
	failedToVerify   = "FAILED_TO_VERIFY_APP_CHECK_TOKEN"
	permissionDenied = "PERMISSION_DENIED"
	appCheckError    = "APP_CHECK_ERROR"
)

var (
	// ErrIncorrectAlgorithm is returned when the token is signed with a non-RSA256 algorithm.
	ErrIncorrectAlgorithm = errors.New("token has incorrect algorithm")
	// ErrTokenType is returned when the token is not a JWT.
	ErrTokenType = errors.New("token has incorrect type")
	// ErrTokenClaims is returned when the token claims cannot be decoded.
	ErrTokenClaims = errors.New("token has incorrect claims")
	// ErrTokenAudience is returned when the token audience does not match the current project.
	ErrTokenAudience = errors.New("token has incorrect audience")
	// ErrTokenIssuer is returned when the token issuer does not match Firebase's App Check service.
	ErrTokenIssuer = errors.New("token has incorrect issuer")
	// ErrTokenSubject is returned when the token subject is empty or missing.
	ErrTokenSubject = errors.New("token has empty or missing subject")
)

// IsInvalidToken checks if the given error was due to a malformed or otherwise invalid App
// Check token.
func IsInvalidToken(err error) bool {
	return internal.HasExtValue(err, appCheckErrorCode, invalidToken)
}

// IsFailedToVerifyToken checks if the given error was due to a token that could not be verified
// against the App Check key set, or whose claims are not valid for the current project.
func IsFailedToVerifyToken(err error) bool {
	return internal.HasExtValue(err, appCheckErrorCode, failedToVerify)
}

// IsPermissionDenied checks if the given error was due to the token exchange service rejecting
// the credentials of the SDK.
func IsPermissionDenied(err error) bool {
	return internal.HasExtValue(err, appCheckErrorCode, permissionDenied)
}

// IsAppCheckError checks if the given error was returned by the App Check service for a reason
// not covered by the other predicates.
func IsAppCheckError(err error) bool {
	return internal.HasExtValue(err, appCheckErrorCode, appCheckError)
}

func handleAppCheckError(resp *internal.Response) error {
	err := internal.NewFirebaseError(resp)
	if reason := internal.ErrorReason(resp.Body); reason != "" {
		err.String = reason
	}

	switch resp.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		err.ErrorCode = internal.PermissionDenied
		err.Ext[appCheckErrorCode] = permissionDenied
	default:
		err.Ext[appCheckErrorCode] = appCheckError
	}
	return err
}

func verificationError(code internal.ErrorCode, kind string, cause error, format string, args ...interface{}) error {
	fe := &internal.FirebaseError{
		ErrorCode: code,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{appCheckErrorCode: kind},
	}
	if cause != nil {
		return fe.WithCause(cause)
	}
	return fe
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{},
	}
}
