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

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	authErrorCode = "authErrorCode"

	credentialMismatch          = "CREDENTIAL_MISMATCH"
	emailExists                 = "EMAIL_EXISTS"
	emailNotFound               = "EMAIL_NOT_FOUND"
	invalidCustomToken          = "INVALID_CUSTOM_TOKEN"
	invalidPassword             = "INVALID_PASSWORD"
	missingPassword             = "MISSING_PASSWORD"
	operationNotAllowed         = "OPERATION_NOT_ALLOWED"
	phoneNumberExists           = "PHONE_NUMBER_EXISTS"
	userDisabled                = "USER_DISABLED"
	userNotFound                = "USER_NOT_FOUND"
	weakPassword                = "WEAK_PASSWORD"
	idTokenInvalid              = "INVALID_ID_TOKEN"
	idTokenExpired              = "ID_TOKEN_EXPIRED"
	failedToSignIn              = "FAILED_TO_SIGN_IN"
	failedToCreateSessionCookie = "FAILED_TO_CREATE_SESSION_COOKIE"
	authError                   = "AUTH_ERROR"

	userNotFoundMessage = "There is no user record corresponding to this identifier. The user may have been deleted."
)

type authErrorInfo struct {
	code    internal.ErrorCode
	kind    string
	message string
}

// serverErrors is searched in order; the first entry whose reason occurs in the backend message
// wins.
var serverErrors = []struct {
	reason string
	info   authErrorInfo
}{
	{"credential_mismatch", authErrorInfo{
		internal.InvalidArgument, credentialMismatch,
		"Invalid custom token: The custom token corresponds to a different Firebase project.",
	}},
	{"email_exists", authErrorInfo{
		internal.AlreadyExists, emailExists,
		"The email address is already in use by another account.",
	}},
	{"email_not_found", authErrorInfo{
		internal.NotFound, emailNotFound, userNotFoundMessage,
	}},
	{"invalid_custom_token", authErrorInfo{
		internal.InvalidArgument, invalidCustomToken,
		"Invalid custom token: The custom token format is incorrect or the token is invalid for " +
			"some reason (e.g. expired, invalid signature, etc.)",
	}},
	{"invalid_password", authErrorInfo{
		internal.InvalidArgument, invalidPassword,
		"The password is invalid or the user does not have a password.",
	}},
	{"missing_password", authErrorInfo{
		internal.InvalidArgument, missingPassword, "Missing Password",
	}},
	{"operation_not_allowed", authErrorInfo{
		internal.FailedPrecondition, operationNotAllowed, "Operation not allowed.",
	}},
	{"user_disabled", authErrorInfo{
		internal.FailedPrecondition, userDisabled,
		"The user account has been disabled by an administrator.",
	}},
	{"user_not_found", authErrorInfo{
		internal.NotFound, userNotFound, userNotFoundMessage,
	}},
	{"weak_password", authErrorInfo{
		internal.InvalidArgument, weakPassword, "The password must be 6 characters long or more.",
	}},
	{"phone_number_exists", authErrorInfo{
		internal.AlreadyExists, phoneNumberExists,
		"The phone number is already in use by another account.",
	}},
}

// IsCredentialMismatch checks if the given error was due to a custom token minted for a
// different Firebase project.
func IsCredentialMismatch(err error) bool {
	return internal.HasExtValue(err, authErrorCode, credentialMismatch)
}

// IsEmailExists checks if the given error was due to a duplicate email.
func IsEmailExists(err error) bool {
	return internal.HasExtValue(err, authErrorCode, emailExists)
}

// IsEmailNotFound checks if the given error was due to an email that no user has.
func IsEmailNotFound(err error) bool {
	return internal.HasExtValue(err, authErrorCode, emailNotFound)
}

// IsInvalidCustomToken checks if the given error was due to a malformed or expired custom token.
func IsInvalidCustomToken(err error) bool {
	return internal.HasExtValue(err, authErrorCode, invalidCustomToken)
}

// IsInvalidPassword checks if the given error was due to a wrong password.
func IsInvalidPassword(err error) bool {
	return internal.HasExtValue(err, authErrorCode, invalidPassword)
}

// IsMissingPassword checks if the given error was due to a missing password.
func IsMissingPassword(err error) bool {
	return internal.HasExtValue(err, authErrorCode, missingPassword)
}

// IsOperationNotAllowed checks if the given error was due to a sign-in provider that is disabled
// for the project.
func IsOperationNotAllowed(err error) bool {
	return internal.HasExtValue(err, authErrorCode, operationNotAllowed)
}

// IsPhoneNumberExists checks if the given error was due to a duplicate phone number.
func IsPhoneNumberExists(err error) bool {
	return internal.HasExtValue(err, authErrorCode, phoneNumberExists)
}

// IsUserDisabled checks if the given error was due to a disabled user account.
func IsUserDisabled(err error) bool {
	return internal.HasExtValue(err, authErrorCode, userDisabled)
}

// IsUserNotFound checks if the given error was due to non-existing user.
func IsUserNotFound(err error) bool {
	return internal.HasExtValue(err, authErrorCode, userNotFound)
}

// IsWeakPassword checks if the given error was due to a password the backend considers too weak.
func IsWeakPassword(err error) bool {
	return internal.HasExtValue(err, authErrorCode, weakPassword)
}

// IsIDTokenInvalid checks if the given error was due to an invalid ID token.
//
// An expired token is also invalid, so this returns true for IsIDTokenExpired errors as well.
func IsIDTokenInvalid(err error) bool {
	return internal.HasExtValue(err, authErrorCode, idTokenInvalid) || IsIDTokenExpired(err)
}

// IsIDTokenExpired checks if the given error was due to an expired ID token.
func IsIDTokenExpired(err error) bool {
	return internal.HasExtValue(err, authErrorCode, idTokenExpired)
}

// IsFailedToSignIn checks if the given error was raised by a sign-in attempt.
func IsFailedToSignIn(err error) bool {
	return internal.HasExtValue(err, authErrorCode, failedToSignIn)
}

// IsFailedToCreateSessionCookie checks if the given error was raised while creating a session
// cookie.
func IsFailedToCreateSessionCookie(err error) bool {
	return internal.HasExtValue(err, authErrorCode, failedToCreateSessionCookie)
}

// IsAuthError checks if the given error is a backend error that did not match any of the
// known auth error kinds.
func IsAuthError(err error) bool {
	return internal.HasExtValue(err, authErrorCode, authError)
}

// lookupServerError matches the backend reason case-insensitively against the known error
// identifiers.
func lookupServerError(reason string) (authErrorInfo, bool) {
	lower := strings.ToLower(reason)
	for _, se := range serverErrors {
		if strings.Contains(lower, se.reason) {
			return se.info, true
		}
	}
	return authErrorInfo{}, false
}

func handleAuthError(resp *internal.Response) error {
	err := internal.NewFirebaseError(resp)
	reason := internal.ErrorReason(resp.Body)
	if info, ok := lookupServerError(reason); ok {
		err.ErrorCode = info.code
		err.String = info.message
		err.Ext[authErrorCode] = info.kind
		return err
	}

	if reason != "" {
		err.String = reason
	}
	err.Ext[authErrorCode] = authError
	return err
}

// handleSignInError creates a FailedToSignIn error from a non-200 sign-in response. Only the
// {"error": {"message": "..."}} shape is used for the message.
func handleSignInError(resp *internal.Response) error {
	return newFailedError(resp, failedToSignIn, "failed to sign in")
}

func handleSessionCookieError(resp *internal.Response) error {
	return newFailedError(resp, failedToCreateSessionCookie, "failed to create session cookie")
}

func newFailedError(resp *internal.Response, kind, fallback string) *internal.FirebaseError {
	err := internal.NewFirebaseErrorOnePlatform(resp)
	err.String = fallback
	err.Ext[authErrorCode] = kind

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal(resp.Body, &body); jsonErr == nil && body.Error.Message != "" {
		err.String = body.Error.Message
		if info, ok := lookupServerError(body.Error.Message); ok {
			err.ErrorCode = info.code
		}
	}
	return err
}

// wrapTransportError attaches a service specific kind to an error raised before a response was
// received. The original error remains reachable as the cause.
func wrapTransportError(err error, kind, prefix string) error {
	code := internal.Unknown
	var fe *internal.FirebaseError
	if errors.As(err, &fe) {
		code = fe.ErrorCode
	}
	return (&internal.FirebaseError{
		ErrorCode: code,
		String:    fmt.Sprintf("%s: %v", prefix, err),
		Ext:       map[string]interface{}{authErrorCode: kind},
	}).WithCause(err)
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{},
	}
}
