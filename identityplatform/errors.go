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

package identityplatform

import (
	"fmt"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	identityPlatformErrorCode = "identityPlatformErrorCode"

	configurationExists   = "CONFIGURATION_EXISTS"
	configurationNotFound = "CONFIGURATION_NOT_FOUND"
	identityPlatformError = "IDENTITY_PLATFORM_ERROR"
)

var serverErrors = []struct {
	reason  string
	code    internal.ErrorCode
	kind    string
	message string
}{
	{"configuration_exists", internal.AlreadyExists, configurationExists, "the configuration already exists"},
	{"configuration_not_found", internal.NotFound, configurationNotFound, "the configuration is not found"},
}

// IsConfigurationExists checks if the given error was due to an identity provider configuration
// that already exists.
func IsConfigurationExists(err error) bool {
	return internal.HasExtValue(err, identityPlatformErrorCode, configurationExists)
}

// IsConfigurationNotFound checks if the given error was due to a non-existing identity provider
// configuration.
func IsConfigurationNotFound(err error) bool {
	return internal.HasExtValue(err, identityPlatformErrorCode, configurationNotFound)
}

func handleIdentityPlatformError(resp *internal.Response) error {
	err := internal.NewFirebaseError(resp)
	reason := internal.ErrorReason(resp.Body)
	lower := strings.ToLower(reason)
	for _, se := range serverErrors {
		if strings.Contains(lower, se.reason) {
			err.ErrorCode = se.code
			err.String = se.message
			err.Ext[identityPlatformErrorCode] = se.kind
			return err
		}
	}

	if reason != "" {
		err.String = reason
	}
	err.Ext[identityPlatformErrorCode] = identityPlatformError
	return err
}

func invalidArgument(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{},
	}
}
