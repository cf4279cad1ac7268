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
	"net/url"
	"strings"
)

const (
	maxPathDepth = 32
	maxKeySize   = 768
	invalidChars = ".$#[]"
)

func validatePath(segs []string) error {
	if len(segs) > maxPathDepth {
		return invalidArgument("invalid path: must not be more than %d levels deep", maxPathDepth)
	}
	for _, s := range segs {
		if err := validateKey(s); err != nil {
			return err
		}
	}
	return nil
}

func validateKey(key string) error {
	if len(key) > maxKeySize {
		return invalidArgument("invalid key: %q must not be longer than %d bytes", key, maxKeySize)
	}

	decoded, err := url.PathUnescape(key)
	if err != nil {
		decoded = key
	}
	if strings.ContainsAny(decoded, invalidChars) {
		return invalidArgument("invalid key: %q must not contain any of %q", key, invalidChars)
	}
	return nil
}
