// Copyright 2017 Google Inc. All Rights Reserved.
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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	firebaseAudience    = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"
	customTokenDuration = time.Hour
	maxUIDLength        = 128
)

// reservedClaims are the JWT claims that the backend sets on ID tokens, and that developers
// therefore must not set as custom claims.
var reservedClaims = []string{
	"acr", "amr", "at_hash", "aud", "auth_time", "azp", "cnf", "c_hash",
	"exp", "firebase", "iat", "iss", "jti", "nbf", "nonce", "sub",
}

// CustomToken creates a signed custom authentication token with the specified user ID.
//
// The resulting JWT can be used in a Firebase client SDK, or with SignInWithCustomToken, to
// trigger an authentication flow. Custom tokens can only be created by clients initialized
// with service account credentials.
func (c *Client) CustomToken(uid string) (string, error) {
	return c.CustomTokenWithClaims(uid, nil)
}

// CustomTokenWithClaims is similar to CustomToken, but in addition to the user ID, it also
// encodes all the key-value pairs in the provided map as claims in the resulting JWT.
func (c *Client) CustomTokenWithClaims(uid string, devClaims map[string]interface{}) (string, error) {
	if c.signer == nil {
		return "", invalidArgument("custom tokens can only be created with service account credentials")
	}
	if uid == "" || len(uid) > maxUIDLength {
		return "", invalidArgument("uid must be non-empty, and not longer than %d characters", maxUIDLength)
	}

	var disallowed []string
	for _, k := range reservedClaims {
		if _, contains := devClaims[k]; contains {
			disallowed = append(disallowed, k)
		}
	}
	if len(disallowed) == 1 {
		return "", invalidArgument("developer claim %q is reserved and cannot be specified", disallowed[0])
	} else if len(disallowed) > 1 {
		sort.Strings(disallowed)
		return "", invalidArgument("developer claims %q are reserved and cannot be specified",
			strings.Join(disallowed, ", "))
	}

	email := c.signer.Email()
	iat := c.clock.Now().Unix()
	claims := jwt.MapClaims{
		"iss": email,
		"sub": email,
		"aud": firebaseAudience,
		"iat": iat,
		"exp": iat + int64(customTokenDuration.Seconds()),
		"uid": uid,
	}
	if c.tenantID != "" {
		claims["tenant_id"] = c.tenantID
	}
	if len(devClaims) > 0 {
		claims["claims"] = devClaims
	}

	token, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("error while signing custom token: %v", err)
	}
	return token, nil
}
