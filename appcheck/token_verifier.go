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
	"strings"
	"time"

	"github.com/firebase/firebase-rest-go/internal"
	"github.com/golang-jwt/jwt/v4"
)

// AppCheckIssuer is the prefix of the issuer of all App Check tokens.
const AppCheckIssuer = "https://firebaseappcheck.googleapis.com/"

// DecodedAppCheckToken represents a verified App Check token.
//
// DecodedAppCheckToken provides typed accessors to the common JWT fields such as Audience (aud)
// and ExpiresAt (exp). Additionally it provides an AppID field, which indicates the application
// ID to which this token belongs. Any additional JWT claims can be accessed via the Claims map
// of DecodedAppCheckToken.
type DecodedAppCheckToken struct {
	Issuer    string
	Subject   string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	AppID     string
	Claims    map[string]interface{}
}

// VerifyToken verifies the given App Check token.
//
// VerifyToken considers an App Check token string to be valid if all the following conditions
// are met:
//   - The token string is a valid RS256 JWT.
//   - The JWT contains valid issuer (iss) and audience (aud) claims that match the issuerPrefix
//     and projectID of the client.
//   - The JWT contains a valid subject (sub) claim.
//   - The JWT is not expired, and it has been issued some time in the past.
//   - The JWT is signed by a Firebase App Check backend server as determined by the keySource.
//
// If any of the above conditions are not met, an error is returned. Otherwise a pointer to a
// decoded App Check token is returned.
func (c *Client) VerifyToken(token string) (*DecodedAppCheckToken, error) {
	if token == "" {
		return nil, verificationError(internal.InvalidArgument, invalidToken, nil,
			"app check token must be a non-empty string")
	}

	kf, err := c.keys.Keyfunc()
	if err != nil {
		return nil, verificationError(internal.Unknown, failedToVerify, err,
			"failed to verify app check token: %v", err)
	}

	claims := jwt.MapClaims{}
	decoded, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Header["alg"] != jwt.SigningMethodRS256.Alg() {
			return nil, ErrIncorrectAlgorithm
		}
		if t.Header["typ"] != "JWT" {
			return nil, ErrTokenType
		}
		return kf(t)
	})
	if err != nil {
		return nil, verificationError(internal.InvalidArgument, invalidToken, err,
			"app check token is invalid: %v", err)
	}
	if _, ok := decoded.Claims.(jwt.MapClaims); !ok {
		return nil, verificationError(internal.InvalidArgument, invalidToken, ErrTokenClaims,
			"app check token has invalid claims")
	}

	return c.verifyClaims(claims)
}

func (c *Client) verifyClaims(claims jwt.MapClaims) (*DecodedAppCheckToken, error) {
	aud := audience(claims["aud"])
	if !contains(aud, "projects/"+c.projectID) {
		return nil, verificationError(internal.InvalidArgument, failedToVerify, ErrTokenAudience,
			"the 'aud' claim must include the project id; got %v", aud)
	}

	iss, _ := claims["iss"].(string)
	if !strings.HasPrefix(iss, AppCheckIssuer) {
		return nil, verificationError(internal.InvalidArgument, failedToVerify, ErrTokenIssuer,
			"app check token has incorrect 'iss' (issuer) claim: %q", iss)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, verificationError(internal.InvalidArgument, failedToVerify, ErrTokenSubject,
			"app check token has empty or missing 'sub' (subject) claim")
	}

	token := &DecodedAppCheckToken{
		Issuer:    iss,
		Subject:   sub,
		Audience:  aud,
		ExpiresAt: timeClaim(claims, "exp"),
		IssuedAt:  timeClaim(claims, "iat"),
		AppID:     sub,
		Claims:    map[string]interface{}{},
	}
	for k, v := range claims {
		switch k {
		case "iss", "sub", "aud", "exp", "iat":
		default:
			token.Claims[k] = v
		}
	}
	return token, nil
}

// audience normalizes the aud claim, which may be a single string or a list.
func audience(v interface{}) []string {
	switch aud := v.(type) {
	case string:
		return []string{aud}
	case []interface{}:
		var result []string
		for _, a := range aud {
			if s, ok := a.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

func timeClaim(claims jwt.MapClaims, key string) time.Time {
	if f, ok := claims[key].(float64); ok {
		return time.Unix(int64(f), 0)
	}
	return time.Time{}
}

func contains(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
