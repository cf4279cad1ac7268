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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SignInResult holds the tokens issued by a successful sign-in.
type SignInResult struct {
	IDToken      string
	AccessToken  string
	RefreshToken string

	// TTL is the lifetime of the ID token. It is zero when the backend did not report one.
	TTL time.Duration

	// Data is the complete response payload.
	Data map[string]interface{}
}

// TokenResponse is the OAuth 2.0 token response representation of a SignInResult.
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// newSignInResult accepts both the camelCase payloads of the Identity Toolkit API and the
// snake_case payloads of the Secure Token API.
func newSignInResult(body []byte) (*SignInResult, error) {
	d := json.NewDecoder(bytes.NewReader(body))
	d.UseNumber()
	var data map[string]interface{}
	if err := d.Decode(&data); err != nil {
		return nil, fmt.Errorf("error while parsing sign-in response: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("error while parsing sign-in response: empty payload")
	}

	result := &SignInResult{
		IDToken:      stringValue(data, "idToken", "id_token"),
		AccessToken:  stringValue(data, "accessToken", "access_token"),
		RefreshToken: stringValue(data, "refreshToken", "refresh_token"),
		Data:         data,
	}
	if s := stringValue(data, "expiresIn", "expires_in"); s != "" {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid token lifetime: %q", s)
		}
		result.TTL = time.Duration(secs) * time.Second
	}
	return result, nil
}

func stringValue(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// FirebaseUserID returns the ID of the signed in user, or an empty string if the ID token does
// not identify one.
//
// The claims of the ID token are decoded without verifying its signature.
func (r *SignInResult) FirebaseUserID() string {
	if r.IDToken == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(r.IDToken, claims); err != nil {
		return ""
	}
	for _, k := range []string{"sub", "localId", "user_id"} {
		if uid, ok := claims[k].(string); ok && uid != "" {
			return uid
		}
	}
	return ""
}

// AsTokenResponse returns the result as an OAuth 2.0 bearer token response.
func (r *SignInResult) AsTokenResponse() *TokenResponse {
	return &TokenResponse{
		TokenType:    "Bearer",
		AccessToken:  r.AccessToken,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    int64(r.TTL / time.Second),
	}
}
