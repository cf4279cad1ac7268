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

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/firebase-rest-go/internal"
	"github.com/golang-jwt/jwt/v4"
)

const (
	idTokenIssuerPrefix = "https://securetoken.google.com/"
	idTokenDocsMessage  = "See https://firebase.google.com/docs/auth/admin/verify-id-tokens for details " +
		"on how to retrieve a valid ID token."
)

// Token represents a decoded and verified Firebase ID token.
type Token struct {
	AuthTime int64                  `json:"auth_time"`
	Issuer   string                 `json:"iss"`
	Audience string                 `json:"aud"`
	Expires  int64                  `json:"exp"`
	IssuedAt int64                  `json:"iat"`
	Subject  string                 `json:"sub,omitempty"`
	UID      string                 `json:"uid,omitempty"`
	TenantID string                 `json:"-"`
	Claims   map[string]interface{} `json:"-"`
}

// VerifyIDToken verifies the signature and payload of the provided ID token.
//
// VerifyIDToken accepts a signed JWT token string, and verifies that it is current, issued for
// the correct Firebase project, and signed by the Google Firebase services in the cloud. It
// returns a Token containing the decoded claims in the input JWT.
//
// Tokens issued by the Auth emulator are not signed. Their signatures are not checked when the
// client is connected to the emulator.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	if idToken == "" {
		return nil, invalidIDToken("id token must be a non-empty string")
	}

	claims := jwt.MapClaims{}
	if c.emulator {
		if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
			return nil, invalidIDToken("%v", err)
		}
	} else {
		kf, err := c.keys.Keyfunc()
		if err != nil {
			return nil, err
		}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if _, err := parser.ParseWithClaims(idToken, claims, kf); err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, (&internal.FirebaseError{
					ErrorCode: internal.InvalidArgument,
					String:    "id token has expired",
					Ext:       map[string]interface{}{authErrorCode: idTokenExpired},
				}).WithCause(err)
			}
			return nil, invalidIDToken("failed to verify id token signature: %v", err)
		}
	}

	return c.verifyClaims(claims)
}

func (c *Client) verifyClaims(claims jwt.MapClaims) (*Token, error) {
	projectIDMsg := "Make sure the ID token comes from the same Firebase project as the credential " +
		"used to authenticate this SDK."
	issuer := idTokenIssuerPrefix + c.projectID
	if !claims.VerifyAudience(c.projectID, true) {
		return nil, invalidIDToken("id token has invalid 'aud' (audience) claim; expected %q but got %v; %s %s",
			c.projectID, claims["aud"], projectIDMsg, idTokenDocsMessage)
	}
	if !claims.VerifyIssuer(issuer, true) {
		return nil, invalidIDToken("id token has invalid 'iss' (issuer) claim; expected %q but got %v; %s %s",
			issuer, claims["iss"], projectIDMsg, idTokenDocsMessage)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, invalidIDToken("id token has empty 'sub' (subject) claim; %s", idTokenDocsMessage)
	}
	if len(sub) > maxUIDLength {
		return nil, invalidIDToken("id token has a 'sub' (subject) claim longer than %d characters; %s",
			maxUIDLength, idTokenDocsMessage)
	}

	token := &Token{
		AuthTime: int64Claim(claims, "auth_time"),
		Issuer:   issuer,
		Audience: c.projectID,
		Expires:  int64Claim(claims, "exp"),
		IssuedAt: int64Claim(claims, "iat"),
		Subject:  sub,
		UID:      sub,
		Claims:   map[string]interface{}{},
	}
	if fb, ok := claims["firebase"].(map[string]interface{}); ok {
		token.TenantID, _ = fb["tenant"].(string)
	}
	if c.tenantID != "" && token.TenantID != c.tenantID {
		return nil, invalidIDToken("invalid tenant id: %q", token.TenantID)
	}

	for k, v := range claims {
		switch k {
		case "auth_time", "iss", "aud", "exp", "iat", "sub", "uid":
		default:
			token.Claims[k] = v
		}
	}
	return token, nil
}

func int64Claim(claims jwt.MapClaims, key string) int64 {
	if f, ok := claims[key].(float64); ok {
		return int64(f)
	}
	return 0
}

func invalidIDToken(format string, args ...interface{}) error {
	return &internal.FirebaseError{
		ErrorCode: internal.InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       map[string]interface{}{authErrorCode: idTokenInvalid},
	}
}
