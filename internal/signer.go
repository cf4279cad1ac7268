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

package internal

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNotServiceAccount is returned when a signer is requested for credentials that do not
// carry a service account private key.
var ErrNotServiceAccount = errors.New("credential is not a service account")

// ServiceAccountSigner signs JWTs with the private key of a service account.
type ServiceAccountSigner struct {
	email string
	pk    *rsa.PrivateKey
}

// NewServiceAccountSigner creates a signer from the JSON contents of a service account key file.
func NewServiceAccountSigner(credJSON []byte) (*ServiceAccountSigner, error) {
	if len(credJSON) == 0 {
		return nil, ErrNotServiceAccount
	}

	var sa struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(credJSON, &sa); err != nil {
		return nil, err
	}
	if sa.Type != "service_account" || sa.PrivateKey == "" {
		return nil, ErrNotServiceAccount
	}
	if sa.ClientEmail == "" {
		return nil, errors.New("service account email not available")
	}

	pk, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("private key should be a PEM encoded PKCS1 or PKCS8 key: %v", err)
	}
	return &ServiceAccountSigner{email: sa.ClientEmail, pk: pk}, nil
}

// Email returns the client email of the service account.
func (s *ServiceAccountSigner) Email() string {
	return s.email
}

// Sign encodes the claims as an RS256 JWT signed with the service account key.
func (s *ServiceAccountSigner) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.pk)
}
