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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

func serviceAccountJSON(t *testing.T, email string) ([]byte, *rsa.PrivateKey) {
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	b, err := x509.MarshalPKCS8PrivateKey(pk)
	if err != nil {
		t.Fatal(err)
	}
	sa, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": email,
		"private_key":  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: b})),
	})
	if err != nil {
		t.Fatal(err)
	}
	return sa, pk
}

func TestServiceAccountSigner(t *testing.T) {
	sa, pk := serviceAccountJSON(t, "test@example.iam.gserviceaccount.com")
	signer, err := NewServiceAccountSigner(sa)
	if err != nil {
		t.Fatal(err)
	}
	if signer.Email() != "test@example.iam.gserviceaccount.com" {
		t.Errorf("Email() = %q; want = %q", signer.Email(), "test@example.iam.gserviceaccount.com")
	}

	token, err := signer.Sign(jwt.MapClaims{"uid": "user1"})
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return &pk.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Header["typ"] != "JWT" {
		t.Errorf("typ = %v; want = JWT", parsed.Header["typ"])
	}
	if uid := parsed.Claims.(jwt.MapClaims)["uid"]; uid != "user1" {
		t.Errorf("uid = %v; want = user1", uid)
	}
}

func TestServiceAccountSignerInvalid(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"Empty", ""},
		{"AuthorizedUser", `{"type": "authorized_user", "client_id": "foo"}`},
		{"NoPrivateKey", `{"type": "service_account", "client_email": "foo@bar"}`},
		{"NoEmail", `{"type": "service_account", "private_key": "key"}`},
		{"BadKey", `{"type": "service_account", "client_email": "foo@bar", "private_key": "key"}`},
	}
	for _, tc := range cases {
		if s, err := NewServiceAccountSigner([]byte(tc.json)); s != nil || err == nil {
			t.Errorf("NewServiceAccountSigner(%s) = (%v, %v); want = (nil, error)", tc.name, s, err)
		}
	}
}
