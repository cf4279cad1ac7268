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
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

const testJWKSKeyID = "key-source-test"

type jwksServer struct {
	srv  *httptest.Server
	hits int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{
			{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": testJWKSKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(pk.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pk.PublicKey.E)).Bytes()),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	s := &jwksServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	}))
	return s
}

func (s *jwksServer) count() int32 {
	return atomic.LoadInt32(&s.hits)
}

func TestKeySourceFetchesOnce(t *testing.T) {
	s := newJWKSServer(t)
	defer s.srv.Close()
	ks := NewKeySource(s.srv.URL, s.srv.Client())
	defer ks.Close()

	for i := 0; i < 2; i++ {
		kf, err := ks.Keyfunc()
		if err != nil {
			t.Fatalf("Keyfunc() = %v", err)
		}
		tok := &jwt.Token{Header: map[string]interface{}{"kid": testJWKSKeyID, "alg": "RS256"}}
		key, err := kf(tok)
		if err != nil {
			t.Fatalf("Keyfunc()(token) = %v", err)
		}
		if _, ok := key.(*rsa.PublicKey); !ok {
			t.Errorf("Keyfunc()(token) = %T; want = *rsa.PublicKey", key)
		}
	}
	if got := s.count(); got != 1 {
		t.Errorf("key set fetched %d times; want = 1", got)
	}
}

func TestKeySourceFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	ks := NewKeySource(ts.URL, ts.Client())
	defer ks.Close()

	if kf, err := ks.Keyfunc(); kf != nil || err == nil {
		t.Errorf("Keyfunc() = (%v, %v); want = (nil, error)", kf, err)
	}
}

func TestKeySourceClose(t *testing.T) {
	s := newJWKSServer(t)
	defer s.srv.Close()
	ks := NewKeySource(s.srv.URL, s.srv.Client())

	if _, err := ks.Keyfunc(); err != nil {
		t.Fatalf("Keyfunc() = %v", err)
	}
	ks.Close()
	ks.Close()

	kf, err := ks.Keyfunc()
	if kf != nil || err == nil || err.Error() != "key source is closed" {
		t.Errorf("Keyfunc() after Close() = (%v, %v); want = (nil, key source is closed)", kf, err)
	}
	if got := s.count(); got != 1 {
		t.Errorf("key set fetched %d times; want = 1", got)
	}
}

func TestKeySourceCloseBeforeFetch(t *testing.T) {
	s := newJWKSServer(t)
	defer s.srv.Close()
	ks := NewKeySource(s.srv.URL, nil)
	ks.Close()

	if _, err := ks.Keyfunc(); err == nil {
		t.Error("Keyfunc() = nil; want = error")
	}
	if got := s.count(); got != 0 {
		t.Errorf("key set fetched %d times; want = 0", got)
	}
}
