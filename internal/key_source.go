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
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const keyRefreshTimeout = 10 * time.Second

// KeySource lazily fetches a JSON Web Key Set and resolves token signing keys from it. Keys
// with unknown IDs trigger a refresh, which covers key rotation on the server.
//
// Once fetched, the key set is refreshed by a background goroutine that runs until Close is
// called.
type KeySource struct {
	url string
	hc  *http.Client

	mu     sync.Mutex
	jwks   *keyfunc.JWKS
	closed bool
}

// NewKeySource creates a KeySource that fetches keys from the given URL.
func NewKeySource(url string, hc *http.Client) *KeySource {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &KeySource{url: url, hc: hc}
}

// Keyfunc returns the key lookup function for a JWT parser. The key set outlives any single
// verification, so its refreshes are not bound to a request context.
func (ks *KeySource) Keyfunc() (jwt.Keyfunc, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return nil, errors.New("key source is closed")
	}
	if ks.jwks == nil {
		jwks, err := keyfunc.Get(ks.url, keyfunc.Options{
			Client:            ks.hc,
			RefreshTimeout:    keyRefreshTimeout,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch public keys: %v", err)
		}
		ks.jwks = jwks
	}
	return ks.jwks.Keyfunc, nil
}

// Close stops the background refresh of the key set. Keyfunc fails after Close. Calling Close
// more than once is a no-op.
func (ks *KeySource) Close() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.jwks != nil {
		ks.jwks.EndBackground()
		ks.jwks = nil
	}
	ks.closed = true
}
