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

// Package auth contains functions for signing in users, minting and verifying Firebase Auth
// tokens, and managing user accounts.
package auth // import "github.com/firebase/firebase-rest-go/auth"

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/firebase/firebase-rest-go/internal"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

const (
	defaultIDToolkitV1Endpoint = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenEndpoint = "https://securetoken.googleapis.com/v1/token"
	idTokenCertURL             = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	emulatorHostEnvVar   = "FIREBASE_AUTH_EMULATOR_HOST"
	emulatorToken        = "owner"
	firebaseClientHeader = "X-Firebase-Client"
)

var authScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Client is the interface for the Firebase auth service.
//
// Client facilitates signing in users, generating custom tokens for Firebase clients, verifying
// ID tokens issued to Firebase clients, and deleting user accounts in bulk.
type Client struct {
	hc        *internal.HTTPClient
	baseURL   string
	tokenURL  string
	projectID string
	tenantID  string
	signer    *internal.ServiceAccountSigner
	keys      *internal.KeySource
	clock     internal.Clock
	emulator  bool
}

// NewClient creates a new instance of the Firebase Auth Client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// Auth service through firebase.App.
func NewClient(ctx context.Context, conf *internal.AuthConfig) (*Client, error) {
	if conf.ProjectID == "" {
		return nil, &internal.FirebaseError{
			ErrorCode: internal.InvalidArgument,
			String:    "project id is required to access the auth service",
		}
	}

	emulatorHost := os.Getenv(emulatorHostEnvVar)
	creds := conf.Creds

	var hc internal.HTTPClient
	switch {
	case conf.HTTPClient != nil:
		hc = *conf.HTTPClient
	case emulatorHost != "":
		client, err := internal.NewHTTPClient(ctx, conf.ClientOptions,
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: emulatorToken}))
		if err != nil {
			return nil, err
		}
		hc = *client
	default:
		o := append([]option.ClientOption{option.WithScopes(authScopes...)}, conf.Opts...)
		found, err := transport.Creds(ctx, o...)
		if err != nil {
			return nil, err
		}
		if creds == nil {
			creds = found
		}
		client, err := internal.NewHTTPClient(ctx, conf.ClientOptions, found.TokenSource)
		if err != nil {
			return nil, err
		}
		hc = *client
	}

	var signer *internal.ServiceAccountSigner
	if creds != nil {
		s, err := internal.NewServiceAccountSigner(creds.JSON)
		if err != nil && !errors.Is(err, internal.ErrNotServiceAccount) {
			return nil, err
		}
		signer = s
	}

	hc.CreateErrFn = handleAuthError
	hc.SuccessFn = internal.HasSuccessStatus
	hc.Opts = append(append([]internal.HTTPOption{}, hc.Opts...),
		internal.WithHeader(firebaseClientHeader, fmt.Sprintf("fire-rest-go/%s", conf.Version)))

	client := &Client{
		hc:        &hc,
		baseURL:   defaultIDToolkitV1Endpoint,
		tokenURL:  defaultSecureTokenEndpoint,
		projectID: conf.ProjectID,
		tenantID:  conf.TenantID,
		signer:    signer,
		keys:      internal.NewKeySource(idTokenCertURL, http.DefaultClient),
		clock:     &internal.SystemClock{},
	}
	if emulatorHost != "" {
		client.baseURL = fmt.Sprintf("http://%s/identitytoolkit.googleapis.com/v1", emulatorHost)
		client.tokenURL = fmt.Sprintf("http://%s/securetoken.googleapis.com/v1/token", emulatorHost)
		client.emulator = true
	}
	return client, nil
}

// Close stops the background refresh of the public keys used by VerifyIDToken. The client must
// not be used to verify tokens afterwards.
func (c *Client) Close() {
	c.keys.Close()
}

// TenantID returns the ID of the tenant this client is scoped to, or an empty string for the
// project-level client.
func (c *Client) TenantID() string {
	return c.tenantID
}

// projectURL returns the project (and tenant) scoped resource URL of the Identity Toolkit API.
func (c *Client) projectURL() string {
	url := fmt.Sprintf("%s/projects/%s", c.baseURL, c.projectID)
	if c.tenantID != "" {
		url = fmt.Sprintf("%s/tenants/%s", url, c.tenantID)
	}
	return url
}

// SignIn signs a user in with the given sign-in action, and returns the tokens issued for the
// user.
func (c *Client) SignIn(ctx context.Context, action SignIn) (*SignInResult, error) {
	h := &signInHandler{
		hc:        c.hc,
		baseURL:   c.baseURL,
		tokenURL:  c.tokenURL,
		projectID: c.projectID,
		tenantID:  c.tenantID,
		emulator:  c.emulator,
	}
	return h.handle(ctx, action)
}
