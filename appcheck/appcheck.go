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

// Package appcheck provides functionality for creating and verifying App Check tokens.
package appcheck // import "github.com/firebase/firebase-rest-go/appcheck"

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/firebase/firebase-rest-go/internal"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

const (
	appCheckEndpoint     = "https://firebaseappcheck.googleapis.com/v1"
	firebaseClientHeader = "X-Firebase-Client"

	// Audience of the custom tokens exchanged for App Check tokens.
	tokenExchangeAudience = "https://firebaseappcheck.googleapis.com/google.firebase.appcheck.v1.TokenExchangeService"
	customTokenDuration   = 5 * time.Minute
)

var (
	// JWKSUrl is the URL of the JSON Web Key Set used to sign App Check tokens.
	JWKSUrl = "https://firebaseappcheck.googleapis.com/v1/jwks"

	appCheckScopes = []string{
		"https://www.googleapis.com/auth/cloud-platform",
		"https://www.googleapis.com/auth/firebase",
	}
)

// Client is the interface for the Firebase App Check service.
type Client struct {
	projectID string
	endpoint  string
	hc        *internal.HTTPClient
	signer    *internal.ServiceAccountSigner
	keys      *internal.KeySource
	clock     internal.Clock
}

// NewClient creates a new App Check client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// App Check service through firebase.App.
func NewClient(ctx context.Context, conf *internal.AppCheckConfig) (*Client, error) {
	creds := conf.Creds
	var hc internal.HTTPClient
	if conf.HTTPClient != nil {
		hc = *conf.HTTPClient
	} else {
		o := append([]option.ClientOption{option.WithScopes(appCheckScopes...)}, conf.Opts...)
		found, err := transport.Creds(ctx, o...)
		if err != nil {
			return nil, err
		}
		client, err := internal.NewHTTPClient(ctx, conf.ClientOptions, found.TokenSource)
		if err != nil {
			return nil, err
		}
		hc = *client
		if creds == nil {
			creds = found
		}
	}

	signer, err := newSigner(creds)
	if err != nil {
		return nil, err
	}

	hc.CreateErrFn = handleAppCheckError
	hc.SuccessFn = internal.HasSuccessStatus
	hc.Opts = append(append([]internal.HTTPOption{}, hc.Opts...),
		internal.WithHeader(firebaseClientHeader, fmt.Sprintf("fire-rest-go/%s", conf.Version)))

	return &Client{
		projectID: conf.ProjectID,
		endpoint:  appCheckEndpoint,
		hc:        &hc,
		signer:    signer,
		keys:      internal.NewKeySource(JWKSUrl, http.DefaultClient),
		clock:     &internal.SystemClock{},
	}, nil
}

func newSigner(creds *google.Credentials) (*internal.ServiceAccountSigner, error) {
	if creds == nil {
		return nil, nil
	}
	signer, err := internal.NewServiceAccountSigner(creds.JSON)
	if errors.Is(err, internal.ErrNotServiceAccount) {
		return nil, nil
	}
	return signer, err
}

// Token is an App Check token issued by the token exchange service.
type Token struct {
	Token string
	TTL   time.Duration
}

// Close stops the background refresh of the public keys used by VerifyToken.
func (c *Client) Close() {
	c.keys.Close()
}

// CreateToken creates a new App Check token for the given app.
//
// The returned token is valid for the given ttl. A zero ttl lets the service apply the ttl
// configured for the app.
func (c *Client) CreateToken(ctx context.Context, appID string, ttl time.Duration) (*Token, error) {
	if appID == "" {
		return nil, invalidArgument("app id must be a non-empty string")
	}
	if ttl < 0 {
		return nil, invalidArgument("ttl must not be negative")
	}
	if c.signer == nil {
		return nil, invalidArgument("app check tokens can only be created with service account credentials")
	}
	if c.projectID == "" {
		return nil, invalidArgument("project id is required to create app check tokens")
	}

	customToken, err := c.customToken(appID, ttl)
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/projects/%s/apps/%s:exchangeCustomToken", c.endpoint, c.projectID, appID),
		Body: internal.NewJSONEntity(map[string]string{
			"customToken": customToken,
		}),
	}
	var result struct {
		Token string `json:"token"`
		TTL   string `json:"ttl"`
	}
	if _, err := c.hc.DoAndUnmarshal(ctx, req, &result); err != nil {
		return nil, err
	}

	token := &Token{Token: result.Token}
	if result.TTL != "" {
		if token.TTL, err = time.ParseDuration(result.TTL); err != nil {
			return nil, fmt.Errorf("failed to parse token ttl %q: %v", result.TTL, err)
		}
	}
	return token, nil
}

func (c *Client) customToken(appID string, ttl time.Duration) (string, error) {
	iat := c.clock.Now().Unix()
	claims := jwt.MapClaims{
		"iss":    c.signer.Email(),
		"sub":    c.signer.Email(),
		"app_id": appID,
		"aud":    tokenExchangeAudience,
		"iat":    iat,
		"exp":    iat + int64(customTokenDuration.Seconds()),
	}
	if ttl > 0 {
		claims["ttl"] = fmt.Sprintf("%ds", int64(ttl.Seconds()))
	}
	return c.signer.Sign(claims)
}
