// Copyright 2019 Google Inc. All Rights Reserved.
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

// Package identityplatform contains functions for managing the inbound SAML, OIDC and built-in
// identity provider configurations of a Firebase project.
package identityplatform // import "github.com/firebase/firebase-rest-go/identityplatform"

import (
	"context"
	"fmt"

	"github.com/firebase/firebase-rest-go/internal"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

const (
	providerConfigEndpoint = "https://identitytoolkit.googleapis.com/v2"
	firebaseClientHeader   = "X-Firebase-Client"
)

var identityPlatformScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/identitytoolkit",
}

// Client is the interface for managing identity provider configurations.
type Client struct {
	endpoint  string
	projectID string
	tenantID  string
	hc        *internal.HTTPClient
}

// NewClient creates a new instance of the Identity Platform Client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// Identity Platform service through firebase.App.
func NewClient(ctx context.Context, conf *internal.IdentityPlatformConfig) (*Client, error) {
	var hc internal.HTTPClient
	if conf.HTTPClient != nil {
		hc = *conf.HTTPClient
	} else {
		o := append([]option.ClientOption{option.WithScopes(identityPlatformScopes...)}, conf.Opts...)
		creds, err := transport.Creds(ctx, o...)
		if err != nil {
			return nil, err
		}
		client, err := internal.NewHTTPClient(ctx, conf.ClientOptions, creds.TokenSource)
		if err != nil {
			return nil, err
		}
		hc = *client
	}

	hc.CreateErrFn = handleIdentityPlatformError
	hc.SuccessFn = internal.HasSuccessStatus
	hc.Opts = append(append([]internal.HTTPOption{}, hc.Opts...),
		internal.WithHeader(firebaseClientHeader, fmt.Sprintf("fire-rest-go/%s", conf.Version)))

	return &Client{
		endpoint:  providerConfigEndpoint,
		projectID: conf.ProjectID,
		tenantID:  conf.TenantID,
		hc:        &hc,
	}, nil
}

// makeRequest resolves the request path against the project (and tenant) resource, and sends
// the request.
func (c *Client) makeRequest(ctx context.Context, req *internal.Request, v interface{}) (*internal.Response, error) {
	if c.projectID == "" {
		return nil, &internal.FirebaseError{
			ErrorCode: internal.FailedPrecondition,
			String:    "project id must be specified for this api call",
			Ext:       map[string]interface{}{identityPlatformErrorCode: identityPlatformError},
		}
	}

	prefix := fmt.Sprintf("%s/projects/%s", c.endpoint, c.projectID)
	if c.tenantID != "" {
		prefix = fmt.Sprintf("%s/tenants/%s", prefix, c.tenantID)
	}
	req.URL = prefix + req.URL
	return c.hc.DoAndUnmarshal(ctx, req, v)
}
