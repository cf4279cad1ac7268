// Copyright 2023 Google Inc. All Rights Reserved.
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

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	iidImport     = "batchImport"
	maxAPNsTokens = 100
)

// RegistrationToken maps an APNs token to the FCM registration token created for it.
type RegistrationToken struct {
	APNsToken         string `json:"apns_token"`
	Status            string `json:"status"`
	RegistrationToken string `json:"registration_token,omitempty"`
}

// Topics maps the topics a registration token is subscribed to onto their subscription dates.
type Topics map[string]struct {
	AddDate string `json:"addDate"`
}

// AppInstance describes the app instance a registration token belongs to.
type AppInstance struct {
	Application        string `json:"application"`
	ApplicationVersion string `json:"applicationVersion"`
	AuthorizedEntity   string `json:"authorizedEntity"`
	Platform           string `json:"platform"`
	Rel                struct {
		Topics Topics `json:"topics"`
	} `json:"rel"`
}

// ImportAPNsTokens creates FCM registration tokens for the given APNs tokens.
//
// At most 100 tokens can be imported per call. Set sandbox for tokens issued by the APNs
// development environment.
func (c *Client) ImportAPNsTokens(
	ctx context.Context, application string, sandbox bool, tokens []string) ([]*RegistrationToken, error) {

	if application == "" {
		return nil, invalidArgument("application id not specified")
	}
	if err := validateTokens(tokens, maxAPNsTokens); err != nil {
		return nil, invalidArgument("%v", err)
	}

	request := &internal.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s:%s", c.iidEndpoint, iidImport),
		Body: internal.NewJSONEntity(map[string]interface{}{
			"application": application,
			"sandbox":     sandbox,
			"apns_tokens": tokens,
		}),
		Opts:        []internal.HTTPOption{internal.WithHeader("access_token_auth", "true")},
		CreateErrFn: handleIIDError,
	}

	var result struct {
		Results []*RegistrationToken `json:"results"`
	}
	if _, err := c.hc.DoAndUnmarshal(ctx, request, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetAppInstance returns the details of the app instance the registration token belongs to,
// including its topic subscriptions.
func (c *Client) GetAppInstance(ctx context.Context, token string) (*AppInstance, error) {
	if token == "" {
		return nil, invalidArgument("registration token not specified")
	}

	infoURL := strings.Replace(c.iidEndpoint, "/iid/v1", "/iid/info", 1)
	request := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/%s", infoURL, url.PathEscape(token)),
		Opts: []internal.HTTPOption{
			internal.WithHeader("access_token_auth", "true"),
			internal.WithQueryParam("details", "true"),
		},
		CreateErrFn: handleIIDError,
	}

	var result AppInstance
	if _, err := c.hc.DoAndUnmarshal(ctx, request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
