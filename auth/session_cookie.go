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

package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	minSessionCookieDuration = 5 * time.Minute
	maxSessionCookieDuration = 14 * 24 * time.Hour
)

// CreateSessionCookie creates a new Firebase session cookie from the given ID token and expiry
// duration.
//
// The returned cookie can be used to authenticate a user on the server side. The expiry must be
// between 5 minutes and 14 days.
func (c *Client) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if idToken == "" {
		return "", invalidArgument("id token must not be empty")
	}
	if expiresIn < 0 {
		return "", invalidArgument("a session cookie cannot be valid for a negative amount of time")
	}
	if expiresIn < minSessionCookieDuration || expiresIn > maxSessionCookieDuration {
		return "", invalidArgument("the ttl of a session must be between 5 minutes and 14 days")
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s:createSessionCookie", c.projectURL()),
		Body: internal.NewJSONEntity(map[string]interface{}{
			"idToken":       idToken,
			"validDuration": int64(expiresIn.Seconds()),
		}),
		CreateErrFn: handleSessionCookieError,
	}

	var result struct {
		SessionCookie string `json:"sessionCookie"`
	}
	if _, err := c.hc.DoAndUnmarshal(ctx, req, &result); err != nil {
		if internal.IsConnectionFailed(err) {
			return "", wrapTransportError(err, failedToCreateSessionCookie, "failed to create session cookie")
		}
		return "", err
	}
	if result.SessionCookie == "" {
		return "", &internal.FirebaseError{
			ErrorCode: internal.Unknown,
			String:    "the response did not contain a session cookie",
			Ext:       map[string]interface{}{authErrorCode: failedToCreateSessionCookie},
		}
	}
	return result.SessionCookie, nil
}
