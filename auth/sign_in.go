// Copyright 2020 Google Inc. All Rights Reserved.
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
	"net/url"

	"github.com/firebase/firebase-rest-go/internal"
)

const defaultIdpRequestURI = "http://localhost"

// SignIn is a sign-in action that can be passed to Client.SignIn.
//
// The set of sign-in actions is closed. Use one of SignInAnonymously, SignInWithCustomToken,
// SignInWithEmailAndPassword, SignInWithEmailAndOobCode, SignInWithIdpCredentials or
// SignInWithRefreshToken.
type SignIn interface {
	isSignIn()
}

// SignInAnonymously creates a new anonymous user and signs it in.
type SignInAnonymously struct {
	TenantID string
}

// SignInWithCustomToken signs in the user identified by a custom token minted with
// Client.CustomToken.
type SignInWithCustomToken struct {
	Token    string
	TenantID string
}

// SignInWithEmailAndPassword signs in a user with email and password credentials.
type SignInWithEmailAndPassword struct {
	Email    string
	Password string
	TenantID string
}

// SignInWithEmailAndOobCode signs in a user with the out-of-band code of an email link.
type SignInWithEmailAndOobCode struct {
	Email    string
	OobCode  string
	TenantID string
}

// SignInWithIdpCredentials signs in a user with credentials issued by a federated identity
// provider such as google.com or facebook.com.
type SignInWithIdpCredentials struct {
	Provider         string
	AccessToken      string
	IDToken          string
	OAuthTokenSecret string
	RawNonce         string

	// LinkingIDToken is the ID token of an existing user the IdP credential is linked to.
	LinkingIDToken string

	// RequestURI defaults to http://localhost.
	RequestURI string
	TenantID   string
}

// SignInWithRefreshToken exchanges a refresh token for a new ID token.
//
// Refresh tokens are already bound to a tenant, so this action does not take a tenant ID.
type SignInWithRefreshToken struct {
	RefreshToken string
}

func (SignInAnonymously) isSignIn()          {}
func (SignInWithCustomToken) isSignIn()      {}
func (SignInWithEmailAndPassword) isSignIn() {}
func (SignInWithEmailAndOobCode) isSignIn()  {}
func (SignInWithIdpCredentials) isSignIn()   {}
func (SignInWithRefreshToken) isSignIn()     {}

type signInHandler struct {
	hc        *internal.HTTPClient
	baseURL   string
	tokenURL  string
	projectID string
	tenantID  string
	emulator  bool
}

func (h *signInHandler) handle(ctx context.Context, action SignIn) (*SignInResult, error) {
	req, err := h.newRequest(action)
	if err != nil {
		return nil, err
	}

	req.SuccessFn = func(r *internal.Response) bool {
		return r.Status == http.StatusOK
	}
	req.CreateErrFn = handleSignInError

	resp, err := h.hc.Do(ctx, req)
	if err != nil {
		if internal.IsConnectionFailed(err) {
			return nil, wrapTransportError(err, failedToSignIn, "sign in failed")
		}
		return nil, err
	}
	result, err := newSignInResult(resp.Body)
	if err != nil {
		return nil, (&internal.FirebaseError{
			ErrorCode: internal.Unknown,
			String:    err.Error(),
			Response:  resp.LowLevelResponse(),
			Ext:       map[string]interface{}{authErrorCode: failedToSignIn},
		}).WithCause(err)
	}
	return result, nil
}

func (h *signInHandler) newRequest(action SignIn) (*internal.Request, error) {
	switch a := dereference(action).(type) {
	case SignInAnonymously:
		return h.accountsRequest("signUp", h.body(a.TenantID)), nil

	case SignInWithCustomToken:
		body := h.body(a.TenantID)
		body["token"] = a.Token
		return h.accountsRequest("signInWithCustomToken", body), nil

	case SignInWithEmailAndPassword:
		body := h.body(a.TenantID)
		body["email"] = a.Email
		body["password"] = a.Password
		return h.accountsRequest("signInWithPassword", body), nil

	case SignInWithEmailAndOobCode:
		body := h.body(a.TenantID)
		body["email"] = a.Email
		body["oobCode"] = a.OobCode
		return h.accountsRequest("signInWithEmailLink", body), nil

	case SignInWithIdpCredentials:
		return h.idpRequest(a), nil

	case SignInWithRefreshToken:
		return h.refreshRequest(a), nil

	default:
		return nil, &internal.FirebaseError{
			ErrorCode: internal.InvalidArgument,
			String:    fmt.Sprintf("sign-in handler does not support %T", action),
			Ext:       map[string]interface{}{authErrorCode: failedToSignIn},
		}
	}
}

// dereference returns the value form of a sign-in passed by pointer. Nil pointers are returned
// as is and rejected as unsupported.
func dereference(action SignIn) SignIn {
	switch a := action.(type) {
	case *SignInAnonymously:
		if a != nil {
			return *a
		}
	case *SignInWithCustomToken:
		if a != nil {
			return *a
		}
	case *SignInWithEmailAndPassword:
		if a != nil {
			return *a
		}
	case *SignInWithEmailAndOobCode:
		if a != nil {
			return *a
		}
	case *SignInWithIdpCredentials:
		if a != nil {
			return *a
		}
	case *SignInWithRefreshToken:
		if a != nil {
			return *a
		}
	}
	return action
}

func (h *signInHandler) body(tenantID string) map[string]interface{} {
	body := map[string]interface{}{
		"returnSecureToken": true,
		"targetProjectId":   h.projectID,
	}
	if tenantID == "" {
		tenantID = h.tenantID
	}
	if tenantID != "" {
		body["tenantId"] = tenantID
	}
	return body
}

func (h *signInHandler) accountsRequest(op string, body map[string]interface{}) *internal.Request {
	return &internal.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/accounts:%s", h.baseURL, op),
		Body:   internal.NewJSONEntity(body),
	}
}

func (h *signInHandler) idpRequest(a SignInWithIdpCredentials) *internal.Request {
	post := url.Values{}
	post.Set("providerId", a.Provider)
	if a.AccessToken != "" {
		post.Set("access_token", a.AccessToken)
	}
	if a.IDToken != "" {
		post.Set("id_token", a.IDToken)
	}
	if a.OAuthTokenSecret != "" {
		post.Set("oauth_token_secret", a.OAuthTokenSecret)
	}
	if a.RawNonce != "" {
		post.Set("nonce", a.RawNonce)
	}

	requestURI := a.RequestURI
	if requestURI == "" {
		requestURI = defaultIdpRequestURI
	}

	body := h.body(a.TenantID)
	body["postBody"] = post.Encode()
	body["returnIdpCredential"] = true
	body["requestUri"] = requestURI
	if a.LinkingIDToken != "" {
		body["idToken"] = a.LinkingIDToken
	}
	return h.accountsRequest("signInWithIdp", body)
}

func (h *signInHandler) refreshRequest(a SignInWithRefreshToken) *internal.Request {
	req := &internal.Request{
		Method: http.MethodPost,
		URL:    h.tokenURL,
		Body: internal.NewFormEntity(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {a.RefreshToken},
		}),
	}
	if h.emulator {
		req.Opts = append(req.Opts, internal.WithQueryParam("key", "any"))
	}
	return req
}
