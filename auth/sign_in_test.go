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
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/firebase/firebase-rest-go/errorutils"
	"github.com/google/go-cmp/cmp"
)

const signInResponse = `{
	"idToken": "id-token",
	"refreshToken": "refresh-token",
	"expiresIn": "3600",
	"localId": "uid1"
}`

func TestSignInAccountsEndpoints(t *testing.T) {
	cases := []struct {
		name   string
		action SignIn
		path   string
		want   map[string]interface{}
	}{
		{
			name:   "Anonymous",
			action: SignInAnonymously{},
			path:   "/v1/accounts:signUp",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
			},
		},
		{
			name:   "AnonymousWithTenant",
			action: SignInAnonymously{TenantID: "tenant1"},
			path:   "/v1/accounts:signUp",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"tenantId":          "tenant1",
			},
		},
		{
			name:   "CustomToken",
			action: SignInWithCustomToken{Token: "custom-token"},
			path:   "/v1/accounts:signInWithCustomToken",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"token":             "custom-token",
			},
		},
		{
			name:   "EmailAndPassword",
			action: SignInWithEmailAndPassword{Email: "user@example.com", Password: "secret"},
			path:   "/v1/accounts:signInWithPassword",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"email":             "user@example.com",
				"password":          "secret",
			},
		},
		{
			name:   "EmailAndOobCode",
			action: SignInWithEmailAndOobCode{Email: "user@example.com", OobCode: "oob", TenantID: "tenant2"},
			path:   "/v1/accounts:signInWithEmailLink",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"tenantId":          "tenant2",
				"email":             "user@example.com",
				"oobCode":           "oob",
			},
		},
		{
			name:   "AnonymousByPointer",
			action: &SignInAnonymously{TenantID: "tenant1"},
			path:   "/v1/accounts:signUp",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"tenantId":          "tenant1",
			},
		},
		{
			name:   "EmailAndPasswordByPointer",
			action: &SignInWithEmailAndPassword{Email: "user@example.com", Password: "secret"},
			path:   "/v1/accounts:signInWithPassword",
			want: map[string]interface{}{
				"returnSecureToken": true,
				"targetProjectId":   testProjectID,
				"email":             "user@example.com",
				"password":          "secret",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := echoServer(signInResponse, t)
			defer s.Close()

			result, err := s.Client(t).SignIn(context.Background(), tc.action)
			if err != nil {
				t.Fatal(err)
			}
			if result.IDToken != "id-token" || result.RefreshToken != "refresh-token" {
				t.Errorf("SignIn() = %+v; want tokens from response", result)
			}

			r := s.Req[0]
			if r.Method != http.MethodPost || r.URL.Path != tc.path {
				t.Errorf("SignIn() = %s %s; want = POST %s", r.Method, r.URL.Path, tc.path)
			}
			if diff := cmp.Diff(tc.want, s.lastBody(t)); diff != "" {
				t.Errorf("Body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSignInWithIdpCredentials(t *testing.T) {
	s := echoServer(signInResponse, t)
	defer s.Close()

	action := SignInWithIdpCredentials{
		Provider:         "twitter.com",
		AccessToken:      "access",
		OAuthTokenSecret: "secret",
		RawNonce:         "nonce",
		LinkingIDToken:   "linked-id-token",
	}
	if _, err := s.Client(t).SignIn(context.Background(), action); err != nil {
		t.Fatal(err)
	}
	if s.Req[0].URL.Path != "/v1/accounts:signInWithIdp" {
		t.Errorf("Path = %q; want = %q", s.Req[0].URL.Path, "/v1/accounts:signInWithIdp")
	}

	body := s.lastBody(t)
	postBody, err := url.ParseQuery(body["postBody"].(string))
	if err != nil {
		t.Fatal(err)
	}
	wantPost := url.Values{
		"providerId":         {"twitter.com"},
		"access_token":       {"access"},
		"oauth_token_secret": {"secret"},
		"nonce":              {"nonce"},
	}
	if diff := cmp.Diff(wantPost, postBody); diff != "" {
		t.Errorf("postBody mismatch (-want +got):\n%s", diff)
	}

	delete(body, "postBody")
	want := map[string]interface{}{
		"returnSecureToken":   true,
		"returnIdpCredential": true,
		"targetProjectId":     testProjectID,
		"requestUri":          "http://localhost",
		"idToken":             "linked-id-token",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
}

func TestSignInWithRefreshToken(t *testing.T) {
	s := echoServer(`{
		"id_token": "id-token",
		"refresh_token": "new-refresh-token",
		"access_token": "access-token",
		"expires_in": "3600",
		"user_id": "uid1"
	}`, t)
	defer s.Close()

	result, err := s.Client(t).SignIn(context.Background(), SignInWithRefreshToken{RefreshToken: "refresh-token"})
	if err != nil {
		t.Fatal(err)
	}
	if result.RefreshToken != "new-refresh-token" || result.AccessToken != "access-token" {
		t.Errorf("SignIn() = %+v; want snake_case tokens", result)
	}
	if result.TTL != time.Hour {
		t.Errorf("TTL = %v; want = %v", result.TTL, time.Hour)
	}

	r := s.Req[0]
	if r.URL.Path != "/token" {
		t.Errorf("Path = %q; want = %q", r.URL.Path, "/token")
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q; want = %q", ct, "application/x-www-form-urlencoded")
	}
	form, err := url.ParseQuery(string(s.Bodies[0]))
	if err != nil {
		t.Fatal(err)
	}
	want := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"refresh-token"}}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Errorf("Form mismatch (-want +got):\n%s", diff)
	}
}

func TestSignInRefreshTokenEmulator(t *testing.T) {
	s := echoServer(`{"id_token": "id-token"}`, t)
	defer s.Close()

	client := s.Client(t)
	client.emulator = true
	if _, err := client.SignIn(context.Background(), SignInWithRefreshToken{RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}
	if key := s.Req[0].URL.Query().Get("key"); key != "any" {
		t.Errorf("key = %q; want = %q", key, "any")
	}
}

func TestSignInTenantClient(t *testing.T) {
	s := echoServer(signInResponse, t)
	defer s.Close()

	client := s.Client(t)
	client.tenantID = "client-tenant"
	if _, err := client.SignIn(context.Background(), SignInAnonymously{}); err != nil {
		t.Fatal(err)
	}
	if got := s.lastBody(t)["tenantId"]; got != "client-tenant" {
		t.Errorf("tenantId = %v; want = %q", got, "client-tenant")
	}

	if _, err := client.SignIn(context.Background(), SignInAnonymously{TenantID: "override"}); err != nil {
		t.Fatal(err)
	}
	if got := s.lastBody(t)["tenantId"]; got != "override" {
		t.Errorf("tenantId = %v; want = %q", got, "override")
	}
}

func TestSignInError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		resp   string
		want   string
		check  func(error) bool
	}{
		{
			name:   "WithMessage",
			status: http.StatusBadRequest,
			resp:   `{"error": {"code": 400, "message": "EMAIL_NOT_FOUND"}}`,
			want:   "EMAIL_NOT_FOUND",
			check:  errorutils.IsNotFound,
		},
		{
			name:   "NotJSON",
			status: http.StatusInternalServerError,
			resp:   "not json",
			want:   "failed to sign in",
			check:  errorutils.IsInternal,
		},
		{
			name:   "UnexpectedShape",
			status: http.StatusBadRequest,
			resp:   `{"error": "INVALID_PASSWORD"}`,
			want:   "failed to sign in",
			check:  errorutils.IsInvalidArgument,
		},
		{
			name:   "NonOKSuccessStatus",
			status: http.StatusNoContent,
			resp:   "",
			want:   "failed to sign in",
			check:  IsFailedToSignIn,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := echoServer(tc.resp, t)
			defer s.Close()
			s.Status = tc.status

			result, err := s.Client(t).SignIn(context.Background(), SignInAnonymously{})
			if result != nil || err == nil || err.Error() != tc.want {
				t.Fatalf("SignIn() = (%v, %v); want = (nil, %q)", result, err, tc.want)
			}
			if !IsFailedToSignIn(err) || !tc.check(err) {
				t.Errorf("SignIn() = %v; want FailedToSignIn error", err)
			}
		})
	}
}

func TestSignInConnectionError(t *testing.T) {
	s := echoServer(signInResponse, t)
	client := s.Client(t)
	s.Close()

	_, err := client.SignIn(context.Background(), SignInAnonymously{})
	if !IsFailedToSignIn(err) || !errorutils.IsConnectionFailed(err) {
		t.Errorf("SignIn() = %v; want FailedToSignIn connection error", err)
	}
}

type unsupportedSignIn struct{}

func (unsupportedSignIn) isSignIn() {}

func TestSignInUnsupported(t *testing.T) {
	s := echoServer(signInResponse, t)
	defer s.Close()

	_, err := s.Client(t).SignIn(context.Background(), unsupportedSignIn{})
	want := "sign-in handler does not support auth.unsupportedSignIn"
	if err == nil || err.Error() != want || !IsFailedToSignIn(err) {
		t.Errorf("SignIn() = %v; want = %q", err, want)
	}
	if len(s.Req) != 0 {
		t.Errorf("Requests = %d; want = 0", len(s.Req))
	}
}

func TestSignInRefreshTokenByPointer(t *testing.T) {
	s := echoServer(`{"id_token": "id-token", "refresh_token": "new-refresh", "expires_in": "3600"}`, t)
	defer s.Close()

	result, err := s.Client(t).SignIn(context.Background(), &SignInWithRefreshToken{RefreshToken: "refresh"})
	if err != nil {
		t.Fatal(err)
	}
	if result.RefreshToken != "new-refresh" || result.TTL != time.Hour {
		t.Errorf("SignIn() = %+v; want tokens from response", result)
	}
	if got := s.Req[0].Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q; want = form encoded", got)
	}
}

func TestSignInNilPointer(t *testing.T) {
	s := echoServer(signInResponse, t)
	defer s.Close()

	_, err := s.Client(t).SignIn(context.Background(), (*SignInWithEmailAndPassword)(nil))
	want := "sign-in handler does not support *auth.SignInWithEmailAndPassword"
	if err == nil || err.Error() != want || !IsFailedToSignIn(err) {
		t.Errorf("SignIn(nil) = %v; want = %q", err, want)
	}
	if len(s.Req) != 0 {
		t.Errorf("Requests = %d; want = 0", len(s.Req))
	}
}

func TestSignInUnexpectedPayload(t *testing.T) {
	cases := []struct {
		name string
		resp string
	}{
		{"NotJSON", "not json"},
		{"Array", `["id-token"]`},
		{"Null", "null"},
		{"InvalidLifetime", `{"idToken": "id-token", "expiresIn": "soon"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := echoServer(tc.resp, t)
			defer s.Close()

			result, err := s.Client(t).SignIn(context.Background(), SignInAnonymously{})
			if result != nil || err == nil {
				t.Fatalf("SignIn() = (%v, %v); want = (nil, error)", result, err)
			}
			if !IsFailedToSignIn(err) || !errorutils.IsUnknown(err) {
				t.Errorf("SignIn() = %v; want FailedToSignIn error", err)
			}
			if errors.Unwrap(err) == nil {
				t.Errorf("SignIn() = %v; want the parse error as cause", err)
			}
			if resp := errorutils.HTTPResponse(err); resp == nil || resp.StatusCode != http.StatusOK {
				t.Errorf("HTTPResponse() = %v; want = 200 response", resp)
			}
		})
	}
}
