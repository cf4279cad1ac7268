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
	"net/http"
	"testing"
	"time"

	"github.com/firebase/firebase-rest-go/errorutils"
	"github.com/google/go-cmp/cmp"
)

func TestCreateSessionCookie(t *testing.T) {
	s := echoServer(`{"sessionCookie": "expectedCookie"}`, t)
	defer s.Close()

	client := s.Client(t)
	cookie, err := client.CreateSessionCookie(context.Background(), "idToken", 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if cookie != "expectedCookie" {
		t.Errorf("CreateSessionCookie() = %q; want = %q", cookie, "expectedCookie")
	}

	r := s.Req[0]
	wantPath := "/v1/projects/" + testProjectID + ":createSessionCookie"
	if r.Method != http.MethodPost || r.URL.Path != wantPath {
		t.Errorf("CreateSessionCookie() = %s %s; want = POST %s", r.Method, r.URL.Path, wantPath)
	}
	want := map[string]interface{}{
		"idToken":       "idToken",
		"validDuration": float64(600),
	}
	if diff := cmp.Diff(want, s.lastBody(t)); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateSessionCookieTenant(t *testing.T) {
	s := echoServer(`{"sessionCookie": "expectedCookie"}`, t)
	defer s.Close()

	client := s.Client(t)
	client.tenantID = "tenant1"
	if _, err := client.CreateSessionCookie(context.Background(), "idToken", time.Hour); err != nil {
		t.Fatal(err)
	}
	wantPath := "/v1/projects/" + testProjectID + "/tenants/tenant1:createSessionCookie"
	if s.Req[0].URL.Path != wantPath {
		t.Errorf("Path = %q; want = %q", s.Req[0].URL.Path, wantPath)
	}
}

func TestCreateSessionCookieInvalid(t *testing.T) {
	s := echoServer(`{"sessionCookie": "expectedCookie"}`, t)
	defer s.Close()

	client := s.Client(t)
	cases := []struct {
		name      string
		idToken   string
		expiresIn time.Duration
		want      string
	}{
		{"NoIDToken", "", time.Hour, "id token must not be empty"},
		{"Negative", "idToken", -time.Minute, "a session cookie cannot be valid for a negative amount of time"},
		{"TooShort", "idToken", 4*time.Minute + 59*time.Second, "the ttl of a session must be between 5 minutes and 14 days"},
		{"TooLong", "idToken", 14*24*time.Hour + time.Second, "the ttl of a session must be between 5 minutes and 14 days"},
	}
	for _, tc := range cases {
		cookie, err := client.CreateSessionCookie(context.Background(), tc.idToken, tc.expiresIn)
		if cookie != "" || err == nil || err.Error() != tc.want || !errorutils.IsInvalidArgument(err) {
			t.Errorf("CreateSessionCookie(%s) = (%q, %v); want = (\"\", %q)", tc.name, cookie, err, tc.want)
		}
	}
	if len(s.Req) != 0 {
		t.Errorf("Requests = %d; want = 0", len(s.Req))
	}

	for _, d := range []time.Duration{5 * time.Minute, 14 * 24 * time.Hour} {
		if _, err := client.CreateSessionCookie(context.Background(), "idToken", d); err != nil {
			t.Errorf("CreateSessionCookie(%v) = %v; want = nil", d, err)
		}
	}
}

func TestCreateSessionCookieError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		resp   string
		want   string
	}{
		{"WithMessage", http.StatusBadRequest, `{"error": {"message": "INVALID_ID_TOKEN"}}`, "INVALID_ID_TOKEN"},
		{"NotJSON", http.StatusInternalServerError, "oops", "failed to create session cookie"},
		{"NoCookie", http.StatusOK, `{}`, "the response did not contain a session cookie"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := echoServer(tc.resp, t)
			defer s.Close()
			s.Status = tc.status

			cookie, err := s.Client(t).CreateSessionCookie(context.Background(), "idToken", time.Hour)
			if cookie != "" || err == nil || err.Error() != tc.want || !IsFailedToCreateSessionCookie(err) {
				t.Errorf("CreateSessionCookie() = (%q, %v); want = (\"\", %q)", cookie, err, tc.want)
			}
		})
	}
}
