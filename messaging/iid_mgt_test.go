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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/firebase/firebase-rest-go/errorutils"
	"github.com/google/go-cmp/cmp"
)

func TestImportAPNsTokens(t *testing.T) {
	var tr *http.Request
	var b []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr = r
		b, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"apns_token": "apns1", "status": "OK", "registration_token": "fcm1"},
			{"apns_token": "apns2", "status": "Internal Server Error"}
		]}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	got, err := client.ImportAPNsTokens(context.Background(), "com.example.app", true, []string{"apns1", "apns2"})
	if err != nil {
		t.Fatal(err)
	}

	want := []*RegistrationToken{
		{APNsToken: "apns1", Status: "OK", RegistrationToken: "fcm1"},
		{APNsToken: "apns2", Status: "Internal Server Error"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImportAPNsTokens() mismatch (-want +got):\n%s", diff)
	}

	if tr.URL.Path != "/iid/v1:batchImport" {
		t.Errorf("Path = %q; want = %q", tr.URL.Path, "/iid/v1:batchImport")
	}
	var body map[string]interface{}
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatal(err)
	}
	wantBody := map[string]interface{}{
		"application": "com.example.app",
		"sandbox":     true,
		"apns_tokens": []interface{}{"apns1", "apns2"},
	}
	if diff := cmp.Diff(wantBody, body); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
}

func TestImportAPNsTokensInvalid(t *testing.T) {
	client := newTestClient(t, "https://iid.example.com")
	cases := []struct {
		name        string
		application string
		tokens      []string
		want        string
	}{
		{"no application", "", []string{"t"}, "application id not specified"},
		{"no tokens", "app", nil, "tokens must not be nil or empty"},
		{"too many tokens", "app", make([]string, 101), "tokens must not contain more than 100 elements"},
	}
	for _, tc := range cases {
		_, err := client.ImportAPNsTokens(context.Background(), tc.application, false, tc.tokens)
		if err == nil || err.Error() != tc.want || !errorutils.IsInvalidArgument(err) {
			t.Errorf("ImportAPNsTokens(%s) = %v; want = %q", tc.name, err, tc.want)
		}
	}
}

func TestGetAppInstance(t *testing.T) {
	var tr *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"application": "com.example.app",
			"authorizedEntity": "123456",
			"platform": "ANDROID",
			"rel": {"topics": {"news": {"addDate": "2023-01-01"}}}
		}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	got, err := client.GetAppInstance(context.Background(), "token1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Application != "com.example.app" || got.Platform != "ANDROID" {
		t.Errorf("GetAppInstance() = %+v", got)
	}
	if got.Rel.Topics["news"].AddDate != "2023-01-01" {
		t.Errorf("Topics = %v; want news subscription", got.Rel.Topics)
	}
	if tr.URL.Path != "/iid/info/token1" || tr.URL.Query().Get("details") != "true" {
		t.Errorf("URL = %q; want = %q", tr.URL.String(), "/iid/info/token1?details=true")
	}

	if _, err := client.GetAppInstance(context.Background(), ""); !errorutils.IsInvalidArgument(err) {
		t.Errorf("GetAppInstance(\"\") = %v; want = InvalidArgument", err)
	}
}

func TestGetAppInstanceNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "NOT_FOUND"}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.GetAppInstance(context.Background(), "token1")
	if !IsNotFound(err) || !errorutils.IsNotFound(err) {
		t.Errorf("GetAppInstance() = %v; want = NotFound", err)
	}
}
