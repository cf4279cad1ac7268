// Copyright 2018 Google Inc. All Rights Reserved.
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
	"strings"
	"testing"
	"time"

	"github.com/firebase/firebase-rest-go/errorutils"
	"github.com/firebase/firebase-rest-go/internal"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/option"
)

const testMessageID = "projects/test-project/messages/msg_id"

var testMessagingConfig = &internal.MessagingConfig{
	ProjectID: "test-project",
	Opts: []option.ClientOption{
		option.WithTokenSource(&internal.MockTokenSource{AccessToken: "test-token"}),
	},
	Version: "test-version",
}

var ttlWithNanos = time.Duration(1500) * time.Millisecond
var ttl = time.Duration(10) * time.Second
var badge = 42

var validMessages = []struct {
	name string
	req  *Message
	want map[string]interface{}
}{
	{
		name: "token only",
		req:  &Message{Token: "test-token"},
		want: map[string]interface{}{"token": "test-token"},
	},
	{
		name: "prefixed topic",
		req:  &Message{Topic: "/topics/test-topic"},
		want: map[string]interface{}{"topic": "test-topic"},
	},
	{
		name: "condition with data",
		req: &Message{
			Condition: "'a' in topics",
			Data:      map[string]string{"k1": "v1"},
		},
		want: map[string]interface{}{
			"condition": "'a' in topics",
			"data":      map[string]interface{}{"k1": "v1"},
		},
	},
	{
		name: "android ttl with nanos",
		req: &Message{
			Android: &AndroidConfig{
				Priority: "high",
				TTL:      &ttlWithNanos,
				Notification: &AndroidNotification{
					Color:       "#112233",
					BodyLocKey:  "blk",
					BodyLocArgs: []string{"arg"},
				},
			},
			Topic: "test-topic",
		},
		want: map[string]interface{}{
			"android": map[string]interface{}{
				"priority": "high",
				"ttl":      "1.500000000s",
				"notification": map[string]interface{}{
					"color":         "#112233",
					"body_loc_key":  "blk",
					"body_loc_args": []interface{}{"arg"},
				},
			},
			"topic": "test-topic",
		},
	},
	{
		name: "android ttl",
		req: &Message{
			Android: &AndroidConfig{TTL: &ttl},
			Token:   "test-token",
		},
		want: map[string]interface{}{
			"android": map[string]interface{}{"ttl": "10s"},
			"token":   "test-token",
		},
	},
	{
		name: "webpush custom data",
		req: &Message{
			Webpush: &WebpushConfig{
				Headers: map[string]string{"Urgency": "high"},
				Notification: &WebpushNotification{
					Title:      "t",
					Direction:  "ltr",
					CustomData: map[string]interface{}{"k": "v"},
				},
			},
			Token: "test-token",
		},
		want: map[string]interface{}{
			"webpush": map[string]interface{}{
				"headers":      map[string]interface{}{"Urgency": "high"},
				"notification": map[string]interface{}{"title": "t", "dir": "ltr", "k": "v"},
			},
			"token": "test-token",
		},
	},
	{
		name: "apns",
		req: &Message{
			APNS: &APNSConfig{
				Headers: map[string]string{"apns-priority": "10"},
				Payload: &APNSPayload{
					Aps: &Aps{
						Alert:            &ApsAlert{Title: "t", LocKey: "lk", LocArgs: []string{"a"}},
						Badge:            &badge,
						ContentAvailable: true,
						CustomData:       map[string]interface{}{"ck": "cv"},
					},
					CustomData: map[string]interface{}{"outer": "value"},
				},
			},
			Topic: "test-topic",
		},
		want: map[string]interface{}{
			"apns": map[string]interface{}{
				"headers": map[string]interface{}{"apns-priority": "10"},
				"payload": map[string]interface{}{
					"aps": map[string]interface{}{
						"alert":             map[string]interface{}{"title": "t", "loc-key": "lk", "loc-args": []interface{}{"a"}},
						"badge":             float64(42),
						"content-available": float64(1),
						"ck":                "cv",
					},
					"outer": "value",
				},
			},
			"topic": "test-topic",
		},
	},
}

var invalidMessages = []struct {
	name string
	req  *Message
	want string
}{
	{
		name: "nil message",
		req:  nil,
		want: "message must not be nil",
	},
	{
		name: "no targets",
		req:  &Message{},
		want: "exactly one of token, topic or condition must be specified",
	},
	{
		name: "multiple targets",
		req:  &Message{Token: "token", Topic: "topic"},
		want: "exactly one of token, topic or condition must be specified",
	},
	{
		name: "invalid topic",
		req:  &Message{Topic: "/topics/"},
		want: "malformed topic name",
	},
	{
		name: "oversized data",
		req:  &Message{Token: "token", Data: map[string]string{"k": strings.Repeat("x", 4096)}},
		want: "data payload must not exceed 4096 bytes",
	},
	{
		name: "negative ttl",
		req:  &Message{Token: "token", Android: &AndroidConfig{TTL: durationPtr(-time.Second)}},
		want: "ttl duration must not be negative",
	},
	{
		name: "invalid priority",
		req:  &Message{Token: "token", Android: &AndroidConfig{Priority: "urgent"}},
		want: "priority must be 'normal' or 'high'",
	},
	{
		name: "invalid color",
		req:  &Message{Token: "token", Android: &AndroidConfig{Notification: &AndroidNotification{Color: "red"}}},
		want: "color must be in the #RRGGBB form",
	},
	{
		name: "title loc args without key",
		req: &Message{
			Token:   "token",
			Android: &AndroidConfig{Notification: &AndroidNotification{TitleLocArgs: []string{"a"}}},
		},
		want: "titleLocKey is required when specifying titleLocArgs",
	},
	{
		name: "invalid direction",
		req: &Message{
			Token:   "token",
			Webpush: &WebpushConfig{Notification: &WebpushNotification{Direction: "up"}},
		},
		want: "direction must be 'ltr', 'rtl' or 'auto'",
	},
	{
		name: "webpush custom data collision",
		req: &Message{
			Token: "token",
			Webpush: &WebpushConfig{Notification: &WebpushNotification{
				Title:      "t",
				CustomData: map[string]interface{}{"title": "other"},
			}},
		},
		want: `multiple specifications for the key "title"`,
	},
	{
		name: "multiple alerts",
		req: &Message{
			Token: "token",
			APNS: &APNSConfig{Payload: &APNSPayload{Aps: &Aps{
				Alert:       &ApsAlert{Title: "t"},
				AlertString: "alert",
			}}},
		},
		want: "multiple alert specifications",
	},
	{
		name: "aps loc args without key",
		req: &Message{
			Token: "token",
			APNS: &APNSConfig{Payload: &APNSPayload{Aps: &Aps{
				Alert: &ApsAlert{LocArgs: []string{"a"}},
			}}},
		},
		want: "locKey is required when specifying locArgs",
	},
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func TestNoProjectID(t *testing.T) {
	client, err := NewClient(context.Background(), &internal.MessagingConfig{})
	if client != nil || !errorutils.IsInvalidArgument(err) {
		t.Errorf("NewClient() = (%v, %v); want = (nil, InvalidArgument)", client, err)
	}
}

func TestSend(t *testing.T) {
	var tr *http.Request
	var b []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr = r
		b, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{ "name":"` + testMessageID + `" }`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	for _, tc := range validMessages {
		t.Run(tc.name, func(t *testing.T) {
			name, err := client.Send(context.Background(), tc.req)
			if name != testMessageID || err != nil {
				t.Errorf("Send() = (%q, %v); want = (%q, nil)", name, err, testMessageID)
			}
			checkFCMRequest(t, b, tr, tc.want, false)
		})
	}
}

func TestSendDryRun(t *testing.T) {
	var tr *http.Request
	var b []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr = r
		b, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{ "name":"` + testMessageID + `" }`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	for _, tc := range validMessages {
		name, err := client.SendDryRun(context.Background(), tc.req)
		if name != testMessageID || err != nil {
			t.Errorf("SendDryRun(%s) = (%q, %v); want = (%q, nil)", tc.name, name, err, testMessageID)
		}
		checkFCMRequest(t, b, tr, tc.want, true)
	}
}

func TestInvalidMessage(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	for _, tc := range invalidMessages {
		t.Run(tc.name, func(t *testing.T) {
			name, err := client.Send(context.Background(), tc.req)
			if err == nil || err.Error() != tc.want || !errorutils.IsInvalidArgument(err) {
				t.Errorf("Send() = (%q, %v); want = (%q, %q)", name, err, "", tc.want)
			}
		})
	}
	if calls != 0 {
		t.Errorf("HTTP calls = %d; want = 0", calls)
	}
}

func TestSendError(t *testing.T) {
	var status int
	var resp string
	var header map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(resp))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	cases := []struct {
		name       string
		status     int
		resp       string
		header     map[string]string
		want       string
		check      func(error) bool
		retryAfter time.Duration
	}{
		{
			name:   "invalid message",
			status: http.StatusBadRequest,
			resp:   `{"error": {"status": "INVALID_ARGUMENT", "message": "test error"}}`,
			want:   "test error",
			check:  IsInvalidMessage,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			resp:   `{"error": {"status": "UNAUTHENTICATED", "message": "bad credentials"}}`,
			want:   "bad credentials",
			check:  IsAuthenticationError,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			resp:   `{"error": {"status": "PERMISSION_DENIED", "message": "sender mismatch"}}`,
			want:   "sender mismatch",
			check:  IsAuthenticationError,
		},
		{
			name:   "unregistered",
			status: http.StatusNotFound,
			resp: `{"error": {"status": "NOT_FOUND", "message": "test error", "details": [{
				"@type": "type.googleapis.com/google.firebase.fcm.v1.FcmError",
				"errorCode": "UNREGISTERED"}]}}`,
			want:  "test error",
			check: IsUnregistered,
		},
		{
			name:       "quota exceeded",
			status:     http.StatusTooManyRequests,
			resp:       `{"error": {"status": "RESOURCE_EXHAUSTED", "message": "slow down"}}`,
			header:     map[string]string{"Retry-After": "60"},
			want:       "slow down",
			check:      IsQuotaExceeded,
			retryAfter: time.Minute,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			resp:   `{"error": {"status": "INTERNAL", "message": "boom"}}`,
			want:   "boom",
			check:  IsServerError,
		},
		{
			name:       "server unavailable",
			status:     http.StatusServiceUnavailable,
			resp:       "not json",
			header:     map[string]string{"Retry-After": "30"},
			want:       "not json",
			check:      IsServerUnavailable,
			retryAfter: 30 * time.Second,
		},
		{
			name:   "other",
			status: http.StatusConflict,
			resp:   "",
			want:   "http error status: 409",
			check:  IsMessagingError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp, header = tc.status, tc.resp, tc.header
			name, err := client.Send(context.Background(), &Message{Topic: "topic"})
			if err == nil || err.Error() != tc.want || !tc.check(err) {
				t.Errorf("Send() = (%q, %v); want = (%q, %q)", name, err, "", tc.want)
			}
			if got := RetryAfter(err); got != tc.retryAfter {
				t.Errorf("RetryAfter() = %v; want = %v", got, tc.retryAfter)
			}
			if r := errorutils.HTTPResponse(err); r == nil || r.StatusCode != tc.status {
				t.Errorf("HTTPResponse() = %v; want status = %d", r, tc.status)
			}
		})
	}
}

func newTestClient(t *testing.T, url string) *Client {
	client, err := NewClient(context.Background(), testMessagingConfig)
	if err != nil {
		t.Fatal(err)
	}
	client.fcmEndpoint = url
	client.batchEndpoint = url + "/batch"
	client.iidEndpoint = url + "/iid/v1"
	client.hc.RetryConfig = nil
	return client
}

func checkFCMRequest(t *testing.T, b []byte, tr *http.Request, want map[string]interface{}, dryRun bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, parsed["message"]); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
	if dryRun {
		if parsed["validate_only"] != true {
			t.Errorf("ValidateOnly = %v; want = true", parsed["validate_only"])
		}
	} else if _, ok := parsed["validate_only"]; ok {
		t.Errorf("ValidateOnly = %v; want = absent", parsed["validate_only"])
	}

	if tr.Method != http.MethodPost {
		t.Errorf("Method = %q; want = %q", tr.Method, http.MethodPost)
	}
	if tr.URL.Path != "/projects/test-project/messages:send" {
		t.Errorf("Path = %q; want = %q", tr.URL.Path, "/projects/test-project/messages:send")
	}
	if h := tr.Header.Get("Authorization"); h != "Bearer test-token" {
		t.Errorf("Authorization = %q; want = %q", h, "Bearer test-token")
	}
	if h := tr.Header.Get(apiFormatVersionHeader); h != apiFormatVersion {
		t.Errorf("%s = %q; want = %q", apiFormatVersionHeader, h, apiFormatVersion)
	}
	if h := tr.Header.Get(firebaseClientHeader); h != "fire-rest-go/test-version" {
		t.Errorf("%s = %q; want = %q", firebaseClientHeader, h, "fire-rest-go/test-version")
	}
}
