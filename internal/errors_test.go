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

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
)

var platformErrorCodes = []ErrorCode{
	InvalidArgument,
	Unauthenticated,
	NotFound,
	Aborted,
	AlreadyExists,
	Internal,
	Unavailable,
	Unknown,
}

func TestPlatformError(t *testing.T) {
	var body string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(body))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := &HTTPClient{
		Client:    http.DefaultClient,
		SuccessFn: HasSuccessStatus,
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}
	want := "Test error message"

	for _, code := range platformErrorCodes {
		body = fmt.Sprintf(`{
			"error": {
				"status": %q,
				"message": "Test error message"
			}
		}`, code)

		resp, err := client.Do(context.Background(), get)
		if resp != nil || err == nil || err.Error() != want {
			t.Fatalf("[%s]: Do() = (%v, %v); want = (nil, %q)", code, resp, err, want)
		}
		if !HasPlatformErrorCode(err, code) {
			t.Errorf("[%s]: HasPlatformErrorCode() = false; want = true", code)
		}

		fe, ok := err.(*FirebaseError)
		if !ok {
			t.Fatalf("[%s]: Do() err = %v; want = FirebaseError", code, err)
		}

		if fe.ErrorCode != code {
			t.Errorf("[%s]: Do() err.ErrorCode = %q; want = %q", code, fe.ErrorCode, code)
		}
		if fe.Response == nil {
			t.Fatalf("[%s]: Do() err.Response = nil; want = non-nil", code)
		}
		if fe.Response.StatusCode != http.StatusNotFound {
			t.Errorf("[%s]: Do() err.Response.StatusCode = %d; want = %d", code, fe.Response.StatusCode, http.StatusNotFound)
		}
		if fe.Ext == nil || len(fe.Ext) > 0 {
			t.Errorf("[%s]: Do() err.Ext = %v; want = empty-map", code, fe.Ext)
		}
		if IsConnectionFailed(err) {
			t.Errorf("[%s]: IsConnectionFailed() = true; want = false", code)
		}
	}
}

func TestPlatformErrorWithoutDetails(t *testing.T) {
	var status int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("{}"))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := &HTTPClient{
		Client:    http.DefaultClient,
		SuccessFn: HasSuccessStatus,
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}

	httpStatusMappings := map[int]ErrorCode{
		http.StatusNotImplemented: Unknown,
	}
	for k, v := range httpStatusToErrorCodes {
		httpStatusMappings[k] = v
	}

	for httpStatus, platformCode := range httpStatusMappings {
		status = httpStatus
		want := fmt.Sprintf("unexpected http response with status: %d\n{}", httpStatus)

		resp, err := client.Do(context.Background(), get)
		if resp != nil || err == nil || err.Error() != want {
			t.Fatalf("[%d]: Do() = (%v, %v); want = (nil, %q)", httpStatus, resp, err, want)
		}
		if !HasPlatformErrorCode(err, platformCode) {
			t.Errorf("[%d]: HasPlatformErrorCode(%q) = false; want = true", httpStatus, platformCode)
		}
	}
}

func TestTimeoutError(t *testing.T) {
	client := &HTTPClient{
		Client: &http.Client{
			Transport: &faultyTransport{
				Err: &timeoutError{},
			},
		},
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    "http://test.url",
	}
	want := "timed out while making an http call"

	resp, err := client.Do(context.Background(), get)
	if resp != nil || err == nil || !strings.HasPrefix(err.Error(), want) {
		t.Fatalf("Do() = (%v, %v); want = (nil, %q)", resp, err, want)
	}

	fe, ok := err.(*FirebaseError)
	if !ok {
		t.Fatalf("Do() err = %v; want = FirebaseError", err)
	}

	if fe.ErrorCode != DeadlineExceeded {
		t.Errorf("Do() err.ErrorCode = %q; want = %q", fe.ErrorCode, DeadlineExceeded)
	}
	if fe.Response != nil {
		t.Errorf("Do() err.Response = %v; want = nil", fe.Response)
	}
	if !IsConnectionFailed(err) {
		t.Errorf("IsConnectionFailed() = false; want = true")
	}
	var te *timeoutError
	if !errors.As(err, &te) {
		t.Errorf("errors.As(timeoutError) = false; want = true")
	}
}

type timeoutError struct{}

func (t *timeoutError) Error() string {
	return "test timeout error"
}

func (t *timeoutError) Timeout() bool {
	return true
}

func TestNetworkOutageError(t *testing.T) {
	errs := []struct {
		name string
		err  error
	}{
		{"NetDialError", &net.OpError{Op: "dial", Err: errors.New("test error")}},
		{"NetReadError", &net.OpError{Op: "read", Err: errors.New("test error")}},
		{
			"WrappedNetReadError",
			&net.OpError{
				Op:  "test",
				Err: &net.OpError{Op: "read", Err: errors.New("test error")},
			},
		},
		{"ECONNREFUSED", syscall.ECONNREFUSED},
	}

	get := &Request{
		Method: http.MethodGet,
		URL:    "http://test.url",
	}
	want := "failed to establish a connection"

	for _, tc := range errs {
		t.Run(tc.name, func(t *testing.T) {
			client := &HTTPClient{
				Client: &http.Client{
					Transport: &faultyTransport{
						Err: tc.err,
					},
				},
			}

			resp, err := client.Do(context.Background(), get)
			if resp != nil || err == nil || !strings.HasPrefix(err.Error(), want) {
				t.Fatalf("Do() = (%v, %v); want = (nil, %q)", resp, err, want)
			}

			if !HasPlatformErrorCode(err, Unavailable) {
				t.Errorf("Do() err = %v; want = %q", err, Unavailable)
			}
			if !IsConnectionFailed(err) {
				t.Errorf("IsConnectionFailed() = false; want = true")
			}
		})
	}
}

func TestUnknownNetworkError(t *testing.T) {
	client := &HTTPClient{
		Client: &http.Client{
			Transport: &faultyTransport{
				Err: errors.New("unknown error"),
			},
		},
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    "http://test.url",
	}
	want := "unknown error while making an http call"

	resp, err := client.Do(context.Background(), get)
	if resp != nil || err == nil || !strings.HasPrefix(err.Error(), want) {
		t.Fatalf("Do() = (%v, %v); want = (nil, %q)", resp, err, want)
	}
	if !HasPlatformErrorCode(err, Unknown) {
		t.Errorf("Do() err = %v; want = %q", err, Unknown)
	}
	if !IsConnectionFailed(err) {
		t.Errorf("IsConnectionFailed() = false; want = true")
	}
}

func TestCancelledRequest(t *testing.T) {
	client := &HTTPClient{
		Client: &http.Client{
			Transport: &faultyTransport{
				Err: context.Canceled,
			},
		},
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    "http://test.url",
	}

	_, err := client.Do(context.Background(), get)
	if !HasPlatformErrorCode(err, Cancelled) {
		t.Errorf("Do() err = %v; want = %q", err, Cancelled)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(context.Canceled) = false; want = true")
	}
}

func TestErrorHTTPResponse(t *testing.T) {
	body := `{"key": "value"}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(body))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := &HTTPClient{
		Client:    http.DefaultClient,
		SuccessFn: HasSuccessStatus,
	}
	get := &Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}
	want := fmt.Sprintf("unexpected http response with status: 500\n%s", body)

	resp, err := client.Do(context.Background(), get)
	if resp != nil || err == nil || err.Error() != want {
		t.Fatalf("Do() = (%v, %v); want = (nil, %q)", resp, err, want)
	}

	fe, ok := err.(*FirebaseError)
	if !ok {
		t.Fatalf("Do() err = %v; want = FirebaseError", err)
	}

	hr := fe.Response
	defer hr.Body.Close()
	if hr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Do() Response.StatusCode = %d; want = %d", hr.StatusCode, http.StatusInternalServerError)
	}

	b, err := io.ReadAll(hr.Body)
	if err != nil {
		t.Fatalf("ReadAll(Response.Body) = %v", err)
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal(Response.Body) = %v", err)
	}

	if len(m) != 1 || m["key"] != "value" {
		t.Errorf("Unmarshal(Response.Body) = %v; want = {key: value}", m)
	}
}

func TestErrorReason(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"Nested", `{"error": {"message": "EMAIL_EXISTS"}}`, "EMAIL_EXISTS"},
		{"Flat", `{"error": "Permission denied"}`, "Permission denied"},
		{"EmptyNested", `{"error": {"code": 400}}`, `{"error": {"code": 400}}`},
		{"NotJSON", "Service Unavailable\n", "Service Unavailable"},
		{"Empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorReason([]byte(tc.body)); got != tc.want {
				t.Errorf("ErrorReason() = %q; want = %q", got, tc.want)
			}
		})
	}
}

type faultyTransport struct {
	Err error
}

func (f *faultyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, f.Err
}

func TestHasExtValueInCauseChain(t *testing.T) {
	inner := &FirebaseError{
		ErrorCode: NotFound,
		Ext:       map[string]interface{}{"serviceErrorCode": "INNER"},
	}
	outer := (&FirebaseError{
		ErrorCode: Aborted,
		Ext:       map[string]interface{}{"serviceErrorCode": "OUTER"},
	}).WithCause(fmt.Errorf("wrapped: %w", inner))

	for _, want := range []string{"INNER", "OUTER"} {
		if !HasExtValue(outer, "serviceErrorCode", want) {
			t.Errorf("HasExtValue(%q) = false; want = true", want)
		}
	}
	if HasExtValue(outer, "serviceErrorCode", "OTHER") {
		t.Errorf("HasExtValue(%q) = true; want = false", "OTHER")
	}
	if !HasPlatformErrorCode(outer, Aborted) || HasPlatformErrorCode(outer, NotFound) {
		t.Errorf("HasPlatformErrorCode() must only consider the outermost FirebaseError")
	}
}
