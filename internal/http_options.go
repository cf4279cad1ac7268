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

package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultConnectTimeout = 15 * time.Second
	defaultTimeout        = 30 * time.Second
)

// HTTPClientOptions configures the HTTP clients used to talk to Firebase services.
//
// HTTPClientOptions is immutable. Every With* method returns a modified copy.
type HTTPClientOptions struct {
	connectTimeout *time.Duration
	readTimeout    *time.Duration
	timeout        *time.Duration
	proxy          string
	logger         *zap.Logger
}

// DefaultHTTPClientOptions returns an HTTPClientOptions with every setting at its default.
func DefaultHTTPClientOptions() HTTPClientOptions {
	return HTTPClientOptions{}
}

// ConnectTimeout returns the maximum time allowed to establish a connection.
func (o HTTPClientOptions) ConnectTimeout() time.Duration {
	if o.connectTimeout == nil {
		return defaultConnectTimeout
	}
	return *o.connectTimeout
}

// ReadTimeout returns the maximum time to wait for response headers once the request has been
// written. Zero means no limit.
func (o HTTPClientOptions) ReadTimeout() time.Duration {
	if o.readTimeout == nil {
		return 0
	}
	return *o.readTimeout
}

// Timeout returns the total time allowed for a single HTTP exchange.
func (o HTTPClientOptions) Timeout() time.Duration {
	if o.timeout == nil {
		return defaultTimeout
	}
	return *o.timeout
}

// Proxy returns the proxy URL, or an empty string when requests are sent directly.
func (o HTTPClientOptions) Proxy() string {
	return o.proxy
}

// Logger returns the logger used to record HTTP traffic. Never nil.
func (o HTTPClientOptions) Logger() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// WithConnectTimeout returns a copy of the options with the given connect timeout.
func (o HTTPClientOptions) WithConnectTimeout(d time.Duration) (HTTPClientOptions, error) {
	if err := checkDuration("connect timeout", d); err != nil {
		return o, err
	}
	o.connectTimeout = &d
	return o, nil
}

// WithReadTimeout returns a copy of the options with the given read timeout.
func (o HTTPClientOptions) WithReadTimeout(d time.Duration) (HTTPClientOptions, error) {
	if err := checkDuration("read timeout", d); err != nil {
		return o, err
	}
	o.readTimeout = &d
	return o, nil
}

// WithTimeout returns a copy of the options with the given total timeout.
func (o HTTPClientOptions) WithTimeout(d time.Duration) (HTTPClientOptions, error) {
	if err := checkDuration("timeout", d); err != nil {
		return o, err
	}
	o.timeout = &d
	return o, nil
}

// WithProxy returns a copy of the options that routes requests through the given proxy.
func (o HTTPClientOptions) WithProxy(proxy string) (HTTPClientOptions, error) {
	if proxy != "" {
		if _, err := url.Parse(proxy); err != nil {
			return o, &FirebaseError{
				ErrorCode: InvalidArgument,
				String:    fmt.Sprintf("invalid proxy url: %q", proxy),
				cause:     err,
			}
		}
	}
	o.proxy = proxy
	return o, nil
}

// WithLogger returns a copy of the options that logs HTTP traffic to the given logger.
func (o HTTPClientOptions) WithLogger(logger *zap.Logger) HTTPClientOptions {
	o.logger = logger
	return o
}

func checkDuration(name string, d time.Duration) error {
	if d < 0 {
		return &FirebaseError{
			ErrorCode: InvalidArgument,
			String:    fmt.Sprintf("%s must not be negative: %v", name, d),
		}
	}
	return nil
}

// newHTTPClient builds an http.Client from the options. Requests are authorized with the given
// token source, or sent unauthenticated when ts is nil.
func (o HTTPClientOptions) newHTTPClient(ctx context.Context, ts oauth2.TokenSource) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   o.ConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: o.ReadTimeout(),
	}
	if o.proxy != "" {
		proxyURL, err := url.Parse(o.proxy)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(proxyURL)
	}

	var rt http.RoundTripper = base
	if ts != nil {
		rt = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   base,
		}
	}
	return &http.Client{
		Transport: rt,
		Timeout:   o.Timeout(),
	}, nil
}
