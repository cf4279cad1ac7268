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

// Package db contains functions for accessing the Firebase Realtime Database.
package db // import "github.com/firebase/firebase-rest-go/db"

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

const (
	authVarOverride        = "auth_variable_override"
	emulatorDatabaseEnvVar = "FIREBASE_DATABASE_EMULATOR_HOST"
	emulatorNamespaceParam = "ns"
	firebaseClientHeader   = "X-Firebase-Client"
)

var dbScopes = []string{
	"https://www.googleapis.com/auth/firebase.database",
	"https://www.googleapis.com/auth/userinfo.email",
}

var dbHostSuffixes = []string{".firebaseio.com", ".firebasedatabase.app"}

// Client is the interface for the Firebase Realtime Database service.
type Client struct {
	hc           *internal.HTTPClient
	dbURLConfig  *dbURLConfig
	authOverride string
}

type dbURLConfig struct {
	BaseURL   string
	Namespace string
	Emulator  bool
}

// NewClient creates a new instance of the Firebase Database Client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// Database service through firebase.App.
func NewClient(ctx context.Context, c *internal.DatabaseConfig) (*Client, error) {
	urlConfig, err := parseURLConfig(c.URL)
	if err != nil {
		return nil, err
	}

	var ao []byte
	if c.AuthOverride != nil {
		ao, err = json.Marshal(c.AuthOverride)
		if err != nil {
			return nil, err
		}
	}

	var hc internal.HTTPClient
	if c.HTTPClient != nil {
		hc = *c.HTTPClient
	} else {
		ts, err := tokenSource(ctx, urlConfig, c.Opts)
		if err != nil {
			return nil, err
		}
		client, err := internal.NewHTTPClient(ctx, c.ClientOptions, ts)
		if err != nil {
			return nil, err
		}
		hc = *client
	}

	client := &Client{
		dbURLConfig:  urlConfig,
		authOverride: string(ao),
	}
	hc.CreateErrFn = client.newDatabaseError
	hc.SuccessFn = internal.HasSuccessStatus
	hc.Opts = append(append([]internal.HTTPOption{}, hc.Opts...),
		internal.WithHeader(firebaseClientHeader, fmt.Sprintf("fire-rest-go/%s", c.Version)))
	client.hc = &hc
	return client, nil
}

func tokenSource(ctx context.Context, conf *dbURLConfig, opts []option.ClientOption) (oauth2.TokenSource, error) {
	if conf.Emulator {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "owner"}), nil
	}

	o := append([]option.ClientOption{option.WithScopes(dbScopes...)}, opts...)
	creds, err := transport.Creds(ctx, o...)
	if err != nil {
		return nil, err
	}
	return creds.TokenSource, nil
}

// NewRef returns a new database reference representing the node at the specified path.
func (c *Client) NewRef(path string) (*Ref, error) {
	segs := parsePath(path)
	if err := validatePath(segs); err != nil {
		return nil, err
	}

	key := ""
	if len(segs) > 0 {
		key = segs[len(segs)-1]
	}

	return &Ref{
		Key:    key,
		Path:   "/" + strings.Join(segs, "/"),
		segs:   segs,
		client: c,
	}, nil
}

// RunTransaction runs fn within a new Transaction.
//
// The Transaction tracks the ETag of every reference fn snapshots, and makes every write fn
// performs through it conditional on that ETag. The Transaction is discarded when fn returns.
// Failed transactions are not retried.
func (c *Client) RunTransaction(ctx context.Context, fn func(context.Context, *Transaction) error) error {
	return fn(ctx, newTransaction(c))
}

func parseURLConfig(dbURL string) (*dbURLConfig, error) {
	if dbURL == "" {
		return nil, invalidArgument("database url not specified")
	}
	parsedURL, err := url.ParseRequestURI(dbURL)
	if err != nil {
		return nil, invalidArgument("invalid database url: %q", dbURL)
	}

	if host := os.Getenv(emulatorDatabaseEnvVar); host != "" {
		ns, err := namespace(parsedURL)
		if err != nil {
			return nil, err
		}
		return &dbURLConfig{
			BaseURL:   fmt.Sprintf("http://%s", host),
			Namespace: ns,
			Emulator:  true,
		}, nil
	}

	if parsedURL.Scheme == "http" {
		ns := parsedURL.Query().Get(emulatorNamespaceParam)
		if ns == "" {
			return nil, invalidArgument("invalid database url: %q; emulator urls must specify the %q query parameter", dbURL, emulatorNamespaceParam)
		}
		return &dbURLConfig{
			BaseURL:   fmt.Sprintf("http://%s", parsedURL.Host),
			Namespace: ns,
			Emulator:  true,
		}, nil
	}

	if parsedURL.Scheme != "https" {
		return nil, invalidArgument("invalid database url: %q; want scheme: %q", dbURL, "https")
	}
	if !hasDatabaseHost(parsedURL.Host) {
		return nil, invalidArgument("invalid database url: %q; want host: <namespace>.firebaseio.com or <namespace>.<region>.firebasedatabase.app", dbURL)
	}
	ns, err := namespace(parsedURL)
	if err != nil {
		return nil, err
	}
	return &dbURLConfig{
		BaseURL:   fmt.Sprintf("https://%s", parsedURL.Host),
		Namespace: ns,
	}, nil
}

func hasDatabaseHost(host string) bool {
	for _, suffix := range dbHostSuffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

func namespace(u *url.URL) (string, error) {
	if ns := u.Query().Get(emulatorNamespaceParam); ns != "" {
		return ns, nil
	}
	segs := strings.SplitN(u.Hostname(), ".", 2)
	if len(segs) != 2 || segs[0] == "" {
		return "", invalidArgument("invalid database url: %q; unable to determine the namespace", u.String())
	}
	return segs[0], nil
}

func parsePath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
