// Copyright 2017 Google Inc. All Rights Reserved.
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

// Package firebase is the entry point to the Firebase REST SDK. It provides functionality for
// initializing App instances, which serve as the central entities that provide access to the
// Firebase services exposed from the SDK.
package firebase // import "github.com/firebase/firebase-rest-go"

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/firebase/firebase-rest-go/appcheck"
	"github.com/firebase/firebase-rest-go/auth"
	"github.com/firebase/firebase-rest-go/db"
	"github.com/firebase/firebase-rest-go/identityplatform"
	"github.com/firebase/firebase-rest-go/internal"
	"github.com/firebase/firebase-rest-go/links"
	"github.com/firebase/firebase-rest-go/messaging"
	"github.com/firebase/firebase-rest-go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

var defaultAuthOverrides = make(map[string]interface{})

var firebaseScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/devstorage.full_control",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Version of the Firebase REST SDK for Go.
const Version = "1.0.0"

// firebaseEnvName is the name of the environment variable with the Config.
const firebaseEnvName = "FIREBASE_CONFIG"

// HTTPClientOptions configures the timeouts, proxy and logger of the HTTP clients created by an
// App. Use DefaultHTTPClientOptions to obtain an instance.
type HTTPClientOptions = internal.HTTPClientOptions

// DefaultHTTPClientOptions returns the HTTPClientOptions used when a Config does not specify any.
func DefaultHTTPClientOptions() HTTPClientOptions {
	return internal.DefaultHTTPClientOptions()
}

// An App holds configuration and state common to all Firebase services that are exposed from the SDK.
type App struct {
	authOverride  map[string]interface{}
	creds         *google.Credentials
	dbURL         string
	projectID     string
	tenantID      string
	storageBucket string
	linksDomain   string
	clientOptions internal.HTTPClientOptions
	opts          []option.ClientOption
}

// Config represents the configuration used to initialize an App.
type Config struct {
	AuthOverride       *map[string]interface{} `json:"databaseAuthVariableOverride"`
	DatabaseURL        string                  `json:"databaseURL"`
	ProjectID          string                  `json:"projectId"`
	TenantID           string                  `json:"tenantId"`
	StorageBucket      string                  `json:"storageBucket"`
	DynamicLinksDomain string                  `json:"dynamicLinksDomain"`
	HTTPClientOptions  HTTPClientOptions       `json:"-"`
}

// Auth returns an instance of auth.Client.
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	conf := &internal.AuthConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		Creds:         a.creds,
		ProjectID:     a.projectID,
		TenantID:      a.tenantID,
		Version:       Version,
	}
	return auth.NewClient(ctx, conf)
}

// Database returns an instance of db.Client to interact with the default Firebase Database
// configured via Config.DatabaseURL.
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	return a.DatabaseWithURL(ctx, a.dbURL)
}

// DatabaseWithURL returns an instance of db.Client to interact with the Firebase Database
// identified by the given URL.
func (a *App) DatabaseWithURL(ctx context.Context, url string) (*db.Client, error) {
	conf := &internal.DatabaseConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		URL:           url,
		AuthOverride:  a.authOverride,
		Version:       Version,
	}
	return db.NewClient(ctx, conf)
}

// Messaging returns an instance of messaging.Client.
func (a *App) Messaging(ctx context.Context) (*messaging.Client, error) {
	conf := &internal.MessagingConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		ProjectID:     a.projectID,
		Version:       Version,
	}
	return messaging.NewClient(ctx, conf)
}

// AppCheck returns an instance of appcheck.Client.
func (a *App) AppCheck(ctx context.Context) (*appcheck.Client, error) {
	conf := &internal.AppCheckConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		Creds:         a.creds,
		ProjectID:     a.projectID,
		Version:       Version,
	}
	return appcheck.NewClient(ctx, conf)
}

// IdentityPlatform returns an instance of identityplatform.Client.
func (a *App) IdentityPlatform(ctx context.Context) (*identityplatform.Client, error) {
	conf := &internal.IdentityPlatformConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		ProjectID:     a.projectID,
		TenantID:      a.tenantID,
		Version:       Version,
	}
	return identityplatform.NewClient(ctx, conf)
}

// Links returns an instance of links.Client.
func (a *App) Links(ctx context.Context) (*links.Client, error) {
	conf := &internal.LinksConfig{
		Opts:          a.opts,
		ClientOptions: a.clientOptions,
		Domain:        a.linksDomain,
		Version:       Version,
	}
	return links.NewClient(ctx, conf)
}

// Storage returns a new instance of storage.Client.
func (a *App) Storage(ctx context.Context) (*storage.Client, error) {
	conf := &internal.StorageConfig{
		Opts:   a.opts,
		Bucket: a.storageBucket,
	}
	return storage.NewClient(ctx, conf)
}

// Firestore returns a new firestore.Client instance from the https://godoc.org/cloud.google.com/go/firestore
// package.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	if a.projectID == "" {
		return nil, errors.New("project id is required to access Firestore")
	}
	return firestore.NewClient(ctx, a.projectID, a.opts...)
}

// ProjectID returns the ID of the Google Cloud project the App is associated with.
func (a *App) ProjectID() string {
	return a.projectID
}

// NewApp creates a new App from the provided config and client options.
//
// If the client options contain a valid credential (a service account file, a refresh token
// file or an oauth2.TokenSource) the App will be authenticated using that credential. Otherwise,
// NewApp attempts to authenticate the App with Google application default credentials.
// If `config` is nil, the SDK will attempt to load the config options from the
// `FIREBASE_CONFIG` environment variable. If the value in it starts with a `{` it is parsed as a
// JSON object, otherwise it is assumed to be the name of the JSON file containing the options.
func NewApp(ctx context.Context, config *Config, opts ...option.ClientOption) (*App, error) {
	o := []option.ClientOption{option.WithScopes(firebaseScopes...)}
	o = append(o, opts...)
	if config == nil {
		var err error
		if config, err = getConfigDefaults(); err != nil {
			return nil, err
		}
	}

	creds, err := transport.Creds(ctx, o...)
	if err != nil {
		return nil, err
	}

	pid := config.ProjectID
	if pid == "" {
		pid = creds.ProjectID
	}
	if pid == "" {
		pid = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if pid == "" {
		pid = os.Getenv("GCLOUD_PROJECT")
	}

	ao := defaultAuthOverrides
	if config.AuthOverride != nil {
		ao = *config.AuthOverride
	}

	return &App{
		authOverride:  ao,
		creds:         creds,
		dbURL:         config.DatabaseURL,
		projectID:     pid,
		tenantID:      config.TenantID,
		storageBucket: config.StorageBucket,
		linksDomain:   config.DynamicLinksDomain,
		clientOptions: config.HTTPClientOptions,
		opts:          o,
	}, nil
}

// getConfigDefaults reads the default config file, defined by the FIREBASE_CONFIG
// env variable, used only when options are nil. Unknown keys are rejected.
func getConfigDefaults() (*Config, error) {
	fbc := &Config{}
	confFileName := os.Getenv(firebaseEnvName)
	if confFileName == "" {
		return fbc, nil
	}

	var dat []byte
	if strings.HasPrefix(strings.TrimSpace(confFileName), "{") {
		dat = []byte(confFileName)
	} else {
		var err error
		if dat, err = os.ReadFile(confFileName); err != nil {
			return nil, err
		}
	}

	d := json.NewDecoder(bytes.NewReader(dat))
	d.DisallowUnknownFields()
	if err := d.Decode(fbc); err != nil {
		return nil, err
	}
	return fbc, nil
}
