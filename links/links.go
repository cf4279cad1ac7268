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

// Package links contains functions for creating Firebase Dynamic Links and retrieving the
// statistics of short dynamic links.
package links // import "github.com/firebase/firebase-rest-go/links"

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

// Platform constant "enum" for the event
type Platform string

// EventType constant for the event stats
type EventType string

const (
	// Desktop platform type.
	Desktop Platform = "DESKTOP"

	// IOS platform type.
	IOS Platform = "IOS"

	// Android platform type.
	Android Platform = "ANDROID"

	// Click event type. Any click on a dynamic link, irrespective of how it is handled.
	Click EventType = "CLICK"

	// Redirect event type. Attempts to redirect users to an app store or another destination.
	Redirect EventType = "REDIRECT"

	// AppInstall event type. Only supported by the Play Store.
	AppInstall EventType = "APP_INSTALL"

	// AppFirstOpen event type.
	AppFirstOpen EventType = "APP_FIRST_OPEN"

	// AppReOpen event type.
	AppReOpen EventType = "APP_RE_OPEN"

	linksEndpoint        = "https://firebasedynamiclinks.googleapis.com/v1"
	firebaseClientHeader = "X-Firebase-Client"
	defaultDurationDays  = 7
)

var linksScopes = []string{
	"https://www.googleapis.com/auth/firebase",
}

// EventStats will contain the aggregated counts for the requested period.
type EventStats struct {
	Platform  Platform  `json:"platform"`
	EventType EventType `json:"event"`
	Count     int64     `json:"count,string"`
}

// LinkStats contains an array of EventStats.
type LinkStats struct {
	EventStats []EventStats `json:"linkEventStats"`
}

// ByPlatform returns the statistics of events that happened on the given platform.
func (ls *LinkStats) ByPlatform(p Platform) *LinkStats {
	return ls.filter(func(es EventStats) bool { return es.Platform == p })
}

// ByEventType returns the statistics of events of the given type.
func (ls *LinkStats) ByEventType(et EventType) *LinkStats {
	return ls.filter(func(es EventStats) bool { return es.EventType == et })
}

// Count returns the sum of all event counts.
func (ls *LinkStats) Count() int64 {
	var total int64
	for _, es := range ls.EventStats {
		total += es.Count
	}
	return total
}

func (ls *LinkStats) filter(keep func(EventStats) bool) *LinkStats {
	result := &LinkStats{EventStats: []EventStats{}}
	for _, es := range ls.EventStats {
		if keep(es) {
			result.EventStats = append(result.EventStats, es)
		}
	}
	return result
}

// StatOptions are used in the request for LinkStats. It is used to request data
// covering the last N days. Zero selects the default of 7 days.
type StatOptions struct {
	LastNDays int
}

// Client is the interface for the Firebase Dynamics Links (FDL) service.
type Client struct {
	client        *internal.HTTPClient
	linksEndpoint string
	domain        string
}

// NewClient creates a new instance of the Firebase Dynamic Links Client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// Dynamic Links service through firebase.App.
func NewClient(ctx context.Context, c *internal.LinksConfig) (*Client, error) {
	var hc internal.HTTPClient
	if c.HTTPClient != nil {
		hc = *c.HTTPClient
	} else {
		o := append([]option.ClientOption{option.WithScopes(linksScopes...)}, c.Opts...)
		creds, err := transport.Creds(ctx, o...)
		if err != nil {
			return nil, err
		}
		client, err := internal.NewHTTPClient(ctx, c.ClientOptions, creds.TokenSource)
		if err != nil {
			return nil, err
		}
		hc = *client
	}

	hc.SuccessFn = internal.HasSuccessStatus
	hc.Opts = append(append([]internal.HTTPOption{}, hc.Opts...),
		internal.WithHeader(firebaseClientHeader, fmt.Sprintf("fire-rest-go/%s", c.Version)))

	return &Client{
		client:        &hc,
		linksEndpoint: linksEndpoint,
		domain:        c.Domain,
	}, nil
}

// LinkStats returns the stats given a short link and a duration (last n days).
//
// If the URI prefix for the shortlink belongs to the project but the link suffix has either not
// been created or has no data in the requested period, the returned LinkStats object will contain
// an empty list of EventStats.
func (c *Client) LinkStats(
	ctx context.Context, shortLink string, statOptions StatOptions) (*LinkStats, error) {

	if !strings.HasPrefix(shortLink, "https://") {
		return nil, invalidArgument("short link must start with https://")
	}
	days := statOptions.LastNDays
	if days < 0 {
		return nil, invalidArgument("last n days must not be negative")
	}
	if days == 0 {
		days = defaultDurationDays
	}

	request := &internal.Request{
		Method:      http.MethodGet,
		URL:         fmt.Sprintf("%s/%s/linkStats", c.linksEndpoint, url.QueryEscape(shortLink)),
		Opts:        []internal.HTTPOption{internal.WithQueryParam("durationDays", strconv.Itoa(days))},
		SuccessFn:   statusOK,
		CreateErrFn: failedError(failedToGetStatistics, "failed to get statistics for dynamic link"),
	}

	var result LinkStats
	if _, err := c.client.DoAndUnmarshal(ctx, request, &result); err != nil {
		return nil, wrapTransportError(err, failedToGetStatistics, "failed to get statistics for dynamic link")
	}
	if result.EventStats == nil {
		result.EventStats = []EventStats{}
	}
	return &result, nil
}

func statusOK(resp *internal.Response) bool {
	return resp.Status == http.StatusOK
}
