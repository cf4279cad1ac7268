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

package db

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	etagHeader    = "ETag"
	etagRequest   = "X-Firebase-ETag"
	ifMatchHeader = "If-Match"
	rulesPath     = "/.settings/rules"
)

// resolve turns a database location into the absolute URL of its REST resource. Every location
// is addressed as <path>.json.
func (c *Client) resolve(target *url.URL) string {
	path := strings.TrimRight(target.Path, "/")
	resource := &url.URL{Path: path + ".json"}
	if path == "" {
		resource.Path = "/.json"
	}

	q := target.Query()
	if c.dbURLConfig.Emulator {
		q.Set(emulatorNamespaceParam, c.dbURLConfig.Namespace)
	}
	if c.authOverride != "" {
		q.Set(authVarOverride, c.authOverride)
	}

	u := c.dbURLConfig.BaseURL + resource.EscapedPath()
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) send(
	ctx context.Context,
	method string,
	target *url.URL,
	body interface{},
	opts ...internal.HTTPOption) (*internal.Response, error) {

	req := &internal.Request{
		Method: method,
		URL:    c.resolve(target),
		Opts:   opts,
	}
	if body != nil {
		req.Body = internal.NewJSONEntity(body)
	}
	return c.hc.Do(ctx, req)
}

func (c *Client) get(ctx context.Context, target *url.URL, opts ...internal.HTTPOption) (*internal.Response, error) {
	return c.send(ctx, http.MethodGet, target, nil, opts...)
}

func (c *Client) getWithETag(ctx context.Context, target *url.URL) (*internal.Response, string, error) {
	resp, err := c.get(ctx, target, internal.WithHeader(etagRequest, "true"))
	if err != nil {
		return nil, "", err
	}
	return resp, resp.Header.Get(etagHeader), nil
}

func (c *Client) getIfNoneMatch(ctx context.Context, target *url.URL, etag string) (*internal.Response, error) {
	req := &internal.Request{
		Method: http.MethodGet,
		URL:    c.resolve(target),
		Opts:   []internal.HTTPOption{internal.WithHeader("If-None-Match", etag)},
		SuccessFn: func(r *internal.Response) bool {
			return internal.HasSuccessStatus(r) || r.Status == http.StatusNotModified
		},
	}
	return c.hc.Do(ctx, req)
}

func (c *Client) set(ctx context.Context, target *url.URL, v interface{}) error {
	_, err := c.send(ctx, http.MethodPut, target, jsonValue(v), internal.WithQueryParam("print", "silent"))
	return err
}

func (c *Client) setWithETag(ctx context.Context, target *url.URL, v interface{}, etag string) (string, error) {
	resp, err := c.send(ctx, http.MethodPut, target, jsonValue(v), internal.WithHeader(ifMatchHeader, etag))
	if err != nil {
		return "", err
	}
	return resp.Header.Get(etagHeader), nil
}

func (c *Client) removeWithETag(ctx context.Context, target *url.URL, etag string) (string, error) {
	resp, err := c.send(ctx, http.MethodDelete, target, nil, internal.WithHeader(ifMatchHeader, etag))
	if err != nil {
		return "", err
	}
	return resp.Header.Get(etagHeader), nil
}

func (c *Client) push(ctx context.Context, target *url.URL, v interface{}) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, target, jsonValue(v))
	if err != nil {
		return "", err
	}

	var d struct {
		Name string `json:"name"`
	}
	if err := resp.Unmarshal(http.StatusOK, &d); err != nil {
		return "", err
	}
	return d.Name, nil
}

func (c *Client) update(ctx context.Context, target *url.URL, v map[string]interface{}) error {
	_, err := c.send(ctx, http.MethodPatch, target, v, internal.WithQueryParam("print", "silent"))
	return err
}

func (c *Client) remove(ctx context.Context, target *url.URL) error {
	_, err := c.send(ctx, http.MethodDelete, target, nil)
	return err
}

// jsonValue makes sure a nil value is sent as a JSON null rather than an empty body.
func jsonValue(v interface{}) interface{} {
	if v == nil {
		return jsonNull{}
	}
	return v
}

type jsonNull struct{}

func (jsonNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func pathURL(path string) *url.URL {
	return &url.URL{Path: path}
}
