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

package internal

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	multipartMixed  = "multipart/mixed"
	contentIDHeader = "Content-ID"
)

var statusLinePattern = regexp.MustCompile(`(?i)^http/(\S+)\s(\d{3})\s(.+)$`)

// SubRequest is a single HTTP request embedded in a multipart/mixed envelope.
type SubRequest struct {
	Method string
	URL    string
	Proto  string
	Header http.Header
	Body   []byte
}

// ContentID returns the correlation id of the sub-request, without angle brackets.
func (r *SubRequest) ContentID() string {
	return normalizeContentID(headerValue(r.Header, contentIDHeader))
}

func (r *SubRequest) target() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	return u.RequestURI(), nil
}

func (r *SubRequest) proto() string {
	if r.Proto == "" {
		return "HTTP/1.1"
	}
	return r.Proto
}

// Requests is an ordered collection of sub-requests.
type Requests struct {
	reqs []*SubRequest
}

// NewRequests creates a Requests collection that preserves the given order.
func NewRequests(reqs ...*SubRequest) *Requests {
	cp := make([]*SubRequest, len(reqs))
	copy(cp, reqs)
	return &Requests{reqs: cp}
}

// Len returns the number of sub-requests in the collection.
func (r *Requests) Len() int {
	return len(r.reqs)
}

// All returns the sub-requests in insertion order.
func (r *Requests) All() []*SubRequest {
	cp := make([]*SubRequest, len(r.reqs))
	copy(cp, r.reqs)
	return cp
}

// FindByContentID returns the sub-request carrying the given Content-ID.
func (r *Requests) FindByContentID(id string) (*SubRequest, bool) {
	id = normalizeContentID(id)
	for _, req := range r.reqs {
		if req.ContentID() == id {
			return req, true
		}
	}
	return nil, false
}

// RequestWithSubRequests is a multipart/mixed request that bundles several sub-requests.
//
// The envelope is assembled once at construction. It implements HTTPEntity so that it can be
// sent with HTTPClient.
type RequestWithSubRequests struct {
	url         string
	boundary    string
	body        []byte
	subRequests *Requests
}

// NewRequestWithSubRequests assembles the multipart envelope for the given sub-requests. Every
// envelope gets a fresh boundary token.
func NewRequestWithSubRequests(url string, subRequests *Requests) (*RequestWithSubRequests, error) {
	boundary := newBoundary()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	if err := writer.SetBoundary(boundary); err != nil {
		return nil, err
	}
	for idx, req := range subRequests.reqs {
		if err := writeSubRequest(writer, req); err != nil {
			return nil, fmt.Errorf("invalid sub-request at index %d: %v", idx, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &RequestWithSubRequests{
		url:         url,
		boundary:    boundary,
		body:        buffer.Bytes(),
		subRequests: subRequests,
	}, nil
}

func newBoundary() string {
	sum := sha1.Sum([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

func writeSubRequest(writer *multipart.Writer, req *SubRequest) error {
	target, err := req.target()
	if err != nil {
		return err
	}

	header := make(textproto.MIMEHeader)
	for name, values := range req.Header {
		if strings.EqualFold(name, "Host") {
			continue
		}
		if strings.EqualFold(name, contentIDHeader) {
			name = contentIDHeader
		}
		header[name] = []string{strings.Join(values, ", ")}
	}

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(part, "%s %s %s\r\n\r\n", req.Method, target, req.proto()); err != nil {
		return err
	}
	_, err = part.Write(req.Body)
	return err
}

// URL returns the endpoint the envelope is sent to.
func (r *RequestWithSubRequests) URL() string {
	return r.url
}

// Boundary returns the boundary token delimiting the parts of this envelope.
func (r *RequestWithSubRequests) Boundary() string {
	return r.boundary
}

// SubRequests returns the sub-requests bundled in this envelope.
func (r *RequestWithSubRequests) SubRequests() *Requests {
	return r.subRequests
}

// ContentLength returns the length of the assembled envelope in bytes.
func (r *RequestWithSubRequests) ContentLength() int {
	return len(r.body)
}

// Bytes returns the assembled envelope.
func (r *RequestWithSubRequests) Bytes() ([]byte, error) {
	return r.body, nil
}

// Mime returns the Content-Type of the envelope.
func (r *RequestWithSubRequests) Mime() string {
	return fmt.Sprintf("%s; boundary=%s", multipartMixed, r.boundary)
}

// Request returns a POST Request that sends this envelope.
func (r *RequestWithSubRequests) Request(opts ...HTTPOption) *Request {
	return &Request{
		Method: http.MethodPost,
		URL:    r.url,
		Body:   r,
		Opts:   opts,
	}
}

// SubResponse is a single HTTP response extracted from a multipart/mixed envelope.
//
// Header holds the embedded response headers, with the headers of the enclosing part added on
// top of them.
type SubResponse struct {
	Proto  string
	Status int
	Reason string
	Header http.Header
	Body   []byte
}

// ContentID returns the correlation id of the sub-response, without angle brackets and without
// the "response-" prefix some servers add.
func (r *SubResponse) ContentID() string {
	return normalizeContentID(headerValue(r.Header, contentIDHeader))
}

// Response converts the sub-response into a Response so that it can be handled like any other
// HTTP response.
func (r *SubResponse) Response() *Response {
	return &Response{
		Status: r.Status,
		Header: r.Header,
		Body:   r.Body,
	}
}

// Responses is an ordered collection of sub-responses.
type Responses struct {
	resps []*SubResponse
}

// Len returns the number of sub-responses in the collection.
func (r *Responses) Len() int {
	return len(r.resps)
}

// All returns the sub-responses in the order the server returned them.
func (r *Responses) All() []*SubResponse {
	cp := make([]*SubResponse, len(r.resps))
	copy(cp, r.resps)
	return cp
}

// FindByContentID returns the sub-response carrying the given Content-ID.
func (r *Responses) FindByContentID(id string) (*SubResponse, bool) {
	id = normalizeContentID(id)
	for _, resp := range r.resps {
		if resp.ContentID() == id {
			return resp, true
		}
	}
	return nil, false
}

// ResponseWithSubResponses is an HTTP response together with the sub-responses extracted from
// its multipart/mixed body.
type ResponseWithSubResponses struct {
	*Response
	subResponses *Responses
}

// SubResponses returns the extracted sub-responses. Empty when the response is not multipart.
func (r *ResponseWithSubResponses) SubResponses() *Responses {
	return r.subResponses
}

// ParseResponseWithSubResponses splits a multipart/mixed response into its sub-responses.
//
// A response that does not declare a multipart Content-Type yields zero sub-responses. A part
// that does not start with an HTTP status line makes the whole response malformed.
func ParseResponseWithSubResponses(resp *Response) (*ResponseWithSubResponses, error) {
	result := &ResponseWithSubResponses{
		Response:     resp,
		subResponses: &Responses{},
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return result, nil
	}

	mr := multipart.NewReader(bytes.NewReader(resp.Body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, malformedResponse("error parsing multipart body: %v", err)
		}

		sr, err := newSubResponse(part)
		if err != nil {
			return nil, err
		}
		result.subResponses.resps = append(result.subResponses.resps, sr)
	}

	return result, nil
}

func newSubResponse(part *multipart.Part) (*SubResponse, error) {
	reader := textproto.NewReader(bufio.NewReader(part))
	startLine, err := reader.ReadLine()
	if err != nil && err != io.EOF {
		return nil, malformedResponse("error reading sub response: %v", err)
	}

	m := statusLinePattern.FindStringSubmatch(strings.TrimSpace(startLine))
	if m == nil {
		return nil, malformedResponse("at least one sub response does not contain a start line")
	}
	status, _ := strconv.Atoi(m[2])

	mh, err := reader.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, malformedResponse("error reading sub response headers: %v", err)
	}

	body, err := io.ReadAll(reader.R)
	if err != nil {
		return nil, malformedResponse("error reading sub response body: %v", err)
	}

	header := http.Header(mh)
	if header == nil {
		header = make(http.Header)
	}
	for name, values := range part.Header {
		for _, v := range values {
			header.Add(name, v)
		}
	}

	return &SubResponse{
		Proto:  "HTTP/" + m[1],
		Status: status,
		Reason: m[3],
		Header: header,
		Body:   body,
	}, nil
}

func malformedResponse(format string, args ...interface{}) *FirebaseError {
	return &FirebaseError{
		ErrorCode: InvalidArgument,
		String:    fmt.Sprintf(format, args...),
		Ext:       make(map[string]interface{}),
	}
}

// headerValue looks up a header, including keys that were stored without canonicalization.
func headerValue(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	for k, values := range h {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func normalizeContentID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
	return strings.TrimPrefix(id, "response-")
}
