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

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	defaultIIDEndpoint = "https://iid.googleapis.com/iid/v1"
	iidSubscribe       = "batchAdd"
	iidUnsubscribe     = "batchRemove"
	maxTopicTokens     = 1000
)

var iidErrorCodes = map[string]struct {
	code internal.ErrorCode
	kind string
	msg  string
}{
	"INVALID_ARGUMENT": {internal.InvalidArgument, invalidMessage, "request contains an invalid argument"},
	"NOT_FOUND":        {internal.NotFound, notFound, "request contains an unregistered token"},
	"INTERNAL":         {internal.Internal, serverError, "server encountered an internal error"},
	"TOO_MANY_TOPICS":  {internal.ResourceExhausted, tooManyTopics, "client exceeded the number of allowed topics"},
}

// ErrorInfo is a topic management error.
type ErrorInfo struct {
	Index  int
	Reason string
}

// TopicManagementResponse is the result produced by topic management operations.
//
// TopicManagementResponse provides an overview of how many input tokens were successfully handled,
// and how many failed. In case of failures, the Errors list provides specific details concerning
// each error.
type TopicManagementResponse struct {
	SuccessCount int
	FailureCount int
	Errors       []*ErrorInfo
}

func newTopicManagementResponse(resp *iidResponse) *TopicManagementResponse {
	tmr := &TopicManagementResponse{}
	for idx, res := range resp.Results {
		if res.Error == "" {
			tmr.SuccessCount++
			continue
		}

		tmr.FailureCount++
		reason := "unknown-error"
		if info, ok := iidErrorCodes[res.Error]; ok {
			reason = info.msg
		}
		tmr.Errors = append(tmr.Errors, &ErrorInfo{
			Index:  idx,
			Reason: reason,
		})
	}
	return tmr
}

// SubscribeToTopic subscribes a list of registration tokens to a topic.
//
// The tokens list must not be empty, and have at most 1000 tokens.
func (c *Client) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.makeTopicManagementRequest(ctx, &iidRequest{
		Topic:  topic,
		Tokens: tokens,
		op:     iidSubscribe,
	})
}

// UnsubscribeFromTopic unsubscribes a list of registration tokens from a topic.
//
// The tokens list must not be empty, and have at most 1000 tokens.
func (c *Client) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.makeTopicManagementRequest(ctx, &iidRequest{
		Topic:  topic,
		Tokens: tokens,
		op:     iidUnsubscribe,
	})
}

type iidRequest struct {
	Topic  string   `json:"to"`
	Tokens []string `json:"registration_tokens"`
	op     string
}

type iidResponse struct {
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (c *Client) makeTopicManagementRequest(ctx context.Context, req *iidRequest) (*TopicManagementResponse, error) {
	if err := validateTokens(req.Tokens, maxTopicTokens); err != nil {
		return nil, invalidArgument("%v", err)
	}
	if req.Topic == "" {
		return nil, invalidArgument("topic name not specified")
	}
	if !isTopicName(req.Topic) {
		return nil, invalidArgument("invalid topic name: %q", req.Topic)
	}
	if !strings.HasPrefix(req.Topic, "/topics/") {
		req.Topic = "/topics/" + req.Topic
	}

	request := &internal.Request{
		Method:      http.MethodPost,
		URL:         fmt.Sprintf("%s:%s", c.iidEndpoint, req.op),
		Body:        internal.NewJSONEntity(req),
		Opts:        []internal.HTTPOption{internal.WithHeader("access_token_auth", "true")},
		CreateErrFn: handleIIDError,
	}
	var result iidResponse
	if _, err := c.hc.DoAndUnmarshal(ctx, request, &result); err != nil {
		return nil, err
	}
	return newTopicManagementResponse(&result), nil
}

func handleIIDError(resp *internal.Response) error {
	var ie struct {
		Error string `json:"error"`
	}
	json.Unmarshal(resp.Body, &ie) // ignore any json parse errors at this level

	fe := internal.NewFirebaseError(resp)
	if info, ok := iidErrorCodes[ie.Error]; ok {
		fe.ErrorCode = info.code
		fe.Ext[messagingErrorCode] = info.kind
		fe.String = fmt.Sprintf("http error status: %d; reason: %s", resp.Status, info.msg)
	} else {
		fe.Ext[messagingErrorCode] = messagingError
		fe.String = fmt.Sprintf(
			"http error status: %d; reason: client encountered an unknown error; response: %s",
			resp.Status, string(resp.Body))
	}
	return fe
}
