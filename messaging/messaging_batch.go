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
	"strconv"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	maxMessages        = 500
	maxMulticastTokens = 100
)

// SendResponse represents the status of an individual message that was sent as part of a batch
// request.
type SendResponse struct {
	Message   *Message
	Success   bool
	MessageID string
	Error     error
}

// BatchResponse represents the response from the SendAll and SendMulticast APIs.
//
// Responses holds one entry per input message, in the order of the input.
type BatchResponse struct {
	SuccessCount int
	FailureCount int
	Responses    []*SendResponse
}

// SendAll sends the messages in the given array via Firebase Cloud Messaging.
//
// The messages array may contain up to 500 messages. SendAll employs batching to send the entire
// array of messages as a single RPC call. The responses list obtained from the return value
// corresponds to the order of input messages. An error from SendAll indicates a total failure,
// i.e. none of the messages in the array could be sent. Partial failures are indicated by a
// BatchResponse return value.
func (c *Client) SendAll(ctx context.Context, messages []*Message) (*BatchResponse, error) {
	return c.sendAll(ctx, messages, false)
}

// SendAllDryRun sends the messages in the given array via Firebase Cloud Messaging in the
// dry run (validation only) mode.
func (c *Client) SendAllDryRun(ctx context.Context, messages []*Message) (*BatchResponse, error) {
	return c.sendAll(ctx, messages, true)
}

// SendMulticast sends the given message to each of the given registration tokens.
//
// The tokens list may contain up to 100 tokens. The message is copied once per token, with the
// token as the sole target. Any Topic or Condition set on the message is ignored.
func (c *Client) SendMulticast(ctx context.Context, message *Message, tokens []string) (*BatchResponse, error) {
	return c.sendMulticast(ctx, message, tokens, false)
}

// SendMulticastDryRun sends the given message to each of the given registration tokens in the
// dry run (validation only) mode.
func (c *Client) SendMulticastDryRun(ctx context.Context, message *Message, tokens []string) (*BatchResponse, error) {
	return c.sendMulticast(ctx, message, tokens, true)
}

func (c *Client) sendAll(ctx context.Context, messages []*Message, dryRun bool) (*BatchResponse, error) {
	req, err := c.newSendMessagesRequest(messages, dryRun)
	if err != nil {
		return nil, err
	}
	return c.sendBatch(ctx, req, messages)
}

func (c *Client) sendMulticast(
	ctx context.Context, message *Message, tokens []string, dryRun bool) (*BatchResponse, error) {

	req, err := c.newSendMessageToTokensRequest(message, tokens, dryRun)
	if err != nil {
		return nil, err
	}
	return c.sendBatch(ctx, req, toTokenMessages(message, tokens))
}

// newSendMessagesRequest builds a multipart envelope with one messages:send sub-request per
// message. Sub-request n carries the Content-ID n, counting from 1.
func (c *Client) newSendMessagesRequest(
	messages []*Message, dryRun bool) (*internal.RequestWithSubRequests, error) {

	if len(messages) == 0 {
		return nil, invalidArgument("messages must not be nil or empty")
	}
	if len(messages) > maxMessages {
		return nil, invalidArgument("messages must not contain more than %d elements", maxMessages)
	}

	url := c.sendURL()
	subRequests := make([]*internal.SubRequest, 0, len(messages))
	for idx, m := range messages {
		if err := validateMessage(m); err != nil {
			return nil, invalidArgument("invalid message at index %d: %v", idx, err)
		}

		body, err := json.Marshal(&fcmRequest{Message: m, ValidateOnly: dryRun})
		if err != nil {
			return nil, err
		}
		subRequests = append(subRequests, &internal.SubRequest{
			Method: http.MethodPost,
			URL:    url,
			Header: http.Header{
				"Content-ID":                []string{strconv.Itoa(idx + 1)},
				"Content-Type":              []string{"application/http"},
				"Content-Transfer-Encoding": []string{"binary"},
				apiFormatVersionHeader:      []string{apiFormatVersion},
			},
			Body: body,
		})
	}

	return internal.NewRequestWithSubRequests(c.batchEndpoint, internal.NewRequests(subRequests...))
}

// newSendMessageToTokensRequest builds a multipart envelope that delivers a copy of message to
// each token.
func (c *Client) newSendMessageToTokensRequest(
	message *Message, tokens []string, dryRun bool) (*internal.RequestWithSubRequests, error) {

	if message == nil {
		return nil, invalidArgument("message must not be nil")
	}
	if err := validateTokens(tokens, maxMulticastTokens); err != nil {
		return nil, invalidArgument("%v", err)
	}
	return c.newSendMessagesRequest(toTokenMessages(message, tokens), dryRun)
}

func toTokenMessages(message *Message, tokens []string) []*Message {
	messages := make([]*Message, len(tokens))
	for idx, token := range tokens {
		m := *message
		m.Token = token
		m.Topic = ""
		m.Condition = ""
		messages[idx] = &m
	}
	return messages
}

func (c *Client) sendBatch(
	ctx context.Context, req *internal.RequestWithSubRequests, messages []*Message) (*BatchResponse, error) {

	resp, err := c.hc.Do(ctx, req.Request())
	if err != nil {
		return nil, err
	}

	parsed, err := internal.ParseResponseWithSubResponses(resp)
	if err != nil {
		return nil, err
	}
	return newBatchResponse(req.SubRequests(), parsed.SubResponses(), messages), nil
}

func newBatchResponse(reqs *internal.Requests, resps *internal.Responses, messages []*Message) *BatchResponse {
	result := &BatchResponse{}
	for idx, sub := range reqs.All() {
		sr := newSendResponse(sub.ContentID(), resps)
		if idx < len(messages) {
			sr.Message = messages[idx]
		}
		if sr.Success {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
		result.Responses = append(result.Responses, sr)
	}
	return result
}

func newSendResponse(contentID string, resps *internal.Responses) *SendResponse {
	sub, ok := resps.FindByContentID(contentID)
	if !ok {
		return &SendResponse{
			Error: &internal.FirebaseError{
				ErrorCode: internal.Unknown,
				String:    fmt.Sprintf("no response found for the message with Content-ID %s", contentID),
				Ext:       map[string]interface{}{messagingErrorCode: messagingError},
			},
		}
	}

	resp := sub.Response()
	if !internal.HasSuccessStatus(resp) {
		return &SendResponse{Error: handleFCMError(resp)}
	}

	var result fcmResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return &SendResponse{Error: err}
	}
	return &SendResponse{
		Success:   true,
		MessageID: result.Name,
	}
}
