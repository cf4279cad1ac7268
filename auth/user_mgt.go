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

package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/firebase/firebase-rest-go/internal"
)

const maxDeleteAccountsBatchSize = 1000

// DeleteUsersResult is the result of a DeleteUsers() call.
type DeleteUsersResult struct {
	SuccessCount int
	FailureCount int
	Errors       []*DeleteUsersErrorInfo
}

// DeleteUsersErrorInfo represents an error encountered while deleting a user account.
//
// The Index field corresponds to the index of the failed user in the uids array that was passed
// to DeleteUsers().
type DeleteUsersErrorInfo struct {
	Index  int    `json:"index,omitempty"`
	UID    string `json:"localId,omitempty"`
	Reason string `json:"message,omitempty"`
}

// DeleteUsers deletes the users specified by the given identifiers.
//
// Deleting a non-existing user won't generate an error. (i.e. this method is idempotent.)
// Non-existing users will be considered to be successfully deleted, and will therefore be
// counted in the DeleteUsersResult.SuccessCount value.
//
// A maximum of 1000 identifiers may be supplied. If more than 1000 identifiers are supplied,
// this method returns an error. Unless force is set, only disabled accounts are deleted.
//
// This API is currently rate limited at the server to 1 QPS. If you exceed this, you may get a
// quota exceeded error. Therefore, if you want to delete more than 1000 users, you may need to
// add a delay to ensure you don't go over this limit.
func (c *Client) DeleteUsers(ctx context.Context, uids []string, force bool) (*DeleteUsersResult, error) {
	if len(uids) == 0 {
		return &DeleteUsersResult{}, nil
	} else if len(uids) > maxDeleteAccountsBatchSize {
		return nil, invalidArgument("only %d users can be deleted at a time", maxDeleteAccountsBatchSize)
	}
	for i, uid := range uids {
		if uid == "" || len(uid) > maxUIDLength {
			return nil, invalidArgument("invalid uid at index %d: %q", i, uid)
		}
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/accounts:batchDelete", c.projectURL()),
		Body: internal.NewJSONEntity(map[string]interface{}{
			"localIds": uids,
			"force":    force,
		}),
	}

	var parsed struct {
		Errors []*DeleteUsersErrorInfo `json:"errors"`
	}
	if _, err := c.hc.DoAndUnmarshal(ctx, req, &parsed); err != nil {
		return nil, err
	}

	return &DeleteUsersResult{
		SuccessCount: len(uids) - len(parsed.Errors),
		FailureCount: len(parsed.Errors),
		Errors:       parsed.Errors,
	}, nil
}
