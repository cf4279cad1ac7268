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

package db

import (
	"context"
	"encoding/json"
	"net/http"
)

// RuleSet is a set of Realtime Database security rules.
type RuleSet struct {
	rules map[string]interface{}
}

// DefaultRuleSet returns the rules of a newly created database: read and write access for
// authenticated users only.
func DefaultRuleSet() *RuleSet {
	return RuleSetFromMap(map[string]interface{}{
		".read":  "auth != null",
		".write": "auth != null",
	})
}

// PublicRuleSet returns rules that allow anyone to read and write the database.
func PublicRuleSet() *RuleSet {
	return RuleSetFromMap(map[string]interface{}{
		".read":  true,
		".write": true,
	})
}

// PrivateRuleSet returns rules that deny all client access to the database.
func PrivateRuleSet() *RuleSet {
	return RuleSetFromMap(map[string]interface{}{
		".read":  false,
		".write": false,
	})
}

// RuleSetFromMap creates a RuleSet from the given rules. The rules may either be the contents
// of the top-level "rules" key, or a map containing that key.
func RuleSetFromMap(rules map[string]interface{}) *RuleSet {
	if inner, ok := rules["rules"].(map[string]interface{}); ok && len(rules) == 1 {
		rules = inner
	}
	return &RuleSet{rules: rules}
}

// RuleSetFromJSON parses a RuleSet from a JSON document like the one shown in the Firebase
// console.
func RuleSetFromJSON(b []byte) (*RuleSet, error) {
	var rules map[string]interface{}
	if err := json.Unmarshal(b, &rules); err != nil {
		return nil, invalidArgument("invalid rules document: %v", err)
	}
	return RuleSetFromMap(rules), nil
}

// Rules returns the rules of this RuleSet, without the enclosing "rules" key.
func (rs *RuleSet) Rules() map[string]interface{} {
	return rs.rules
}

// MarshalJSON encodes the RuleSet wrapped in the top-level "rules" key.
func (rs *RuleSet) MarshalJSON() ([]byte, error) {
	rules := rs.rules
	if rules == nil {
		rules = map[string]interface{}{}
	}
	return json.Marshal(map[string]interface{}{"rules": rules})
}

// GetRules retrieves the security rules of the database.
func (c *Client) GetRules(ctx context.Context) (*RuleSet, error) {
	resp, err := c.get(ctx, pathURL(rulesPath))
	if err != nil {
		return nil, err
	}

	var rules map[string]interface{}
	if err := resp.Unmarshal(http.StatusOK, &rules); err != nil {
		return nil, err
	}
	return RuleSetFromMap(rules), nil
}

// UpdateRules replaces the security rules of the database.
func (c *Client) UpdateRules(ctx context.Context, rs *RuleSet) error {
	_, err := c.send(ctx, http.MethodPut, pathURL(rulesPath), rs)
	return err
}
