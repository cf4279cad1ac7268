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

package messaging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxDataPayloadSize = 4096

var (
	bareTopicNamePattern = regexp.MustCompile("^[a-zA-Z0-9-_.~%]+$")
	colorPattern         = regexp.MustCompile("^#[0-9a-fA-F]{6}$")
)

func validateMessage(message *Message) error {
	if message == nil {
		return errors.New("message must not be nil")
	}

	if countNonEmpty(message.Token, message.Condition, message.Topic) != 1 {
		return errors.New("exactly one of token, topic or condition must be specified")
	}
	if message.Topic != "" && !isTopicName(message.Topic) {
		return errors.New("malformed topic name")
	}
	if payloadSize(message.Data) > maxDataPayloadSize {
		return fmt.Errorf("data payload must not exceed %d bytes", maxDataPayloadSize)
	}

	if err := validateAndroidConfig(message.Android); err != nil {
		return err
	}
	if err := validateWebpushConfig(message.Webpush); err != nil {
		return err
	}
	return validateAPNSConfig(message.APNS)
}

func isTopicName(topic string) bool {
	return bareTopicNamePattern.MatchString(strings.TrimPrefix(topic, "/topics/"))
}

func payloadSize(data map[string]string) int {
	size := 0
	for k, v := range data {
		size += len(k) + len(v)
	}
	return size
}

func validateAndroidConfig(config *AndroidConfig) error {
	if config == nil {
		return nil
	}
	if config.TTL != nil && *config.TTL < 0 {
		return errors.New("ttl duration must not be negative")
	}
	if config.Priority != "" && config.Priority != "normal" && config.Priority != "high" {
		return errors.New("priority must be 'normal' or 'high'")
	}

	n := config.Notification
	if n == nil {
		return nil
	}
	if n.Color != "" && !colorPattern.MatchString(n.Color) {
		return errors.New("color must be in the #RRGGBB form")
	}
	return checkLocalization(n.TitleLocKey, n.TitleLocArgs, n.BodyLocKey, n.BodyLocArgs)
}

func validateAPNSConfig(config *APNSConfig) error {
	if config == nil || config.Payload == nil || config.Payload.Aps == nil {
		return nil
	}

	aps := config.Payload.Aps
	if aps.Alert != nil && aps.AlertString != "" {
		return errors.New("multiple alert specifications")
	}
	if err := checkCustomData(aps.standardFields(), aps.CustomData); err != nil {
		return err
	}
	if aps.Alert == nil {
		return nil
	}
	return checkLocalization(aps.Alert.TitleLocKey, aps.Alert.TitleLocArgs, aps.Alert.LocKey, aps.Alert.LocArgs)
}

func validateWebpushConfig(webpush *WebpushConfig) error {
	if webpush == nil || webpush.Notification == nil {
		return nil
	}
	switch webpush.Notification.Direction {
	case "", "ltr", "rtl", "auto":
	default:
		return errors.New("direction must be 'ltr', 'rtl' or 'auto'")
	}
	return checkCustomData(webpush.Notification.standardFields(), webpush.Notification.CustomData)
}

func checkLocalization(titleKey string, titleArgs []string, bodyKey string, bodyArgs []string) error {
	if len(titleArgs) > 0 && titleKey == "" {
		return errors.New("titleLocKey is required when specifying titleLocArgs")
	}
	if len(bodyArgs) > 0 && bodyKey == "" {
		return errors.New("locKey is required when specifying locArgs")
	}
	return nil
}

func checkCustomData(standard, custom map[string]interface{}) error {
	for k := range custom {
		if _, ok := standard[k]; ok {
			return fmt.Errorf("multiple specifications for the key %q", k)
		}
	}
	return nil
}

func validateTokens(tokens []string, limit int) error {
	if len(tokens) == 0 {
		return errors.New("tokens must not be nil or empty")
	}
	if len(tokens) > limit {
		return fmt.Errorf("tokens must not contain more than %d elements", limit)
	}
	for _, token := range tokens {
		if token == "" {
			return errors.New("tokens must not contain empty strings")
		}
	}
	return nil
}

func countNonEmpty(strings ...string) int {
	count := 0
	for _, s := range strings {
		if s != "" {
			count++
		}
	}
	return count
}
