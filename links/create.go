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

package links

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

// SuffixOption controls how the path component of a short link is generated.
type SuffixOption string

const (
	// UnguessableSuffix generates a 17 character path component.
	UnguessableSuffix SuffixOption = "UNGUESSABLE"

	// ShortSuffix generates a path component that is only as long as needed to be unique.
	ShortSuffix SuffixOption = "SHORT"
)

// DynamicLinkInfo describes the dynamic link to create.
type DynamicLinkInfo struct {
	DomainURIPrefix   string             `json:"domainUriPrefix,omitempty"`
	Link              string             `json:"link,omitempty"`
	AndroidInfo       *AndroidInfo       `json:"androidInfo,omitempty"`
	IOSInfo           *IOSInfo           `json:"iosInfo,omitempty"`
	NavigationInfo    *NavigationInfo    `json:"navigationInfo,omitempty"`
	AnalyticsInfo     *AnalyticsInfo     `json:"analyticsInfo,omitempty"`
	SocialMetaTagInfo *SocialMetaTagInfo `json:"socialMetaTagInfo,omitempty"`
}

// AndroidInfo contains the Android related parameters of a dynamic link.
type AndroidInfo struct {
	PackageName           string `json:"androidPackageName,omitempty"`
	FallbackLink          string `json:"androidFallbackLink,omitempty"`
	MinPackageVersionCode string `json:"androidMinPackageVersionCode,omitempty"`
}

// IOSInfo contains the iOS related parameters of a dynamic link.
type IOSInfo struct {
	BundleID         string `json:"iosBundleId,omitempty"`
	FallbackLink     string `json:"iosFallbackLink,omitempty"`
	CustomScheme     string `json:"iosCustomScheme,omitempty"`
	IPadFallbackLink string `json:"iosIpadFallbackLink,omitempty"`
	IPadBundleID     string `json:"iosIpadBundleId,omitempty"`
	AppStoreID       string `json:"iosAppStoreId,omitempty"`
}

// NavigationInfo contains the navigation behavior of a dynamic link.
type NavigationInfo struct {
	EnableForcedRedirect bool `json:"enableForcedRedirect,omitempty"`
}

// AnalyticsInfo contains the analytics parameters of a dynamic link.
type AnalyticsInfo struct {
	GooglePlayAnalytics    *GooglePlayAnalytics    `json:"googlePlayAnalytics,omitempty"`
	ITunesConnectAnalytics *ITunesConnectAnalytics `json:"itunesConnectAnalytics,omitempty"`
}

// GooglePlayAnalytics contains the Google Play campaign parameters.
type GooglePlayAnalytics struct {
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
}

// ITunesConnectAnalytics contains the iTunes Connect campaign parameters.
type ITunesConnectAnalytics struct {
	AffiliateToken string `json:"at,omitempty"`
	CampaignToken  string `json:"ct,omitempty"`
	MediaType      string `json:"mt,omitempty"`
	ProviderToken  string `json:"pt,omitempty"`
}

// SocialMetaTagInfo contains the parameters used when a dynamic link is shared on social media.
type SocialMetaTagInfo struct {
	Title       string `json:"socialTitle,omitempty"`
	Description string `json:"socialDescription,omitempty"`
	ImageLink   string `json:"socialImageLink,omitempty"`
}

// DynamicLink is a short dynamic link returned by the service.
type DynamicLink struct {
	ShortLink   string        `json:"shortLink"`
	PreviewLink string        `json:"previewLink"`
	Warnings    []LinkWarning `json:"warning,omitempty"`
}

// LinkWarning is a non-fatal issue the service detected while creating a link.
type LinkWarning struct {
	Code    string `json:"warningCode"`
	Message string `json:"warningMessage"`
}

// Domain returns the scheme and host of the short link.
func (dl *DynamicLink) Domain() string {
	u, err := url.Parse(dl.ShortLink)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Suffix returns the path component of the short link.
func (dl *DynamicLink) Suffix() string {
	u, err := url.Parse(dl.ShortLink)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// HasWarnings reports whether the service returned any warnings.
func (dl *DynamicLink) HasWarnings() bool {
	return len(dl.Warnings) > 0
}

// CreateShortLink creates a short dynamic link that opens the given URL. The link is created
// under the default domain of the client.
func (c *Client) CreateShortLink(ctx context.Context, link string, suffix SuffixOption) (*DynamicLink, error) {
	if link == "" {
		return nil, invalidArgument("link must be a non-empty string")
	}
	return c.CreateDynamicLink(ctx, &DynamicLinkInfo{Link: link}, suffix)
}

// CreateDynamicLink creates a short dynamic link from the given parameters.
//
// When info does not specify a DomainURIPrefix, the default domain of the client is used. An
// empty suffix selects UnguessableSuffix.
func (c *Client) CreateDynamicLink(
	ctx context.Context, info *DynamicLinkInfo, suffix SuffixOption) (*DynamicLink, error) {

	if info == nil {
		return nil, invalidArgument("dynamic link info must not be nil")
	}
	body := *info
	if body.DomainURIPrefix == "" {
		body.DomainURIPrefix = c.domain
	}
	if body.DomainURIPrefix == "" {
		return nil, invalidArgument("a dynamic link domain must be specified")
	}

	payload := map[string]interface{}{
		"dynamicLinkInfo": &body,
		"suffix":          suffixBody(suffix),
	}
	return c.shortLinks(ctx, payload, failedToCreateLink, "failed to create dynamic link")
}

// ShortenLongDynamicLink converts a long dynamic link into a short one.
func (c *Client) ShortenLongDynamicLink(
	ctx context.Context, longDynamicLink string, suffix SuffixOption) (*DynamicLink, error) {

	if !strings.HasPrefix(longDynamicLink, "https://") {
		return nil, invalidArgument("long dynamic link must start with https://")
	}

	payload := map[string]interface{}{
		"longDynamicLink": longDynamicLink,
		"suffix":          suffixBody(suffix),
	}
	return c.shortLinks(ctx, payload, failedToShortenLink, "failed to shorten long dynamic link")
}

func (c *Client) shortLinks(
	ctx context.Context, payload map[string]interface{}, kind, fallback string) (*DynamicLink, error) {

	request := &internal.Request{
		Method:      http.MethodPost,
		URL:         c.linksEndpoint + "/shortLinks",
		Body:        internal.NewJSONEntity(payload),
		SuccessFn:   statusOK,
		CreateErrFn: failedError(kind, fallback),
	}

	var result DynamicLink
	if _, err := c.client.DoAndUnmarshal(ctx, request, &result); err != nil {
		return nil, wrapTransportError(err, kind, fallback)
	}
	return &result, nil
}

func suffixBody(suffix SuffixOption) map[string]string {
	if suffix == "" {
		suffix = UnguessableSuffix
	}
	return map[string]string{"option": string(suffix)}
}
