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

package identityplatform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/firebase/firebase-rest-go/internal"
)

const (
	samlConfigsPath = "/inboundSamlConfigs"
	oidcConfigsPath = "/oauthIdpConfigs"

	idpEntityIDKey     = "idpConfig.idpEntityId"
	ssoURLKey          = "idpConfig.ssoUrl"
	signRequestKey     = "idpConfig.signRequest"
	idpCertsKey        = "idpConfig.idpCertificates"
	spEntityIDKey      = "spConfig.spEntityId"
	callbackURIKey     = "spConfig.callbackUri"
	clientIDKey        = "clientId"
	clientSecretKey    = "clientSecret"
	issuerKey          = "issuer"
	displayNameKey     = "displayName"
	enabledKey         = "enabled"
	codeResponseKey    = "responseType.code"
	idTokenResponseKey = "responseType.idToken"
)

// nestedMap holds request parameters addressed by dot-separated paths.
type nestedMap map[string]interface{}

func (nm nestedMap) Get(key string) (interface{}, bool) {
	segments := strings.Split(key, ".")
	curr := map[string]interface{}(nm)
	for idx, segment := range segments {
		val, ok := curr[segment]
		if idx == len(segments)-1 || !ok {
			return val, ok
		}
		curr = val.(map[string]interface{})
	}
	return nil, false
}

func (nm nestedMap) GetString(key string) (string, bool) {
	if val, ok := nm.Get(key); ok {
		return val.(string), true
	}
	return "", false
}

func (nm nestedMap) Set(key string, value interface{}) {
	segments := strings.Split(key, ".")
	curr := map[string]interface{}(nm)
	for idx, segment := range segments {
		if idx == len(segments)-1 {
			curr[segment] = value
			return
		}
		child, ok := curr[segment]
		if !ok {
			child = make(map[string]interface{})
			curr[segment] = child
		}
		curr = child.(map[string]interface{})
	}
}

// UpdateMask returns the sorted paths of all leaf values in the map.
func (nm nestedMap) UpdateMask() []string {
	mask := buildMask(nm)
	sort.Strings(mask)
	return mask
}

func buildMask(data map[string]interface{}) []string {
	var mask []string
	for k, v := range data {
		if child, ok := v.(map[string]interface{}); ok {
			for _, cm := range buildMask(child) {
				mask = append(mask, fmt.Sprintf("%s.%s", k, cm))
			}
		} else {
			mask = append(mask, k)
		}
	}
	return mask
}

// SAMLProviderConfig is the SAML auth provider configuration.
// See http://docs.oasis-open.org/security/saml/Post2.0/sstc-saml-tech-overview-2.0.html.
type SAMLProviderConfig struct {
	ID                    string
	DisplayName           string
	Enabled               bool
	IDPEntityID           string
	SSOURL                string
	RequestSigningEnabled bool
	X509Certificates      []string
	RPEntityID            string
	CallbackURL           string
}

// SAMLProviderConfigToCreate represents the options used to create a new SAMLProviderConfig.
type SAMLProviderConfigToCreate struct {
	id     string
	params nestedMap
}

// ID sets the provider ID of the new config. Must start with "saml.".
func (config *SAMLProviderConfigToCreate) ID(id string) *SAMLProviderConfigToCreate {
	config.id = id
	return config
}

// DisplayName sets the user-friendly display name of the new config.
func (config *SAMLProviderConfigToCreate) DisplayName(name string) *SAMLProviderConfigToCreate {
	return config.set(displayNameKey, name)
}

// Enabled enables or disables the new config.
func (config *SAMLProviderConfigToCreate) Enabled(enabled bool) *SAMLProviderConfigToCreate {
	return config.set(enabledKey, enabled)
}

// IDPEntityID sets the SAML IdP entity identifier.
func (config *SAMLProviderConfigToCreate) IDPEntityID(entityID string) *SAMLProviderConfigToCreate {
	return config.set(idpEntityIDKey, entityID)
}

// SSOURL sets the SAML IdP SSO URL.
func (config *SAMLProviderConfigToCreate) SSOURL(url string) *SAMLProviderConfigToCreate {
	return config.set(ssoURLKey, url)
}

// RequestSigningEnabled enables or disables signing of SAML requests.
func (config *SAMLProviderConfigToCreate) RequestSigningEnabled(enabled bool) *SAMLProviderConfigToCreate {
	return config.set(signRequestKey, enabled)
}

// X509Certificates sets the certificates used by the IdP to sign SAML responses.
func (config *SAMLProviderConfigToCreate) X509Certificates(certs []string) *SAMLProviderConfigToCreate {
	return config.set(idpCertsKey, certs)
}

// RPEntityID sets the SAML relying party entity identifier.
func (config *SAMLProviderConfigToCreate) RPEntityID(entityID string) *SAMLProviderConfigToCreate {
	return config.set(spEntityIDKey, entityID)
}

// CallbackURL sets the callback URL to which the IdP posts SAML responses.
func (config *SAMLProviderConfigToCreate) CallbackURL(url string) *SAMLProviderConfigToCreate {
	return config.set(callbackURIKey, url)
}

func (config *SAMLProviderConfigToCreate) set(key string, value interface{}) *SAMLProviderConfigToCreate {
	if config.params == nil {
		config.params = make(nestedMap)
	}
	config.params.Set(key, value)
	return config
}

func (config *SAMLProviderConfigToCreate) buildRequest() (nestedMap, string, error) {
	if config == nil {
		return nil, "", invalidArgument("config must not be nil")
	}
	if err := validateSAMLConfigID(config.id); err != nil {
		return nil, "", err
	}
	if len(config.params) == 0 {
		return nil, "", invalidArgument("no parameters specified in the create request")
	}

	if err := requireString(config.params, idpEntityIDKey, "IDPEntityID"); err != nil {
		return nil, "", err
	}
	if err := requireURL(config.params, ssoURLKey, "SSOURL"); err != nil {
		return nil, "", err
	}
	certs, err := certificates(config.params)
	if err != nil {
		return nil, "", err
	}
	if len(certs) == 0 {
		return nil, "", invalidArgument("X509Certificates must not be empty")
	}
	if err := requireString(config.params, spEntityIDKey, "RPEntityID"); err != nil {
		return nil, "", err
	}
	if err := requireURL(config.params, callbackURIKey, "CallbackURL"); err != nil {
		return nil, "", err
	}
	return config.params, config.id, nil
}

// SAMLProviderConfigToUpdate represents the options used to update an existing
// SAMLProviderConfig.
type SAMLProviderConfigToUpdate struct {
	params nestedMap
}

// DisplayName updates the user-friendly display name of the config.
func (config *SAMLProviderConfigToUpdate) DisplayName(name string) *SAMLProviderConfigToUpdate {
	return config.set(displayNameKey, name)
}

// Enabled enables or disables the config.
func (config *SAMLProviderConfigToUpdate) Enabled(enabled bool) *SAMLProviderConfigToUpdate {
	return config.set(enabledKey, enabled)
}

// IDPEntityID updates the SAML IdP entity identifier.
func (config *SAMLProviderConfigToUpdate) IDPEntityID(entityID string) *SAMLProviderConfigToUpdate {
	return config.set(idpEntityIDKey, entityID)
}

// SSOURL updates the SAML IdP SSO URL.
func (config *SAMLProviderConfigToUpdate) SSOURL(url string) *SAMLProviderConfigToUpdate {
	return config.set(ssoURLKey, url)
}

// RequestSigningEnabled enables or disables signing of SAML requests.
func (config *SAMLProviderConfigToUpdate) RequestSigningEnabled(enabled bool) *SAMLProviderConfigToUpdate {
	return config.set(signRequestKey, enabled)
}

// X509Certificates updates the certificates used by the IdP to sign SAML responses.
func (config *SAMLProviderConfigToUpdate) X509Certificates(certs []string) *SAMLProviderConfigToUpdate {
	return config.set(idpCertsKey, certs)
}

// RPEntityID updates the SAML relying party entity identifier.
func (config *SAMLProviderConfigToUpdate) RPEntityID(entityID string) *SAMLProviderConfigToUpdate {
	return config.set(spEntityIDKey, entityID)
}

// CallbackURL updates the callback URL to which the IdP posts SAML responses.
func (config *SAMLProviderConfigToUpdate) CallbackURL(url string) *SAMLProviderConfigToUpdate {
	return config.set(callbackURIKey, url)
}

func (config *SAMLProviderConfigToUpdate) set(key string, value interface{}) *SAMLProviderConfigToUpdate {
	if config.params == nil {
		config.params = make(nestedMap)
	}
	config.params.Set(key, value)
	return config
}

func (config *SAMLProviderConfigToUpdate) buildRequest() (nestedMap, error) {
	if config == nil {
		return nil, invalidArgument("config must not be nil")
	}
	if len(config.params) == 0 {
		return nil, invalidArgument("no parameters specified in the update request")
	}

	if _, ok := config.params.Get(idpEntityIDKey); ok {
		if err := requireString(config.params, idpEntityIDKey, "IDPEntityID"); err != nil {
			return nil, err
		}
	}
	if _, ok := config.params.Get(ssoURLKey); ok {
		if err := requireURL(config.params, ssoURLKey, "SSOURL"); err != nil {
			return nil, err
		}
	}
	if _, ok := config.params.Get(idpCertsKey); ok {
		certs, err := certificates(config.params)
		if err != nil {
			return nil, err
		}
		if len(certs) == 0 {
			return nil, invalidArgument("X509Certificates must not be empty")
		}
	}
	if _, ok := config.params.Get(spEntityIDKey); ok {
		if err := requireString(config.params, spEntityIDKey, "RPEntityID"); err != nil {
			return nil, err
		}
	}
	if _, ok := config.params.Get(callbackURIKey); ok {
		if err := requireURL(config.params, callbackURIKey, "CallbackURL"); err != nil {
			return nil, err
		}
	}
	return config.params, nil
}

// certificates converts the certificate list into the wire format in place, and returns it.
func certificates(params nestedMap) ([]interface{}, error) {
	val, ok := params.Get(idpCertsKey)
	if !ok {
		return nil, nil
	}
	if converted, ok := val.([]interface{}); ok {
		return converted, nil
	}

	var certs []interface{}
	for _, cert := range val.([]string) {
		if cert == "" {
			return nil, invalidArgument("X509Certificates must not contain empty strings")
		}
		certs = append(certs, map[string]interface{}{"x509Certificate": cert})
	}
	params.Set(idpCertsKey, certs)
	return certs, nil
}

// OIDCProviderConfig is the OIDC auth provider configuration.
// See https://openid.net/specs/openid-connect-core-1_0-final.html.
type OIDCProviderConfig struct {
	ID                  string
	DisplayName         string
	Enabled             bool
	ClientID            string
	Issuer              string
	ClientSecret        string
	CodeResponseType    bool
	IDTokenResponseType bool
}

// OIDCProviderConfigToCreate represents the options used to create a new OIDCProviderConfig.
type OIDCProviderConfigToCreate struct {
	id     string
	params nestedMap
}

// ID sets the provider ID of the new config. Must start with "oidc.".
func (config *OIDCProviderConfigToCreate) ID(id string) *OIDCProviderConfigToCreate {
	config.id = id
	return config
}

// DisplayName sets the user-friendly display name of the new config.
func (config *OIDCProviderConfigToCreate) DisplayName(name string) *OIDCProviderConfigToCreate {
	return config.set(displayNameKey, name)
}

// Enabled enables or disables the new config.
func (config *OIDCProviderConfigToCreate) Enabled(enabled bool) *OIDCProviderConfigToCreate {
	return config.set(enabledKey, enabled)
}

// ClientID sets the client ID of the new config.
func (config *OIDCProviderConfigToCreate) ClientID(clientID string) *OIDCProviderConfigToCreate {
	return config.set(clientIDKey, clientID)
}

// Issuer sets the issuer of the new config. Must be a valid URL.
func (config *OIDCProviderConfigToCreate) Issuer(issuer string) *OIDCProviderConfigToCreate {
	return config.set(issuerKey, issuer)
}

// ClientSecret sets the client secret used for the code flow.
func (config *OIDCProviderConfigToCreate) ClientSecret(secret string) *OIDCProviderConfigToCreate {
	return config.set(clientSecretKey, secret)
}

// CodeResponseType enables or disables the code flow.
func (config *OIDCProviderConfigToCreate) CodeResponseType(enabled bool) *OIDCProviderConfigToCreate {
	return config.set(codeResponseKey, enabled)
}

// IDTokenResponseType enables or disables the ID token flow.
func (config *OIDCProviderConfigToCreate) IDTokenResponseType(enabled bool) *OIDCProviderConfigToCreate {
	return config.set(idTokenResponseKey, enabled)
}

func (config *OIDCProviderConfigToCreate) set(key string, value interface{}) *OIDCProviderConfigToCreate {
	if config.params == nil {
		config.params = make(nestedMap)
	}
	config.params.Set(key, value)
	return config
}

func (config *OIDCProviderConfigToCreate) buildRequest() (nestedMap, string, error) {
	if config == nil {
		return nil, "", invalidArgument("config must not be nil")
	}
	if err := validateOIDCConfigID(config.id); err != nil {
		return nil, "", err
	}
	if len(config.params) == 0 {
		return nil, "", invalidArgument("no parameters specified in the create request")
	}

	if err := requireString(config.params, clientIDKey, "ClientID"); err != nil {
		return nil, "", err
	}
	if err := requireURL(config.params, issuerKey, "Issuer"); err != nil {
		return nil, "", err
	}
	if err := validateResponseType(config.params, true); err != nil {
		return nil, "", err
	}
	return config.params, config.id, nil
}

// OIDCProviderConfigToUpdate represents the options used to update an existing
// OIDCProviderConfig.
type OIDCProviderConfigToUpdate struct {
	params nestedMap
}

// DisplayName updates the user-friendly display name of the config.
func (config *OIDCProviderConfigToUpdate) DisplayName(name string) *OIDCProviderConfigToUpdate {
	return config.set(displayNameKey, name)
}

// Enabled enables or disables the config.
func (config *OIDCProviderConfigToUpdate) Enabled(enabled bool) *OIDCProviderConfigToUpdate {
	return config.set(enabledKey, enabled)
}

// ClientID updates the client ID of the config.
func (config *OIDCProviderConfigToUpdate) ClientID(clientID string) *OIDCProviderConfigToUpdate {
	return config.set(clientIDKey, clientID)
}

// Issuer updates the issuer of the config. Must be a valid URL.
func (config *OIDCProviderConfigToUpdate) Issuer(issuer string) *OIDCProviderConfigToUpdate {
	return config.set(issuerKey, issuer)
}

// ClientSecret updates the client secret used for the code flow.
func (config *OIDCProviderConfigToUpdate) ClientSecret(secret string) *OIDCProviderConfigToUpdate {
	return config.set(clientSecretKey, secret)
}

// CodeResponseType enables or disables the code flow.
func (config *OIDCProviderConfigToUpdate) CodeResponseType(enabled bool) *OIDCProviderConfigToUpdate {
	return config.set(codeResponseKey, enabled)
}

// IDTokenResponseType enables or disables the ID token flow.
func (config *OIDCProviderConfigToUpdate) IDTokenResponseType(enabled bool) *OIDCProviderConfigToUpdate {
	return config.set(idTokenResponseKey, enabled)
}

func (config *OIDCProviderConfigToUpdate) set(key string, value interface{}) *OIDCProviderConfigToUpdate {
	if config.params == nil {
		config.params = make(nestedMap)
	}
	config.params.Set(key, value)
	return config
}

func (config *OIDCProviderConfigToUpdate) buildRequest() (nestedMap, error) {
	if config == nil {
		return nil, invalidArgument("config must not be nil")
	}
	if len(config.params) == 0 {
		return nil, invalidArgument("no parameters specified in the update request")
	}

	if _, ok := config.params.Get(clientIDKey); ok {
		if err := requireString(config.params, clientIDKey, "ClientID"); err != nil {
			return nil, err
		}
	}
	if _, ok := config.params.Get(issuerKey); ok {
		if err := requireURL(config.params, issuerKey, "Issuer"); err != nil {
			return nil, err
		}
	}
	if err := validateResponseType(config.params, false); err != nil {
		return nil, err
	}
	return config.params, nil
}

// validateResponseType checks the response type flags. On create, enabling the code flow also
// requires a client secret.
func validateResponseType(params nestedMap, requireSecret bool) error {
	code, _ := params.Get(codeResponseKey)
	idToken, _ := params.Get(idTokenResponseKey)
	if code == true && idToken == true {
		return invalidArgument("only one response type may be chosen")
	}
	if code == true && requireSecret {
		if secret, _ := params.GetString(clientSecretKey); secret == "" {
			return invalidArgument("ClientSecret must not be empty when the code flow is enabled")
		}
	}
	return nil
}

// SAMLProviderConfig returns the SAMLProviderConfig with the given ID.
func (c *Client) SAMLProviderConfig(ctx context.Context, id string) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/%s", samlConfigsPath, id),
	}
	var result samlProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// CreateSAMLProviderConfig creates a new SAML provider config from the given parameters.
func (c *Client) CreateSAMLProviderConfig(ctx context.Context, config *SAMLProviderConfigToCreate) (*SAMLProviderConfig, error) {
	body, id, err := config.buildRequest()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    samlConfigsPath,
		Body:   internal.NewJSONEntity(body),
		Opts:   []internal.HTTPOption{internal.WithQueryParam("inboundSamlConfigId", id)},
	}
	var result samlProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// UpdateSAMLProviderConfig updates an existing SAML provider config with the given parameters.
func (c *Client) UpdateSAMLProviderConfig(ctx context.Context, id string, config *SAMLProviderConfigToUpdate) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}
	body, err := config.buildRequest()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("%s/%s", samlConfigsPath, id),
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("updateMask", strings.Join(body.UpdateMask(), ",")),
		},
	}
	var result samlProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// DeleteSAMLProviderConfig deletes the SAMLProviderConfig with the given ID.
func (c *Client) DeleteSAMLProviderConfig(ctx context.Context, id string) error {
	if err := validateSAMLConfigID(id); err != nil {
		return err
	}

	req := &internal.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("%s/%s", samlConfigsPath, id),
	}
	_, err := c.makeRequest(ctx, req, nil)
	return err
}

// OIDCProviderConfig returns the OIDCProviderConfig with the given ID.
func (c *Client) OIDCProviderConfig(ctx context.Context, id string) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/%s", oidcConfigsPath, id),
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// CreateOIDCProviderConfig creates a new OIDC provider config from the given parameters.
func (c *Client) CreateOIDCProviderConfig(ctx context.Context, config *OIDCProviderConfigToCreate) (*OIDCProviderConfig, error) {
	body, id, err := config.buildRequest()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    oidcConfigsPath,
		Body:   internal.NewJSONEntity(body),
		Opts:   []internal.HTTPOption{internal.WithQueryParam("oauthIdpConfigId", id)},
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// UpdateOIDCProviderConfig updates an existing OIDC provider config with the given parameters.
func (c *Client) UpdateOIDCProviderConfig(ctx context.Context, id string, config *OIDCProviderConfigToUpdate) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}
	body, err := config.buildRequest()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("%s/%s", oidcConfigsPath, id),
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("updateMask", strings.Join(body.UpdateMask(), ",")),
		},
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// DeleteOIDCProviderConfig deletes the OIDCProviderConfig with the given ID.
func (c *Client) DeleteOIDCProviderConfig(ctx context.Context, id string) error {
	if err := validateOIDCConfigID(id); err != nil {
		return err
	}

	req := &internal.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("%s/%s", oidcConfigsPath, id),
	}
	_, err := c.makeRequest(ctx, req, nil)
	return err
}

type samlProviderConfigDAO struct {
	Name      string `json:"name"`
	IDPConfig struct {
		IDPEntityID     string `json:"idpEntityId"`
		SSOURL          string `json:"ssoUrl"`
		IDPCertificates []struct {
			X509Certificate string `json:"x509Certificate"`
		} `json:"idpCertificates"`
		SignRequest bool `json:"signRequest"`
	} `json:"idpConfig"`
	SPConfig struct {
		SPEntityID  string `json:"spEntityId"`
		CallbackURI string `json:"callbackUri"`
	} `json:"spConfig"`
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`
}

func (dao *samlProviderConfigDAO) toSAMLProviderConfig() *SAMLProviderConfig {
	var certs []string
	for _, cert := range dao.IDPConfig.IDPCertificates {
		certs = append(certs, cert.X509Certificate)
	}

	return &SAMLProviderConfig{
		ID:                    extractResourceID(dao.Name),
		DisplayName:           dao.DisplayName,
		Enabled:               dao.Enabled,
		IDPEntityID:           dao.IDPConfig.IDPEntityID,
		SSOURL:                dao.IDPConfig.SSOURL,
		RequestSigningEnabled: dao.IDPConfig.SignRequest,
		X509Certificates:      certs,
		RPEntityID:            dao.SPConfig.SPEntityID,
		CallbackURL:           dao.SPConfig.CallbackURI,
	}
}

type oidcProviderConfigDAO struct {
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
	Issuer       string `json:"issuer"`
	DisplayName  string `json:"displayName"`
	Enabled      bool   `json:"enabled"`
	ClientSecret string `json:"clientSecret"`
	ResponseType struct {
		Code    bool `json:"code"`
		IDToken bool `json:"idToken"`
	} `json:"responseType"`
}

func (dao *oidcProviderConfigDAO) toOIDCProviderConfig() *OIDCProviderConfig {
	return &OIDCProviderConfig{
		ID:                  extractResourceID(dao.Name),
		DisplayName:         dao.DisplayName,
		Enabled:             dao.Enabled,
		ClientID:            dao.ClientID,
		Issuer:              dao.Issuer,
		ClientSecret:        dao.ClientSecret,
		CodeResponseType:    dao.ResponseType.Code,
		IDTokenResponseType: dao.ResponseType.IDToken,
	}
}

func validateSAMLConfigID(id string) error {
	if !strings.HasPrefix(id, "saml.") {
		return invalidArgument("invalid SAML provider id: %q", id)
	}
	return nil
}

func validateOIDCConfigID(id string) error {
	if !strings.HasPrefix(id, "oidc.") {
		return invalidArgument("invalid OIDC provider id: %q", id)
	}
	return nil
}

func requireString(params nestedMap, key, name string) error {
	if val, ok := params.GetString(key); !ok || val == "" {
		return invalidArgument("%s must not be empty", name)
	}
	return nil
}

func requireURL(params nestedMap, key, name string) error {
	val, ok := params.GetString(key)
	if !ok || val == "" {
		return invalidArgument("%s must not be empty", name)
	}
	if u, err := url.ParseRequestURI(val); err != nil || u.Host == "" {
		return invalidArgument("failed to parse %s: %q", name, val)
	}
	return nil
}

func extractResourceID(name string) string {
	// name format: "projects/project-id/resource/resource-id"
	segments := strings.Split(name, "/")
	return segments[len(segments)-1]
}
