// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package auth models the authentication material attached to exporter requests.
package auth

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/z5labs/o11y/component"

	"golang.org/x/net/http/httpguts"
)

// DefaultAPIKeyHeader is the conventional header used for API keys.
const DefaultAPIKeyHeader = "X-API-Key"

const authorizationHeader = "Authorization"

type scheme int

const (
	none scheme = iota
	basic
	bearer
	apiKey
	customHeader
)

// Credentials is one of None, BasicAuth, BearerToken, APIKey or CustomHeader.
// The zero value is None.
type Credentials struct {
	scheme scheme

	// user or header name
	name string
	// password, token or header value
	secret string
}

// None returns [Credentials] which add no headers.
func None() Credentials {
	return Credentials{}
}

// BasicAuth returns HTTP basic auth [Credentials].
func BasicAuth(username, password string) (Credentials, error) {
	if username == "" {
		return Credentials{}, component.ConfigError{Field: "username", Reason: component.MsgEmpty}
	}
	if password == "" {
		return Credentials{}, component.ConfigError{Field: "password", Reason: component.MsgEmpty}
	}
	return Credentials{scheme: basic, name: username, secret: password}, nil
}

// BearerToken returns [Credentials] sent as an Authorization bearer token.
func BearerToken(token string) (Credentials, error) {
	if token == "" {
		return Credentials{}, component.ConfigError{Field: "token", Reason: component.MsgEmpty}
	}
	return Credentials{scheme: bearer, secret: token}, nil
}

// APIKey returns [Credentials] sending value in the named header.
// See [DefaultAPIKeyHeader].
func APIKey(header, value string) (Credentials, error) {
	if header == "" {
		return Credentials{}, component.ConfigError{Field: "header", Reason: component.MsgEmpty}
	}
	if value == "" {
		return Credentials{}, component.ConfigError{Field: "value", Reason: component.MsgEmpty}
	}
	c := Credentials{scheme: apiKey, name: header, secret: value}
	err := c.Validate()
	if err != nil {
		return Credentials{}, component.ConfigError{Field: "header", Reason: err.Error()}
	}
	return c, nil
}

// CustomHeader returns [Credentials] sending an arbitrary header. Use
// [BasicAuth] or [BearerToken] for the Authorization header.
func CustomHeader(header, value string) (Credentials, error) {
	if header == "" {
		return Credentials{}, component.ConfigError{Field: "header", Reason: component.MsgEmpty}
	}
	if value == "" {
		return Credentials{}, component.ConfigError{Field: "value", Reason: component.MsgEmpty}
	}
	c := Credentials{scheme: customHeader, name: header, secret: value}
	err := c.Validate()
	if err != nil {
		return Credentials{}, component.ConfigError{Field: "header", Reason: err.Error()}
	}
	return c, nil
}

var (
	errInvalidHeaderName    = errors.New("invalid header name")
	errReservedHeaderName   = errors.New("authorization header must be set with basic auth or a bearer token")
	errIncompleteCredential = errors.New("credentials are incomplete")
)

// Validate reports whether c is internally consistent.
func (c Credentials) Validate() error {
	switch c.scheme {
	case none:
		return nil
	case basic:
		if c.name == "" || c.secret == "" {
			return errIncompleteCredential
		}
	case bearer:
		if c.secret == "" {
			return errIncompleteCredential
		}
	case apiKey, customHeader:
		if c.name == "" || c.secret == "" {
			return errIncompleteCredential
		}
		if !httpguts.ValidHeaderFieldName(c.name) {
			return errInvalidHeaderName
		}
		if c.scheme == customHeader && strings.EqualFold(c.name, authorizationHeader) {
			return errReservedHeaderName
		}
	}
	return nil
}

// IsNone reports whether c adds no headers.
func (c Credentials) IsNone() bool {
	return c.scheme == none
}

// Headers maps c to the request headers an exporter must send.
// None yields an empty map and every other variant exactly one entry.
func (c Credentials) Headers() map[string]string {
	switch c.scheme {
	case basic:
		token := base64.StdEncoding.EncodeToString([]byte(c.name + ":" + c.secret))
		return map[string]string{authorizationHeader: "Basic " + token}
	case bearer:
		return map[string]string{authorizationHeader: "Bearer " + c.secret}
	case apiKey, customHeader:
		return map[string]string{c.name: c.secret}
	default:
		return map[string]string{}
	}
}

// String implements the [fmt.Stringer] interface without revealing secrets.
func (c Credentials) String() string {
	switch c.scheme {
	case basic:
		return "basic(" + c.name + ":****)"
	case bearer:
		return "bearer(****)"
	case apiKey:
		return "api_key(" + c.name + ": ****)"
	case customHeader:
		return "header(" + c.name + ": ****)"
	default:
		return "none"
	}
}

// LogValue implements the [slog.LogValuer] interface.
func (c Credentials) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
