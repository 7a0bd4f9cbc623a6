// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"fmt"
	"math"
	"net/url"
	"time"
)

const (
	MsgEmpty      = "must not be empty"
	MsgInvalidURL = "must be a valid URL"
	MsgPositive   = "must be greater than zero"
)

// Violations accumulates failed checks for a single signal config.
// The zero value is ready to use.
type Violations []Violation

// Add records a failed check.
func (vs *Violations) Add(field, msg string) {
	*vs = append(*vs, Violation{Field: field, Message: msg})
}

// Endpoint checks that endpoint is a non-empty absolute URL.
func (vs *Violations) Endpoint(field, endpoint string) {
	if endpoint == "" {
		vs.Add(field, MsgEmpty)
		return
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		vs.Add(field, MsgInvalidURL)
	}
}

// NotEmpty checks that s is not empty.
func (vs *Violations) NotEmpty(field, s string) {
	if s == "" {
		vs.Add(field, MsgEmpty)
	}
}

// Positive checks that d is greater than zero.
func (vs *Violations) Positive(field string, d time.Duration) {
	if d <= 0 {
		vs.Add(field, MsgPositive)
	}
}

// PositiveInt checks that n is greater than zero.
func (vs *Violations) PositiveInt(field string, n int) {
	if n <= 0 {
		vs.Add(field, MsgPositive)
	}
}

// Range checks that min <= f <= max. NaN is never in range.
func (vs *Violations) Range(field string, f, min, max float64) {
	if math.IsNaN(f) || f < min || f > max {
		vs.Add(field, fmt.Sprintf("must be between %g and %g", min, max))
	}
}

// Validator is implemented by values which can check their own consistency.
type Validator interface {
	Validate() error
}

// Check records the error returned by v, if any.
func (vs *Violations) Check(field string, v Validator) {
	err := v.Validate()
	if err != nil {
		vs.Add(field, err.Error())
	}
}

// Protocol checks that p is a known protocol.
func (vs *Violations) Protocol(field string, p Protocol) {
	if !p.Known() {
		vs.Add(field, fmt.Sprintf("unknown protocol: %s", p))
	}
}

// Err returns a [ValidationError] for kind or nil if no checks failed.
func (vs Violations) Err(kind Kind) error {
	if len(vs) == 0 {
		return nil
	}
	return ValidationError{Kind: kind, Violations: vs}
}
