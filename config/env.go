// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a [Source] built from the environment variables which
// start with prefix followed by an underscore. The remainder is lower cased
// and split on double underscores into nested keys, so with the prefix
// O11Y the variable O11Y_TRACER__SAMPLE_RATIO sets tracer.sample_ratio.
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the [Source] interface.
func (src Env) Apply(store Store) error {
	prefix := src.prefix + "_"
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(k, prefix)
		if !ok || name == "" {
			continue
		}
		path := strings.Split(strings.ToLower(name), "__")
		err := store.Set(path, v)
		if err != nil {
			return err
		}
	}
	return nil
}
