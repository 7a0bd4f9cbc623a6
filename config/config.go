// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config layers key value sources, such as YAML documents and
// environment variables, and decodes the result into structs.
package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure. Keys are paths of
// nested names.
type Store interface {
	Set(path []string, v any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Map is a [Source] and [Store] backed by nested maps.
type Map map[string]any

// Apply implements the [Source] interface. It recursively walks the
// map and sets every leaf value on store.
func (m Map) Apply(store Store) error {
	return walk(m, store, nil)
}

func walk(m map[string]any, store Store, path []string) error {
	for k, v := range m {
		p := append(path[:len(path):len(path)], k)
		sub, ok := v.(map[string]any)
		if !ok {
			err := store.Set(p, v)
			if err != nil {
				return err
			}
			continue
		}
		err := walk(sub, store, p)
		if err != nil {
			return err
		}
	}
	return nil
}

// KeyConflictError occurs when a value is set beneath a key which
// already holds a non map value.
type KeyConflictError struct {
	Key string
}

// Error implements the [builtin.error] interface.
func (e KeyConflictError) Error() string {
	return fmt.Sprintf("config key already holds a value: %s", e.Key)
}

// Set implements the [Store] interface.
func (m Map) Set(path []string, v any) error {
	if len(path) == 0 {
		return errors.New("config key path must not be empty")
	}
	cur := m
	for i, k := range path[:len(path)-1] {
		next, exists := cur[k]
		if !exists {
			sub := make(map[string]any)
			cur[k] = sub
			cur = sub
			continue
		}
		sub, ok := next.(map[string]any)
		if !ok {
			return KeyConflictError{Key: strings.Join(path[:i+1], ".")}
		}
		cur = sub
	}
	cur[path[len(path)-1]] = v
	return nil
}

// Manager holds the merged result of every [Source].
type Manager struct {
	store Map
}

// Read applies every source in order. Subsequent sources override
// values set by previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Unmarshal decodes the merged values into v using the "config" struct tag.
// Durations may be given as strings, such as "10s", or integer nanoseconds
// and any [encoding.TextUnmarshaler] is decoded from strings.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: composeDecodeHooks(
			timeDurationHookFunc(),
			textUnmarshalerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m.store))
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to unmarshal a config
// value to a struct field whose type does not match the config
// value type, up to, coercion.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if errors.Is(err, errInvalidDecodeCondition) {
				continue
			}
			return nil, TypeCoercionError{
				From:  f.Type(),
				To:    t.Type(),
				Cause: err,
			}
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(result).Elem().Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int:
			return time.Duration(int64(data.(int))), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
