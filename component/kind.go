// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"fmt"
	"strings"
)

// Kind identifies a telemetry signal.
type Kind int

const (
	Logger Kind = iota + 1
	Tracer
	Meter
	Profiler
)

// Kinds returns every signal in setup order.
func Kinds() []Kind {
	return []Kind{Logger, Tracer, Meter, Profiler}
}

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case Logger:
		return "logger"
	case Tracer:
		return "tracer"
	case Meter:
		return "meter"
	case Profiler:
		return "profiler"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Protocol is the wire transport an exporter uses.
// The zero value means the signal's default protocol.
type Protocol int

const (
	GRPC Protocol = iota + 1
	HTTPProtobuf
)

// String implements the [fmt.Stringer] interface.
func (p Protocol) String() string {
	switch p {
	case 0:
		return ""
	case GRPC:
		return "grpc"
	case HTTPProtobuf:
		return "http/protobuf"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Known reports whether p is unset or one of the supported protocols.
func (p Protocol) Known() bool {
	return p >= 0 && p <= HTTPProtobuf
}

// UnknownProtocolError is returned when a protocol name can not be parsed.
type UnknownProtocolError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol: %q", e.Name)
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (p *Protocol) UnmarshalText(b []byte) error {
	switch s := strings.ToLower(strings.TrimSpace(string(b))); s {
	case "":
		*p = 0
	case "grpc":
		*p = GRPC
	case "http", "http/protobuf":
		*p = HTTPProtobuf
	default:
		return UnknownProtocolError{Name: s}
	}
	return nil
}
