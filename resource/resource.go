// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource describes the service every telemetry signal reports on behalf of.
package resource

import (
	"context"
	"errors"
	"maps"
	"sort"

	"github.com/z5labs/o11y/component"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

const (
	DefaultVersion   = "0.1.0"
	DefaultNamespace = "default"

	// TenantIDKey is the resource attribute holding the tenant id.
	TenantIDKey = attribute.Key("tenant.id")
)

// Builder accumulates the identity of a service. Every method returns
// a new Builder and leaves the receiver untouched.
type Builder struct {
	serviceName string
	version     string
	namespace   string
	environment string
	tenantID    string
	attributes  map[string]string
	detectors   []sdkresource.Detector
}

// NewBuilder returns a [Builder] for the named service.
func NewBuilder(serviceName string) (Builder, error) {
	if serviceName == "" {
		return Builder{}, component.ConfigError{Field: "service_name", Reason: component.MsgEmpty}
	}
	return Builder{serviceName: serviceName}, nil
}

// ServiceName returns the name given to [NewBuilder].
func (b Builder) ServiceName() string {
	return b.serviceName
}

func (b Builder) WithVersion(version string) Builder {
	b.version = version
	return b
}

func (b Builder) WithNamespace(namespace string) Builder {
	b.namespace = namespace
	return b
}

func (b Builder) WithEnvironment(env string) Builder {
	b.environment = env
	return b
}

func (b Builder) WithTenantID(id string) Builder {
	b.tenantID = id
	return b
}

// WithAttribute adds a custom resource attribute. Setting the same
// key twice keeps the last value.
func (b Builder) WithAttribute(key, value string) Builder {
	attrs := make(map[string]string, len(b.attributes)+1)
	maps.Copy(attrs, b.attributes)
	attrs[key] = value
	b.attributes = attrs
	return b
}

// WithDetector adds a detector which is consulted by [Descriptor.Detect].
func (b Builder) WithDetector(d sdkresource.Detector) Builder {
	b.detectors = append(b.detectors[:len(b.detectors):len(b.detectors)], d)
	return b
}

// Build never fails and performs no I/O. An empty version or
// namespace is replaced by [DefaultVersion] and [DefaultNamespace].
func (b Builder) Build() *Descriptor {
	d := &Descriptor{
		serviceName: b.serviceName,
		version:     b.version,
		namespace:   b.namespace,
		environment: b.environment,
		tenantID:    b.tenantID,
		instanceID:  uuid.NewString(),
		attributes:  maps.Clone(b.attributes),
		detectors:   b.detectors,
	}
	if d.version == "" {
		d.version = DefaultVersion
	}
	if d.namespace == "" {
		d.namespace = DefaultNamespace
	}
	d.res = sdkresource.NewWithAttributes(semconv.SchemaURL, d.Attributes()...)
	return d
}

// Descriptor is the immutable identity shared read-only by every signal.
type Descriptor struct {
	serviceName string
	version     string
	namespace   string
	environment string
	tenantID    string
	instanceID  string
	attributes  map[string]string
	detectors   []sdkresource.Detector

	res *sdkresource.Resource
}

func (d *Descriptor) ServiceName() string { return d.serviceName }
func (d *Descriptor) Version() string     { return d.version }
func (d *Descriptor) Namespace() string   { return d.namespace }
func (d *Descriptor) Environment() string { return d.environment }
func (d *Descriptor) TenantID() string    { return d.tenantID }
func (d *Descriptor) InstanceID() string  { return d.instanceID }

// Attributes returns the semantic convention and custom attributes
// describing the service, sorted by custom key after the standard ones.
func (d *Descriptor) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(d.serviceName),
		semconv.ServiceVersion(d.version),
		semconv.ServiceNamespace(d.namespace),
		semconv.ServiceInstanceID(d.instanceID),
	}
	if d.environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(d.environment))
	}
	if d.tenantID != "" {
		attrs = append(attrs, TenantIDKey.String(d.tenantID))
	}

	keys := make([]string, 0, len(d.attributes))
	for k := range d.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, d.attributes[k]))
	}
	return attrs
}

// Resource returns the OpenTelemetry resource for the service.
func (d *Descriptor) Resource() *sdkresource.Resource {
	return d.res
}

// HasDetectors reports whether [Descriptor.Detect] would do any work.
func (d *Descriptor) HasDetectors() bool {
	return len(d.detectors) > 0
}

// Detect runs the configured detectors and returns a new [Descriptor]
// whose resource also holds the detected attributes. Attributes set on the
// [Builder] take precedence over detected ones. If detection fails outright
// d is returned alongside the error.
func (d *Descriptor) Detect(ctx context.Context) (*Descriptor, error) {
	if !d.HasDetectors() {
		return d, nil
	}

	res, err := sdkresource.New(
		ctx,
		sdkresource.WithDetectors(d.detectors...),
		sdkresource.WithAttributes(d.Attributes()...),
	)
	if res == nil || (err != nil && !errors.Is(err, sdkresource.ErrPartialResource)) {
		return d, err
	}

	nd := *d
	nd.res = res
	return &nd, err
}
