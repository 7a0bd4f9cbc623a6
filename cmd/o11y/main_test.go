// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/z5labs/o11y"
	"github.com/z5labs/o11y/internal/noop"
	"github.com/z5labs/o11y/meter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, s string) string {
	path := filepath.Join(t.TempDir(), "o11y.yaml")
	require.NoError(t, os.WriteFile(path, []byte(s), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	t.Run("will print every violation", func(t *testing.T) {
		t.Run("if the config is invalid", func(t *testing.T) {
			path := writeConfig(t, `
resource:
  service_name: svc
tracer:
  enabled: true
  sample_ratio: 1.5
meter:
  enabled: true
  endpoint: http://localhost:4318
`)

			out, err := execute(t, "validate", "-f", path)

			assert.ErrorIs(t, err, errInvalidConfig)
			assert.Contains(t, out, "tracer: endpoint: must not be empty")
			assert.Contains(t, out, "tracer: sample_ratio: must be between 0 and 1")
			assert.NotContains(t, out, "meter:")
		})
	})

	t.Run("will succeed", func(t *testing.T) {
		t.Run("if every enabled signal is valid", func(t *testing.T) {
			path := writeConfig(t, `
resource:
  service_name: svc
tracer:
  enabled: true
  endpoint: {{ env "O11Y_TEST_TRACER_ENDPOINT" | default "http://localhost:4317" }}
`)

			out, err := execute(t, "validate", "-f", path)

			assert.NoError(t, err)
			assert.Contains(t, out, "config is valid")
		})
	})

	t.Run("will apply environment overrides", func(t *testing.T) {
		t.Setenv("O11YTEST_TRACER__ENDPOINT", "")

		path := writeConfig(t, `
resource:
  service_name: svc
tracer:
  enabled: true
  endpoint: http://localhost:4317
`)

		out, err := execute(t, "validate", "-f", path, "--env-prefix", "O11YTEST")

		assert.ErrorIs(t, err, errInvalidConfig)
		assert.Contains(t, out, "tracer: endpoint: must not be empty")
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the config file does not exist", func(t *testing.T) {
			_, err := execute(t, "validate", "-f", filepath.Join(t.TempDir(), "missing.yaml"))

			assert.Error(t, err)
		})
	})
}

func TestRun(t *testing.T) {
	t.Run("will print the shutdown report", func(t *testing.T) {
		t.Run("if every signal exports to stdout", func(t *testing.T) {
			path := writeConfig(t, `
resource:
  service_name: svc
logger:
  enabled: true
  endpoint: http://localhost:4318
tracer:
  enabled: true
  endpoint: http://localhost:4317
meter:
  enabled: true
  endpoint: http://localhost:4318
`)

			out, err := execute(t, "run", "-f", path, "--stdout", "--duration", "10ms")

			require.NoError(t, err)
			assert.Contains(t, out, "meter: ok")
			assert.Contains(t, out, "tracer: ok")
			assert.Contains(t, out, "logger: ok")
			assert.Contains(t, out, "o11y.run")
		})

		t.Run("if neither a duration nor a listen address is given", func(t *testing.T) {
			path := writeConfig(t, `
resource:
  service_name: svc
tracer:
  enabled: true
  endpoint: http://localhost:4317
`)

			done := make(chan struct{})
			var out string
			var err error
			go func() {
				defer close(done)
				out, err = execute(t, "run", "-f", path, "--stdout")
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("run did not shut down after emitting")
			}
			require.NoError(t, err)
			assert.Contains(t, out, "tracer: ok")
			assert.Contains(t, out, "o11y.run")
		})
	})

	t.Run("will return a SetupError", func(t *testing.T) {
		t.Run("if a signal is invalid", func(t *testing.T) {
			path := writeConfig(t, `
resource:
  service_name: svc
tracer:
  enabled: true
`)

			out, err := execute(t, "run", "-f", path, "--duration", "10ms")

			assert.Error(t, err)
			assert.Contains(t, out, "tracer: endpoint: must not be empty")
		})
	})
}

func TestNewMux(t *testing.T) {
	t.Run("will serve health and metrics", func(t *testing.T) {
		cfg, err := o11y.NewConfig("svc")
		require.NoError(t, err)
		cfg = cfg.WithMeter(
			meter.NewConfig("svc").
				WithEnabled(true).
				WithEndpoint("http://localhost:4318").
				WithPrometheus(true).
				WithExporter(&noop.MetricExporter{}),
		)

		tel, err := o11y.Setup(context.Background(), cfg)
		require.NoError(t, err)

		srv := httptest.NewServer(newMux(tel))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		tel.Shutdown(context.Background())

		resp, err = http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
