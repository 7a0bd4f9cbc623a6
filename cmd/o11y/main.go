// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command o11y validates telemetry configs and runs them against
// real or stdout exporters.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/z5labs/o11y"
	"github.com/z5labs/o11y/config"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

type cli struct {
	log       *zap.Logger
	level     string
	file      string
	envPrefix string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "o11y",
		Short:         "Validate and run telemetry configs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				c.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&c.level, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&c.file, "file", "f", "o11y.yaml", "config file")
	cmd.PersistentFlags().StringVar(&c.envPrefix, "env-prefix", "O11Y", "prefix of environment variables overriding the config file")

	cmd.AddCommand(newValidateCmd(c))
	cmd.AddCommand(newRunCmd(c))
	return cmd
}

func (c *cli) initLogger(cmd *cobra.Command) error {
	level, err := zapcore.ParseLevel(c.level)
	if err != nil {
		return err
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	c.log = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.AddSync(cmd.ErrOrStderr()),
		level,
	))
	otel.SetLogger(zapr.NewLogger(c.log))
	return nil
}

// loadConfig reads the config file, rendered as a template, and then
// applies any environment overrides.
func (c *cli) loadConfig() (o11y.Config, error) {
	path, err := filepath.Abs(c.file)
	if err != nil {
		return o11y.Config{}, err
	}
	f := config.NewFileReader(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	return o11y.LoadConfig(
		config.FromYaml(config.RenderTextTemplate(f)),
		config.FromEnv(c.envPrefix),
	)
}
