// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/z5labs/o11y/component"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errInvalidConfig = errors.New("config is invalid")

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report every problem with the config",
		Long: `Validate loads the config and checks every enabled signal without
starting any of them. Every violation is printed and the command exits
with a non-zero status if there are any.

Examples:
  o11y validate -f o11y.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.validate(cmd.OutOrStdout())
		},
	}
}

func (c *cli) validate(out io.Writer) error {
	cfg, err := c.loadConfig()
	if err != nil {
		c.log.Error("failed to load config", zap.String("file", c.file), zap.Error(err))
		return err
	}

	err = cfg.Validate()
	if err == nil {
		fmt.Fprintln(out, "config is valid")
		return nil
	}
	printViolations(out, err)
	return errInvalidConfig
}

func printViolations(out io.Writer, err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, err := range errs {
		var verr component.ValidationError
		if !errors.As(err, &verr) {
			fmt.Fprintln(out, err)
			continue
		}
		for _, v := range verr.Violations {
			fmt.Fprintf(out, "%s: %s\n", verr.Kind, v)
		}
	}
}
