// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Binary pyproject validates a pyproject.toml file and renders its
// [project] table as core metadata.
package main

import (
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pybuild-go/pyproject/pkg/pyproject"
)

func load(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading pyproject file")
	}
	var data map[string]any
	if err := toml.Unmarshal(content, &data); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return data, nil
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "pyproject.toml"
}

func buildOptions(path string, collect bool) pyproject.Options {
	return pyproject.Options{
		ProjectDir:    osfs.New(filepath.Dir(path)),
		CollectErrors: collect,
		OnWarning: func(w pyproject.ConfigWarning) {
			log.Printf("warning: %s", w.Message)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pyproject.toml]",
		Short: "Check a pyproject.toml against the project table rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathArg(args)
			data, err := load(path)
			if err != nil {
				return err
			}
			var errs pyproject.ValidationErrors
			for _, err := range []error{pyproject.ValidateTopLevel(data), pyproject.ValidateBuildSystem(data)} {
				var cerr *pyproject.ConfigError
				if stderrors.As(err, &cerr) {
					errs = append(errs, cerr)
				}
			}
			opts := buildOptions(path, true)
			opts.ExtraKeys = pyproject.ExtraKeysError
			if _, err := pyproject.FromPyProject(data, opts); err != nil {
				var verrs pyproject.ValidationErrors
				if stderrors.As(err, &verrs) {
					errs = append(errs, verrs...)
				} else {
					return err
				}
			}
			if len(errs) > 0 {
				return errs
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [pyproject.toml]",
		Short: "Render the project table as a core-metadata record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathArg(args)
			data, err := load(path)
			if err != nil {
				return err
			}
			md, err := pyproject.FromPyProject(data, buildOptions(path, true))
			if err != nil {
				return err
			}
			msg, err := md.AsRFC822()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), msg.String())
			return nil
		},
	}
}

func jsonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json [pyproject.toml]",
		Short: "Dump the metadata in the structured JSON form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathArg(args)
			data, err := load(path)
			if err != nil {
				return err
			}
			opts := buildOptions(path, true)
			opts.ExtraKeys = pyproject.ExtraKeysAllow
			md, err := pyproject.FromPyProject(data, opts)
			if err != nil {
				return err
			}
			out, err := md.ToMap()
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encoding metadata")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

// isConfigErr reports whether err stems from the input data rather than
// from usage or I/O, which decides the exit code.
func isConfigErr(err error) bool {
	var cerr *pyproject.ConfigError
	var verrs pyproject.ValidationErrors
	return stderrors.As(err, &cerr) || stderrors.As(err, &verrs)
}

func main() {
	log.SetFlags(0)
	root := &cobra.Command{
		Use:           "pyproject",
		Short:         "Validate and render pyproject.toml project metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(validateCmd(), renderCmd(), jsonCmd())
	if err := root.Execute(); err != nil {
		log.Print(err)
		if isConfigErr(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
