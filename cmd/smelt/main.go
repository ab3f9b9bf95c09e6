// Command smelt validates and coerces YAML/JSON input against a
// declarative schema, reporting precise, path-located errors.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	yaml "github.com/itchyny/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/smelt-go/smelt"
	"github.com/smelt-go/smelt/pkg/reportfmt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smelt",
		Short:         "Schema-driven validation and coercion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newExportCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var (
		schemaPath string
		logLevel   string
		forceColor bool
	)
	cmd := &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate an input document against a schema",
		Long: `Validate reads a YAML or JSON document (from the given file, or stdin
when omitted) and validates it against the schema, printing the coerced
output on success or a located error report on failure.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaDoc, err := os.ReadFile(schemaPath)
			if err != nil {
				return fail(cmd, err)
			}
			raw, err := smelt.LoadSchemaYAML(schemaDoc)
			if err != nil {
				return fail(cmd, err)
			}
			v, err := smelt.NewWithOptions(raw, smelt.Options{
				Title:    schemaPath,
				LogLevel: logLevel,
			})
			if err != nil {
				return fail(cmd, err)
			}

			input, err := readInput(args)
			if err != nil {
				return fail(cmd, err)
			}

			out, err := v.Validate(input)
			if err != nil {
				var verr *smelt.ValidationError
				if errors.As(err, &verr) {
					fmt.Fprint(cmd.ErrOrStderr(), reportfmt.Format(verr, reportfmt.Options{
						Color: forceColor || isatty.IsTerminal(os.Stderr.Fd()),
					}))
					return errSilent
				}
				return fail(cmd, err)
			}

			rendered, err := yaml.Marshal(out)
			if err != nil {
				return fail(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(rendered))
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "path to the schema document (YAML or JSON)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "engine trace level (error, warn, info, debug)")
	cmd.Flags().BoolVar(&forceColor, "color", false, "force colored output")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newExportCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a compiled schema as JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaDoc, err := os.ReadFile(schemaPath)
			if err != nil {
				return fail(cmd, err)
			}
			raw, err := smelt.LoadSchemaYAML(schemaDoc)
			if err != nil {
				return fail(cmd, err)
			}
			graph, err := smelt.Build(raw)
			if err != nil {
				return fail(cmd, err)
			}
			rendered, err := yaml.Marshal(graph.JSONSchema())
			if err != nil {
				return fail(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(rendered))
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "path to the schema document (YAML or JSON)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// errSilent signals a failure that has already been reported.
var errSilent = errors.New("")

func readInput(args []string) (any, error) {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, err
	}
	var input any
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid input document: %w", err)
	}
	return input, nil
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "smelt: %v\n", err)
	return errSilent
}
