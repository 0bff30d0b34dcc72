package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errDiagnosticsFailed = errors.New("diagnostics reported failures")

func newDoctorCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		fix    []string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configured tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := root.newApp()
			if err != nil {
				return err
			}
			defer done()

			for _, id := range fix {
				if _, err := app.FixDiagnostic(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "fix %s: %v\n", id, err)
				}
			}

			report := app.Diagnostics()
			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return err
				}
				if err := enc.Close(); err != nil {
					return err
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case "text":
				for _, item := range report.Items {
					fmt.Fprintf(out, "[%-4s] %-22s %s\n", item.Status, item.Name, item.Message)
					if item.Hint != "" && item.Status != "pass" {
						fmt.Fprintf(out, "       %-22s hint: %s\n", "", item.Hint)
					}
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			if report.HasFailures {
				return errDiagnosticsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, yaml, json)")
	cmd.Flags().StringSliceVar(&fix, "fix", nil, "diagnostic ids to repair before reporting (e.g. tool_tesseract,scratch_dir)")
	return cmd
}
