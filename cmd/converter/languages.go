package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLanguagesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "Show configured OCR languages and whether their data is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := root.newApp()
			if err != nil {
				return err
			}
			defer done()

			for _, lang := range app.OCRLanguages() {
				switch {
				case lang.Alpha3 == "":
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s unknown language code\n", lang.Code)
				case lang.Installed:
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s  %s\n", lang.Code, lang.Alpha3, lang.LocalPath)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s  not installed\n", lang.Code, lang.Alpha3)
				}
			}
			return nil
		},
	}
}
