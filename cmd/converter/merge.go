package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMergeCmd(root *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "merge FILE.pdf...",
		Short: "Combine PDF documents into one, in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := root.newApp()
			if err != nil {
				return err
			}
			defer done()

			pages, err := app.MergePDFs(args, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages from %d documents\n", out, pages, len(args))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "combined.pdf", "output file")
	return cmd
}
