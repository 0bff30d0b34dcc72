package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTasksCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List conversion actions and the media types they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := root.newApp()
			if err != nil {
				return err
			}
			defer done()

			for _, action := range app.Actions() {
				patterns := app.Registry.Patterns(action)
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", action, strings.Join(patterns, ", "))
			}
			return nil
		},
	}
}
