package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"document-converter/internal/bootstrap"
	"document-converter/internal/domain"
	"document-converter/internal/jobs"
)

type convertOptions struct {
	action   string
	language string
	outDir   string
	jobs     int
	progress bool
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Run a conversion action on one or more files",
		Example: `  converter convert --action pdf report.docx
  converter convert --action ocr_text --lang de --out ./text scan1.jpg scan2.jpg
  converter convert --action txt --out - page.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := root.newApp()
			if err != nil {
				return err
			}
			defer done()

			if opts.progress {
				stop := streamProgress(cmd, app)
				defer stop()
			}

			if opts.outDir == "-" {
				return convertToStdout(cmd, app, opts, args)
			}

			reqs := make([]bootstrap.FileRequest, 0, len(args))
			for _, in := range args {
				reqs = append(reqs, bootstrap.FileRequest{
					Input:    in,
					Action:   opts.action,
					Language: opts.language,
					OutDir:   opts.outDir,
				})
			}

			results, err := app.ConvertFiles(cmd.Context(), reqs, opts.jobs)
			for _, res := range results {
				if res.Error != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Input, res.Error)
					if ev, ok := app.FailedCommand(res.JobID); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "  command: %s %s (exit %d)\n", ev.Command, strings.Join(ev.Args, " "), ev.ExitCode)
						if ev.Stderr != "" {
							fmt.Fprintf(cmd.ErrOrStderr(), "  stderr: %s\n", tail(ev.Stderr, 400))
						}
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", res.Input, res.Output, res.MediaType)
			}
			if len(results) > 1 {
				fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(app.JobSummary()))
			}
			if err != nil {
				return fmt.Errorf("%d of %d conversions failed", countFailed(results), len(results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.action, "action", "a", "", "conversion action, see 'converter tasks'")
	flags.StringVarP(&opts.language, "lang", "l", "", "document language (ISO 639-1 or 639-2)")
	flags.StringVarP(&opts.outDir, "out", "o", "", "output directory, '-' for stdout (default: next to input)")
	flags.IntVarP(&opts.jobs, "jobs", "j", 2, "files converted in parallel")
	flags.BoolVar(&opts.progress, "progress", false, "print job steps to stderr while converting")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func convertToStdout(cmd *cobra.Command, app *bootstrap.App, opts *convertOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("--out - accepts exactly one input file")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	out, err := app.Convert(cmd.Context(), opts.action, content, opts.language)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func countFailed(results []bootstrap.FileResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// streamProgress prints step and error events to stderr until the returned
// func is called.
func streamProgress(cmd *cobra.Command, app *bootstrap.App) func() {
	events, cancel := app.SubscribeEvents(256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Type {
			case jobs.EventTypeStep:
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s: %s (%s)\n", shortID(ev.JobID), ev.Action, ev.Step, ev.MediaType)
			case jobs.EventTypeError:
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] failed: %s\n", shortID(ev.JobID), ev.Message)
			case jobs.EventTypeResult:
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] done (%s)\n", shortID(ev.JobID), ev.MediaType)
			}
		}
	}()
	return func() {
		if dropped := cancel(); dropped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d progress events dropped\n", dropped)
		}
		<-done
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// summaryLine renders job counts, e.g. "jobs: 2 done, 1 failed".
func summaryLine(counts map[domain.JobStatus]int) string {
	var parts []string
	for _, status := range []domain.JobStatus{
		domain.JobStatusDone,
		domain.JobStatusFailed,
		domain.JobStatusCancelled,
		domain.JobStatusRunning,
		domain.JobStatusQueued,
	} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	if len(parts) == 0 {
		return "jobs: none"
	}
	return "jobs: " + strings.Join(parts, ", ")
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
