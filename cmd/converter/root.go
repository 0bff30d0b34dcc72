package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"document-converter/internal/bootstrap"
	"document-converter/internal/logging"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "converter",
		Short: "Convert documents between office formats, PDF, images and text",
		Long: `converter runs named conversion actions (pdf, txt, ocr, msoffice, ...)
by chaining external tools such as LibreOffice, Tesseract, Tika,
ImageMagick and wkhtmltopdf.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file (YAML)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with CONVERTER_* overrides")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(
		newConvertCmd(opts),
		newTasksCmd(opts),
		newDoctorCmd(opts),
		newMergeCmd(opts),
		newLanguagesCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// newApp loads settings and builds the application. The returned function
// flushes the logger.
func (o *rootOptions) newApp() (*bootstrap.App, func(), error) {
	settings, err := bootstrap.LoadSettings(o.configPath, o.envFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		settings.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		settings.LogFormat = o.logFormat
	}

	logger, err := logging.New(settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	app, err := bootstrap.New(settings, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return app, func() { _ = logger.Sync() }, nil
}
