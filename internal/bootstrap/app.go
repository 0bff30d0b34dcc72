// Package bootstrap builds the converter from settings and exposes the
// operations used by the command line.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"document-converter/internal/config"
	"document-converter/internal/diagnostics"
	"document-converter/internal/domain"
	"document-converter/internal/jobs"
	"document-converter/internal/mediatype"
	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
	"document-converter/internal/steps"
	"document-converter/internal/tasks"
	"document-converter/internal/tikaconfig"
)

// converter isolates the pipeline engine behind an interface.
type converter interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

// App wires configuration, jobs, the pipeline and diagnostics.
type App struct {
	Settings domain.Settings
	Logger   *zap.Logger
	Registry *pipeline.Registry
	Jobs     *jobs.Manager
	Engine   converter

	checker   *diagnostics.Checker
	installer *toolInstaller
	events    *jobs.EventBus
}

// LoadSettings reads the YAML file at path (defaults when missing), then
// applies the optional .env files and CONVERTER_* environment overrides.
func LoadSettings(path string, envFiles ...string) (domain.Settings, error) {
	settings, err := config.NewYAMLStore(path).Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return domain.Settings{}, err
	}
	settings, err = config.ApplyEnv(settings, os.LookupEnv)
	if err != nil {
		return domain.Settings{}, err
	}
	return normalizeSettings(settings), nil
}

// New builds the application graph.
func New(settings domain.Settings, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = normalizeSettings(settings)

	if err := os.MkdirAll(settings.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	registry, err := tasks.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("register tasks: %w", err)
	}

	run := runner.New(logger.Named("runner"), runner.WithTimeout(settings.CommandTimeout))
	tika := tikaconfig.New(settings.TikaConfigDir, settings.TesseractLanguages, logger.Named("tika"))
	library := steps.NewLibrary(settings.Tools, run, tika, logger.Named("steps"))

	manager := jobs.NewManager()
	events := jobs.NewEventBus(1000)
	engine := pipeline.New(registry, library,
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithScratchRoot(settings.ScratchDir),
		pipeline.WithDefaultLanguage(settings.DefaultLanguage),
		pipeline.WithTracker(manager),
		pipeline.WithEvents(events),
	)

	return &App{
		Settings:  settings,
		Logger:    logger,
		Registry:  registry,
		Jobs:      manager,
		Engine:    engine,
		checker:   diagnostics.NewChecker(),
		installer: newToolInstaller(run),
		events:    events,
	}, nil
}

// Convert runs one action on in-memory content.
func (a *App) Convert(ctx context.Context, action string, content []byte, language string) ([]byte, error) {
	resp, err := a.Engine.Run(ctx, pipeline.Request{Action: action, Content: content, Language: language})
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// FileRequest converts one file on disk.
type FileRequest struct {
	Input    string
	Action   string
	Language string
	// OutDir receives the output; empty means next to the input.
	OutDir string
}

// FileResult describes one converted file.
type FileResult struct {
	Input     string           `json:"input"`
	Output    string           `json:"output,omitempty"`
	JobID     string           `json:"jobId,omitempty"`
	Status    domain.JobStatus `json:"status,omitempty"`
	MediaType string           `json:"mediaType,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ConvertFile reads Input, converts it and writes the result under an
// extension derived from the output content. The result carries the job id
// and tracked status even when the conversion fails.
func (a *App) ConvertFile(ctx context.Context, req FileRequest) (FileResult, error) {
	result := FileResult{Input: req.Input, JobID: uuid.NewString()}
	defer func() {
		if job, ok := a.Jobs.Get(result.JobID); ok {
			result.Status = job.Status
		}
	}()

	content, err := os.ReadFile(req.Input)
	if err != nil {
		return result, fmt.Errorf("read input: %w", err)
	}

	resp, err := a.Engine.Run(ctx, pipeline.Request{
		JobID:    result.JobID,
		Action:   req.Action,
		Content:  content,
		Language: req.Language,
		Input:    req.Input,
	})
	if err != nil {
		return result, err
	}

	out := outputPath(req.Input, req.OutDir, req.Action, resp.Content)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return result, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, resp.Content, 0o644); err != nil {
		return result, fmt.Errorf("write output: %w", err)
	}

	result.Output = out
	result.MediaType = resp.MediaType
	a.Logger.Info("file converted",
		zap.String("job", resp.JobID),
		zap.String("input", req.Input),
		zap.String("output", out))
	return result, nil
}

// ConvertFiles converts independent files with at most parallel jobs in
// flight. Every file is attempted; failures are combined.
func (a *App) ConvertFiles(ctx context.Context, reqs []FileRequest, parallel int) ([]FileResult, error) {
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]FileResult, len(reqs))
	errs := make([]error, len(reqs))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := a.ConvertFile(ctx, req)
			if err != nil {
				res.Error = err.Error()
				errs[i] = fmt.Errorf("%s: %w", req.Input, err)
			}
			results[i] = res
			return nil
		})
	}
	// Failures are collected per file in errs.
	g.Wait()

	return results, multierr.Combine(errs...)
}

// MergePDFs combines PDF files into out.
func (a *App) MergePDFs(inputs []string, out string) (int, error) {
	docs := make([][]byte, 0, len(inputs))
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", in, err)
		}
		if mt := mediatype.Essence(mediatype.Detect(data)); mt != "application/pdf" {
			return 0, &pipeline.InvalidMediaTypeError{Expected: "application/pdf", Actual: mt}
		}
		docs = append(docs, data)
	}

	merged, err := steps.CombinePDFs(docs)
	if err != nil {
		return 0, err
	}
	pages, err := steps.PageCount(merged)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	if err := os.WriteFile(out, merged, 0o644); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	return pages, nil
}

// Actions lists the registered actions.
func (a *App) Actions() []string {
	return a.Registry.Actions()
}

// Diagnostics runs the environment checks.
func (a *App) Diagnostics() domain.DiagnosticReport {
	return a.checker.Run(a.Settings)
}

// JobEvents returns the retained events of one job in order.
func (a *App) JobEvents(jobID string) []jobs.Event {
	return a.events.ForJob(jobID)
}

// FailedCommand returns the tool invocation behind a failed job, if the
// failure came from an external command.
func (a *App) FailedCommand(jobID string) (jobs.Event, bool) {
	events := a.JobEvents(jobID)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == jobs.EventTypeError && events[i].Command != "" {
			return events[i], true
		}
	}
	return jobs.Event{}, false
}

// JobSummary counts tracked jobs by status.
func (a *App) JobSummary() map[domain.JobStatus]int {
	counts := map[domain.JobStatus]int{}
	for _, job := range a.Jobs.List() {
		counts[job.Status]++
	}
	return counts
}

// SubscribeEvents streams job events published after the call. The returned
// func stops the stream and reports how many events were dropped.
func (a *App) SubscribeEvents(buffer int) (<-chan jobs.Event, func() int) {
	return a.events.Subscribe(buffer)
}

// outputPath places the converted file next to the input or in outDir.
func outputPath(input, outDir, action string, content []byte) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := mediatype.Extension(content)
	if ext == "" {
		ext = "." + action
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	out := filepath.Join(dir, base+ext)
	if out == filepath.Clean(input) {
		out = filepath.Join(dir, base+"."+action+ext)
	}
	return out
}

// normalizeSettings trims user inputs and applies defaults when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	trim := func(v *string, fallback string) {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			*v = fallback
		}
	}
	trim(&settings.Tools.Convert, defaults.Tools.Convert)
	trim(&settings.Tools.LibreOffice, defaults.Tools.LibreOffice)
	trim(&settings.Tools.Tesseract, defaults.Tools.Tesseract)
	trim(&settings.Tools.Tika, defaults.Tools.Tika)
	trim(&settings.Tools.Wkhtmltopdf, defaults.Tools.Wkhtmltopdf)
	trim(&settings.ScratchDir, defaults.ScratchDir)
	trim(&settings.TikaConfigDir, defaults.TikaConfigDir)
	trim(&settings.DefaultLanguage, defaults.DefaultLanguage)
	settings.Tools.WkhtmltopdfParams = strings.TrimSpace(settings.Tools.WkhtmltopdfParams)

	if len(settings.TesseractLanguages) == 0 {
		settings.TesseractLanguages = defaults.TesseractLanguages
	}
	return settings
}
