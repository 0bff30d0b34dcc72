// Package steps implements the conversion primitives. Steps are plain data
// records; Library.Apply is the single interpreter that runs them against a
// pipeline.State through the subprocess runner.
package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"

	"document-converter/internal/domain"
	"document-converter/internal/mediatype"
	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

// ConvertImage changes the image container format with the image tool.
type ConvertImage struct {
	// To is the target suffix, "tiff" when empty.
	To string
	// Params are extra tool arguments separated by spaces.
	Params string
}

// Office converts documents with the office suite, or extracts their text
// when Format is "txt".
type Office struct {
	Format string
}

// OCR recognises text in a TIFF image. Format is "", "hocr" or "pdf".
type OCR struct {
	Format string
}

// PDFText extracts the text layer of a PDF.
type PDFText struct{}

// HTMLToPDF renders HTML. Params are appended after the configured defaults.
type HTMLToPDF struct {
	Params string
}

// HTMLToText strips markup in-process.
type HTMLToText struct{}

// DetectLanguage replaces the content with the detected language code.
type DetectLanguage struct{}

// OCRPages rasterises every page of a PDF and runs OCR on the pages
// concurrently. Format is "txt" (or empty) for joined text, "pdf" for a
// merged searchable PDF.
type OCRPages struct {
	Format string
}

func (ConvertImage) StepName() string   { return "convert_image" }
func (Office) StepName() string         { return "office" }
func (OCR) StepName() string            { return "ocr" }
func (PDFText) StepName() string        { return "pdf_text" }
func (HTMLToPDF) StepName() string      { return "html_to_pdf" }
func (HTMLToText) StepName() string     { return "html_to_text" }
func (DetectLanguage) StepName() string { return "detect_language" }
func (OCRPages) StepName() string       { return "ocr_pages" }

// Executor runs external commands.
type Executor interface {
	Execute(ctx context.Context, cmd runner.Command) (runner.Result, error)
	ExecuteBatch(ctx context.Context, cmds []runner.Command) ([]runner.Result, error)
}

// TikaConfigs resolves text extractor configuration files.
type TikaConfigs interface {
	PathFor(language string) (string, error)
	PathForDetection() (string, error)
}

// DefaultDevShm is the RAM-backed temp directory offered to the office suite.
const DefaultDevShm = "/dev/shm"

// Library interprets step records.
type Library struct {
	tools     domain.Tools
	exec      Executor
	tika      TikaConfigs
	logger    *zap.Logger
	devShm    string
	dpi       float64
	rasterize Rasterizer
}

// Option configures a Library.
type Option func(*Library)

// WithDevShm overrides the RAM-backed temp directory. Empty disables it.
func WithDevShm(dir string) Option {
	return func(l *Library) { l.devShm = dir }
}

// WithRasterizer replaces the PDF page rasteriser.
func WithRasterizer(r Rasterizer) Option {
	return func(l *Library) {
		if r != nil {
			l.rasterize = r
		}
	}
}

// WithDPI sets the page rasterisation resolution.
func WithDPI(dpi float64) Option {
	return func(l *Library) {
		if dpi > 0 {
			l.dpi = dpi
		}
	}
}

// NewLibrary builds the step interpreter.
func NewLibrary(tools domain.Tools, exec Executor, tika TikaConfigs, logger *zap.Logger, opts ...Option) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Library{
		tools:     tools,
		exec:      exec,
		tika:      tika,
		logger:    logger,
		devShm:    DefaultDevShm,
		dpi:       300,
		rasterize: RasterizePDF,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply runs one step against st.
func (l *Library) Apply(ctx context.Context, st *pipeline.State, step pipeline.Step) error {
	switch s := step.(type) {
	case ConvertImage:
		return l.convertImage(ctx, st, s)
	case Office:
		return l.office(ctx, st, s)
	case OCR:
		return l.ocr(ctx, st, s)
	case PDFText:
		return l.pdfText(ctx, st)
	case HTMLToPDF:
		return l.htmlToPDF(ctx, st, s)
	case HTMLToText:
		return l.htmlToText(st)
	case DetectLanguage:
		return l.detectLanguage(ctx, st)
	case OCRPages:
		return l.ocrPages(ctx, st, s)
	default:
		return fmt.Errorf("unsupported step %T", step)
	}
}

// expect checks the media type precondition of a step.
func expect(st *pipeline.State, pattern string) error {
	if mediatype.MustCompile(pattern).Match(st.MediaType()) {
		return nil
	}
	return &pipeline.InvalidMediaTypeError{Expected: pattern, Actual: st.MediaType()}
}

// run executes cmd and maps a non-zero exit to ConversionFailedError.
func (l *Library) run(ctx context.Context, step string, cmd runner.Command, message string) (runner.Result, error) {
	res, err := l.exec.Execute(ctx, cmd)
	if err != nil {
		return res, fmt.Errorf("%s: %w", step, err)
	}
	if !res.Success() {
		return res, failed(step, message, res)
	}
	return res, nil
}

func failed(step, message string, res runner.Result) error {
	return &pipeline.ConversionFailedError{
		Step:       step,
		Message:    message,
		CommandLog: commandLog(res),
	}
}

func commandLog(res runner.Result) pipeline.CommandLog {
	log := pipeline.CommandLog{
		Command:  res.Command,
		Args:     res.Args,
		ExitCode: res.ExitCode,
		Stderr:   string(res.Stderr),
	}
	if utf8.Valid(res.Stdout) {
		log.Stdout = string(res.Stdout)
	}
	return log
}

// consume reads a tool output file and removes it.
func consume(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return data, nil
}
