package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"document-converter/internal/domain"
	"document-converter/internal/language"
)

// DevShmPath is the RAM-backed directory offered to the office suite.
const DevShmPath = "/dev/shm"

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	devShm     string
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		devShm:     DevShmPath,
	}
}

type toolSpec struct {
	id   string
	name string
	path string
	hint string
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	tools := []toolSpec{
		{"convert", "ImageMagick convert", settings.Tools.Convert, "Install ImageMagick; image conversion and OCR of non-TIFF images need it."},
		{"libreoffice", "LibreOffice", settings.Tools.LibreOffice, "Install LibreOffice; office document conversion needs it."},
		{"tesseract", "Tesseract OCR", settings.Tools.Tesseract, "Install tesseract and the language packs listed in tesseract_languages."},
		{"tika", "Apache Tika", settings.Tools.Tika, "Install a tika wrapper script; text extraction and language detection need it."},
		{"wkhtmltopdf", "wkhtmltopdf", settings.Tools.Wkhtmltopdf, "Install wkhtmltopdf; HTML to PDF rendering needs it."},
	}

	items := make([]domain.DiagnosticItem, 0, len(tools)+4)
	for _, tool := range tools {
		items = append(items, c.checkTool(tool))
	}
	items = append(items,
		c.checkWritableDir("scratch_dir", "Scratch directory", settings.ScratchDir),
		c.checkWritableDir("tika_config_dir", "Tika config directory", settings.TikaConfigDir),
		c.checkLanguage(settings.DefaultLanguage),
		c.checkDevShm(),
	)

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a configured executable resolves.
func (c *Checker) checkTool(tool toolSpec) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_" + tool.id,
		Name: tool.name,
	}

	if strings.TrimSpace(tool.path) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Tool path is empty."
		item.Hint = "Set tools." + tool.id + " in the configuration file."
		return item
	}

	path, err := c.lookPath(tool.path)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found: %s", tool.path)
		item.Hint = tool.hint
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkWritableDir validates directory existence and write access.
func (c *Checker) checkWritableDir(id, name, dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: id, Name: name}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = name + " is empty."
		item.Hint = "Set " + id + " in the configuration file."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkLanguage verifies the default language maps to an OCR code.
func (c *Checker) checkLanguage(lang string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "default_language", Name: "Default language"}

	alpha3, ok := language.Alpha3(lang)
	if !ok {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown language code: %q", lang)
		item.Hint = "Use an ISO 639-1 or ISO 639-2 code such as en or eng."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("%s (OCR code %s)", lang, alpha3)
	return item
}

// checkDevShm reports whether the RAM-backed temp directory is usable.
// Its absence only slows the office suite down.
func (c *Checker) checkDevShm() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "dev_shm", Name: "RAM temp directory"}

	info, err := c.stat(c.devShm)
	if err != nil || !info.IsDir() {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("%s is not available.", c.devShm)
		item.Hint = "Office conversions will use the default temp directory."
		return item
	}

	tmpFile, err := c.createTemp(c.devShm, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("%s is not writable.", c.devShm)
		item.Hint = "Office conversions will use the default temp directory."
		return item
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s", c.devShm)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	devShm string,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		devShm:     devShm,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
