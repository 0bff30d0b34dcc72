package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"document-converter/internal/mediatype"
	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

type suffixRule struct {
	pattern mediatype.Pattern
	suffix  string
}

func rule(pattern, suffix string) suffixRule {
	return suffixRule{pattern: mediatype.MustCompile(pattern), suffix: suffix}
}

// officeFormats maps a target family to ordered (source pattern, suffix)
// rules. The first matching rule wins.
var officeFormats = map[string][]suffixRule{
	"pdf": {
		rule(".*", "pdf"),
	},
	"msoffice": {
		rule("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"),
		rule("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"),
		rule("application/vnd.openxmlformats-officedocument.presentationml.presentation", "pptx"),
		rule("application/vnd.oasis.opendocument.text", "docx"),
		rule("application/vnd.oasis.opendocument.spreadsheet", "xlsx"),
		rule("application/vnd.oasis.opendocument.presentation", "pptx"),
		rule("application/zip", "docx"),
	},
	"ooffice": {
		rule("application/msword", "odt"),
		rule("application/vnd.ms-word", "odt"),
		rule("application/vnd.ms-excel", "ods"),
		rule("application/vnd.ms-office", "odt"),
		rule("application/vnd.ms-powerpoint", "odp"),
		rule("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "odt"),
		rule("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "ods"),
		rule("application/vnd.openxmlformats-officedocument.presentationml.presentation", "odp"),
	},
	"txt": {
		rule(".*", "txt"),
	},
}

// officeSuffix returns the output suffix for converting mediaType into the
// format family.
func officeSuffix(format, mediaType string) (string, error) {
	rules, ok := officeFormats[format]
	if !ok {
		return "", &pipeline.InvalidParameterError{Name: "format", Value: format}
	}
	for _, r := range rules {
		if r.pattern.Match(mediaType) {
			return r.suffix, nil
		}
	}
	return "", &pipeline.InvalidMediaTypeError{Expected: "(various document formats)", Actual: mediaType}
}

func (l *Library) office(ctx context.Context, st *pipeline.State, s Office) error {
	step := s.StepName()
	suffix, err := officeSuffix(s.Format, st.MediaType())
	if err != nil {
		return err
	}

	input, err := st.ContentFile("")
	if err != nil {
		return err
	}

	if suffix == "txt" {
		res, err := l.run(ctx, step, runner.Command{
			Name:   l.tools.Tika,
			Args:   tikaArgs("", tikaText, input),
			Binary: true,
		}, "")
		if err != nil {
			return err
		}
		return st.SetContent(res.Stdout)
	}

	target := officeOutput(input, suffix)
	res, err := l.runOffice(ctx, st, officeArgsFor(suffix, st.ScratchDir(), input))
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}

	data, readErr := consume(target)
	if errors.Is(readErr, fs.ErrNotExist) {
		return &pipeline.ConversionFailedError{
			Step:       step,
			Message:    fmt.Sprintf("cannot find converted file (looking for %s)", target),
			CommandLog: commandLog(res),
			Err:        readErr,
		}
	}
	if !res.Success() {
		return failed(step, "", res)
	}
	if readErr != nil {
		return fmt.Errorf("%s: read output: %w", step, readErr)
	}
	return st.SetContent(data)
}

// officeOutput is where the office suite writes input converted to suffix:
// the input base name with its extension replaced.
func officeOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + suffix
}

// officeArgsFor defers the profile directory until runOffice creates it.
func officeArgsFor(suffix, outDir, input string) func(profile string) []string {
	return func(profile string) []string {
		return officeArgs(profile, suffix, outDir, input)
	}
}

// runOffice runs the office suite with a private profile directory that is
// removed afterwards, and with TMPDIR on the RAM-backed directory when usable.
func (l *Library) runOffice(ctx context.Context, st *pipeline.State, args func(profile string) []string) (runner.Result, error) {
	profile, err := os.MkdirTemp(st.ScratchDir(), "office-profile-*")
	if err != nil {
		return runner.Result{}, fmt.Errorf("create profile dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(profile); rmErr != nil {
			l.logger.Warn("office profile cleanup failed", zap.String("dir", profile), zap.Error(rmErr))
		}
	}()

	cmd := runner.Command{
		Name:   l.tools.LibreOffice,
		Args:   args(profile),
		Binary: true,
	}
	if dir := l.usableDevShm(); dir != "" {
		cmd.Env = []string{"TMPDIR=" + dir}
	}
	return l.exec.Execute(ctx, cmd)
}

// usableDevShm returns the RAM-backed temp directory when it is a writable
// directory.
func (l *Library) usableDevShm() string {
	if l.devShm == "" {
		return ""
	}
	info, err := os.Stat(l.devShm)
	if err != nil || !info.IsDir() {
		return ""
	}
	probe, err := os.CreateTemp(l.devShm, ".converter-probe-*")
	if err != nil {
		return ""
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return l.devShm
}
