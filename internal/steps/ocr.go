package steps

import (
	"context"
	"fmt"

	"document-converter/internal/language"
	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

// ocrSuffix returns the file suffix tesseract appends for format.
func ocrSuffix(format string) string {
	if format == "" {
		return "txt"
	}
	return format
}

func validOCRFormat(format string) bool {
	switch format {
	case "", "hocr", "pdf":
		return true
	}
	return false
}

func ocrLanguage(st *pipeline.State) (string, error) {
	alpha3, ok := language.Alpha3(st.Language())
	if !ok {
		return "", &pipeline.InvalidLanguageError{Language: st.Language()}
	}
	return alpha3, nil
}

func (l *Library) ocr(ctx context.Context, st *pipeline.State, s OCR) error {
	if err := expect(st, "image/tiff"); err != nil {
		return err
	}
	if !validOCRFormat(s.Format) {
		return &pipeline.InvalidParameterError{Name: "format", Value: s.Format}
	}
	alpha3, err := ocrLanguage(st)
	if err != nil {
		return err
	}

	input, err := st.ContentFile("")
	if err != nil {
		return err
	}
	base := st.TempPath("ocr-", "")

	cmd := runner.Command{
		Name: l.tools.Tesseract,
		Args: tesseractArgs(input, base, alpha3, s.Format),
	}
	if _, err := l.run(ctx, s.StepName(), cmd, ""); err != nil {
		return err
	}

	data, err := consume(base + "." + ocrSuffix(s.Format))
	if err != nil {
		return fmt.Errorf("%s: read output: %w", s.StepName(), err)
	}
	return st.SetContent(data)
}
