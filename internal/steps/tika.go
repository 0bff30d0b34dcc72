package steps

import (
	"context"
	"fmt"

	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

func (l *Library) pdfText(ctx context.Context, st *pipeline.State) error {
	step := PDFText{}.StepName()
	if err := expect(st, "application/pdf"); err != nil {
		return err
	}

	config, err := l.tika.PathFor(st.Language())
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	input, err := st.ContentFile("")
	if err != nil {
		return err
	}

	res, err := l.run(ctx, step, runner.Command{
		Name:   l.tools.Tika,
		Args:   tikaArgs(config, tikaText, input),
		Binary: true,
	}, "")
	if err != nil {
		return err
	}
	return st.SetContent(res.Stdout)
}

func (l *Library) detectLanguage(ctx context.Context, st *pipeline.State) error {
	step := DetectLanguage{}.StepName()

	config, err := l.tika.PathForDetection()
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	input, err := st.ContentFile("")
	if err != nil {
		return err
	}

	res, err := l.run(ctx, step, runner.Command{
		Name:   l.tools.Tika,
		Args:   tikaArgs(config, tikaLanguage, input),
		Binary: true,
	}, "")
	if err != nil {
		return err
	}
	return st.SetContent(res.Stdout)
}
