package steps

import (
	"context"
	"fmt"
	"regexp"

	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

var suffixPattern = regexp.MustCompile(`^[a-z0-9]+$`)

func (l *Library) convertImage(ctx context.Context, st *pipeline.State, s ConvertImage) error {
	if err := expect(st, "image/.*"); err != nil {
		return err
	}
	to := s.To
	if to == "" {
		to = "tiff"
	}
	if !suffixPattern.MatchString(to) {
		return &pipeline.InvalidParameterError{Name: "to", Value: s.To}
	}

	input, err := st.ContentFile("")
	if err != nil {
		return err
	}
	target := st.TempPath("image-", "."+to)

	cmd := runner.Command{
		Name:   l.tools.Convert,
		Args:   imageArgs(input, target, splitParams(s.Params)),
		Binary: true,
	}
	if _, err := l.run(ctx, s.StepName(), cmd, ""); err != nil {
		return err
	}

	data, err := consume(target)
	if err != nil {
		return fmt.Errorf("%s: read output: %w", s.StepName(), err)
	}
	return st.SetContent(data)
}
