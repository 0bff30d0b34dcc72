package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

// Rasterizer renders every page of a PDF into dir and returns the image
// paths in page order.
type Rasterizer func(ctx context.Context, pdf []byte, dir string, dpi float64) ([]string, error)

// RasterizePDF renders pages to PNG files with MuPDF.
func RasterizePDF(ctx context.Context, pdf []byte, dir string, dpi float64) ([]string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count == 0 {
		return nil, errors.New("pdf has no pages")
	}

	paths := make([]string, 0, count)
	for page := 0; page < count; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(page, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page+1, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("page-%04d.png", page+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create page %d: %w", page+1, err)
		}
		err = png.Encode(f, img)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", page+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// CombinePDFs merges documents into one, in order.
func CombinePDFs(docs [][]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, errors.New("combine pdfs: no documents")
	case 1:
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, doc := range docs {
		readers = append(readers, bytes.NewReader(doc))
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, conf); err != nil {
		return nil, fmt.Errorf("combine pdfs: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages in a PDF document.
func PageCount(doc []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(doc), conf)
}

func (l *Library) ocrPages(ctx context.Context, st *pipeline.State, s OCRPages) error {
	step := s.StepName()
	if err := expect(st, "application/pdf"); err != nil {
		return err
	}

	var tessFormat string
	switch s.Format {
	case "", "txt":
	case "pdf":
		tessFormat = "pdf"
	default:
		return &pipeline.InvalidParameterError{Name: "format", Value: s.Format}
	}
	alpha3, err := ocrLanguage(st)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp(st.ScratchDir(), "pages-*")
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	defer os.RemoveAll(dir)

	images, err := l.rasterize(ctx, st.Content(), dir, l.dpi)
	if err != nil {
		return &pipeline.ConversionFailedError{Step: step, Message: "cannot rasterise pdf", Err: err}
	}
	l.logger.Debug("pdf rasterised", zap.Int("pages", len(images)), zap.Float64("dpi", l.dpi))

	cmds := make([]runner.Command, len(images))
	bases := make([]string, len(images))
	for i, img := range images {
		bases[i] = strings.TrimSuffix(img, filepath.Ext(img))
		cmds[i] = runner.Command{
			Name: l.tools.Tesseract,
			Args: tesseractArgs(img, bases[i], alpha3, tessFormat),
		}
	}

	results, err := l.exec.ExecuteBatch(ctx, cmds)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	for i, res := range results {
		if !res.Success() {
			return failed(step, fmt.Sprintf("page %d", i+1), res)
		}
	}

	pages := make([][]byte, len(bases))
	for i, base := range bases {
		data, err := consume(base + "." + ocrSuffix(tessFormat))
		if err != nil {
			return fmt.Errorf("%s: read page %d: %w", step, i+1, err)
		}
		pages[i] = data
	}

	if tessFormat == "pdf" {
		merged, err := CombinePDFs(pages)
		if err != nil {
			return &pipeline.ConversionFailedError{Step: step, Message: "cannot merge pages", Err: err}
		}
		return st.SetContent(merged)
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = strings.TrimSpace(string(p))
	}
	return st.SetContent([]byte(strings.Join(texts, "\n\n") + "\n"))
}
