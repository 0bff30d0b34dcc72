// Package tasks declares the standard conversion actions.
package tasks

import (
	"document-converter/internal/pipeline"
	"document-converter/internal/steps"
)

// TIFFParams prepares images for OCR.
const TIFFParams = "-depth 8 -density 300 -background white +matte"

var toTIFF = steps.ConvertImage{To: "tiff", Params: TIFFParams}

type registration struct {
	action  string
	pattern string
	steps   []pipeline.Step
}

func reg(action, pattern string, s ...pipeline.Step) registration {
	return registration{action: action, pattern: pattern, steps: s}
}

// standard lists the default registrations. Within an action, earlier
// entries take precedence.
func standard() []registration {
	return []registration{
		reg("ocr", "image/tiff", steps.OCR{Format: "pdf"}),
		reg("ocr", "image/.*", toTIFF, steps.OCR{Format: "pdf"}),
		reg("ocr", "application/pdf", steps.OCRPages{Format: "pdf"}),

		reg("ocr_text", "image/tiff", steps.OCR{}),
		reg("ocr_text", "image/.*", toTIFF, steps.OCR{}),
		reg("ocr_text", "application/pdf", steps.OCRPages{Format: "txt"}),

		reg("hocr", "image/tiff", steps.OCR{Format: "hocr"}),
		reg("hocr", "image/.*", toTIFF, steps.OCR{Format: "hocr"}),

		reg("pdf", "application/pdf"),
		reg("pdf", "image/.*", pipeline.Nested{Action: "ocr"}),
		reg("pdf", "text/html", steps.HTMLToPDF{}),
		reg("pdf", ".*", steps.Office{Format: "pdf"}),

		reg("txt", "text/plain"),
		reg("txt", "text/html", steps.HTMLToText{}),
		reg("txt", "image/.*", pipeline.Nested{Action: "ocr_text"}),
		reg("txt", "application/pdf", steps.PDFText{}),
		reg("txt", ".*", steps.Office{Format: "txt"}),

		reg("msoffice", ".*", steps.Office{Format: "msoffice"}),
		reg("ooffice", ".*", steps.Office{Format: "ooffice"}),

		reg("doc", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("docx", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("xls", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("xlsx", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("ppt", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("pptx", ".*", pipeline.Nested{Action: "msoffice"}),
		reg("odt", ".*", pipeline.Nested{Action: "ooffice"}),
		reg("ods", ".*", pipeline.Nested{Action: "ooffice"}),
		reg("odp", ".*", pipeline.Nested{Action: "ooffice"}),

		reg("detect_language", ".*", steps.DetectLanguage{}),
	}
}

// Register adds the standard actions to r.
func Register(r *pipeline.Registry) error {
	for _, e := range standard() {
		if err := r.Register(e.action, e.pattern, e.steps...); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the standard actions.
func NewRegistry() (*pipeline.Registry, error) {
	r := pipeline.NewRegistry()
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}
