package config

import (
	"os"
	"path/filepath"
	"time"

	"document-converter/internal/domain"
)

// DefaultLanguage is used when a conversion request carries no language.
const DefaultLanguage = "en"

// DefaultSettings returns baseline configuration used when no file exists.
func DefaultSettings() domain.Settings {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	return domain.Settings{
		Tools: domain.Tools{
			Convert:     "convert",
			LibreOffice: "libreoffice",
			Tesseract:   "tesseract",
			Tika:        "tika",
			Wkhtmltopdf: "wkhtmltopdf",
		},
		ScratchDir:         os.TempDir(),
		TikaConfigDir:      filepath.Join(cacheDir, "document-converter", "tika"),
		DefaultLanguage:    DefaultLanguage,
		TesseractLanguages: []string{"eng"},
		CommandTimeout:     10 * time.Minute,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}
