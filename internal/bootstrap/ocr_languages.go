package bootstrap

import (
	"os"
	"path/filepath"
	"strings"

	"document-converter/internal/domain"
	"document-converter/internal/language"
)

var defaultTessdataDirs = []string{
	"/usr/share/tesseract-ocr/5/tessdata",
	"/usr/share/tesseract-ocr/4.00/tessdata",
	"/usr/share/tessdata",
	"/usr/local/share/tessdata",
	"/opt/homebrew/share/tessdata",
}

// OCRLanguages lists the configured OCR languages plus the default language
// and marks the ones whose traineddata file can be found.
func (a *App) OCRLanguages() []domain.OCRLanguage {
	codes := append([]string{a.Settings.DefaultLanguage}, a.Settings.TesseractLanguages...)
	langs := ocrLanguageList(codes)
	markInstalledLanguages(langs, resolveTessdataDirs(os.Getenv("TESSDATA_PREFIX")))
	return langs
}

func ocrLanguageList(codes []string) []domain.OCRLanguage {
	seen := map[string]struct{}{}
	out := make([]domain.OCRLanguage, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		iso3, ok := language.Alpha3(code)
		if !ok {
			out = append(out, domain.OCRLanguage{Code: code})
			continue
		}
		if _, dup := seen[iso3]; dup {
			continue
		}
		seen[iso3] = struct{}{}
		out = append(out, domain.OCRLanguage{Code: code, Alpha3: iso3})
	}
	return out
}

// resolveTessdataDirs returns the directories searched for traineddata,
// the TESSDATA_PREFIX location first.
func resolveTessdataDirs(prefix string) []string {
	seen := map[string]struct{}{}
	result := []string{}
	add := func(path string) {
		p := strings.TrimSpace(path)
		if p == "" {
			return
		}
		clean := filepath.Clean(p)
		if clean == "." {
			return
		}
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		result = append(result, clean)
	}

	if prefix != "" {
		// Both layouts are in use: the prefix itself or its tessdata child.
		add(prefix)
		add(filepath.Join(prefix, "tessdata"))
	}
	for _, dir := range defaultTessdataDirs {
		add(dir)
	}
	return result
}

func markInstalledLanguages(langs []domain.OCRLanguage, dirs []string) {
	for i := range langs {
		if langs[i].Alpha3 == "" {
			continue
		}
		for _, dir := range dirs {
			candidate := filepath.Join(dir, langs[i].Alpha3+".traineddata")
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			langs[i].Installed = true
			langs[i].LocalPath = candidate
			break
		}
	}
}
