// Package tikaconfig maintains the text extractor configuration files that
// select OCR languages. Files are versioned and written once per language set.
package tikaconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"document-converter/internal/language"
)

const (
	// Version names the template generation in the directory layout.
	Version = "v1"
	// DefaultLanguage is used when a language cannot be resolved.
	DefaultLanguage = "eng"
)

const template = `<?xml version="1.0" encoding="UTF-8"?>
<properties>
  <parsers>
    <parser class="org.apache.tika.parser.DefaultParser"></parser>
    <parser class="org.apache.tika.parser.ocr.TesseractOCRParser">
      <params>
        <param name="language" type="string">%s</param>
      </params>
    </parser>
  </parsers>
</properties>
`

// Cache resolves configuration file paths under a root directory, creating
// files on first use.
type Cache struct {
	dir       string
	detection []string
	logger    *zap.Logger
}

// New returns a cache rooted at dir. detection lists the OCR languages
// installed for language detection, in any form language.Alpha3 accepts.
// Unknown codes are dropped; when none resolve DefaultLanguage is used.
func New(dir string, detection []string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	langs := language.Alpha3All(detection)
	if len(langs) == 0 {
		langs = []string{DefaultLanguage}
	}
	return &Cache{dir: dir, detection: langs, logger: logger}
}

// PathFor returns the configuration for OCR in one language, falling back to
// DefaultLanguage when the code is unknown.
func (c *Cache) PathFor(lang string) (string, error) {
	alpha3, ok := language.Alpha3(lang)
	if !ok {
		alpha3 = DefaultLanguage
	}
	return c.pathFor([]string{alpha3})
}

// PathForDetection returns the configuration listing every installed OCR
// language.
func (c *Cache) PathForDetection() (string, error) {
	return c.pathFor(c.detection)
}

func (c *Cache) pathFor(langs []string) (string, error) {
	sorted := append([]string(nil), langs...)
	sort.Strings(sorted)

	dir := filepath.Join(c.dir, "ocr", Version)
	path := filepath.Join(dir, "tika."+strings.Join(sorted, "-")+".xml")

	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat tika config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create tika config dir: %w", err)
	}
	if err := writeAtomic(path, []byte(Render(langs))); err != nil {
		return "", err
	}

	c.logger.Debug("tika config written", zap.String("path", path), zap.Strings("languages", langs))
	return path, nil
}

// Render produces the configuration document for a language set.
func Render(langs []string) string {
	return fmt.Sprintf(template, strings.Join(langs, "+"))
}

// writeAtomic writes through a sibling temp file so concurrent writers never
// expose a partial file.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tika-*.tmp")
	if err != nil {
		return fmt.Errorf("create tika config: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write tika config: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tika config: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod tika config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install tika config: %w", err)
	}
	return nil
}
