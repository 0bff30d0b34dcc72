package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"document-converter/internal/domain"
)

// EnvPrefix is prepended to every recognised environment variable.
const EnvPrefix = "CONVERTER_"

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are not overridden.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays CONVERTER_* variables on top of cfg.
func ApplyEnv(cfg domain.Settings, lookup func(string) (string, bool)) (domain.Settings, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	strs := map[string]*string{
		"CONVERT_PATH":       &cfg.Tools.Convert,
		"LIBREOFFICE_PATH":   &cfg.Tools.LibreOffice,
		"TESSERACT_PATH":     &cfg.Tools.Tesseract,
		"TIKA_PATH":          &cfg.Tools.Tika,
		"WKHTMLTOPDF_PATH":   &cfg.Tools.Wkhtmltopdf,
		"WKHTMLTOPDF_PARAMS": &cfg.Tools.WkhtmltopdfParams,
		"SCRATCH_DIR":        &cfg.ScratchDir,
		"TIKA_CONFIG_DIR":    &cfg.TikaConfigDir,
		"DEFAULT_LANGUAGE":   &cfg.DefaultLanguage,
		"LOG_LEVEL":          &cfg.LogLevel,
		"LOG_FORMAT":         &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "TESSERACT_LANGUAGES"); ok && strings.TrimSpace(v) != "" {
		cfg.TesseractLanguages = splitList(v)
	}

	if v, ok := lookup(EnvPrefix + "COMMAND_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return domain.Settings{}, fmt.Errorf("%sCOMMAND_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.CommandTimeout = d
	}

	return cfg, nil
}

// splitList parses a comma or plus separated list, dropping empty items.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
