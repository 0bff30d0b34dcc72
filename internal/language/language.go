// Package language maps user supplied language codes to the ISO 639-2
// three-letter codes expected by the OCR tooling.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Alpha3 resolves an ISO 639-1 or ISO 639-2 code (or a BCP 47 tag such as
// "en-GB") to its three-letter form. The boolean is false when code does not
// name a known language.
func Alpha3(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	iso3 := base.ISO3()
	if iso3 == "" || iso3 == "und" {
		return "", false
	}
	return iso3, true
}

// Alpha3All resolves every code, skipping the ones that are unknown.
func Alpha3All(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		iso3, ok := Alpha3(code)
		if !ok {
			continue
		}
		if _, dup := seen[iso3]; dup {
			continue
		}
		seen[iso3] = struct{}{}
		out = append(out, iso3)
	}
	return out
}
