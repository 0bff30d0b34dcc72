package steps

import (
	"path/filepath"
	"strings"
)

// splitParams splits free-form tool parameters on whitespace.
func splitParams(params ...string) []string {
	var out []string
	for _, p := range params {
		out = append(out, strings.Fields(p)...)
	}
	return out
}

// imageArgs builds: <input> <params...> <output>.
func imageArgs(input, output string, params []string) []string {
	args := make([]string, 0, len(params)+2)
	args = append(args, input)
	args = append(args, params...)
	return append(args, output)
}

// officeArgs builds a headless office suite conversion confined to its own
// profile directory.
func officeArgs(profileDir, suffix, outDir, input string) []string {
	return []string{
		"-env:SingleAppInstance=false",
		"-env:UserInstallation=file://" + filepath.ToSlash(profileDir),
		"--norestore",
		"--convert-to", suffix,
		"--outdir", outDir,
		input,
		"--headless",
	}
}

// tesseractArgs builds: <input> <outputBase> -l <lang> [format]. The tool
// appends the format suffix to outputBase.
func tesseractArgs(input, outputBase, alpha3, format string) []string {
	args := []string{input, outputBase, "-l", alpha3}
	if format != "" {
		args = append(args, format)
	}
	return args
}

// tikaMode selects what the text extractor prints.
type tikaMode string

const (
	tikaText     tikaMode = "--text"
	tikaLanguage tikaMode = "--language"
)

// tikaArgs builds: [--config=<cfg>] <mode> <input>.
func tikaArgs(config string, mode tikaMode, input string) []string {
	args := make([]string, 0, 3)
	if config != "" {
		args = append(args, "--config="+config)
	}
	return append(args, string(mode), input)
}

// wkhtmltopdfArgs builds: -q <meta options...> <params...> <input> <output>.
func wkhtmltopdfArgs(metaOpts, params []string, input, output string) []string {
	args := make([]string, 0, len(metaOpts)+len(params)+3)
	args = append(args, "-q")
	args = append(args, metaOpts...)
	args = append(args, params...)
	return append(args, input, output)
}
