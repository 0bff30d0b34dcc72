package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"

	"document-converter/internal/domain"
	"document-converter/internal/runner"
)

type commandExecutor interface {
	Execute(ctx context.Context, cmd runner.Command) (runner.Result, error)
}

type installOption struct {
	manager  string
	commands [][]string
}

// toolPackages maps a diagnostic item to package names per package manager.
var toolPackages = map[string]map[string]string{
	"tool_convert": {
		"apt-get": "imagemagick",
		"dnf":     "ImageMagick",
		"pacman":  "imagemagick",
		"zypper":  "ImageMagick",
		"brew":    "imagemagick",
		"choco":   "imagemagick",
	},
	"tool_libreoffice": {
		"apt-get": "libreoffice",
		"dnf":     "libreoffice",
		"pacman":  "libreoffice-fresh",
		"zypper":  "libreoffice",
		"brew":    "--cask libreoffice",
		"choco":   "libreoffice-fresh",
	},
	"tool_tesseract": {
		"apt-get": "tesseract-ocr",
		"dnf":     "tesseract",
		"pacman":  "tesseract",
		"zypper":  "tesseract-ocr",
		"brew":    "tesseract",
		"choco":   "tesseract",
	},
	"tool_tika": {
		"brew": "tika",
	},
	"tool_wkhtmltopdf": {
		"apt-get": "wkhtmltopdf",
		"dnf":     "wkhtmltopdf",
		"choco":   "wkhtmltopdf",
	},
}

// managersByOS lists package managers in the order they are tried.
var managersByOS = map[string][]string{
	"linux":   {"apt-get", "dnf", "pacman", "zypper", "brew"},
	"darwin":  {"brew"},
	"windows": {"choco"},
}

type toolInstaller struct {
	exec     commandExecutor
	lookPath func(string) (string, error)
	goos     string
}

func newToolInstaller(exec commandExecutor) *toolInstaller {
	return &toolInstaller{exec: exec, lookPath: execLookPath, goos: goruntime.GOOS}
}

func execLookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// FixDiagnostic applies a remediation for one failed diagnostic item and
// returns the refreshed report.
func (a *App) FixDiagnostic(ctx context.Context, itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	var fixErr error
	switch id {
	case "tool_convert", "tool_libreoffice", "tool_tesseract", "tool_tika", "tool_wkhtmltopdf":
		fixErr = a.installer.install(ctx, id, a.toolBinary(id))
	case "scratch_dir":
		fixErr = fixDirectory(a.Settings.ScratchDir)
	case "tika_config_dir":
		fixErr = fixDirectory(a.Settings.TikaConfigDir)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.Diagnostics()
	return report, fixErr
}

func (a *App) toolBinary(id string) string {
	switch id {
	case "tool_convert":
		return a.Settings.Tools.Convert
	case "tool_libreoffice":
		return a.Settings.Tools.LibreOffice
	case "tool_tesseract":
		return a.Settings.Tools.Tesseract
	case "tool_tika":
		return a.Settings.Tools.Tika
	case "tool_wkhtmltopdf":
		return a.Settings.Tools.Wkhtmltopdf
	}
	return ""
}

func fixDirectory(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func (i *toolInstaller) options(id string) []installOption {
	packages := toolPackages[id]
	options := make([]installOption, 0, len(packages))
	for _, manager := range managersByOS[i.goos] {
		pkg, ok := packages[manager]
		if !ok {
			continue
		}
		options = append(options, installOption{manager: manager, commands: installCommands(manager, strings.Fields(pkg))})
	}
	return options
}

func installCommands(manager string, pkg []string) [][]string {
	switch manager {
	case "apt-get":
		return [][]string{
			{"apt-get", "update"},
			append([]string{"apt-get", "install", "-y"}, pkg...),
		}
	case "dnf", "zypper":
		return [][]string{append([]string{manager, "install", "-y"}, pkg...)}
	case "pacman":
		return [][]string{append([]string{"pacman", "-Sy", "--noconfirm"}, pkg...)}
	case "choco":
		return [][]string{append(append([]string{"choco", "install"}, pkg...), "-y")}
	default:
		return [][]string{append([]string{manager, "install"}, pkg...)}
	}
}

func (i *toolInstaller) install(ctx context.Context, id, binary string) error {
	if err := i.runFirstSuccessful(ctx, i.options(id)); err != nil {
		return fmt.Errorf("install %s: %w", strings.TrimPrefix(id, "tool_"), err)
	}
	if binary == "" {
		return nil
	}
	if _, err := i.lookPath(binary); err != nil {
		return fmt.Errorf("verify %s on PATH: %w", binary, err)
	}
	return nil
}

func (i *toolInstaller) runFirstSuccessful(ctx context.Context, options []installOption) error {
	if len(options) == 0 {
		return fmt.Errorf("no known package for OS %s", i.goos)
	}

	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false
	for _, option := range options {
		if _, err := i.lookPath(option.manager); err != nil {
			continue
		}
		atLeastOneManager = true
		err := i.runCommands(ctx, option.manager, option.commands)
		if err == nil {
			return nil
		}
		errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", i.goos)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func (i *toolInstaller) runCommands(ctx context.Context, manager string, commands [][]string) error {
	for _, command := range commands {
		if i.goos == "linux" && requiresElevation(manager) && os.Geteuid() != 0 {
			command = append([]string{"sudo", "-n"}, command...)
		}
		cmd := runner.Command{Name: command[0], Args: command[1:]}
		res, err := i.exec.Execute(ctx, cmd)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if !res.Success() {
			msg := strings.TrimSpace(string(res.Stderr))
			if len(msg) > 500 {
				msg = msg[:500] + "..."
			}
			return fmt.Errorf("%s exited with %d (%s)", cmd, res.ExitCode, msg)
		}
	}
	return nil
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}
