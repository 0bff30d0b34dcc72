package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"document-converter/internal/domain"
)

func testSettings(root string) domain.Settings {
	return domain.Settings{
		Tools: domain.Tools{
			Convert:     "convert",
			LibreOffice: "libreoffice",
			Tesseract:   "tesseract",
			Tika:        "tika",
			Wkhtmltopdf: "wkhtmltopdf",
		},
		ScratchDir:      filepath.Join(root, "scratch"),
		TikaConfigDir:   filepath.Join(root, "tika"),
		DefaultLanguage: "en",
	}
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		t.TempDir(),
	)

	report := checker.Run(testSettings(root))

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	assertStatusByID(t, report, "tool_tika", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "dev_shm", domain.DiagnosticStatusPass)
	if _, err := os.Stat(filepath.Join(root, "scratch")); err != nil {
		t.Fatalf("scratch dir should be created: %v", err)
	}
}

// TestCheckerRunMissingToolsAndPaths validates failure reporting.
func TestCheckerRunMissingToolsAndPaths(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		"",
	)

	settings := testSettings(t.TempDir())
	settings.ScratchDir = ""
	settings.Tools.Wkhtmltopdf = " "
	report := checker.Run(settings)

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "tool_convert", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_libreoffice", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_tesseract", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_tika", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_wkhtmltopdf", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "scratch_dir", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tika_config_dir", domain.DiagnosticStatusPass)
}

// TestCheckerRunBadLanguageFails validates the language check.
func TestCheckerRunBadLanguageFails(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		t.TempDir(),
	)
	settings := testSettings(t.TempDir())
	settings.DefaultLanguage = "zz"

	report := checker.Run(settings)
	assertStatusByID(t, report, "default_language", domain.DiagnosticStatusFail)
}

// TestCheckerMissingDevShmWarns keeps warnings out of the failure flag.
func TestCheckerMissingDevShmWarns(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		filepath.Join(t.TempDir(), "no-shm"),
	)

	report := checker.Run(testSettings(t.TempDir()))
	assertStatusByID(t, report, "dev_shm", domain.DiagnosticStatusWarn)
	if report.HasFailures {
		t.Fatalf("warning should not count as failure: %+v", report.Items)
	}
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
