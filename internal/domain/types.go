package domain

import "time"

// JobStatus tracks the lifecycle of one conversion job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Tools contains the executables invoked by conversion steps.
type Tools struct {
	Convert           string `json:"convert" yaml:"convert"`
	LibreOffice       string `json:"libreoffice" yaml:"libreoffice"`
	Tesseract         string `json:"tesseract" yaml:"tesseract"`
	Tika              string `json:"tika" yaml:"tika"`
	Wkhtmltopdf       string `json:"wkhtmltopdf" yaml:"wkhtmltopdf"`
	WkhtmltopdfParams string `json:"wkhtmltopdfParams" yaml:"wkhtmltopdf_params"`
}

// Settings contains runtime configuration for the converter.
type Settings struct {
	Tools              Tools         `json:"tools" yaml:"tools"`
	ScratchDir         string        `json:"scratchDir" yaml:"scratch_dir"`
	TikaConfigDir      string        `json:"tikaConfigDir" yaml:"tika_config_dir"`
	DefaultLanguage    string        `json:"defaultLanguage" yaml:"default_language"`
	TesseractLanguages []string      `json:"tesseractLanguages" yaml:"tesseract_languages"`
	CommandTimeout     time.Duration `json:"commandTimeout" yaml:"command_timeout"`
	LogLevel           string        `json:"logLevel" yaml:"log_level"`
	LogFormat          string        `json:"logFormat" yaml:"log_format"`
}

// Job stores one job identity, its action and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Action string    `json:"action"`
	Input  string    `json:"input,omitempty"`
	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// OCRLanguage reports whether traineddata for one configured language is
// installed.
type OCRLanguage struct {
	Code      string `json:"code" yaml:"code"`
	Alpha3    string `json:"alpha3" yaml:"alpha3"`
	Installed bool   `json:"installed" yaml:"installed"`
	LocalPath string `json:"localPath,omitempty" yaml:"local_path,omitempty"`
}
