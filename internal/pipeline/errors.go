package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidMediaType  = errors.New("invalid media type in step")
	ErrInvalidParameter  = errors.New("invalid parameter in step")
	ErrInvalidLanguage   = errors.New("invalid language in step")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrTaskDepthExceeded = errors.New("task nesting too deep")
)

// TaskNotFoundError reports that no registration can handle an action for a
// media type. Unknown actions and unmatched media types are not distinguished.
type TaskNotFoundError struct {
	Action    string
	MediaType string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("%s: action %q, media type %q", ErrTaskNotFound, e.Action, e.MediaType)
}

func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// InvalidMediaTypeError is raised by a step whose precondition does not hold.
type InvalidMediaTypeError struct {
	Expected string
	Actual   string
}

func (e *InvalidMediaTypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", ErrInvalidMediaType, e.Expected, e.Actual)
}

func (e *InvalidMediaTypeError) Unwrap() error { return ErrInvalidMediaType }

// InvalidParameterError is raised for an unsupported step parameter value.
type InvalidParameterError struct {
	Name  string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: %s=%q", ErrInvalidParameter, e.Name, e.Value)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

// InvalidLanguageError is raised when a language cannot be mapped to a code
// the tool understands.
type InvalidLanguageError struct {
	Language string
}

func (e *InvalidLanguageError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidLanguage, e.Language)
}

func (e *InvalidLanguageError) Unwrap() error { return ErrInvalidLanguage }

// CommandLog captures one external command invocation for diagnostics.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Messages joins the captured output streams.
func (l CommandLog) Messages() string {
	parts := make([]string, 0, 2)
	if l.Stdout != "" {
		parts = append(parts, "stdout: "+l.Stdout)
	}
	if l.Stderr != "" {
		parts = append(parts, "stderr: "+l.Stderr)
	}
	return strings.Join(parts, "; ")
}

// ConversionFailedError is a step-aware tool failure with optional command
// context. It matches ErrConversionFailed and any wrapped cause.
type ConversionFailedError struct {
	Step       string     `json:"step"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

func (e *ConversionFailedError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = ErrConversionFailed.Error()
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Step, msg)
	}

	out := fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Step, msg, e.CommandLog.Command, e.CommandLog.ExitCode)
	if m := e.CommandLog.Messages(); m != "" {
		out += ": " + m
	}
	return out
}

func (e *ConversionFailedError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrConversionFailed}
	}
	return []error{ErrConversionFailed, e.Err}
}
