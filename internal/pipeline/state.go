package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"document-converter/internal/mediatype"
)

// State is the mutable record of one conversion job. The media type always
// reflects the current content, and the scratch file, when present, holds a
// copy of exactly that content.
type State struct {
	action   string
	language string

	originalContent   []byte
	originalMediaType string

	content   []byte
	mediaType string

	scratchDir  string
	scratchFile string
	detect      mediatype.Detector
}

// NewState builds a State for content. A nil detector uses mediatype.Detect.
func NewState(action string, content []byte, language, scratchDir string, detect mediatype.Detector) *State {
	if detect == nil {
		detect = mediatype.Detect
	}
	mt := detect(content)
	return &State{
		action:            action,
		language:          language,
		originalContent:   content,
		originalMediaType: mt,
		content:           content,
		mediaType:         mt,
		scratchDir:        scratchDir,
		detect:            detect,
	}
}

func (s *State) Action() string            { return s.action }
func (s *State) Language() string          { return s.language }
func (s *State) Content() []byte           { return s.content }
func (s *State) MediaType() string         { return s.mediaType }
func (s *State) OriginalContent() []byte   { return s.originalContent }
func (s *State) OriginalMediaType() string { return s.originalMediaType }
func (s *State) ScratchDir() string        { return s.scratchDir }

// SetContent replaces the content, re-detects the media type and drops the
// scratch file, which no longer matches.
func (s *State) SetContent(content []byte) error {
	s.content = content
	s.mediaType = s.detect(content)
	return s.ResetContentFile()
}

// ContentFile returns a file holding the current content, writing it on
// first use. A file created with a different suffix is replaced.
func (s *State) ContentFile(suffix string) (string, error) {
	if s.scratchFile != "" {
		if suffix == "" || strings.HasSuffix(s.scratchFile, suffix) {
			return s.scratchFile, nil
		}
		if err := s.ResetContentFile(); err != nil {
			return "", err
		}
	}

	f, err := os.CreateTemp(s.scratchDir, "content-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create content file: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(s.content); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write content file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close content file: %w", err)
	}

	s.scratchFile = name
	return name, nil
}

// ResetContentFile removes the scratch file, if any.
func (s *State) ResetContentFile() error {
	if s.scratchFile == "" {
		return nil
	}
	name := s.scratchFile
	s.scratchFile = ""
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove content file: %w", err)
	}
	return nil
}

// TempPath returns an unused path inside the scratch directory. Nothing is
// created; tools write their output there.
func (s *State) TempPath(prefix, suffix string) string {
	return filepath.Join(s.scratchDir, prefix+uuid.NewString()+suffix)
}
