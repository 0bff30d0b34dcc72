// Package pipeline resolves actions to ordered steps and runs them against a
// per-job conversion state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"document-converter/internal/domain"
	"document-converter/internal/jobs"
	"document-converter/internal/mediatype"
)

const (
	DefaultLanguage = "en"
	DefaultMaxDepth = 16
)

// Tracker records job lifecycle transitions.
type Tracker interface {
	Start(id, action, input string) error
	Transition(id string, status domain.JobStatus) error
	Fail(id string, cause error) error
}

// Publisher receives job progress events.
type Publisher interface {
	Publish(event jobs.Event) jobs.Event
}

// Request describes one conversion job.
type Request struct {
	// JobID is generated when empty.
	JobID    string
	Action   string
	Content  []byte
	Language string
	// Input labels the job for tracking, usually a file name.
	Input string
}

// Response is the outcome of a successful job.
type Response struct {
	JobID     string
	Content   []byte
	MediaType string
}

// Engine runs registered tasks.
type Engine struct {
	registry        *Registry
	interp          Interpreter
	logger          *zap.Logger
	scratchRoot     string
	defaultLanguage string
	detect          mediatype.Detector
	maxDepth        int
	events          Publisher
	tracker         Tracker
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScratchRoot sets the parent of per-job scratch directories.
func WithScratchRoot(dir string) Option {
	return func(e *Engine) { e.scratchRoot = dir }
}

func WithDefaultLanguage(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.defaultLanguage = lang
		}
	}
}

func WithDetector(d mediatype.Detector) Option {
	return func(e *Engine) {
		if d != nil {
			e.detect = d
		}
	}
}

// WithMaxDepth bounds nested task depth.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func WithEvents(p Publisher) Option {
	return func(e *Engine) { e.events = p }
}

func WithTracker(t Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// New builds an engine over a registry and a step interpreter.
func New(registry *Registry, interp Interpreter, opts ...Option) *Engine {
	e := &Engine{
		registry:        registry,
		interp:          interp,
		logger:          zap.NewNop(),
		scratchRoot:     os.TempDir(),
		defaultLanguage: DefaultLanguage,
		detect:          mediatype.Detect,
		maxDepth:        DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the engine's task registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Convert runs action against content and returns the converted content.
// An empty language selects the engine default.
func (e *Engine) Convert(ctx context.Context, action string, content []byte, language string) ([]byte, error) {
	resp, err := e.Run(ctx, Request{Action: action, Content: content, Language: language})
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// Run executes one job. The job's scratch directory is removed on every
// return path.
func (e *Engine) Run(ctx context.Context, req Request) (Response, error) {
	id := req.JobID
	if id == "" {
		id = uuid.NewString()
	}
	lang := req.Language
	if lang == "" {
		lang = e.defaultLanguage
	}
	logger := e.logger.With(zap.String("job", id), zap.String("action", req.Action))

	if e.tracker != nil {
		if err := e.tracker.Start(id, req.Action, req.Input); err != nil {
			return Response{}, err
		}
	}

	dir, err := os.MkdirTemp(e.scratchRoot, "job-*")
	if err != nil {
		err = fmt.Errorf("create scratch dir: %w", err)
		e.finish(id, logger, err)
		return Response{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("scratch cleanup failed", zap.String("dir", dir), zap.Error(rmErr))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			e.finish(id, logger, fmt.Errorf("step panic: %v", r))
			panic(r)
		}
	}()

	st := NewState(req.Action, req.Content, lang, dir, e.detect)
	e.transition(id, domain.JobStatusRunning)
	e.publish(jobs.Event{
		JobID:     id,
		Type:      jobs.EventTypeStatus,
		Status:    domain.JobStatusRunning,
		Action:    req.Action,
		MediaType: st.MediaType(),
	})
	logger.Info("conversion started",
		zap.String("media_type", st.MediaType()),
		zap.String("language", lang),
		zap.Int("bytes", len(req.Content)))

	start := time.Now()
	if err := e.perform(ctx, id, logger, st, req.Action, 0); err != nil {
		e.finish(id, logger, err)
		return Response{}, err
	}

	logger.Info("conversion finished",
		zap.String("media_type", st.MediaType()),
		zap.Duration("duration", time.Since(start)))
	e.transition(id, domain.JobStatusDone)
	e.publish(jobs.Event{
		JobID:     id,
		Type:      jobs.EventTypeResult,
		Status:    domain.JobStatusDone,
		Action:    req.Action,
		MediaType: st.MediaType(),
	})

	return Response{JobID: id, Content: st.Content(), MediaType: st.MediaType()}, nil
}

// perform resolves action against the current media type and applies its
// steps in order. Nested steps re-enter perform with the same state.
func (e *Engine) perform(ctx context.Context, id string, logger *zap.Logger, st *State, action string, depth int) error {
	if depth > e.maxDepth {
		return fmt.Errorf("%w: %q at depth %d", ErrTaskDepthExceeded, action, depth)
	}

	steps, err := e.registry.Resolve(action, st.MediaType())
	if err != nil {
		return err
	}
	logger.Debug("task resolved",
		zap.String("task", action),
		zap.String("media_type", st.MediaType()),
		zap.Int("steps", len(steps)),
		zap.Int("depth", depth))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if nested, ok := step.(Nested); ok {
			if err := e.perform(ctx, id, logger, st, nested.Action, depth+1); err != nil {
				return err
			}
			continue
		}

		e.publish(jobs.Event{
			JobID:     id,
			Type:      jobs.EventTypeStep,
			Action:    action,
			Step:      step.StepName(),
			MediaType: st.MediaType(),
		})
		if err := e.interp.Apply(ctx, st, step); err != nil {
			return err
		}
		logger.Debug("step completed",
			zap.String("task", action),
			zap.String("step", step.StepName()),
			zap.String("media_type", st.MediaType()))
	}
	return nil
}

func (e *Engine) finish(id string, logger *zap.Logger, err error) {
	logger.Error("conversion failed", zap.Error(err))

	event := jobs.Event{JobID: id, Type: jobs.EventTypeError, Message: err.Error()}
	var failed *ConversionFailedError
	if errors.As(err, &failed) {
		event.Step = failed.Step
		event.Command = failed.CommandLog.Command
		event.Args = failed.CommandLog.Args
		event.ExitCode = failed.CommandLog.ExitCode
		event.Stdout = failed.CommandLog.Stdout
		event.Stderr = failed.CommandLog.Stderr
	}

	if errors.Is(err, context.Canceled) {
		event.Status = domain.JobStatusCancelled
		e.transition(id, domain.JobStatusCancelled)
	} else {
		event.Status = domain.JobStatusFailed
		if e.tracker != nil {
			if tErr := e.tracker.Fail(id, err); tErr != nil {
				logger.Warn("job transition failed", zap.Error(tErr))
			}
		}
	}
	e.publish(event)
}

func (e *Engine) transition(id string, status domain.JobStatus) {
	if e.tracker == nil {
		return
	}
	if err := e.tracker.Transition(id, status); err != nil {
		e.logger.Warn("job transition failed", zap.String("job", id), zap.Error(err))
	}
}

func (e *Engine) publish(event jobs.Event) {
	if e.events != nil {
		e.events.Publish(event)
	}
}
