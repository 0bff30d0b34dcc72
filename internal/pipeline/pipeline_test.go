package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-converter/internal/domain"
	"document-converter/internal/jobs"
)

type appendStep struct{ Text string }

func (s appendStep) StepName() string { return "append" }

type replaceStep struct{ Content string }

func (s replaceStep) StepName() string { return "replace" }

type failStep struct{ Message string }

func (s failStep) StepName() string { return "fail" }

// fileThenFailStep materialises the content before failing.
type fileThenFailStep struct{}

func (fileThenFailStep) StepName() string { return "file-then-fail" }

func testInterpreter(t *testing.T) Interpreter {
	t.Helper()
	return InterpreterFunc(func(ctx context.Context, st *State, step Step) error {
		switch s := step.(type) {
		case appendStep:
			return st.SetContent(append(append([]byte(nil), st.Content()...), []byte(","+s.Text)...))
		case replaceStep:
			return st.SetContent([]byte(s.Content))
		case failStep:
			return &ConversionFailedError{Step: "fail", Message: s.Message}
		case fileThenFailStep:
			if _, err := st.ContentFile(".txt"); err != nil {
				return err
			}
			if err := os.WriteFile(st.TempPath("out-", ".pdf"), []byte("partial"), 0o644); err != nil {
				return err
			}
			return &ConversionFailedError{Step: "file-then-fail", Message: "tool crashed"}
		default:
			t.Fatalf("unexpected step %T", step)
			return nil
		}
	})
}

func fakeDetect(content []byte) string {
	switch {
	case strings.HasPrefix(string(content), "%PDF"):
		return "application/pdf"
	case strings.HasPrefix(string(content), "<html"):
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func newTestEngine(t *testing.T, reg *Registry, opts ...Option) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	opts = append([]Option{WithScratchRoot(root)}, opts...)
	return New(reg, testInterpreter(t), opts...), root
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch root should be empty")
}

// TestConvertRunsStepsInOrder registers the literal "text/plain" pattern,
// which must match the sniffed "text/plain; charset=utf-8".
func TestConvertRunsStepsInOrder(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", "text/plain", appendStep{"step 1"}, appendStep{"step 2"})
	engine, root := newTestEngine(t, reg)

	out, err := engine.Convert(context.Background(), "test", []byte("test content"), "")
	require.NoError(t, err)
	assert.Equal(t, "test content,step 1,step 2", string(out))
	requireEmptyDir(t, root)
}

// TestConvertMatchesTextPattern uses the real content sniffer.
func TestConvertMatchesTextPattern(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", "text/.*", appendStep{"step 1"}, appendStep{"step 2"})
	engine, _ := newTestEngine(t, reg)

	out, err := engine.Convert(context.Background(), "test", []byte("test content"), "")
	require.NoError(t, err)
	assert.Equal(t, "test content,step 1,step 2", string(out))
}

// TestConvertUnknownAction returns TaskNotFound.
func TestConvertUnknownAction(t *testing.T) {
	engine, root := newTestEngine(t, NewRegistry())

	_, err := engine.Convert(context.Background(), "nope", []byte("test content"), "")
	require.ErrorIs(t, err, ErrTaskNotFound)

	var notFound *TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Action)
	requireEmptyDir(t, root)
}

// TestConvertUnmatchedMediaType returns TaskNotFound for a known action.
func TestConvertUnmatchedMediaType(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", "image/jpeg", appendStep{"step 1"})
	engine, _ := newTestEngine(t, reg)

	_, err := engine.Convert(context.Background(), "test", []byte("test content"), "")
	require.ErrorIs(t, err, ErrTaskNotFound)

	var notFound *TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.MediaType, "text/plain")
}

// TestConvertPreservesStepError checks the failing step's message survives.
func TestConvertPreservesStepError(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", ".*", appendStep{"step 1"}, failStep{"the tool said no"}, appendStep{"never"})
	engine, root := newTestEngine(t, reg)

	out, err := engine.Convert(context.Background(), "test", []byte("test content"), "")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.True(t, strings.HasSuffix(err.Error(), "the tool said no"), err.Error())
	requireEmptyDir(t, root)
}

// TestConvertCleansUpScratchOnFailure inspects the scratch root after a
// step created files and failed.
func TestConvertCleansUpScratchOnFailure(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", ".*", fileThenFailStep{})
	engine, root := newTestEngine(t, reg)

	_, err := engine.Convert(context.Background(), "test", []byte("test content"), "")
	require.ErrorIs(t, err, ErrConversionFailed)
	requireEmptyDir(t, root)
}

// TestConvertCleansUpScratchOnPanic verifies removal while unwinding.
func TestConvertCleansUpScratchOnPanic(t *testing.T) {
	root := t.TempDir()
	reg := NewRegistry()
	reg.MustRegister("test", ".*", appendStep{"x"})
	engine := New(reg, InterpreterFunc(func(ctx context.Context, st *State, step Step) error {
		if _, err := st.ContentFile(""); err != nil {
			return err
		}
		panic("boom")
	}), WithScratchRoot(root))

	assert.Panics(t, func() {
		_, _ = engine.Convert(context.Background(), "test", []byte("test content"), "")
	})
	requireEmptyDir(t, root)
}

// TestConvertPanicMarksJobFailed keeps the job record and events consistent
// when a step panics.
func TestConvertPanicMarksJobFailed(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", ".*", appendStep{"x"})
	manager := jobs.NewManager()
	bus := jobs.NewEventBus(10)
	engine := New(reg, InterpreterFunc(func(ctx context.Context, st *State, step Step) error {
		panic("boom")
	}), WithScratchRoot(t.TempDir()), WithTracker(manager), WithEvents(bus))

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = engine.Run(context.Background(), Request{JobID: "crash", Action: "test", Content: []byte("x")})
	})

	job, ok := manager.Get("crash")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "boom")

	events := bus.ForJob("crash")
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, jobs.EventTypeError, last.Type)
	assert.Contains(t, last.Message, "panic")
}

// TestNestedTaskEquivalence compares a nested composition with its inline
// expansion.
func TestNestedTaskEquivalence(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("inner", ".*", appendStep{"a"}, appendStep{"b"})
	reg.MustRegister("outer", ".*", Nested{Action: "inner"}, appendStep{"c"})
	reg.MustRegister("flat", ".*", appendStep{"a"}, appendStep{"b"}, appendStep{"c"})
	engine, _ := newTestEngine(t, reg, WithDetector(fakeDetect))

	nested, err := engine.Convert(context.Background(), "outer", []byte("x"), "")
	require.NoError(t, err)
	flat, err := engine.Convert(context.Background(), "flat", []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, string(flat), string(nested))
	assert.Equal(t, "x,a,b,c", string(nested))
}

// TestNestedTaskResolvesCurrentMediaType checks that nested resolution sees
// content produced by earlier steps.
func TestNestedTaskResolvesCurrentMediaType(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("render", "text/html", replaceStep{"%PDF-rendered"})
	reg.MustRegister("render", "text/plain", replaceStep{"plain"})
	reg.MustRegister("outer", ".*", replaceStep{"<html>doc</html>"}, Nested{Action: "render"})
	engine, _ := newTestEngine(t, reg, WithDetector(fakeDetect))

	resp, err := engine.Run(context.Background(), Request{Action: "outer", Content: []byte("plain text")})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-rendered", string(resp.Content))
	assert.Equal(t, "application/pdf", resp.MediaType)
}

// TestNestedTaskDepthLimit turns a cycle into an error.
func TestNestedTaskDepthLimit(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("loop", ".*", Nested{Action: "loop"})
	engine, root := newTestEngine(t, reg, WithMaxDepth(4))

	_, err := engine.Convert(context.Background(), "loop", []byte("x"), "")
	require.ErrorIs(t, err, ErrTaskDepthExceeded)
	requireEmptyDir(t, root)
}

// TestConvertDefaultsLanguage checks the fallback language reaches steps.
func TestConvertDefaultsLanguage(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("lang", ".*", appendStep{"x"})

	var seen []string
	engine := New(reg, InterpreterFunc(func(ctx context.Context, st *State, step Step) error {
		seen = append(seen, st.Language())
		return nil
	}), WithScratchRoot(t.TempDir()), WithDefaultLanguage("de"))

	_, err := engine.Convert(context.Background(), "lang", []byte("x"), "")
	require.NoError(t, err)
	_, err = engine.Convert(context.Background(), "lang", []byte("x"), "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "fr"}, seen)
}

// TestConvertHonoursCancellation stops before the first step.
func TestConvertHonoursCancellation(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test", ".*", appendStep{"x"})
	manager := jobs.NewManager()
	engine, root := newTestEngine(t, reg, WithTracker(manager))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, Request{JobID: "job-1", Action: "test", Content: []byte("x")})
	require.ErrorIs(t, err, context.Canceled)

	job, ok := manager.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
	requireEmptyDir(t, root)
}

// TestRunTracksJobAndPublishesEvents wires the job manager and event bus.
func TestRunTracksJobAndPublishesEvents(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("ok", ".*", appendStep{"a"})
	reg.MustRegister("bad", ".*", failStep{"exploded"})
	manager := jobs.NewManager()
	bus := jobs.NewEventBus(50)
	engine, _ := newTestEngine(t, reg, WithTracker(manager), WithEvents(bus))

	resp, err := engine.Run(context.Background(), Request{JobID: "good", Action: "ok", Content: []byte("x"), Input: "in.txt"})
	require.NoError(t, err)
	assert.Equal(t, "good", resp.JobID)

	job, _ := manager.Get("good")
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, "in.txt", job.Input)

	events := bus.ForJob("good")
	require.Len(t, events, 3)
	assert.Equal(t, jobs.EventTypeStatus, events[0].Type)
	assert.Equal(t, jobs.EventTypeStep, events[1].Type)
	assert.Equal(t, "append", events[1].Step)
	assert.Equal(t, jobs.EventTypeResult, events[2].Type)

	_, err = engine.Run(context.Background(), Request{JobID: "broken", Action: "bad", Content: []byte("x")})
	require.Error(t, err)

	job, _ = manager.Get("broken")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "exploded")

	events = bus.ForJob("broken")
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, jobs.EventTypeError, last.Type)
	assert.Equal(t, "fail", last.Step)
}

// TestRunGeneratesJobIDs checks distinct ids for anonymous jobs.
func TestRunGeneratesJobIDs(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("ok", ".*")
	engine, _ := newTestEngine(t, reg)

	a, err := engine.Run(context.Background(), Request{Action: "ok", Content: []byte("x")})
	require.NoError(t, err)
	b, err := engine.Run(context.Background(), Request{Action: "ok", Content: []byte("x")})
	require.NoError(t, err)
	assert.NotEmpty(t, a.JobID)
	assert.NotEqual(t, a.JobID, b.JobID)
}

// TestScratchRootMissing fails cleanly when the job directory cannot be made.
func TestScratchRootMissing(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("ok", ".*")
	engine := New(reg, testInterpreter(t), WithScratchRoot(filepath.Join(t.TempDir(), "missing", "deeper")))

	_, err := engine.Convert(context.Background(), "ok", []byte("x"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), err.Error())
}
