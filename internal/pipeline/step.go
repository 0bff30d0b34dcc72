package pipeline

import "context"

// Step is one unit of a task. Concrete steps are plain records; the
// Interpreter decides what each one does.
type Step interface {
	StepName() string
}

// Nested runs another registered action against the same State, resolved
// with the media type current at that point.
type Nested struct {
	Action string
}

func (n Nested) StepName() string { return "task:" + n.Action }

// Interpreter applies a single non-nested step to the state.
type Interpreter interface {
	Apply(ctx context.Context, st *State, step Step) error
}

// InterpreterFunc adapts a function to Interpreter.
type InterpreterFunc func(ctx context.Context, st *State, step Step) error

func (f InterpreterFunc) Apply(ctx context.Context, st *State, step Step) error {
	return f(ctx, st, step)
}
