package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. The external PP calculator shells out
// through it, so tests can substitute a scripted command without touching
// the builder's validation or timeout handling.
type Executor interface {
	// Command creates an exec.Cmd for the given command and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates an exec.Cmd bound to the context's lifetime.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor runs real processes via os/exec. It is the default executor
// behind SafeBuilder.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
