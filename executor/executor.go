// Package executor runs a zone's hook programs at lifecycle transitions,
// grounded on original_source/zonys-core/src/zone/execution.rs's
// ZoneExecutor.execute_parent/execute_child/execute. A hook's program,
// each argument and each environment variable key/value is rendered
// through the template engine against the transition's variables before
// it runs (the original only renders program/arguments; rendering
// environment values too is a supplemented behavior, since a hook is as
// likely to need a templated value in its environment as on its command
// line). Parent hooks run on the host via util/shell; child hooks run
// inside the zone's jail via internal/jail.
package executor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"

	"zonys/config"
	"zonys/internal/jail"
	"zonys/template"
	"zonys/util/shell"
)

// Context carries the variables every hook in one lifecycle transition
// is rendered against.
type Context struct {
	Variables map[string]interface{}
}

// rendered is a Program after every templated field has been resolved
// to its concrete value.
type rendered struct {
	program string
	args    []string
	env     map[string]string
}

func render(ctx Context, p config.Program) (rendered, error) {
	program, err := template.Render(ctx.Variables, p.Program)
	if err != nil {
		return rendered{}, fmt.Errorf("rendering program: %w", err)
	}

	args := make([]string, len(p.Arguments))
	for i, a := range p.Arguments {
		out, err := template.Render(ctx.Variables, a)
		if err != nil {
			return rendered{}, fmt.Errorf("rendering argument %d: %w", i, err)
		}
		args[i] = out
	}

	var env map[string]string
	if len(p.EnvironmentVariables) > 0 {
		env = make(map[string]string, len(p.EnvironmentVariables))

		for k, v := range p.EnvironmentVariables {
			rk, err := template.Render(ctx.Variables, k)
			if err != nil {
				return rendered{}, fmt.Errorf("rendering environment key %q: %w", k, err)
			}

			rv, err := template.Render(ctx.Variables, v)
			if err != nil {
				return rendered{}, fmt.Errorf("rendering environment value for %q: %w", k, err)
			}

			env[rk] = rv
		}
	}

	return rendered{program: program, args: args, env: env}, nil
}

// executeParent runs a rendered hook on the host, mirroring
// ZoneExecutor.execute_parent. Hook programs are non-interactive: stdin
// is always empty rather than inherited from the process.
func executeParent(ctx context.Context, r rendered) error {
	opts := []shell.Option{
		shell.Command(r.program),
		shell.Args(r.args...),
		shell.Stdin([]byte{}),
	}

	if len(r.env) > 0 {
		opts = append(opts, shell.Env(r.env))
	}

	stdout, stderr, err := shell.ExecCommand(ctx, opts...)
	if err != nil {
		return errors.Wrapf(failure(r, stdout, stderr, err), "parent hook %q", r.program)
	}

	return nil
}

// executeChild runs a rendered hook inside the zone's jail, mirroring
// ZoneExecutor.execute_child.
func executeChild(handle jail.Handle, r rendered) error {
	var stdout, stderr bytes.Buffer

	err := jail.Execute(handle, r.program, r.args, r.env, &stdout, &stderr)
	if err != nil {
		return errors.Wrapf(failure(r, stdout.Bytes(), stderr.Bytes(), err), "child hook %q", r.program)
	}

	return nil
}

// failure wraps a hook's underlying exec error together with its
// captured stdout/stderr so a caller reporting the transition's failure
// can show what the hook actually printed, not just its exit status.
func failure(r rendered, stdout, stderr []byte, cause error) error {
	return fmt.Errorf("%w: %s (stdout=%q stderr=%q): %v", ErrHookFailed, r.program, stdout, stderr, cause)
}

// Execute runs a single hook, dispatching on its target. It is the
// direct Go counterpart of ZoneExecutor.execute.
func Execute(ctx context.Context, execCtx Context, p config.Program, handle jail.Handle) error {
	r, err := render(execCtx, p)
	if err != nil {
		return err
	}

	switch p.Target {
	case config.TargetParent:
		return executeParent(ctx, r)
	case config.TargetChild:
		return executeChild(handle, r)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownTarget, p.Target)
	}
}

// Run executes a list of hooks in order, stopping at the first failure.
// Hooks already run are not rolled back: per §4.10, a transition's hook
// failure aborts the transition but does not undo what already ran.
func Run(ctx context.Context, execCtx Context, programs []config.Program, handle jail.Handle) error {
	for i, p := range programs {
		if err := Execute(ctx, execCtx, p, handle); err != nil {
			return fmt.Errorf("hook %d/%d: %w", i+1, len(programs), err)
		}
	}

	return nil
}
