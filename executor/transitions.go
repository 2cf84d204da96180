package executor

import (
	"context"

	"zonys/config"
	"zonys/internal/jail"
)

// RunCreateHooks runs a zone's create-transition hooks: on, then after.
func RunCreateHooks(ctx context.Context, execCtx Context, reader *config.Reader, handle jail.Handle) error {
	on, after := reader.CreateHooks()

	if err := Run(ctx, execCtx, on, handle); err != nil {
		return err
	}

	return Run(ctx, execCtx, after, handle)
}

// RunStartHooks runs a zone's start-transition hooks: before, on, after.
func RunStartHooks(ctx context.Context, execCtx Context, reader *config.Reader, handle jail.Handle) error {
	before, on, after := reader.StartHooks()

	if err := Run(ctx, execCtx, before, handle); err != nil {
		return err
	}

	if err := Run(ctx, execCtx, on, handle); err != nil {
		return err
	}

	return Run(ctx, execCtx, after, handle)
}

// RunStopHooks runs a zone's stop-transition hooks: before, on, after.
func RunStopHooks(ctx context.Context, execCtx Context, reader *config.Reader, handle jail.Handle) error {
	before, on, after := reader.StopHooks()

	if err := Run(ctx, execCtx, before, handle); err != nil {
		return err
	}

	if err := Run(ctx, execCtx, on, handle); err != nil {
		return err
	}

	return Run(ctx, execCtx, after, handle)
}

// RunDestroyHooks runs a zone's destroy-transition hooks: before, then
// on. There is no after list: destroy is the last transition.
func RunDestroyHooks(ctx context.Context, execCtx Context, reader *config.Reader, handle jail.Handle) error {
	before, on := reader.DestroyHooks()

	if err := Run(ctx, execCtx, before, handle); err != nil {
		return err
	}

	return Run(ctx, execCtx, on, handle)
}
