package zone

import (
	"context"
	"fmt"

	"zonys/config"
	"zonys/executor"
	"zonys/internal/jail"
	"zonys/lock"
	"zonys/volume"
)

// Start instantiates z's jail, runs its start hooks, and leaves the
// jail persistent. Fails with ErrAlreadyRunning if z already has a
// handle. ctx bounds the start hooks; canceling it aborts a hook in
// flight rather than leaving the CLI unresponsive to a signal.
func Start(ctx context.Context, z *Zone) error {
	return lock.Hold(z.Identity, func() error {
		return runStart(ctx, z)
	})
}

func runStart(ctx context.Context, z *Zone) error {
	if z.Running() {
		return ErrAlreadyRunning
	}

	handle, err := jail.Create(jail.Params{
		Persist: true,
		Name:    z.Identity.UUID.String(),
		Path:    z.Identity.ToDirectoryPath(),
	})
	if err != nil {
		return fmt.Errorf("creating jail: %w", err)
	}

	reader := config.NewReader(z.Unit)
	execCtx := executor.Context{Variables: z.variables()}

	if err := executor.RunStartHooks(ctx, execCtx, reader, handle); err != nil {
		jail.Destroy(handle)
		return fmt.Errorf("running start hooks: %w", err)
	}

	z.Handle = handle

	return nil
}

// Stop runs z's stop hooks and destroys its jail. If the Unit's
// destroy_after_stop is set, it continues straight into destroy and
// returns a nil *Zone; otherwise it returns z, now stopped, for further
// use. Fails with ErrNotRunning if z has no handle.
func Stop(ctx context.Context, z *Zone) (*Zone, error) {
	var result *Zone

	err := lock.Hold(z.Identity, func() error {
		r, err := runStop(ctx, z)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func runStop(ctx context.Context, z *Zone) (*Zone, error) {
	if !z.Running() {
		return nil, ErrNotRunning
	}

	reader := config.NewReader(z.Unit)
	execCtx := executor.Context{Variables: z.variables()}

	if err := executor.RunStopHooks(ctx, execCtx, reader, z.Handle); err != nil {
		return nil, fmt.Errorf("running stop hooks: %w", err)
	}

	if err := jail.Destroy(z.Handle); err != nil {
		return nil, fmt.Errorf("destroying jail: %w", err)
	}

	z.Handle = nil

	if reader.DestroyAfterStop() {
		if err := runDestroy(ctx, z); err != nil {
			return nil, err
		}

		return nil, nil
	}

	return z, nil
}

// Destroy runs z's destroy hooks (via a transient jail), destroys its
// volume, and removes its configuration file. Fails with ErrIsRunning
// if z still has a handle.
func Destroy(ctx context.Context, z *Zone) error {
	return lock.Hold(z.Identity, func() error {
		return runDestroy(ctx, z)
	})
}

func runDestroy(ctx context.Context, z *Zone) error {
	if z.Running() {
		return ErrIsRunning
	}

	reader := config.NewReader(z.Unit)
	execCtx := executor.Context{Variables: z.variables()}

	hookErr := withTransientJail(ctx, z.Identity, z.Identity.ToDirectoryPath(), func(handle jail.Handle) error {
		return executor.RunDestroyHooks(ctx, execCtx, reader, handle)
	})
	if hookErr != nil {
		return fmt.Errorf("running destroy hooks: %w", hookErr)
	}

	vol, err := volume.New(reader.VolumeKind(), z.Identity)
	if err != nil {
		return fmt.Errorf("selecting volume backend: %w", err)
	}

	if err := vol.Destroy(); err != nil {
		return fmt.Errorf("destroying volume: %w", err)
	}

	if err := removeIfExists(z.Identity.ToConfigPath()); err != nil {
		return fmt.Errorf("removing configuration: %w", err)
	}

	return nil
}
