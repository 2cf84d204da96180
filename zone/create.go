package zone

import (
	"context"
	"fmt"

	"zonys/config"
	"zonys/errs"
	"zonys/executor"
	"zonys/identity"
	"zonys/internal/jail"
	"zonys/lock"
	"zonys/seed"
	"zonys/template"
	"zonys/volume"
)

// Create generates a fresh identity under base, resolves directivePath
// (and everything it transitively includes) against variables, and
// builds the zone: write the Unit, create its volume, seed it if a
// "from" is set, run create hooks, and — if start_after_create is set
// anywhere in the tree — continue straight into start. Any failure
// inside the held lock runs cleanup and propagates the original error;
// a panic does the same and is re-raised, per §4.12. ctx bounds every
// hook execution create runs; canceling it (e.g. on SIGTERM) aborts the
// hook in flight rather than leaving the CLI unresponsive to a signal.
func Create(ctx context.Context, base identity.Base, directivePath string, variables map[string]interface{}) (id identity.Identity, err error) {
	return create(ctx, base, func() (*config.Unit, error) {
		resolver := config.NewResolver()
		return resolver.Resolve(directivePath, variables)
	})
}

// CreateFromUnit builds a new zone under base from an already-resolved
// Unit rather than a Directive path — used by the CLI's recreate/
// restart/reup/redeploy, which reuse a zone's existing resolved
// configuration verbatim instead of re-reading and re-resolving its
// source directive.
func CreateFromUnit(ctx context.Context, base identity.Base, unit *config.Unit) (id identity.Identity, err error) {
	return create(ctx, base, func() (*config.Unit, error) {
		return unit, nil
	})
}

func create(ctx context.Context, base identity.Base, resolve func() (*config.Unit, error)) (id identity.Identity, err error) {
	id, err = identity.Generate(base)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("generating zone identity: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			cleanup(id)
			panic(r)
		}
	}()

	if holdErr := lock.Hold(id, func() error {
		return runCreate(ctx, id, resolve)
	}); holdErr != nil {
		cleanup(id)
		return identity.Identity{}, holdErr
	}

	return id, nil
}

// cleanup best-effort tears down whatever a half-finished create left
// behind: both volume backends (only one can have actually been
// created, but each Cleanup is tolerant of absence), the configuration
// file, and the lock file. Per §4.12/§7, cleanup itself is best-effort:
// the caller's original error is what's returned to the operator, not
// any error cleanup encounters, though every substep is still attempted
// and any cleanup failure is available via the returned error for
// logging.
func cleanup(id identity.Identity) error {
	var datasetErr, directoryErr error

	if v, err := volume.New(config.VolumeZfs, id); err == nil {
		datasetErr = v.Cleanup()
	}

	if v, err := volume.New(config.VolumeDirectory, id); err == nil {
		directoryErr = v.Cleanup()
	}

	configErr := removeIfExists(id.ToConfigPath())
	lockErr := lock.Cleanup(id)

	return errs.Collect("zone cleanup", datasetErr, directoryErr, configErr, lockErr)
}

func runCreate(ctx context.Context, id identity.Identity, resolve func() (*config.Unit, error)) error {
	unit, err := resolve()
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	if err := writeUnit(id.ToConfigPath(), unit); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}

	z := &Zone{Identity: id, Unit: unit}
	reader := config.NewReader(unit)

	vol, err := volume.New(reader.VolumeKind(), id)
	if err != nil {
		return fmt.Errorf("selecting volume backend: %w", err)
	}

	if err := vol.Create(); err != nil {
		return fmt.Errorf("creating volume: %w", err)
	}

	if from := reader.From(); from != "" {
		renderedFrom, err := template.Render(z.variables(), from)
		if err != nil {
			return fmt.Errorf("rendering seed source: %w", err)
		}

		if err := seed.Handle(renderedFrom, vol.RootPath()); err != nil {
			return fmt.Errorf("seeding volume: %w", err)
		}
	}

	execCtx := executor.Context{Variables: z.variables()}

	hookErr := withTransientJail(ctx, id, vol.RootPath(), func(handle jail.Handle) error {
		return executor.RunCreateHooks(ctx, execCtx, reader, handle)
	})
	if hookErr != nil {
		return fmt.Errorf("running create hooks: %w", hookErr)
	}

	if reader.StartAfterCreate() {
		if err := runStart(ctx, z); err != nil {
			return fmt.Errorf("starting after create: %w", err)
		}
	}

	return nil
}

// withTransientJail instantiates a non-persistent jail purely to host
// child hooks, runs f against it, and always tears it down afterward —
// per §4.10's "during create/destroy, a transient jail is instantiated
// purely to host child hooks and is torn down after the last hook."
func withTransientJail(ctx context.Context, id identity.Identity, rootPath string, f func(handle jail.Handle) error) error {
	handle, err := jail.Create(jail.Params{Persist: false, Name: id.UUID.String(), Path: rootPath})
	if err != nil {
		return fmt.Errorf("creating transient jail: %w", err)
	}

	fErr := f(handle)
	destroyErr := jail.Destroy(handle)

	if fErr != nil {
		return fErr
	}

	return destroyErr
}
