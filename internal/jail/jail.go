// Package jail wraps the host-kernel jail interface spec.md §1 names as
// an external collaborator: create(params)->handle,
// execute(handle, program, argv, env), destroy(handle),
// lookup_by_name(name)->Option<handle>. A real build points this at
// FreeBSD's jail(2)/jail_get(2)/jail_remove(2) syscalls; this port
// models the capability as an interface so the lifecycle engine
// depends on behavior rather than a specific syscall binding.
package jail

import "io"

// Params are the creation parameters for a jail, named per §4.10's
// contract: jails are named by the zone's UUID and created with
// {persist: true, name: <uuid>, path: <root_path>}.
type Params struct {
	Persist bool
	Name    string
	Path    string
}

// Handle identifies a running jail.
type Handle interface {
	Name() string
}

// Jail is the kernel containment capability.
type Jail interface {
	Create(params Params) (Handle, error)
	Execute(handle Handle, program string, argv []string, env map[string]string, stdout, stderr io.Writer) error
	Destroy(handle Handle) error
	LookupByName(name string) (Handle, bool, error)
}

// DefaultJail is the process-wide Jail used by the package-level
// functions, mirroring internal/pool.DefaultPool and the teacher's
// DefaultMM singleton idiom.
var DefaultJail Jail

func Create(params Params) (Handle, error) { return DefaultJail.Create(params) }

func Execute(handle Handle, program string, argv []string, env map[string]string, stdout, stderr io.Writer) error {
	return DefaultJail.Execute(handle, program, argv, env, stdout, stderr)
}

func Destroy(handle Handle) error { return DefaultJail.Destroy(handle) }

func LookupByName(name string) (Handle, bool, error) { return DefaultJail.LookupByName(name) }
