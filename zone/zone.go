// Package zone is the public lifecycle engine: create, start, stop,
// destroy, send, receive, open, all and match, orchestrating config,
// volume, executor and transmission under the zone's exclusive lock.
// Grounded throughout on original_source/zonys-core/src/zone/mod.rs's
// Zone (the handle_create/handle_start/handle_stop/handle_destroy/
// handle_send/handle_receive methods and their lock-wrapped public
// counterparts) and zone/iterator.rs's AllZoneIterator.
package zone

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"zonys/config"
	"zonys/identity"
	"zonys/internal/jail"
)

// Zone is a handle to one zone: its identity, its resolved
// configuration, and — while running — the jail handle created for it.
// A Zone with a nil Handle is not running.
type Zone struct {
	Identity identity.Identity
	Unit     *config.Unit
	Handle   jail.Handle
}

// Running reports whether the zone currently has a jail instantiated.
func (z *Zone) Running() bool {
	return z.Handle != nil
}

// variables builds the merged template variables for every operation on
// this zone: the Unit tree's own inherited variables plus the
// "Zone.Identifier"/"Zone.Paths.Root" values derived from identity,
// mirroring Zone::zone_variables/variables in the original.
func (z *Zone) variables() map[string]interface{} {
	merged := map[string]interface{}{}

	for k, v := range config.NewReader(z.Unit).Variables() {
		merged[k] = v
	}

	merged["Zone"] = map[string]interface{}{
		"Identifier": z.Identity.String(),
		"Paths": map[string]interface{}{
			"Root": z.Identity.ToDirectoryPath(),
		},
	}

	return merged
}

func writeUnit(path string, unit *config.Unit) error {
	data, err := yaml.Marshal(unit)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func loadUnit(path string) (*config.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var unit config.Unit
	if err := yaml.Unmarshal(data, &unit); err != nil {
		return nil, err
	}

	return &unit, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Open returns a handle for identity iff its configuration file exists.
// Running status is determined on the spot via jail.LookupByName, per
// original_source/zonys-core/src/zone/mod.rs's running() (an on-demand
// lookup rather than a cached flag) — necessary since cmd/zonys is a
// fresh process per invocation and never carries a Handle across runs.
// Open does not verify the volume; that's checked lazily by the
// operations that need it.
func Open(id identity.Identity) (*Zone, error) {
	path := id.ToConfigPath()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	unit, err := loadUnit(path)
	if err != nil {
		return nil, err
	}

	handle, found, err := jail.LookupByName(id.UUID.String())
	if err != nil {
		return nil, fmt.Errorf("looking up jail: %w", err)
	}

	z := &Zone{Identity: id, Unit: unit}

	if found {
		z.Handle = handle
	}

	return z, nil
}

func baseDirectory(base identity.Base) string {
	return filepath.Join("/", filepath.Join(base...))
}

// All iterates every zone under base: every "<uuid>.yaml" file in the
// base directory. Whether a matching "<uuid>" directory/dataset exists
// is not checked. A yaml file whose
// stem isn't a valid UUID is skipped rather than treated as an error —
// a base directory can reasonably hold other files. Opening each
// candidate is IO-bound (one file read plus a YAML parse), so the scan
// fans out across GOMAXPROCS goroutines via errgroup rather than
// opening candidates one at a time.
func All(base identity.Base) ([]*Zone, error) {
	entries, err := os.ReadDir(baseDirectory(base))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var uuidParts []string

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		uuidParts = append(uuidParts, strings.TrimSuffix(entry.Name(), ".yaml"))
	}

	zones := make([]*Zone, len(uuidParts))

	var group errgroup.Group

	tokens := make(chan struct{}, runtime.GOMAXPROCS(0))

	for i, uuidPart := range uuidParts {
		i, uuidPart := i, uuidPart

		group.Go(func() error {
			tokens <- struct{}{}
			defer func() { <-tokens }()

			id, err := identity.Parse(strings.Join(append(append([]string{}, base...), uuidPart), "/"))
			if err != nil {
				return nil
			}

			z, err := Open(id)
			if err != nil {
				return err
			}

			zones[i] = z

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := zones[:0]
	for _, z := range zones {
		if z != nil {
			result = append(result, z)
		}
	}

	return result, nil
}

// Match filters All(base) to the zones whose UUID or any tag matches
// pattern.
func Match(base identity.Base, pattern string) ([]*Zone, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	all, err := All(base)
	if err != nil {
		return nil, err
	}

	var matched []*Zone

	for _, z := range all {
		if re.MatchString(z.Identity.UUID.String()) {
			matched = append(matched, z)
			continue
		}

		for tag := range config.NewReader(z.Unit).Tags() {
			if re.MatchString(tag) {
				matched = append(matched, z)
				break
			}
		}
	}

	return matched, nil
}
