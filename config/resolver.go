package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"zonys/template"
)

// MaxIncludeDepth bounds the resolver's recursion so a cyclic include
// graph fails loudly as ErrIncludeCycle instead of overflowing the
// stack, per §9's suggested depth limit.
const MaxIncludeDepth = 64

// Resolver transforms a Directive tree into its persisted Unit tree.
// One Resolver is good for exactly one Resolve call's worth of include
// parsing: the parse cache exists to avoid re-reading and re-parsing a
// document that's included from more than one place in the same pass,
// not as a cross-call cache.
type Resolver struct {
	parsed *gocache.Cache
}

// NewResolver returns a Resolver ready for a single Resolve call.
func NewResolver() *Resolver {
	return &Resolver{parsed: gocache.New(5*time.Minute, 10*time.Minute)}
}

type transformContext struct {
	variables map[string]interface{}
	workDirs  []string
	depth     int
}

func (c *transformContext) currentWorkDir() string {
	return c.workDirs[len(c.workDirs)-1]
}

func (c *transformContext) pushWorkDir(dir string) {
	c.workDirs = append(c.workDirs, dir)
}

func (c *transformContext) popWorkDir() {
	c.workDirs = c.workDirs[:len(c.workDirs)-1]
}

// Resolve reads the Directive document at path and transforms it, and
// everything it transitively includes, into a Unit tree. The template
// context used to render include references is the root Directive's own
// variables, overlaid with variables (a caller-supplied key wins); it is
// fixed for the whole transform, not re-seeded as the resolver descends
// into each include.
func (r *Resolver) Resolve(path string, variables map[string]interface{}) (*Unit, error) {
	directive, err := r.loadDirective(path)
	if err != nil {
		return nil, err
	}

	seeded := map[string]interface{}{}
	for k, v := range directive.Variables {
		seeded[k] = v
	}
	for k, v := range variables {
		seeded[k] = v
	}

	ctx := &transformContext{
		variables: seeded,
		workDirs:  []string{filepath.Dir(path)},
	}

	return r.transform(directive, ctx)
}

func (r *Resolver) transform(directive *Directive, ctx *transformContext) (*Unit, error) {
	unit := &Unit{
		From:             directive.From,
		Tags:             directive.Tags,
		Variables:        directive.Variables,
		Type:             directive.Type,
		Volume:           directive.Volume,
		StartAfterCreate: directive.StartAfterCreate,
		DestroyAfterStop: directive.DestroyAfterStop,
		Execute:          directive.Execute,
	}

	for _, ref := range directive.Includes {
		childUnit, err := r.transformInclude(ref, ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving include %q: %w", ref, err)
		}

		unit.Units = append(unit.Units, childUnit)
	}

	return unit, nil
}

func (r *Resolver) transformInclude(ref string, ctx *transformContext) (*Unit, error) {
	if ctx.depth+1 > MaxIncludeDepth {
		return nil, ErrIncludeCycle
	}

	rendered, err := template.Render(ctx.variables, ref)
	if err != nil {
		return nil, fmt.Errorf("rendering include reference: %w", err)
	}

	resolvedPath, err := resolveIncludePath(rendered, ctx.currentWorkDir())
	if err != nil {
		return nil, err
	}

	directive, err := r.loadDirective(resolvedPath)
	if err != nil {
		return nil, err
	}

	ctx.pushWorkDir(filepath.Dir(resolvedPath))
	ctx.depth++

	childUnit, err := r.transform(directive, ctx)

	ctx.depth--
	ctx.popWorkDir()

	if err != nil {
		return nil, err
	}

	return childUnit, nil
}

// resolveIncludePath applies §4.5's scheme rules: empty or "file"
// scheme is a local path, resolved against workDir when relative;
// anything else is ErrUnsupportedScheme.
func resolveIncludePath(ref string, workDir string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing include reference %q: %w", ref, err)
	}

	var path string

	switch u.Scheme {
	case "", "file":
		if u.Scheme == "file" {
			path = u.Path
		} else {
			path = ref
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	return path, nil
}

func (r *Resolver) loadDirective(path string) (*Directive, error) {
	if cached, ok := r.parsed.Get(path); ok {
		return cached.(*Directive), nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	var directive Directive
	if err := yaml.Unmarshal(contents, &directive); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}

	r.parsed.Set(path, &directive, gocache.DefaultExpiration)

	return &directive, nil
}
