// Package template renders strings against a variable object, grounded in
// the teacher's own tmpl.GenerateFromTemplate: a thin wrapper around the
// standard library's text/template. Unlike the teacher's one-shot asset
// renderer, Render applies the engine repeatedly until the output reaches a
// fixed point, so a variable's value may itself contain template syntax
// that expands on the next pass.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// MaxIterations bounds the fixed-point loop so a variable that expands into
// itself (directly or through a cycle of variables) fails loudly instead of
// looping forever.
const MaxIterations = 64

// ErrNotConverged is returned when the output hasn't stabilized after
// MaxIterations passes.
var ErrNotConverged = errors.New("template: did not converge to a fixed point")

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// Render applies the template engine to input against variables repeatedly
// until the output equals the input from the previous pass (a fixed
// point), or MaxIterations is exceeded.
func Render(variables interface{}, input string) (string, error) {
	current := input

	for i := 0; i < MaxIterations; i++ {
		output, err := renderOnce(variables, current)
		if err != nil {
			return "", err
		}

		if output == current {
			return output, nil
		}

		current = output
	}

	return "", fmt.Errorf("%w: after %d iterations, still changing", ErrNotConverged, MaxIterations)
}

func renderOnce(variables interface{}, input string) (string, error) {
	tmpl, err := template.New("zonys").Option("missingkey=zero").Funcs(funcs).Parse(input)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer

	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// HasSyntax is a cheap pre-check for callers that want to skip the
// render entirely for plain strings — not required for correctness (Render
// is a no-op on a plain string) but avoids a parse/execute round trip on
// the common case of a literal program path or argument.
func HasSyntax(input string) bool {
	return strings.Contains(input, "{{")
}
