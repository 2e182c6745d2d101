// Package template renders batch submission scripts from named templates
// with {{variable}} placeholders.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// TemplateNotFoundError is returned when a template name has no backing
// template source.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Name)
}

// MissingVariableError is returned when a template references placeholders
// absent from the variable map. Names lists every missing variable.
type MissingVariableError struct {
	Template string
	Names    []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %s: missing variables: %s", e.Template, strings.Join(e.Names, ", "))
}

// Renderer interpolates variables into named submission-script templates.
// Rendering is deterministic and touches nothing outside the template
// sources loaded at construction.
type Renderer struct {
	templates map[string]string
}

// NewRenderer loads every regular file in dir as a template, keyed by file
// name.
func NewRenderer(dir string) (*Renderer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template directory %s", dir)
	}

	templates := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %s", entry.Name())
		}
		templates[entry.Name()] = string(content)
	}

	return &Renderer{templates: templates}, nil
}

// NewRendererFromMap builds a renderer from in-memory template sources.
func NewRendererFromMap(templates map[string]string) *Renderer {
	copied := make(map[string]string, len(templates))
	for name, content := range templates {
		copied[name] = content
	}
	return &Renderer{templates: copied}
}

// RequiredVariables returns the distinct placeholder names referenced by a
// template, sorted.
func (r *Renderer) RequiredVariables(name string) ([]string, error) {
	content, ok := r.templates[name]
	if !ok {
		return nil, &TemplateNotFoundError{Name: name}
	}

	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Render substitutes variables into the named template in a single pass, so
// placeholder tokens inside variable values are never re-expanded. It fails
// with MissingVariableError naming every absent variable, never producing a
// partial render.
func (r *Renderer) Render(name string, variables map[string]string) (string, error) {
	content, ok := r.templates[name]
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}

	required, _ := r.RequiredVariables(name)
	var missing []string
	for _, v := range required {
		if _, ok := variables[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", &MissingVariableError{Template: name, Names: missing}
	}

	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(placeholder string) string {
		key := placeholderPattern.FindStringSubmatch(placeholder)[1]
		return variables[key]
	})
	return rendered, nil
}
