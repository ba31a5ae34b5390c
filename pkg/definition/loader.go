package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a single form definition from JSON or YAML. JSON is tried
// first so ambiguous documents decode deterministically.
func Parse(data []byte) (Form, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Form{}, fmt.Errorf("definition: document is empty")
	}

	var form Form
	if err := json.Unmarshal(data, &form); err == nil {
		return normalized(form), nil
	}
	if err := yaml.Unmarshal(data, &form); err == nil {
		return normalized(form), nil
	}
	return Form{}, fmt.Errorf("definition: invalid JSON or YAML")
}

// LoadFile reads and parses one definition file.
func LoadFile(path string) (Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Form{}, fmt.Errorf("definition: read %s: %w", path, err)
	}
	form, err := Parse(data)
	if err != nil {
		return Form{}, fmt.Errorf("%w (file %s)", err, path)
	}
	if form.Name == "" {
		form.Name = nameFromPath(path)
	}
	return form, nil
}

// Registry holds loaded definitions keyed by form name.
type Registry struct {
	forms map[string]Form
}

// NewRegistry builds a registry from the given definitions. Duplicate names
// are an error.
func NewRegistry(forms ...Form) (*Registry, error) {
	reg := &Registry{forms: make(map[string]Form, len(forms))}
	for _, form := range forms {
		if err := reg.add(form, ""); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadFS walks a filesystem and parses every JSON/YAML definition file. A
// nil filesystem yields an empty registry. Files that do not declare a name
// take their base filename.
func LoadFS(fsys fs.FS) (*Registry, error) {
	reg := &Registry{forms: make(map[string]Form)}
	if fsys == nil {
		return reg, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		form, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%w (file %s)", err, path)
		}
		if form.Name == "" {
			form.Name = nameFromPath(path)
		}
		return reg.add(form, path)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadDir loads every definition file under dir.
func LoadDir(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir))
}

func (r *Registry) add(form Form, source string) error {
	if form.Name == "" {
		return fmt.Errorf("definition: form has no name")
	}
	if _, exists := r.forms[form.Name]; exists {
		if source != "" {
			return fmt.Errorf("definition: duplicate form %q (file %s)", form.Name, source)
		}
		return fmt.Errorf("definition: duplicate form %q", form.Name)
	}
	r.forms[form.Name] = form
	return nil
}

// Form returns the definition registered under name.
func (r *Registry) Form(name string) (Form, bool) {
	if r == nil {
		return Form{}, false
	}
	form, ok := r.forms[name]
	if !ok {
		return Form{}, false
	}
	return form.Clone(), true
}

// Names lists registered form names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the registry holds any definitions.
func (r *Registry) Empty() bool {
	return r == nil || len(r.forms) == 0
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalized(form Form) Form {
	if form.Method != "" {
		form.Method = strings.ToUpper(strings.TrimSpace(form.Method))
	}
	return form
}
