// Package forms keeps the list of HTML forms whose submissions are gated by
// validation, and the validation templates compiled from their pages.
package forms

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joestump/feedback-web/internal/formdom"
	"github.com/joestump/feedback-web/internal/validation"
)

// ErrUnknownForm is returned when a form name is not registered.
var ErrUnknownForm = errors.New("unknown form")

// Auth says who may see a form.
type Auth string

const (
	AuthOptional Auth = "optional"
	AuthRequired Auth = "required"
	AuthGuest    Auth = "guest"
)

// Entry describes one gated form.
type Entry struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Page   string `yaml:"page"`
	FormID string `yaml:"form_id"`
	Auth   Auth   `yaml:"auth"`
	Title  string `yaml:"title"`
}

type registryFile struct {
	Forms []Entry `yaml:"forms"`
}

// PageRenderer renders the page of e with blank layout data so its form
// markup can be inspected.
type PageRenderer func(w io.Writer, e Entry) error

// Registry holds the registered forms in file order.
type Registry struct {
	entries  []Entry
	byName   map[string]int
	byPath   map[string]int
	compiled map[string]*validation.Form
}

// LoadFS reads a registry file from fsys.
func LoadFS(fsys fs.FS, name string) (*Registry, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("forms: read %s: %w", name, err)
	}
	return Load(bytes.NewReader(data))
}

// Load decodes a registry from r. Unknown keys are rejected.
func Load(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file registryFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("forms: decode registry: %w", err)
	}

	reg := &Registry{
		byName:   make(map[string]int, len(file.Forms)),
		byPath:   make(map[string]int, len(file.Forms)),
		compiled: make(map[string]*validation.Form, len(file.Forms)),
	}
	for i, e := range file.Forms {
		e, err := normalise(e)
		if err != nil {
			return nil, fmt.Errorf("forms: entry %d: %w", i, err)
		}
		if _, dup := reg.byName[e.Name]; dup {
			return nil, fmt.Errorf("forms: duplicate form %q", e.Name)
		}
		if _, dup := reg.byPath[e.Path]; dup {
			return nil, fmt.Errorf("forms: duplicate path %q", e.Path)
		}
		reg.byName[e.Name] = len(reg.entries)
		reg.byPath[e.Path] = len(reg.entries)
		reg.entries = append(reg.entries, e)
	}
	return reg, nil
}

func normalise(e Entry) (Entry, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Path = strings.TrimSpace(e.Path)
	e.Page = strings.TrimSpace(e.Page)
	e.FormID = strings.TrimSpace(e.FormID)
	if e.Name == "" {
		return e, errors.New("name is required")
	}
	if err := ValidateName(e.Name); err != nil {
		return e, err
	}
	if err := ValidatePath(e.Path); err != nil {
		return e, fmt.Errorf("form %s: %w", e.Name, err)
	}
	switch {
	case e.Page == "":
		return e, fmt.Errorf("form %s: page is required", e.Name)
	case e.FormID == "":
		return e, fmt.Errorf("form %s: form_id is required", e.Name)
	}
	switch e.Auth {
	case "":
		e.Auth = AuthOptional
	case AuthOptional, AuthRequired, AuthGuest:
	default:
		return e, fmt.Errorf("form %s: unknown auth %q", e.Name, e.Auth)
	}
	return e, nil
}

// Entries returns the registered forms in file order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Names returns the registered form names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the entry with the given name.
func (r *Registry) Lookup(name string) (Entry, error) {
	i, ok := r.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownForm, name)
	}
	return r.entries[i], nil
}

// Compile renders every registered page once and builds its validation
// template. It must be called before Template.
func (r *Registry) Compile(render PageRenderer) error {
	for _, e := range r.entries {
		var buf bytes.Buffer
		if err := render(&buf, e); err != nil {
			return fmt.Errorf("forms: render %s: %w", e.Page, err)
		}
		doc, err := formdom.Parse(&buf)
		if err != nil {
			return fmt.Errorf("forms: %s: %w", e.Name, err)
		}
		f, err := doc.Form(e.FormID)
		if err != nil {
			return fmt.Errorf("forms: %s: %w", e.Name, err)
		}
		r.compiled[e.Name] = f.Spec()
	}
	return nil
}

// Template returns the compiled validation template for a form.
func (r *Registry) Template(name string) (*validation.Form, error) {
	if _, err := r.Lookup(name); err != nil {
		return nil, err
	}
	f, ok := r.compiled[name]
	if !ok {
		return nil, fmt.Errorf("forms: %s has not been compiled", name)
	}
	return f, nil
}

// Bind returns a fresh copy of the form's template holding the submitted
// values. The template itself is never modified.
func (r *Registry) Bind(name string, values url.Values) (*validation.Form, error) {
	tmpl, err := r.Template(name)
	if err != nil {
		return nil, err
	}
	return tmpl.Clone(values.Get), nil
}
