package formdom

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joestump/feedback-web/internal/validation"
)

// ErrFormNotFound is returned when a document has no <form> with the requested id.
var ErrFormNotFound = errors.New("form not found")

// Classes written onto annotated fields.
const (
	ClassValid   = "is-valid"
	ClassInvalid = "is-invalid"
)

// KindAttr overrides the kind that would otherwise be resolved from an
// element's type and name.
const KindAttr = "data-kind"

// ignoredInputs never carry user input that is validated.
var ignoredInputs = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"hidden": true,
}

// Form is a <form> element inside a Document together with the
// validation template built from its markup.
type Form struct {
	doc   *Document
	node  *html.Node
	spec  *validation.Form
	elems map[string][]*html.Node
}

// Form locates the form with the given id and builds its fields. Kinds are
// resolved here, once.
func (d *Document) Form(id string) (*Form, error) {
	node := findFirst(d.root, func(n *html.Node) bool {
		v, ok := getAttr(n, "id")
		return n.DataAtom == atom.Form && ok && v == id
	})
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, id)
	}

	f := &Form{
		doc:   d,
		node:  node,
		spec:  &validation.Form{ID: id},
		elems: map[string][]*html.Node{},
	}

	var buildErr error
	walk(node, func(n *html.Node) bool {
		if buildErr != nil {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			buildErr = f.addElement(n)
			return false
		}
		return true
	})
	if buildErr != nil {
		return nil, fmt.Errorf("form %s: %w", id, buildErr)
	}

	f.spec.PairConfirmations()
	return f, nil
}

func (f *Form) addElement(n *html.Node) error {
	name, _ := getAttr(n, "name")
	if name == "" {
		return nil
	}
	inputType := elementType(n)
	if ignoredInputs[inputType] {
		return nil
	}

	// Radio groups and repeated names collapse into the first field.
	if existing := f.spec.Field(name); existing != nil {
		f.elems[existing.ID] = append(f.elems[existing.ID], n)
		if hasAttr(n, "required") {
			existing.Required = true
		}
		if existing.Value == "" {
			existing.Value = elementValue(n)
		}
		return nil
	}

	id, ok := getAttr(n, "id")
	if !ok || id == "" {
		id = name
	}

	fld := validation.NewField(id, name, inputType, elementValue(n), validation.Constraints{
		Required:  hasAttr(n, "required"),
		MinLength: intAttr(n, "minlength"),
		MaxLength: intAttr(n, "maxlength"),
	})
	if declared, ok := getAttr(n, KindAttr); ok {
		k, err := validation.ParseKind(declared)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		fld.Kind = k
	}

	f.spec.Fields = append(f.spec.Fields, fld)
	f.elems[id] = append(f.elems[id], n)
	return nil
}

// elementType reports the type the browser would expose for n.
func elementType(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea:
		return "textarea"
	case atom.Select:
		if hasAttr(n, "multiple") {
			return "select-multiple"
		}
		return "select-one"
	}
	t, _ := getAttr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "text"
	}
	return t
}

func elementValue(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea:
		return textContent(n)
	case atom.Select:
		var first, selected *html.Node
		walk(n, func(c *html.Node) bool {
			if isElement(c, atom.Option) {
				if first == nil {
					first = c
				}
				if selected == nil && hasAttr(c, "selected") {
					selected = c
				}
				return false
			}
			return true
		})
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return ""
		}
		return optionValue(selected)
	}
	switch elementType(n) {
	case "radio", "checkbox":
		if !hasAttr(n, "checked") {
			return ""
		}
		if v, ok := getAttr(n, "value"); ok {
			return v
		}
		return "on"
	}
	v, _ := getAttr(n, "value")
	return v
}

func optionValue(n *html.Node) string {
	if v, ok := getAttr(n, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(n))
}

// intAttr reads a non-negative integer attribute. Missing or malformed
// values read as 0, meaning undeclared.
func intAttr(n *html.Node, key string) int {
	v, ok := getAttr(n, key)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 0 {
		return 0
	}
	return i
}

// Spec returns the validation template built from the markup. Callers must
// not modify it; Clone it to get a form carrying submitted values.
func (f *Form) Spec() *validation.Form { return f.spec }

// ApplyOutcome marks the elements of fld valid or invalid and writes the
// message into the field's error slot. The previous marking is replaced.
func (f *Form) ApplyOutcome(fld *validation.Field, o validation.Outcome) {
	f.ClearField(fld)
	class := ClassValid
	if !o.Valid {
		class = ClassInvalid
	}
	for _, n := range f.elems[fld.ID] {
		setClasses(n, []string{class})
	}
	if slot := f.doc.ElementByID(fld.ErrorID()); slot != nil && !o.Valid {
		setText(slot, o.Message)
	}
}

// ClearField removes any marking from fld and empties its error slot.
func (f *Form) ClearField(fld *validation.Field) {
	for _, n := range f.elems[fld.ID] {
		setClasses(n, nil, ClassValid, ClassInvalid)
	}
	if slot := f.doc.ElementByID(fld.ErrorID()); slot != nil {
		setText(slot, "")
	}
}

// ClearForm clears every .form-control inside the form.
func (f *Form) ClearForm() {
	walk(f.node, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !hasClass(n, "form-control") {
			return true
		}
		setClasses(n, nil, ClassValid, ClassInvalid)
		if id, ok := getAttr(n, "id"); ok && id != "" {
			if slot := f.doc.ElementByID(id + "-error"); slot != nil {
				setText(slot, "")
			}
		}
		return true
	})
}

// Populate writes submitted values back into the markup so a re-rendered
// page keeps what the user typed. Password inputs are never filled.
func (f *Form) Populate(values url.Values) {
	for _, fld := range f.spec.Fields {
		submitted := values[fld.Name]
		for _, n := range f.elems[fld.ID] {
			populate(n, submitted)
		}
	}
}

func populate(n *html.Node, submitted []string) {
	first := ""
	if len(submitted) > 0 {
		first = submitted[0]
	}
	switch n.DataAtom {
	case atom.Textarea:
		setText(n, first)
		return
	case atom.Select:
		walk(n, func(c *html.Node) bool {
			if isElement(c, atom.Option) {
				if contains(submitted, optionValue(c)) {
					setAttr(c, "selected", "")
				} else {
					removeAttr(c, "selected")
				}
				return false
			}
			return true
		})
		return
	}
	switch elementType(n) {
	case "password":
		removeAttr(n, "value")
	case "radio", "checkbox":
		v, ok := getAttr(n, "value")
		if !ok {
			v = "on"
		}
		if contains(submitted, v) {
			setAttr(n, "checked", "")
		} else {
			removeAttr(n, "checked")
		}
	default:
		setAttr(n, "value", first)
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
