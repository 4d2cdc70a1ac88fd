// Package validation holds the rule set that decides whether a form may be
// submitted. Rules are pure functions over the value present at call time;
// marking up the page with the result is left to an Annotator.
package validation

// Default bounds for generic text fields that declare no minlength/maxlength.
const (
	DefaultTextMin = 0
	DefaultTextMax = 1000
)

// Constraints are the declarative limits carried by a field's markup.
// A zero MinLength or MaxLength means the attribute was not declared.
type Constraints struct {
	Required  bool
	MinLength int
	MaxLength int
}

// Field describes one input of a form.
type Field struct {
	ID    string
	Name  string
	Type  string
	Kind  Kind
	Value string
	Constraints

	// Pair is the password field a KindConfirmPassword field must match.
	Pair *Field
}

// NewField builds a field and resolves its kind from inputType and name.
func NewField(id, name, inputType, value string, c Constraints) *Field {
	return &Field{
		ID:          id,
		Name:        name,
		Type:        inputType,
		Kind:        ResolveKind(inputType, name),
		Value:       value,
		Constraints: c,
	}
}

// ErrorID is the id of the element that displays this field's message.
func (f *Field) ErrorID() string {
	return f.ID + "-error"
}

// Form is an ordered set of fields.
type Form struct {
	ID     string
	Fields []*Field
}

// Field returns the first field with the given name, or nil.
func (f *Form) Field(name string) *Field {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// Participating returns the fields that take part in form-level validation:
// those declared required.
func (f *Form) Participating() []*Field {
	out := make([]*Field, 0, len(f.Fields))
	for _, fld := range f.Fields {
		if fld.Required {
			out = append(out, fld)
		}
	}
	return out
}

// PairConfirmations links every confirm-password field to the form's
// "password" field. Fields without a partner are left unpaired and will fail.
func (f *Form) PairConfirmations() {
	pw := f.Field("password")
	for _, fld := range f.Fields {
		if fld.Kind == KindConfirmPassword && fld != pw {
			fld.Pair = pw
		}
	}
}

// Clone returns a deep copy of the form with every value replaced by the
// result of value(name). Pairings are re-established on the copy.
func (f *Form) Clone(value func(name string) string) *Form {
	out := &Form{ID: f.ID, Fields: make([]*Field, len(f.Fields))}
	for i, fld := range f.Fields {
		c := *fld
		c.Pair = nil
		if value != nil {
			c.Value = value(fld.Name)
		} else {
			c.Value = ""
		}
		out.Fields[i] = &c
	}
	out.PairConfirmations()
	return out
}
