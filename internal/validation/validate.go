package validation

// Annotator receives the outcome of each field so it can be shown to the user.
// Applying the same outcome twice must leave the same state as applying it once.
type Annotator interface {
	ApplyOutcome(f *Field, o Outcome)
}

// ValidateField dispatches f to the rule for its kind.
func ValidateField(f *Field) Outcome {
	switch f.Kind {
	case KindEmail:
		return Email(f.Value)
	case KindPassword:
		return Password(f.Value)
	case KindConfirmPassword:
		if f.Pair == nil {
			return fail(MsgPasswordMatch)
		}
		return ConfirmPassword(f.Pair.Value, f.Value)
	case KindName:
		return Name(f.Value)
	case KindText:
		return Text(f.Value, f.MinLength, f.MaxLength)
	case KindRating:
		return Rating(f.Value)
	default:
		return Required(f.Value)
	}
}

// FieldOutcome pairs a field with the outcome it was given.
type FieldOutcome struct {
	Field   *Field
	Outcome Outcome
}

// Report is the result of evaluating every participating field of a form.
type Report struct {
	Valid    bool
	Outcomes []FieldOutcome
}

// Invalid returns the fields that failed, in form order.
func (r Report) Invalid() []FieldOutcome {
	var out []FieldOutcome
	for _, fo := range r.Outcomes {
		if !fo.Outcome.Valid {
			out = append(out, fo)
		}
	}
	return out
}

// Apply hands every outcome to a. A nil annotator is allowed.
func (r Report) Apply(a Annotator) {
	if a == nil {
		return
	}
	for _, fo := range r.Outcomes {
		a.ApplyOutcome(fo.Field, fo.Outcome)
	}
}

// Evaluate validates every participating field without stopping at the
// first failure. It has no side effects.
func Evaluate(form *Form) Report {
	fields := form.Participating()
	rep := Report{Valid: true, Outcomes: make([]FieldOutcome, 0, len(fields))}
	for _, f := range fields {
		o := ValidateField(f)
		if !o.Valid {
			rep.Valid = false
		}
		rep.Outcomes = append(rep.Outcomes, FieldOutcome{Field: f, Outcome: o})
	}
	return rep
}

// ValidateForm evaluates form, annotates every participating field through a
// and reports whether the form may be submitted.
func ValidateForm(form *Form, a Annotator) bool {
	rep := Evaluate(form)
	rep.Apply(a)
	return rep.Valid
}
