package formdom

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/feedback-web/internal/validation"
)

const registerPage = `<!doctype html>
<html><body>
<form id="register-form" method="post" action="/auth/register">
  <div class="form-group">
    <input class="form-control" type="text" id="name" name="name" required>
    <div class="invalid-feedback" id="name-error"></div>
  </div>
  <div class="form-group">
    <input class="form-control" type="email" id="email" name="email" required>
    <div class="invalid-feedback" id="email-error"></div>
  </div>
  <div class="form-group">
    <input class="form-control" type="password" id="password" name="password" required>
    <div class="invalid-feedback" id="password-error"></div>
  </div>
  <div class="form-group">
    <input class="form-control" type="password" id="confirm_password" name="confirm_password" required>
    <div class="invalid-feedback" id="confirm_password-error"></div>
  </div>
  <input type="hidden" name="csrf" value="tok">
  <button type="submit" class="btn btn-primary">Register</button>
</form>
</body></html>`

const feedbackPage = `<html><body>
<form id="feedback-form">
  <textarea class="form-control" id="text" name="text" minlength="10" maxlength="500" required>draft</textarea>
  <div id="text-error"></div>
  <select class="form-control" id="rating" name="rating" required>
    <option value="">Choose</option>
    <option value="4" selected>4</option>
    <option value="5">5</option>
  </select>
  <div id="rating-error"></div>
  <input type="password" id="current" name="current" data-kind="required" required>
  <input type="radio" name="mood" value="happy" required>
  <input type="radio" name="mood" value="sad" checked>
  <input type="text" id="nickname" name="nickname">
</form>
</body></html>`

func mustForm(t *testing.T, page, id string) (*Document, *Form) {
	t.Helper()
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f, err := doc.Form(id)
	if err != nil {
		t.Fatalf("Form(%q): %v", id, err)
	}
	return doc, f
}

type fieldSummary struct {
	ID, Name, Kind, Value string
	validation.Constraints
}

func summarize(form *validation.Form) []fieldSummary {
	out := make([]fieldSummary, 0, len(form.Fields))
	for _, f := range form.Fields {
		out = append(out, fieldSummary{f.ID, f.Name, f.Kind.String(), f.Value, f.Constraints})
	}
	return out
}

func TestForm_BuildsFields(t *testing.T) {
	_, f := mustForm(t, feedbackPage, "feedback-form")

	want := []fieldSummary{
		{"text", "text", "text", "draft", validation.Constraints{Required: true, MinLength: 10, MaxLength: 500}},
		{"rating", "rating", "rating", "4", validation.Constraints{Required: true}},
		{"current", "current", "required", "", validation.Constraints{Required: true}},
		{"mood", "mood", "required", "sad", validation.Constraints{Required: true}},
		{"nickname", "nickname", "text", "", validation.Constraints{}},
	}
	if diff := cmp.Diff(want, summarize(f.Spec())); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SkipsButtonsAndHidden(t *testing.T) {
	_, f := mustForm(t, registerPage, "register-form")

	var names []string
	for _, fld := range f.Spec().Fields {
		names = append(names, fld.Name)
	}
	want := []string{"name", "email", "password", "confirm_password"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("field names mismatch (-want +got):\n%s", diff)
	}

	confirm := f.Spec().Field("confirm_password")
	if confirm.Kind != validation.KindConfirmPassword {
		t.Fatalf("confirm kind = %v", confirm.Kind)
	}
	if confirm.Pair != f.Spec().Field("password") {
		t.Error("confirm_password not paired with password")
	}
}

func TestDocument_FormNotFound(t *testing.T) {
	doc, err := Parse(strings.NewReader(registerPage))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Form("missing"); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("err = %v, want ErrFormNotFound", err)
	}
}

func TestDocument_FormUnknownKind(t *testing.T) {
	page := `<form id="f"><input name="x" data-kind="zipcode" required></form>`
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Form("f"); err == nil {
		t.Error("expected error for unknown data-kind")
	}
}

func TestForm_ApplyReport(t *testing.T) {
	doc, f := mustForm(t, registerPage, "register-form")

	bound := f.Spec().Clone(url.Values{
		"name":             {"Ada Lovelace"},
		"email":            {"not-an-email"},
		"password":         {"Abc123!@"},
		"confirm_password": {"Abc123!@"},
	}.Get)
	if validation.ValidateForm(bound, f) {
		t.Fatal("expected invalid form")
	}

	email := doc.ElementByID("email")
	if !hasClass(email, ClassInvalid) || hasClass(email, ClassValid) {
		t.Errorf("email classes = %v", classes(email))
	}
	if got := textContent(doc.ElementByID("email-error")); got != validation.MsgEmail {
		t.Errorf("email-error = %q, want %q", got, validation.MsgEmail)
	}

	name := doc.ElementByID("name")
	if !hasClass(name, ClassValid) || hasClass(name, ClassInvalid) {
		t.Errorf("name classes = %v", classes(name))
	}
	if got := textContent(doc.ElementByID("name-error")); got != "" {
		t.Errorf("name-error = %q, want empty", got)
	}
}

func TestForm_ApplyOutcomeIdempotent(t *testing.T) {
	once, f1 := mustForm(t, registerPage, "register-form")
	twice, f2 := mustForm(t, registerPage, "register-form")

	bad := validation.Outcome{Message: validation.MsgNameTooShort}
	f1.ApplyOutcome(f1.Spec().Field("name"), bad)
	f2.ApplyOutcome(f2.Spec().Field("name"), bad)
	f2.ApplyOutcome(f2.Spec().Field("name"), bad)

	if diff := cmp.Diff(once.String(), twice.String()); diff != "" {
		t.Errorf("applying twice differs from once (-once +twice):\n%s", diff)
	}
}

func TestForm_OutcomeOverwrites(t *testing.T) {
	doc, f := mustForm(t, registerPage, "register-form")
	fld := f.Spec().Field("email")

	f.ApplyOutcome(fld, validation.Outcome{Message: validation.MsgEmail})
	f.ApplyOutcome(fld, validation.Outcome{Valid: true})

	el := doc.ElementByID("email")
	if got, want := classes(el), []string{"form-control", ClassValid}; !cmp.Equal(got, want) {
		t.Errorf("classes = %v, want %v", got, want)
	}
	if got := textContent(doc.ElementByID("email-error")); got != "" {
		t.Errorf("email-error = %q, want empty after valid outcome", got)
	}
}

func TestForm_ClearFieldAndForm(t *testing.T) {
	doc, f := mustForm(t, registerPage, "register-form")
	for _, fld := range f.Spec().Fields {
		f.ApplyOutcome(fld, validation.Outcome{Message: "bad"})
	}

	f.ClearField(f.Spec().Field("name"))
	if name := doc.ElementByID("name"); hasClass(name, ClassInvalid) {
		t.Error("ClearField left is-invalid on name")
	}
	if got := textContent(doc.ElementByID("email-error")); got != "bad" {
		t.Errorf("ClearField touched another field: email-error = %q", got)
	}

	f.ClearForm()
	f.ClearForm()
	for _, id := range []string{"name", "email", "password", "confirm_password"} {
		el := doc.ElementByID(id)
		if hasClass(el, ClassInvalid) || hasClass(el, ClassValid) {
			t.Errorf("%s still marked: %v", id, classes(el))
		}
		if got := textContent(doc.ElementByID(id + "-error")); got != "" {
			t.Errorf("%s-error = %q after ClearForm", id, got)
		}
	}
}

func TestForm_Populate(t *testing.T) {
	doc, f := mustForm(t, feedbackPage, "feedback-form")
	f.Populate(url.Values{
		"text":     {"much better now"},
		"rating":   {"5"},
		"current":  {"hunter2"},
		"mood":     {"happy"},
		"nickname": {"ada"},
	})

	// Re-reading the populated markup yields the submitted values.
	again, err := doc.Form("feedback-form")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, fld := range again.Spec().Fields {
		got[fld.Name] = fld.Value
	}
	want := map[string]string{
		"text":     "much better now",
		"rating":   "5",
		"current":  "",
		"mood":     "happy",
		"nickname": "ada",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("populated values mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_CloneIsFresh(t *testing.T) {
	_, f := mustForm(t, registerPage, "register-form")

	a := f.Spec().Clone(url.Values{"name": {"Ada"}}.Get)
	b := f.Spec().Clone(url.Values{"name": {"Grace"}}.Get)

	if a.Field("name").Value != "Ada" || b.Field("name").Value != "Grace" {
		t.Errorf("bound values = %q, %q", a.Field("name").Value, b.Field("name").Value)
	}
	if f.Spec().Field("name").Value != "" {
		t.Error("Clone modified the template")
	}
}
