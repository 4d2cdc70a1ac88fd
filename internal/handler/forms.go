package handler

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/formdom"
	"github.com/joestump/feedback-web/internal/forms"
	"github.com/joestump/feedback-web/internal/metrics"
	"github.com/joestump/feedback-web/internal/session"
	"github.com/joestump/feedback-web/internal/validation"
)

// MsgIncomplete is queued when a submission is held back.
const MsgIncomplete = "Please fill in all required fields"

// maxFormBody bounds the size of a gated submission.
const maxFormBody = 1 << 20

// FormPage is the template data for a registered form page.
type FormPage struct {
	BasePage
	Form forms.Entry
}

// FormsHandler renders registered forms and gates their submissions.
type FormsHandler struct {
	registry *forms.Registry
	pages    *Pages
	flashes  *flash.Notifier
	upstream http.Handler
	forget   session.Forgetter
	log      *zap.Logger
}

// NewFormsHandler creates a new FormsHandler. Valid submissions are passed
// to upstream unchanged. A forwarded submission may change the user, so
// forget, when non-nil, drops what is cached about the session afterwards.
func NewFormsHandler(reg *forms.Registry, pages *Pages, flashes *flash.Notifier, upstream http.Handler, forget session.Forgetter, log *zap.Logger) *FormsHandler {
	return &FormsHandler{registry: reg, pages: pages, flashes: flashes, upstream: upstream, forget: forget, log: log}
}

// CompileForms renders every registered page with blank layout data and
// builds its validation template.
func CompileForms(reg *forms.Registry, pages *Pages) error {
	return reg.Compile(func(w io.Writer, e forms.Entry) error {
		return executePage(w, e.Page, FormPage{BasePage: pages.Blank(), Form: e})
	})
}

// Show serves GET on a form path.
func (h *FormsHandler) Show(e forms.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, e.Page, FormPage{BasePage: h.pages.Base(r, e.Title), Form: e})
	}
}

// Submit serves POST on a form path. The submitted values are validated
// against the form's rules. An invalid submission never reaches the
// upstream: the page comes back with every participating field marked and
// the values the user typed. A valid one is forwarded as received.
func (h *FormsHandler) Submit(e forms.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct != "application/x-www-form-urlencoded" {
			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBody))
		if err != nil {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		bound, err := h.registry.Bind(e.Name, values)
		if err != nil {
			h.log.Error("form template missing", zap.String("form", e.Name), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		start := time.Now()
		report := validation.Evaluate(bound)
		metrics.ValidationDuration.Observe(time.Since(start).Seconds())

		if report.Valid {
			metrics.FormSubmissionsTotal.WithLabelValues(e.Name, "forwarded").Inc()
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			r.Header.Set("Content-Length", strconv.Itoa(len(body)))
			h.upstream.ServeHTTP(w, r)
			if h.forget != nil {
				h.forget.Forget(r)
			}
			return
		}

		metrics.FormSubmissionsTotal.WithLabelValues(e.Name, "rejected").Inc()
		for _, fo := range report.Invalid() {
			metrics.FieldFailuresTotal.WithLabelValues(e.Name, fo.Field.Kind.String()).Inc()
		}
		h.log.Debug("submission held back",
			zap.String("form", e.Name),
			zap.Int("invalid_fields", len(report.Invalid())),
		)

		h.flashes.Push(r.Context(), flash.Warning, MsgIncomplete)
		h.rerender(w, r, e, values, report)
	}
}

// rerender renders the form page again, restores the submitted values and
// applies the validation report to the markup.
func (h *FormsHandler) rerender(w http.ResponseWriter, r *http.Request, e forms.Entry, values url.Values, report validation.Report) {
	var buf bytes.Buffer
	if err := executePage(&buf, e.Page, FormPage{BasePage: h.pages.Base(r, e.Title), Form: e}); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	doc, err := formdom.Parse(&buf)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	form, err := doc.Form(e.FormID)
	if err != nil {
		h.log.Error("rendered page lost its form", zap.String("form", e.Name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	form.Populate(values)
	form.ClearForm()
	report.Apply(form)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := doc.Render(w); err != nil {
		h.log.Warn("write annotated page", zap.Error(err))
	}
}
