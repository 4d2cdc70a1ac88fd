// Package web holds embedded static assets, templates and the form registry
// for feedback-web.
package web

import "embed"

// TemplateFS contains all HTML templates.
//
//go:embed templates
var TemplateFS embed.FS

// StaticFS contains CSS, JS, and other static assets.
//
//go:embed static
var StaticFS embed.FS

// FormsFS contains forms.yaml, the list of gated forms.
//
//go:embed forms.yaml
var FormsFS embed.FS
