package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joestump/feedback-web/internal/auth"
	"github.com/joestump/feedback-web/internal/flash"
	"github.com/joestump/feedback-web/internal/forms"
	"github.com/joestump/feedback-web/internal/handler"
	"github.com/joestump/feedback-web/internal/theme"
	"github.com/joestump/feedback-web/internal/validation"
	"github.com/joestump/feedback-web/web"
)

// loadForms reads the embedded registry and compiles every form page.
func loadForms(themes *theme.Service, flashes *flash.Notifier) (*forms.Registry, error) {
	registry, err := forms.LoadFS(web.FormsFS, "forms.yaml")
	if err != nil {
		return nil, err
	}
	if err := handler.CompileForms(registry, handler.NewPages(themes, flashes)); err != nil {
		return nil, err
	}
	return registry, nil
}

// offlineForms compiles the registry without a running server.
func offlineForms() (*forms.Registry, error) {
	sm := auth.NewSessionManager(time.Hour, false)
	return loadForms(theme.NewService("", "", false), flash.NewNotifier(sm, 0))
}

func newFormsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the gated forms and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := offlineForms()
			if err != nil {
				return err
			}
			return printForms(cmd.OutOrStdout(), registry)
		},
	}
}

func printForms(out io.Writer, registry *forms.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range registry.Names() {
		e, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		tmpl, err := registry.Template(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t#%s\tauth=%s\n", e.Name, e.Path, e.FormID, e.Auth)
		for _, f := range tmpl.Fields {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, f.Kind, constraints(f))
		}
	}
	return tw.Flush()
}

func constraints(f *validation.Field) string {
	var parts []string
	if f.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "optional")
	}
	if f.MinLength > 0 {
		parts = append(parts, fmt.Sprintf("minlength=%d", f.MinLength))
	}
	if f.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("maxlength=%d", f.MaxLength))
	}
	if f.Pair != nil {
		parts = append(parts, "matches="+f.Pair.Name)
	}
	return strings.Join(parts, " ")
}
