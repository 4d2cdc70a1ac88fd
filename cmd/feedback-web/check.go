package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joestump/feedback-web/internal/validation"
)

var errInvalid = errors.New("submission would be held back")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <form> [field=value ...]",
		Short: "Validate a submission against a gated form",
		Example: "  feedback-web check register name=Ada email=ada@example.com \\\n" +
			"    password='Passw0rd!' confirm_password='Passw0rd!'",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := offlineForms()
			if err != nil {
				return err
			}
			values, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			bound, err := registry.Bind(args[0], values)
			if err != nil {
				return err
			}
			if !validation.ValidateForm(bound, textAnnotator{out: cmd.OutOrStdout()}) {
				return errInvalid
			}
			return nil
		},
	}
}

func parsePairs(args []string) (url.Values, error) {
	values := url.Values{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want field=value", a)
		}
		values.Add(k, v)
	}
	return values, nil
}

// textAnnotator prints one line per field outcome.
type textAnnotator struct {
	out io.Writer
}

func (t textAnnotator) ApplyOutcome(f *validation.Field, o validation.Outcome) {
	if o.Valid {
		fmt.Fprintf(t.out, "ok    %s\n", f.Name)
		return
	}
	fmt.Fprintf(t.out, "FAIL  %s: %s\n", f.Name, o.Message)
}
