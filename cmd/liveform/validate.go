package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/product"
	"github.com/kdsmith18542/liveform/registration"
)

// batchForm is what the validate command needs from a view-model.
type batchForm interface {
	form.Settable
	Errors(field string) []string
	ValidateAll(ctx context.Context) bool
}

func validateCmd(a *app) *cobra.Command {
	var (
		formName string
		file     string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a YAML or JSON form document",
		Long: `The validate command sets every field of the document in declaration order,
the way a user filling in the form would, then runs a full validation pass and
prints the errors. It exits with an error when any field fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("--output must be 'text' or 'json'")
			}

			var target batchForm
			switch formName {
			case registration.FormName:
				target = registration.New(registration.WithClock(a.now), registration.WithTranslator(a.tr))
			case product.FormName:
				target = product.New(product.WithClock(a.now), product.WithTranslator(a.tr))
			default:
				return fmt.Errorf("unknown form %q: use %s or %s", formName, registration.FormName, product.FormName)
			}

			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			values, err := form.DecodeDocument(in)
			if err != nil {
				return err
			}

			problems := form.Apply(target, values, a.cfg.Sanitize)
			target.ValidateAll(cmd.Context())
			for _, field := range target.Fields() {
				if _, rejected := problems[field]; rejected {
					continue
				}
				if msgs := target.Errors(field); len(msgs) > 0 {
					problems[field] = msgs
				}
			}

			if err := writeProblems(cmd.OutOrStdout(), output, target.Fields(), problems); err != nil {
				return err
			}
			if len(problems) > 0 {
				return fmt.Errorf("%s: %w", formName, form.ErrValidationFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formName, "form", registration.FormName, "Form to validate: registration or product")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Document to validate, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

// writeProblems prints problems in field order, document-level problems
// last. Text output prints one "field: message" line per message.
func writeProblems(w io.Writer, output string, fields []string, problems form.ValidationErrors) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(problems)
	}

	if len(problems) == 0 {
		_, err := fmt.Fprintln(w, "✓ valid")
		return err
	}
	for _, field := range append(fields, form.KeyDocument) {
		for _, msg := range problems[field] {
			if _, err := fmt.Fprintf(w, "%s: %s\n", field, msg); err != nil {
				return err
			}
		}
	}
	return nil
}
