package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/liveform/schema"
)

func schemaCmd() *cobra.Command {
	var formName string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the forms as OpenAPI component schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []byte
			if formName == "" {
				doc, err := schema.Document(version)
				if err != nil {
					return err
				}
				out = doc
			} else {
				s, err := schema.Lookup(formName)
				if err != nil {
					return err
				}
				if out, err = json.MarshalIndent(s, "", "  "); err != nil {
					return fmt.Errorf("failed to marshal %s schema: %w", formName, err)
				}
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&formName, "form", "", "Print only this form's schema (registration or product)")
	return cmd
}
