package main

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/liveform/i18n"
)

func i18nCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "Manage i18n message files",
	}

	var localesDir string
	cmd.PersistentFlags().StringVar(&localesDir, "dir", "", "Directory containing locale files (default: the embedded catalogues)")

	cmd.AddCommand(&cobra.Command{
		Use:   "find-missing",
		Short: "Find missing translation keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, dir := catalogueSource(localesDir)
			missing, err := i18n.FindMissingKeys(fsys, dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %d locale files...\n\n", len(missing))
			hasMissing := false
			for _, locale := range sortedLocales(missing) {
				keys := missing[locale]
				if len(keys) == 0 {
					fmt.Fprintf(out, "Locale '%s': ✓ Complete\n", locale)
					continue
				}
				hasMissing = true
				fmt.Fprintf(out, "Locale '%s' is missing %d keys:\n", locale, len(keys))
				for _, key := range keys {
					fmt.Fprintf(out, "  - %s\n", key)
				}
				fmt.Fprintln(out)
			}
			if hasMissing {
				return fmt.Errorf("some locales are incomplete")
			}
			fmt.Fprintln(out, "✓ All locales are complete!")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "lint",
		Short: "Lint i18n files for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, dir := catalogueSource(localesDir)
			reports, err := i18n.LintLocaleFiles(fsys, dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Linting %d locale files...\n\n", len(reports))
			for _, report := range reports {
				fmt.Fprintf(out, "Checking %s...\n", report.File)
				if len(report.Issues) == 0 {
					fmt.Fprintln(out, "  ✓ No issues found")
				}
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "  ⚠️  %s\n", issue)
				}
				fmt.Fprintln(out)
			}
			if i18n.HasIssues(reports) {
				return fmt.Errorf("linting found issues")
			}
			fmt.Fprintln(out, "✓ All locale files passed linting!")
			return nil
		},
	})
	return cmd
}

// catalogueSource resolves the --dir flag: a directory on disk, or the
// catalogues embedded in the binary when empty.
func catalogueSource(dir string) (fs.FS, string) {
	if dir == "" {
		return i18n.LocalesFS, i18n.LocalesDir
	}
	return os.DirFS(dir), "."
}

func sortedLocales(m map[string][]string) []string {
	locales := make([]string, 0, len(m))
	for locale := range m {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}
