package i18n

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
)

// FileReport lists the problems found in one catalogue file.
type FileReport struct {
	File   string
	Issues []string
}

// catalogueFiles returns the sorted .toml file names in dir of fsys.
func catalogueFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".toml") {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no TOML locale files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// FindMissingKeys reports, per locale, the keys that some other catalogue
// in dir defines but it does not. Complete locales map to an empty slice.
func FindMissingKeys(fsys fs.FS, dir string) (map[string][]string, error) {
	files, err := catalogueFiles(fsys, dir)
	if err != nil {
		return nil, err
	}

	allKeys := make(map[string]bool)
	localeKeys := make(map[string]map[string]bool)
	for _, file := range files {
		keys, err := loadLocaleKeys(fsys, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		localeKeys[strings.TrimSuffix(file, ".toml")] = keys
		for key := range keys {
			allKeys[key] = true
		}
	}

	missing := make(map[string][]string, len(localeKeys))
	for locale, keys := range localeKeys {
		absent := []string{}
		for key := range allKeys {
			if !keys[key] {
				absent = append(absent, key)
			}
		}
		sort.Strings(absent)
		missing[locale] = absent
	}
	return missing, nil
}

// LintLocaleFiles checks every catalogue in dir for TOML syntax errors,
// values that are not strings, message templates that do not parse, and
// trailing whitespace. Files without problems are reported with no issues.
func LintLocaleFiles(fsys fs.FS, dir string) ([]FileReport, error) {
	files, err := catalogueFiles(fsys, dir)
	if err != nil {
		return nil, err
	}

	reports := make([]FileReport, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, err
		}
		reports = append(reports, FileReport{File: file, Issues: lintCatalogue(data)})
	}
	return reports, nil
}

// HasIssues reports whether any report carries an issue.
func HasIssues(reports []FileReport) bool {
	for _, r := range reports {
		if len(r.Issues) > 0 {
			return true
		}
	}
	return false
}

func lintCatalogue(data []byte) []string {
	var issues []string

	var messages map[string]interface{}
	if err := toml.Unmarshal(data, &messages); err != nil {
		return []string{fmt.Sprintf("TOML syntax error: %v", err)}
	}

	keys := make(map[string]bool)
	CollectKeys(messages, "", keys)
	for _, key := range sortedKeys(keys) {
		value, ok := lookupRaw(messages, key)
		msg, isString := value.(string)
		switch {
		case !ok || !isString:
			issues = append(issues, fmt.Sprintf("%s: value should be a string", key))
		case strings.TrimSpace(msg) == "":
			issues = append(issues, fmt.Sprintf("%s: empty message", key))
		default:
			if _, err := template.New(key).Parse(msg); err != nil {
				issues = append(issues, fmt.Sprintf("%s: invalid template: %v", key, err))
			}
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
			issues = append(issues, fmt.Sprintf("Line %d: trailing whitespace", lineNum))
		}
	}

	return issues
}

func lookupRaw(messages map[string]interface{}, key string) (interface{}, bool) {
	parts := strings.Split(key, ".")
	current := messages
	for i, k := range parts {
		val, ok := current[k]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		next, ok := val.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

func loadLocaleKeys(fsys fs.FS, file string) (map[string]bool, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}
	var messages map[string]interface{}
	if err := toml.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	CollectKeys(messages, "", keys)
	return keys, nil
}
