package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadOverrides replaces built-in templates with .tmpl files found under
// dir. The file's base name (without extension) selects the template:
// analyze_step.tmpl, harmonize.tmpl. Unknown names are ignored so an
// override directory can carry scratch files. A missing directory is
// not an error.
func (m *Manager) LoadOverrides(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.tmpl"))
	if err != nil {
		return fmt.Errorf("glob templates: %w", err)
	}

	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".tmpl")
		if _, known := m.templates[name]; !known {
			continue
		}

		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		tmpl, err := parse(name, string(text))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		m.templates[name] = tmpl
	}

	return nil
}
