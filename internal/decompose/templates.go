package decompose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danbi-ai/danbi/pkg/models"
)

// templateFile is the on-disk override format:
//
//	templates:
//	  diagnostic:
//	    - kind: data_collection
//	      worker: data_analyst
//	      priority: 1
type templateFile struct {
	Templates map[string][]TaskTemplate `yaml:"templates"`
}

// LoadTemplates reads template overrides from a YAML file. Intents not named
// in the file keep their built-in templates.
func LoadTemplates(path string) (map[models.IntentLabel][]TaskTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	merged := builtinTemplates()
	for name, template := range file.Templates {
		label := models.IntentLabel(name)
		if !label.Valid() || label == models.IntentSimple {
			return nil, fmt.Errorf("templates: unknown intent %q", name)
		}
		if len(template) == 0 {
			return nil, fmt.Errorf("templates: intent %q has no tasks", name)
		}
		for i, t := range template {
			if t.Kind == "" || t.Worker == "" {
				return nil, fmt.Errorf("templates: %s[%d] needs kind and worker", name, i)
			}
			if t.Priority < 1 {
				return nil, fmt.Errorf("templates: %s[%d] priority must be >= 1", name, i)
			}
		}
		merged[label] = template
	}
	return merged, nil
}

// LoadInto loads template overrides from path and installs them on d.
func (d *Decomposer) LoadInto(path string) error {
	templates, err := LoadTemplates(path)
	if err != nil {
		return err
	}
	d.SetTemplates(templates)
	return nil
}
