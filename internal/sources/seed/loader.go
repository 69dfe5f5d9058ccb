// Package seed reads the optional YAML file of global links that is
// imported at startup and on every reload.
package seed

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

// File is the document layout:
//
//	links:
//	  - title: Grafana
//	    url: https://grafana.${DOMAIN}
//	    groups: [ops]
//	    iconUrl: https://grafana.${DOMAIN}/public/img/grafana_icon.svg
type File struct {
	Links []domain.ImportRecord `yaml:"links"`
}

type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath, lookup: os.LookupEnv}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads the file and expands ${VAR} placeholders from the
// environment. Unset variables expand to an empty string.
func (l *Loader) Load() ([]domain.ImportRecord, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	data = expandVariables(data, l.lookup)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f.Links, nil
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandVariables(data []byte, lookup func(string) (string, bool)) []byte {
	return placeholder.ReplaceAllFunc(data, func(m []byte) []byte {
		name := placeholder.FindSubmatch(m)[1]
		v, _ := lookup(string(name))
		return []byte(v)
	})
}
