package catalog

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ParseYAML builds a catalog from YAML bytes. The source names the data in
// errors and logs.
func ParseYAML(source string, data []byte) (*Static, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.In("catalog").With("source", source).Wrapf(err, "decoding yaml")
	}
	if doc == nil {
		return New(nil, nil)
	}
	return parseDocument(source, doc)
}

// LoadYAML reads and parses a YAML catalog file.
func LoadYAML(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("catalog").With("path", path).Wrapf(err, "reading catalog")
	}
	return ParseYAML(path, data)
}
