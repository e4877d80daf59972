package catalog

import (
	_ "embed"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin returns the catalog shipped with hyprtune.
func Builtin() (*Static, error) {
	return ParseYAML("builtin", builtinYAML)
}
