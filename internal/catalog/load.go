package catalog

import (
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// LoadFile loads a catalog file, choosing the decoder by extension.
func LoadFile(path string) (*Static, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".lua":
		return LoadLua(path)
	default:
		return nil, oops.In("catalog").With("path", path).Wrapf(ErrUnsupportedFormat, "loading %s", path)
	}
}

// Load merges the built-in catalog with the given files, in order. Entries in
// later files replace earlier ones with the same id or path.
func Load(paths ...string) (*Static, error) {
	base, err := Builtin()
	if err != nil {
		return nil, err
	}

	catalogs := []Catalog{base}
	for _, p := range paths {
		c, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		log.WithField("path", p).WithField("recommendations", len(c.Recommendations())).Debug("loaded catalog")
		catalogs = append(catalogs, c)
	}

	return Merge(catalogs...)
}
