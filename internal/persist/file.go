package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/logging"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/recommend"
)

var log = logging.For("persist")

// File names inside the state directory.
const (
	globalFile          = "global.toml"
	hotkeysFile         = "hotkeys.toml"
	extraLinesFile      = "extra_lines.toml"
	recommendationsFile = "recommendations.toml"
	profilesDir         = "profiles"
)

type valuesDoc struct {
	Values map[string]any `toml:"values"`
}

type linesDoc struct {
	Lines []string `toml:"lines"`
}

// FileGateway stores each document as a TOML file in a state directory.
// Files are replaced atomically, so a reader sees either the old or the new
// document and never a partial one.
type FileGateway struct {
	dir string

	// mu serializes writes to the same document.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileGateway creates a gateway rooted at dir. The directory is created on
// the first write.
func NewFileGateway(dir string) *FileGateway {
	return &FileGateway{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the state directory.
func (g *FileGateway) Dir() string {
	return g.dir
}

// WatchDirs returns the directories holding documents: the state directory
// and its profiles subdirectory.
func (g *FileGateway) WatchDirs() []string {
	return []string{g.dir, filepath.Join(g.dir, profilesDir)}
}

// DocumentForPath maps a file path back to its document name.
func (g *FileGateway) DocumentForPath(path string) (string, bool) {
	rel, err := filepath.Rel(g.dir, path)
	if err != nil {
		return "", false
	}
	switch rel {
	case globalFile:
		return DocGlobal, true
	case hotkeysFile:
		return DocHotkeys, true
	case extraLinesFile:
		return DocExtraLines, true
	case recommendationsFile:
		return DocRecommendations, true
	}
	if dir, file := filepath.Split(rel); filepath.Clean(dir) == profilesDir && strings.HasSuffix(file, ".toml") {
		return ProfileDoc(strings.TrimSuffix(file, ".toml")), true
	}
	return "", false
}

// ReadGlobalOverrides implements Gateway.
func (g *FileGateway) ReadGlobalOverrides() GlobalOverrides {
	var doc GlobalOverrides
	g.read(DocGlobal, filepath.Join(g.dir, globalFile), &doc)
	doc.Values = normalizeValues(doc.Values)
	if doc.Values == nil {
		doc.Values = make(map[string]any)
	}
	if doc.Initiators == nil {
		doc.Initiators = make(map[string]string)
	}
	return doc
}

// WriteGlobalOverrides implements Gateway.
func (g *FileGateway) WriteGlobalOverrides(values map[string]any, initiators map[string]string) error {
	doc := GlobalOverrides{Values: values, Initiators: initiators}
	return g.write(DocGlobal, filepath.Join(g.dir, globalFile), doc)
}

// ReadProfileOverrides implements Gateway.
func (g *FileGateway) ReadProfileOverrides(name string) map[string]any {
	path, err := g.profilePath(name)
	if err != nil {
		log.WithField("profile", name).Warn("ignoring invalid profile name")
		return make(map[string]any)
	}

	var doc valuesDoc
	g.read(ProfileDoc(name), path, &doc)
	if doc.Values == nil {
		return make(map[string]any)
	}
	return normalizeValues(doc.Values)
}

// WriteProfileOverrides implements Gateway.
func (g *FileGateway) WriteProfileOverrides(name string, values map[string]any) error {
	path, err := g.profilePath(name)
	if err != nil {
		return err
	}
	doc := valuesDoc{Values: values}
	return g.write(ProfileDoc(name), path, doc)
}

// ReadHotkeyState implements Gateway.
func (g *FileGateway) ReadHotkeyState() HotkeyState {
	var doc HotkeyState
	g.read(DocHotkeys, filepath.Join(g.dir, hotkeysFile), &doc)
	if doc.Initiators == nil {
		doc.Initiators = make(map[string]string)
	}
	return doc
}

// WriteHotkeyState implements Gateway.
func (g *FileGateway) WriteHotkeyState(entries []hotkey.Entry, initiators map[string]string) error {
	doc := HotkeyState{Entries: entries, Initiators: initiators}
	return g.write(DocHotkeys, filepath.Join(g.dir, hotkeysFile), doc)
}

// ReadExtraLines implements Gateway.
func (g *FileGateway) ReadExtraLines() []string {
	var doc linesDoc
	g.read(DocExtraLines, filepath.Join(g.dir, extraLinesFile), &doc)
	return doc.Lines
}

// WriteExtraLines implements Gateway.
func (g *FileGateway) WriteExtraLines(lines []string) error {
	doc := linesDoc{Lines: lines}
	return g.write(DocExtraLines, filepath.Join(g.dir, extraLinesFile), doc)
}

// ReadRecommendationState implements Gateway.
func (g *FileGateway) ReadRecommendationState() recommend.State {
	var st recommend.State
	g.read(DocRecommendations, filepath.Join(g.dir, recommendationsFile), &st)
	return st
}

// WriteRecommendationState implements Gateway.
func (g *FileGateway) WriteRecommendationState(st recommend.State) error {
	return g.write(DocRecommendations, filepath.Join(g.dir, recommendationsFile), st)
}

// read decodes a document into v. Missing files leave v untouched; corrupt
// files are logged and leave v zeroed.
func (g *FileGateway) read(doc, path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithFields(logrus.Fields{"document": doc, "path": path}).WithError(err).
				Warn("cannot read document, treating as empty")
		}
		return
	}

	if err := toml.Unmarshal(data, v); err != nil {
		log.WithFields(logrus.Fields{"document": doc, "path": path}).WithError(err).
			Warn("corrupt document, treating as empty")
		// A failed decode may have filled v partially.
		rv := reflect.ValueOf(v).Elem()
		rv.Set(reflect.Zero(rv.Type()))
	}
}

// write encodes v and atomically replaces the file.
func (g *FileGateway) write(doc, path string, v any) error {
	lock := g.lockFor(doc)
	lock.Lock()
	defer lock.Unlock()

	data, err := toml.Marshal(v)
	if err != nil {
		return oops.In("persist").With("document", doc).Wrapf(err, "encoding %s", doc)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return oops.In("persist").With("document", doc).Wrapf(err, "creating state directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return oops.In("persist").With("document", doc).Wrapf(err, "creating temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return oops.In("persist").With("document", doc).Wrapf(err, "writing %s", doc)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return oops.In("persist").With("document", doc).Wrapf(err, "closing %s", doc)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return oops.In("persist").With("document", doc).Wrapf(err, "replacing %s", doc)
	}

	log.WithField("document", doc).Debug("document written")
	return nil
}

func (g *FileGateway) lockFor(doc string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[doc]
	if !ok {
		l = &sync.Mutex{}
		g.locks[doc] = l
	}
	return l
}

func (g *FileGateway) profilePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", oops.In("persist").With("profile", name).Wrapf(ErrInvalidProfile, "profile %q", name)
	}
	return filepath.Join(g.dir, profilesDir, name+".toml"), nil
}

// normalizeValues converts the int64 integers produced by the TOML decoder
// into int so values compare equal to catalog values.
func normalizeValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := override.CloneValues(values)
	for k, v := range out {
		out[k] = normalizeNumber(v)
	}
	return out
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	case map[string]any:
		return normalizeValues(n)
	case []any:
		for i := range n {
			n[i] = normalizeNumber(n[i])
		}
		return n
	default:
		return v
	}
}
