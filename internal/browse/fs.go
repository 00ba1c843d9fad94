package browse

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/objbrowse/backend/internal/object"
)

// seriesSuffix marks data files whose JSON payload is a drawable series.
const seriesSuffix = ".series.json"

// maxTextSize caps inline text content sent to the editor.
const maxTextSize = 4 << 20

// FS is a filesystem-backed navigator. The top of the tree is a mutable
// root directory; slash paths address nodes beneath it.
type FS struct {
	mu   sync.RWMutex
	root string
}

// NewFS creates a navigator rooted at the given directory.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// SetRoot replaces the top of the tree.
func (f *FS) SetRoot(root string) {
	f.mu.Lock()
	f.root = root
	f.mu.Unlock()
}

// Root returns the current top of the tree.
func (f *FS) Root() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.root
}

// Page returns the [first, first+count) window of children under a path,
// plus the total child count. Listing order is directories first, then
// by name, so windows are stable between requests.
func (f *FS) Page(treePath string, first, count int) ([]Item, int, error) {
	dir := f.realPath(treePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", treePath, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	total := len(entries)
	if first < 0 {
		first = 0
	}
	if first > total {
		first = total
	}
	end := first + count
	if count <= 0 || end > total {
		end = total
	}

	items := make([]Item, 0, end-first)
	for _, entry := range entries[first:end] {
		item := Item{
			Name: entry.Name(),
			Path: path.Join("/", treePath, entry.Name()),
		}
		switch {
		case entry.IsDir():
			item.Kind = Container
		case strings.HasSuffix(entry.Name(), seriesSuffix):
			item.Kind = DrawableLeaf
		default:
			item.Kind = Leaf
		}
		if info, err := entry.Info(); err == nil && !entry.IsDir() {
			item.Size = info.Size()
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Resolve looks up a single node and binds its content accessors.
func (f *FS) Resolve(treePath string) (*Entry, error) {
	real := f.realPath(treePath)
	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", treePath, err)
	}

	entry := &Entry{Item: Item{
		Name: path.Base(path.Join("/", treePath)),
		Path: path.Join("/", treePath),
	}}

	if info.IsDir() {
		entry.Kind = Container
		return entry, nil
	}
	entry.Size = info.Size()

	if strings.HasSuffix(real, seriesSuffix) {
		entry.Kind = DrawableLeaf
		entry.draw = func() (object.Drawable, error) { return readSeries(real) }
		return entry, nil
	}

	entry.Kind = Leaf
	if isTextFile(real) && info.Size() <= maxTextSize {
		entry.text = func() (string, error) {
			data, err := os.ReadFile(real)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", treePath, err)
			}
			return string(data), nil
		}
	}
	return entry, nil
}

// realPath maps a slash tree path onto the filesystem under the root.
// The path is cleaned first so ".." segments cannot escape the root.
func (f *FS) realPath(treePath string) string {
	clean := path.Clean("/" + treePath)
	return filepath.Join(f.Root(), filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

func readSeries(real string) (object.Drawable, error) {
	data, err := os.ReadFile(real)
	if err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}
	var series object.Series
	if err := sonic.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("failed to parse series: %w", err)
	}
	if series.Name == "" {
		series.Name = strings.TrimSuffix(filepath.Base(real), seriesSuffix)
	}
	return &series, nil
}

// isTextFile reports whether the file content is textual. Detection is
// by content, not extension.
func isTextFile(real string) bool {
	mime, err := mimetype.DetectFile(real)
	if err != nil {
		return false
	}
	for mt := mime; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}
