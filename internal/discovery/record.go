// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxReadBytes caps how much of a single file extractors may read.
	DefaultMaxReadBytes int64 = 1 << 20
	// defaultCacheEntries bounds the shared content cache.
	defaultCacheEntries = 256
)

type (
	// FileRecord is one discovered file. It is immutable; content is read
	// lazily through the owning Result's loader.
	FileRecord struct {
		path     string
		category Category
		size     int64
		loader   *contentLoader
	}

	// contentLoader reads file content relative to the root. It is safe for
	// concurrent use; the LRU is internally synchronized.
	contentLoader struct {
		root    string
		maxRead int64
		cache   *lru.Cache[string, []byte]
	}
)

func newContentLoader(root string, maxRead int64, entries int) (*contentLoader, error) {
	if maxRead <= 0 {
		maxRead = DefaultMaxReadBytes
	}
	if entries <= 0 {
		entries = defaultCacheEntries
	}
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("create content cache: %w", err)
	}
	return &contentLoader{root: root, maxRead: maxRead, cache: cache}, nil
}

func (l *contentLoader) load(rel string) ([]byte, error) {
	if data, ok := l.cache.Get(rel); ok {
		return data, nil
	}
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxRead))
	if err != nil {
		return nil, err
	}
	l.cache.Add(rel, data)
	return data, nil
}

// Path returns the repository-relative slash path.
func (r FileRecord) Path() string { return r.path }

// Name returns the base name.
func (r FileRecord) Name() string { return path.Base(r.path) }

// Dir returns the slash directory of the file, "." for root files.
func (r FileRecord) Dir() string { return path.Dir(r.path) }

// Depth returns the number of directories between the root and the file.
func (r FileRecord) Depth() int { return strings.Count(r.path, "/") }

// Category returns the assigned category.
func (r FileRecord) Category() Category { return r.category }

// Size returns the size in bytes observed during discovery.
func (r FileRecord) Size() int64 { return r.size }

// Content returns up to the configured read cap of the file's bytes.
func (r FileRecord) Content() ([]byte, error) {
	if r.loader == nil {
		return nil, ErrNoContent
	}
	data, err := r.loader.load(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return data, nil
}

// Text returns the content as a string.
func (r FileRecord) Text() (string, error) {
	data, err := r.Content()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FirstLine returns the first line of the file, or "" when unreadable.
func (r FileRecord) FirstLine() string {
	data, err := r.Content()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimRight(line, "\r")
}

// peekShebang reads the first bytes of an extensionless file and reports
// whether it starts with "#!".
func peekShebang(abs string) bool {
	f, err := os.Open(abs)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 2)
	if _, err := io.ReadFull(f, buf); err != nil {
		return false
	}
	return buf[0] == '#' && buf[1] == '!'
}
