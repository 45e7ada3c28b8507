package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

// Catalog serves the .vtr documents of one directory. Documents are mapped
// on first use and kept open until the file changes or the catalog closes.
type Catalog struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*docEntry
}

type docEntry struct {
	doc    *vtk.Document
	size   int64
	mod    time.Time
	mu     sync.RWMutex
	closed bool
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, cache: make(map[string]*docEntry)}
}

// List returns the documents in the directory sorted by name.
func (c *Catalog) List() ([]FileInfo, error) {
	ents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !isDocumentName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), Modified: info.ModTime().UTC()})
	}
	slices.SortFunc(out, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// WithDocument runs fn with the named document. The document stays valid
// only for the duration of fn.
func (c *Catalog) WithDocument(name string, fn func(doc *vtk.Document) error) error {
	for {
		entry, err := c.getOrOpen(name)
		if err != nil {
			return err
		}
		entry.mu.RLock()
		if entry.closed {
			// Replaced between lookup and lock.
			entry.mu.RUnlock()
			continue
		}
		err = fn(entry.doc)
		entry.mu.RUnlock()
		return err
	}
}

func (c *Catalog) getOrOpen(name string) (*docEntry, error) {
	if !isDocumentName(name) || filepath.Base(name) != name {
		return nil, newInvalidRequest(fmt.Sprintf("invalid document name %q", name))
	}
	path := filepath.Join(c.dir, name)
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry, ok := c.cache[name]
	c.mu.Unlock()
	if ok && entry.size == st.Size() && entry.mod.Equal(st.ModTime()) {
		return entry, nil
	}

	doc, err := vtk.Open(path)
	if err != nil {
		return nil, err
	}
	fresh := &docEntry{doc: doc, size: st.Size(), mod: st.ModTime()}

	c.mu.Lock()
	stale := c.cache[name]
	c.cache[name] = fresh
	c.mu.Unlock()
	if stale != nil {
		stale.release()
	}
	return fresh, nil
}

func (e *docEntry) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		_ = e.doc.Close()
	}
}

// Close unmaps every cached document.
func (c *Catalog) Close() error {
	c.mu.Lock()
	entries := c.cache
	c.cache = make(map[string]*docEntry)
	c.mu.Unlock()
	for _, e := range entries {
		e.release()
	}
	return nil
}

func isDocumentName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".vtr")
}
