package parser

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// DefaultCacheSize is the number of workbooks a cache keeps by default.
const DefaultCacheSize = 16

type cacheKey struct {
	path    string
	size    int64
	modTime int64
	opts    LoadOptions
}

// WorkbookCache keeps loaded workbooks, keyed by path, size and
// modification time so that a rewritten file is read again. Cached
// workbooks are shared and must be treated as read-only.
type WorkbookCache struct {
	entries *lru.Cache[cacheKey, *models.Workbook]
}

// NewWorkbookCache returns a cache holding at most size workbooks.
func NewWorkbookCache(size int) (*WorkbookCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, *models.Workbook](size)
	if err != nil {
		return nil, err
	}
	return &WorkbookCache{entries: entries}, nil
}

// Load returns the cached workbook or loads it with LoadWorkbook.
func (c *WorkbookCache) Load(path string, opts LoadOptions) (*models.Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano(), opts: opts}
	if wb, ok := c.entries.Get(key); ok {
		return wb, nil
	}
	wb, err := LoadWorkbook(path, opts)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, wb)
	return wb, nil
}

// Len returns the number of cached workbooks.
func (c *WorkbookCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached workbook.
func (c *WorkbookCache) Purge() {
	c.entries.Purge()
}
