package crawler

import (
	"path/filepath"
	"sync"

	"promptpack/pkg/ignore"

	"go.uber.org/zap"
)

// Cache memoizes crawled trees per root path, keyed by the fingerprint of
// the pattern set that produced them. A fingerprint mismatch forces a full
// rebuild; cache entries are never partially updated.
type Cache struct {
	mu     sync.Mutex
	roots  map[string]*rootEntry
	logger *zap.Logger
}

// rootEntry holds the cached tree for one crawl root. Its mutex is held for
// the duration of a rebuild so concurrent callers that miss on the same root
// trigger exactly one filesystem walk.
type rootEntry struct {
	mu          sync.Mutex
	tree        *TreeNode
	fingerprint string
}

// NewCache creates an empty crawl cache.
func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		roots:  make(map[string]*rootEntry),
		logger: logger,
	}
}

// GetTree returns the tree for rootPath, rebuilding it only when no entry
// exists or the stored fingerprint no longer matches the pattern set.
func (c *Cache) GetTree(rootPath string, patterns ignore.PatternSet) *TreeNode {
	entry := c.entryFor(rootPath)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	fingerprint := patterns.Fingerprint()
	if entry.tree != nil && entry.fingerprint == fingerprint {
		c.logger.Debug("Returning cached file tree", zap.String("root", rootPath))
		return entry.tree
	}

	c.logger.Info("Generating new file tree", zap.String("root", rootPath))
	matcher := ignore.NewMatcher(patterns, c.logger)
	tree := BuildTree(rootPath, matcher, c.logger)

	entry.tree = tree
	entry.fingerprint = fingerprint
	return tree
}

// Invalidate drops the cached tree for rootPath. The next GetTree call walks
// the filesystem again. Intended for callers that edit the pattern
// configuration outside the normal update path.
func (c *Cache) Invalidate(rootPath string) {
	entry := c.entryFor(rootPath)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.tree = nil
	entry.fingerprint = ""
	c.logger.Debug("Invalidated crawl cache", zap.String("root", rootPath))
}

// entryFor returns the per-root cache slot, creating it on first use.
func (c *Cache) entryFor(rootPath string) *rootEntry {
	key := rootPath
	if abs, err := filepath.Abs(rootPath); err == nil {
		key = abs
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.roots[key]
	if !ok {
		entry = &rootEntry{}
		c.roots[key] = entry
	}
	return entry
}
