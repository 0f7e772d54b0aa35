package crawler

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"promptpack/pkg/ignore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countReadDirs swaps the directory lister for one that counts invocations.
func countReadDirs(t *testing.T) *atomic.Int64 {
	t.Helper()
	var calls atomic.Int64
	original := osReadDir
	t.Cleanup(func() { osReadDir = original })
	osReadDir = func(name string) ([]os.DirEntry, error) {
		calls.Add(1)
		return original(name)
	}
	return &calls
}

func TestCache_WalksFilesystemOnce(t *testing.T) {
	root := writeTestRepo(t)
	calls := countReadDirs(t)

	cache := NewCache(nil)
	patterns := ignore.PatternSet{Directories: []string{".git", "node_modules"}}

	first := cache.GetTree(root, patterns)
	walked := calls.Load()
	require.Greater(t, walked, int64(0))

	second := cache.GetTree(root, patterns)
	assert.Equal(t, walked, calls.Load(), "cache hit must not touch the filesystem")
	assert.Same(t, first, second)
}

func TestCache_PatternChangeInvalidates(t *testing.T) {
	root := writeTestRepo(t)

	cache := NewCache(nil)
	patterns := ignore.PatternSet{Directories: []string{".git", "node_modules"}}

	first := cache.GetTree(root, patterns)
	assert.Contains(t, collectPaths(first), "src/b.py")

	patterns.Directories = append(patterns.Directories, "src")
	second := cache.GetTree(root, patterns)

	assert.NotSame(t, first, second)
	assert.NotContains(t, collectPaths(second), "src/b.py")

	// The old tree is untouched; invalidation replaces, never mutates.
	assert.Contains(t, collectPaths(first), "src/b.py")
}

func TestCache_PatternOrderDoesNotInvalidate(t *testing.T) {
	root := writeTestRepo(t)
	calls := countReadDirs(t)

	cache := NewCache(nil)
	first := cache.GetTree(root, ignore.PatternSet{Directories: []string{".git", "node_modules"}})
	walked := calls.Load()

	second := cache.GetTree(root, ignore.PatternSet{Directories: []string{"node_modules", ".git"}})
	assert.Equal(t, walked, calls.Load())
	assert.Same(t, first, second)
}

func TestCache_InvalidateForcesRebuild(t *testing.T) {
	root := writeTestRepo(t)
	calls := countReadDirs(t)

	cache := NewCache(nil)
	patterns := ignore.PatternSet{}

	cache.GetTree(root, patterns)
	walked := calls.Load()

	cache.Invalidate(root)
	cache.GetTree(root, patterns)
	assert.Greater(t, calls.Load(), walked)
}

func TestCache_ConcurrentMissesRebuildOnce(t *testing.T) {
	root := writeTestRepo(t)

	// Count root listings only; every full walk lists the root exactly once.
	var rootListings atomic.Int64
	original := osReadDir
	t.Cleanup(func() { osReadDir = original })
	osReadDir = func(name string) ([]os.DirEntry, error) {
		if name == root {
			rootListings.Add(1)
		}
		return original(name)
	}

	cache := NewCache(nil)
	patterns := ignore.PatternSet{Directories: []string{".git"}}

	var wg sync.WaitGroup
	trees := make([]*TreeNode, 8)
	for i := 0; i < len(trees); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trees[i] = cache.GetTree(root, patterns)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), rootListings.Load(), "concurrent misses must serialize into one walk")
	for _, tree := range trees {
		assert.Same(t, trees[0], tree)
	}
}
