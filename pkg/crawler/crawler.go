// Package crawler walks a repository directory and produces an immutable
// tree model of its non-ignored entries. Filesystem failures never abort a
// crawl; they are captured as error nodes inside the tree.
package crawler

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"promptpack/pkg/ignore"

	"go.uber.org/zap"
)

// NodeKind tags the variant of a TreeNode.
type NodeKind int

const (
	// NodeDirectory is a directory with zero or more children.
	NodeDirectory NodeKind = iota
	// NodeFile is a regular file leaf.
	NodeFile
	// NodeError marks an entry that could not be read; Message carries the
	// underlying error text.
	NodeError
)

// TreeNode is one node of the crawled tree. A node is immutable once
// BuildTree returns; invalidation replaces the whole tree, never a subtree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Path     string      // Absolute crawl path; set on the root node only.
	Message  string      // Error description for NodeError nodes.
	Children []*TreeNode // Directory children, lexicographic by name.
}

// Walk visits the node and all descendants depth-first, children in order.
func (n *TreeNode) Walk(visit func(node *TreeNode, relPath string)) {
	n.walk("", visit)
}

func (n *TreeNode) walk(relPath string, visit func(node *TreeNode, relPath string)) {
	visit(n, relPath)
	for _, child := range n.Children {
		child.walk(path.Join(relPath, child.Name), visit)
	}
}

// FileCount returns the number of file leaves in the tree.
func (n *TreeNode) FileCount() int {
	count := 0
	n.Walk(func(node *TreeNode, _ string) {
		if node.Kind == NodeFile {
			count++
		}
	})
	return count
}

// BuildTree crawls rootPath and returns the filtered tree. It never returns
// an error: an unreadable directory becomes a NodeError in place of the
// directory, and a single unreadable entry becomes a NodeError leaf while
// its siblings continue to be processed.
func BuildTree(rootPath string, matcher *ignore.Matcher, logger *zap.Logger) *TreeNode {
	if logger == nil {
		logger = zap.NewNop()
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		logger.Warn("Failed to resolve crawl root", zap.String("root", rootPath), zap.Error(err))
		absRoot = rootPath
	}

	logger.Debug("Building file tree", zap.String("root", absRoot))
	root := crawlDirectory(absRoot, "", filepath.Base(absRoot), matcher, logger)
	root.Path = absRoot
	return root
}

// crawlDirectory lists a single directory and recurses into non-ignored
// subdirectories. relPath is the slash-separated path of the directory
// relative to the crawl root, empty for the root itself.
func crawlDirectory(absPath, relPath, name string, matcher *ignore.Matcher, logger *zap.Logger) *TreeNode {
	node := &TreeNode{Kind: NodeDirectory, Name: name}

	entries, err := listDirectory(absPath)
	if err != nil {
		logger.Warn("Failed to list directory",
			zap.String("path", absPath),
			zap.Error(err))
		return &TreeNode{Kind: NodeError, Name: name, Message: err.Error()}
	}

	for _, entry := range entries {
		entryRel := path.Join(relPath, entry.name)
		if entry.err != nil {
			// The entry vanished or its metadata is unreadable; record it
			// and keep going with its siblings.
			logger.Warn("Failed to inspect entry",
				zap.String("path", entryRel),
				zap.Error(entry.err))
			node.Children = append(node.Children, &TreeNode{
				Kind:    NodeError,
				Name:    entry.name,
				Message: entry.err.Error(),
			})
			continue
		}

		if entry.isDir {
			if matcher.IsIgnored(ignore.KindDirectory, entryRel) {
				logger.Debug("Ignoring directory", zap.String("path", entryRel))
				continue
			}
			child := crawlDirectory(filepath.Join(absPath, entry.name), entryRel, entry.name, matcher, logger)
			node.Children = append(node.Children, child)
			continue
		}

		if matcher.IsIgnored(ignore.KindFile, entryRel) {
			logger.Debug("Ignoring file", zap.String("path", entryRel))
			continue
		}
		node.Children = append(node.Children, &TreeNode{Kind: NodeFile, Name: entry.name})
	}

	return node
}

// osReadDir is swapped out in tests to simulate filesystem failures.
var osReadDir = os.ReadDir

// dirEntry is the crawl's view of one directory listing entry. A non-nil err
// means the entry's type could not be determined.
type dirEntry struct {
	name  string
	isDir bool
	err   error
}

// listDirectory reads the immediate entries of a directory, sorted
// lexicographically by name.
func listDirectory(absPath string) ([]dirEntry, error) {
	entries, err := osReadDir(absPath)
	if err != nil {
		return nil, err
	}
	result := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		info, infoErr := entry.Info()
		if infoErr != nil {
			result = append(result, dirEntry{name: entry.Name(), err: infoErr})
			continue
		}
		result = append(result, dirEntry{name: entry.Name(), isDir: info.IsDir()})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result, nil
}
