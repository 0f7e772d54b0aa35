package serialize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptpack/pkg/crawler"
	"promptpack/pkg/ignore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestTree(t *testing.T, files map[string][]byte) *crawler.TreeNode {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
	return crawler.BuildTree(root, ignore.NewMatcher(ignore.PatternSet{}, nil), nil)
}

func TestSerialize_SectionsInOrder(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{"a.txt": []byte("alpha\n")})

	doc := Serialize(tree, Options{Rules: "Follow these rules.\n"}, nil)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, SectionRules, doc.Sections[0].Kind)
	assert.Equal(t, "Follow these rules.\n", doc.Sections[0].Text)
	assert.Equal(t, SectionStructure, doc.Sections[1].Kind)
	assert.Contains(t, doc.Sections[1].Text, "a.txt")
	assert.Equal(t, SectionCodebase, doc.Sections[2].Kind)
}

func TestSerialize_NoRulesSectionWhenEmpty(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{"a.txt": []byte("alpha\n")})

	doc := Serialize(tree, Options{}, nil)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, SectionStructure, doc.Sections[0].Kind)
}

func TestSerialize_BlocksFollowTreeOrder(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{
		"b/nested.txt": []byte("nested\n"),
		"a.txt":        []byte("alpha\n"),
		"z.txt":        []byte("zulu\n"),
	})

	doc := Serialize(tree, Options{Workers: 8}, nil)

	var paths []string
	for _, block := range doc.Codebase() {
		paths = append(paths, block.RelPath)
	}
	// Depth-first, lexicographic: a.txt, then b/ and its child, then z.txt.
	assert.Equal(t, []string{"a.txt", "b/nested.txt", "z.txt"}, paths)
}

func TestSerialize_OmitsBinaryFiles(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{
		"a.txt":   []byte("text\n"),
		"blob.so": {0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01, 0x02},
	})

	doc := Serialize(tree, Options{}, nil)

	blocks := doc.Codebase()
	require.Len(t, blocks, 1)
	assert.Equal(t, "a.txt", blocks[0].RelPath)

	// The binary file still appears in the structure listing.
	assert.Contains(t, doc.Sections[0].Text, "blob.so")
}

func TestSerialize_OmitsFilesOverSizeLimit(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{
		"small.txt": []byte("ok\n"),
		"big.txt":   []byte(strings.Repeat("x", 2048) + "\n"),
	})

	doc := Serialize(tree, Options{MaxFileSizeKB: 1}, nil)

	blocks := doc.Codebase()
	require.Len(t, blocks, 1)
	assert.Equal(t, "small.txt", blocks[0].RelPath)
}

func TestSerialize_OmitsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("ok\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.txt"), []byte("x"), 0o644))

	tree := crawler.BuildTree(root, ignore.NewMatcher(ignore.PatternSet{}, nil), nil)

	// The file vanishes between crawl and read.
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))

	doc := Serialize(tree, Options{}, nil)

	blocks := doc.Codebase()
	require.Len(t, blocks, 1)
	assert.Equal(t, "a.txt", blocks[0].RelPath)
}

func TestFileBlockRender(t *testing.T) {
	block := FileBlock{RelPath: "src/main.go", Size: 12, Content: "package main"}

	rendered := block.Render()

	assert.True(t, strings.HasPrefix(rendered, "File: src/main.go (12 bytes)\n"))
	assert.Contains(t, rendered, "```\npackage main\n```\n")
}

func TestDocumentRender_WrapsCodebaseWithTags(t *testing.T) {
	tree := buildTestTree(t, map[string][]byte{"a.txt": []byte("alpha\n")})

	doc := Serialize(tree, Options{}, nil)
	rendered := doc.Render()

	openIdx := strings.Index(rendered, CodebaseOpenTag)
	closeIdx := strings.Index(rendered, CodebaseCloseTag)
	require.GreaterOrEqual(t, openIdx, 0)
	require.Greater(t, closeIdx, openIdx)
	assert.Contains(t, rendered[openIdx:closeIdx], "File: a.txt")
}

func TestIsBinaryData(t *testing.T) {
	assert.False(t, isBinaryData(nil))
	assert.False(t, isBinaryData([]byte("plain text\n")))
	assert.False(t, isBinaryData([]byte("unicode: héllo wörld\n")))
	assert.True(t, isBinaryData([]byte{0x00, 0x01}))

	noisy := make([]byte, 100)
	for i := range noisy {
		noisy[i] = 0x01
	}
	assert.True(t, isBinaryData(noisy))
}

func TestSerialize_ManyFilesKeepOrder(t *testing.T) {
	files := make(map[string][]byte, 50)
	for i := 0; i < 50; i++ {
		files[fmt.Sprintf("f%02d.txt", i)] = []byte(fmt.Sprintf("content %d\n", i))
	}
	tree := buildTestTree(t, files)

	doc := Serialize(tree, Options{Workers: 8}, nil)

	blocks := doc.Codebase()
	require.Len(t, blocks, 50)
	for i, block := range blocks {
		assert.Equal(t, fmt.Sprintf("f%02d.txt", i), block.RelPath)
	}
}
