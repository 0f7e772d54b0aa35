package serialize

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unicode/utf8"

	"promptpack/pkg/crawler"

	"go.uber.org/zap"
)

// Options configures a serialization pass.
type Options struct {
	// Rules is optional instruction text prepended verbatim as the first
	// section. Empty means no rules section.
	Rules string
	// MaxFileSizeKB omits files larger than this from the codebase section.
	// Zero disables the limit.
	MaxFileSizeKB int
	// Workers bounds the number of concurrent file reads. Zero or negative
	// means one worker per CPU.
	Workers int
}

// Serialize flattens the tree and its file contents into a Document. Files
// that cannot be read, are not valid UTF-8, look binary, or exceed the size
// limit are omitted from the codebase section; omission is logged but never
// fails the pass. File reads run concurrently; block order always matches
// the tree's depth-first, lexicographic traversal.
func Serialize(tree *crawler.TreeNode, opts Options, logger *zap.Logger) Document {
	if logger == nil {
		logger = zap.NewNop()
	}

	var sections []Section
	if opts.Rules != "" {
		sections = append(sections, Section{Kind: SectionRules, Text: opts.Rules})
	}
	sections = append(sections, Section{
		Kind: SectionStructure,
		Text: "Repository structure:\n\n" + crawler.RenderTree(tree),
	})

	files := collectFiles(tree)
	blocks := readFiles(files, opts, logger)
	sections = append(sections, Section{Kind: SectionCodebase, Blocks: blocks})

	logger.Info("Serialized repository",
		zap.Int("candidateFiles", len(files)),
		zap.Int("includedFiles", len(blocks)))
	return Document{Sections: sections}
}

// fileRef locates one file leaf of the tree.
type fileRef struct {
	absPath string
	relPath string
}

// collectFiles gathers the tree's file leaves in depth-first order.
func collectFiles(tree *crawler.TreeNode) []fileRef {
	var files []fileRef
	tree.Walk(func(node *crawler.TreeNode, relPath string) {
		if node.Kind == crawler.NodeFile {
			files = append(files, fileRef{
				absPath: filepath.Join(tree.Path, filepath.FromSlash(relPath)),
				relPath: relPath,
			})
		}
	})
	return files
}

// readFiles reads the referenced files with a bounded worker pool and
// returns their blocks in the original order, dropping omitted files.
func readFiles(files []fileRef, opts Options, logger *zap.Logger) []FileBlock {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	type job struct {
		index int
		ref   fileRef
	}
	jobs := make(chan job, len(files))
	slots := make([]*FileBlock, len(files))

	// Each job writes to its own slot, so the workers share no state.
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if block, ok := readFile(j.ref, opts.MaxFileSizeKB, logger); ok {
					slots[j.index] = &block
				}
			}
		}()
	}

	for i, ref := range files {
		jobs <- job{index: i, ref: ref}
	}
	close(jobs)
	wg.Wait()

	// Restore depth-first order and drop omissions.
	blocks := make([]FileBlock, 0, len(files))
	for _, slot := range slots {
		if slot != nil {
			blocks = append(blocks, *slot)
		}
	}
	return blocks
}

// readFile loads a single file into a FileBlock. The second return value is
// false when the file must be omitted from the document.
func readFile(ref fileRef, maxFileSizeKB int, logger *zap.Logger) (FileBlock, bool) {
	data, err := os.ReadFile(ref.absPath)
	if err != nil {
		logger.Warn("Omitting unreadable file",
			zap.String("path", ref.relPath),
			zap.Error(err))
		return FileBlock{}, false
	}

	if maxFileSizeKB > 0 && int64(len(data)) > int64(maxFileSizeKB)*1024 {
		logger.Debug("Omitting file over size limit",
			zap.String("path", ref.relPath),
			zap.Int("sizeBytes", len(data)),
			zap.Int("maxSizeKB", maxFileSizeKB))
		return FileBlock{}, false
	}

	if isBinaryData(data) || !utf8.Valid(data) {
		logger.Debug("Omitting binary or non-UTF-8 file", zap.String("path", ref.relPath))
		return FileBlock{}, false
	}

	return FileBlock{
		RelPath: ref.relPath,
		Size:    int64(len(data)),
		Content: string(data),
	}, true
}
