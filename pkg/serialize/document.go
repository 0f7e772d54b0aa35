// Package serialize flattens a crawled tree plus file contents into a single
// structured document: an optional rules section, an indented directory
// listing, and one content block per file in depth-first tree order.
package serialize

import (
	"fmt"
	"strings"
)

// Structural tags wrapping the codebase section. The chunk planner re-emits
// them so every chunk stays well-formed when the section is split.
const (
	CodebaseOpenTag  = "<codebase>"
	CodebaseCloseTag = "</codebase>"
)

// SectionKind identifies the role of a document section.
type SectionKind int

const (
	// SectionRules carries caller-provided instruction text verbatim.
	SectionRules SectionKind = iota
	// SectionStructure carries the rendered directory listing.
	SectionStructure
	// SectionCodebase carries the per-file content blocks.
	SectionCodebase
)

// FileBlock is the serialized content of one file. It is the atomic unit of
// chunking and is never split.
type FileBlock struct {
	RelPath string // Path relative to the crawl root, slash-separated.
	Size    int64  // Content size in bytes.
	Content string // Raw file content.
}

// Render returns the block wrapped with its path-qualified, size-annotated
// marker and the content embedded as a fenced literal block.
func (b FileBlock) Render() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("File: %s (%d bytes)\n", b.RelPath, b.Size))
	builder.WriteString("```\n")
	builder.WriteString(b.Content)
	if !strings.HasSuffix(b.Content, "\n") {
		builder.WriteString("\n")
	}
	builder.WriteString("```\n")
	return builder.String()
}

// Section is one ordered part of a Document. Rules and structure sections
// carry Text; the codebase section carries Blocks.
type Section struct {
	Kind   SectionKind
	Text   string
	Blocks []FileBlock
}

// Document is the ordered sequence of sections produced by Serialize.
type Document struct {
	Sections []Section
}

// Codebase returns the file blocks of the codebase section, in order.
func (d Document) Codebase() []FileBlock {
	for _, section := range d.Sections {
		if section.Kind == SectionCodebase {
			return section.Blocks
		}
	}
	return nil
}

// Render flattens the whole document into one string, wrapping the codebase
// section with its structural tags.
func (d Document) Render() string {
	var builder strings.Builder
	for _, section := range d.Sections {
		switch section.Kind {
		case SectionRules, SectionStructure:
			builder.WriteString(section.Text)
			if !strings.HasSuffix(section.Text, "\n") {
				builder.WriteString("\n")
			}
			builder.WriteString("\n")
		case SectionCodebase:
			builder.WriteString(CodebaseOpenTag + "\n")
			for _, block := range section.Blocks {
				builder.WriteString(block.Render())
			}
			builder.WriteString(CodebaseCloseTag + "\n")
		}
	}
	return builder.String()
}
