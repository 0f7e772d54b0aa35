// Package chunk splits a serialized document into an ordered sequence of
// token-budgeted chunks. The rules and structure sections and each file
// block are indivisible parts; chunks that interrupt the codebase section
// are closed with a synthetic tag and the next chunk reopens it, so every
// chunk is independently well-formed.
package chunk

import (
	"strings"

	"promptpack/pkg/serialize"
	"promptpack/pkg/tokens"

	"go.uber.org/zap"
)

// ContinuationHeader precedes the reopened codebase tag in every chunk that
// resumes the codebase section from a previous chunk.
const ContinuationHeader = "Continuation of the codebase listing from the previous part."

// DefaultBudgetFraction is the share of a model's context window reserved
// for packed content, leaving the remainder for the model's response.
const DefaultBudgetFraction = 0.7

// Chunk is one bounded piece of the serialized document. Index is 1-based
// and dense across the sequence.
type Chunk struct {
	Index  int
	Total  int
	Text   string
	Tokens int
	// Oversized marks a chunk whose single atomic part alone exceeded the
	// budget. Such chunks are emitted unsplit; the budget is a soft target,
	// not a hard ceiling.
	Oversized bool
}

// Options configures a planning pass.
type Options struct {
	// Model selects the token limit and tokenizer.
	Model string
	// BudgetFraction is the share of the model's context window available
	// per chunk. Values outside (0, 1] fall back to DefaultBudgetFraction.
	BudgetFraction float64
}

// Planner packs document parts into chunks using a token counter.
type Planner struct {
	counter *tokens.Counter
	logger  *zap.Logger
}

// NewPlanner creates a Planner backed by the given counter.
func NewPlanner(counter *tokens.Counter, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{counter: counter, logger: logger}
}

// MaxTokens returns the per-chunk token budget the planner applies for the
// given options.
func (p *Planner) MaxTokens(opts Options) int {
	fraction := opts.BudgetFraction
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultBudgetFraction
	}
	return int(float64(tokens.ContextLimit(opts.Model)) * fraction)
}

// part is one indivisible unit of packing.
type part struct {
	text     string
	codebase bool
}

// Plan greedily packs the document into chunks of at most MaxTokens tokens
// each. A single part whose own token count exceeds the budget is still
// emitted as one oversized chunk; callers must treat the budget as
// violatable in that case.
func (p *Planner) Plan(doc serialize.Document, opts Options) []Chunk {
	maxTokens := p.MaxTokens(opts)
	parts := documentParts(doc)

	builder := chunkBuilder{
		planner:   p,
		model:     opts.Model,
		maxTokens: maxTokens,
	}
	for _, unit := range parts {
		builder.add(unit)
	}
	chunks := builder.finish()

	for i := range chunks {
		chunks[i].Index = i + 1
		chunks[i].Total = len(chunks)
	}

	p.logger.Info("Planned chunks",
		zap.String("model", opts.Model),
		zap.Int("maxTokens", maxTokens),
		zap.Int("parts", len(parts)),
		zap.Int("chunks", len(chunks)))
	return chunks
}

// documentParts flattens the document's sections into packing units.
func documentParts(doc serialize.Document) []part {
	var parts []part
	for _, section := range doc.Sections {
		switch section.Kind {
		case serialize.SectionRules, serialize.SectionStructure:
			parts = append(parts, part{text: section.Text})
		case serialize.SectionCodebase:
			for _, block := range section.Blocks {
				parts = append(parts, part{text: block.Render(), codebase: true})
			}
		}
	}
	return parts
}

// chunkBuilder accumulates parts into the current chunk and closes it when
// the next part would overflow the budget.
type chunkBuilder struct {
	planner   *Planner
	model     string
	maxTokens int

	current      strings.Builder
	currentParts int
	running      int
	open         bool // Codebase tag currently open in the current chunk.
	resumed      bool // A codebase part already landed in an earlier chunk.
	chunks       []Chunk
}

// add appends one part, starting a new chunk first when the part would not
// fit and the current chunk already has content.
func (b *chunkBuilder) add(next part) {
	if !next.codebase && b.open {
		// A non-codebase part after codebase blocks; balance the tag before
		// moving on.
		closing := serialize.CodebaseCloseTag + "\n"
		b.current.WriteString(closing)
		b.running += b.count(closing)
		b.open = false
	}

	candidate := b.render(next)
	candidateTokens := b.count(candidate)

	// Reserve room for the synthetic closing tag that would follow a
	// codebase part, so a closed chunk never lands over budget.
	reserve := 0
	if next.codebase {
		reserve = b.count(serialize.CodebaseCloseTag + "\n")
	}

	if b.currentParts > 0 && b.running+candidateTokens+reserve > b.maxTokens {
		b.closeCurrent()
		// The prefix may change now that the part opens a fresh chunk.
		candidate = b.render(next)
		candidateTokens = b.count(candidate)
	}

	b.current.WriteString(candidate)
	b.currentParts++
	b.running += candidateTokens
	if next.codebase {
		b.open = true
	}
}

// render produces the part's chunk text including any opening tag or
// continuation header it needs in the current chunk state.
func (b *chunkBuilder) render(next part) string {
	if !next.codebase {
		text := next.text
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + "\n"
	}
	if b.open {
		return next.text
	}
	prefix := serialize.CodebaseOpenTag + "\n"
	if b.resumed {
		prefix = ContinuationHeader + "\n" + prefix
	}
	return prefix + next.text
}

// closeCurrent balances and pushes the current chunk.
func (b *chunkBuilder) closeCurrent() {
	if b.currentParts == 0 {
		return
	}
	if b.open {
		b.current.WriteString(serialize.CodebaseCloseTag + "\n")
		b.open = false
		b.resumed = true
	}

	text := b.current.String()
	chunkTokens := b.count(text)
	b.chunks = append(b.chunks, Chunk{
		Text:      text,
		Tokens:    chunkTokens,
		Oversized: b.currentParts == 1 && chunkTokens > b.maxTokens,
	})

	b.current.Reset()
	b.currentParts = 0
	b.running = 0
}

// finish closes any still-open chunk and returns the sequence.
func (b *chunkBuilder) finish() []Chunk {
	b.closeCurrent()
	return b.chunks
}

func (b *chunkBuilder) count(text string) int {
	count, _ := b.planner.counter.Count(text, b.model)
	return count
}
