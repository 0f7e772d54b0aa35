// Package tokens estimates how many tokens a piece of text consumes for a
// given model. Counting never fails: when an exact tokenizer is unavailable
// the package degrades to a word-count heuristic and says so.
package tokens

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Method reports how a token count was produced.
type Method int

const (
	// Exact means a real tokenizer encoded the text.
	Exact Method = iota
	// Approximate means the word-count heuristic was used.
	Approximate
)

// String returns a human-readable name for the method.
func (m Method) String() string {
	if m == Exact {
		return "exact"
	}
	return "approximate"
}

// approximateTokensPerWord is the heuristic ratio applied when no exact
// tokenizer is available for a model.
const approximateTokensPerWord = 1.3

// Counter counts tokens per model, caching one encoder per model name.
// Safe for concurrent use.
type Counter struct {
	mu       sync.RWMutex
	encoders map[string]*tiktoken.Tiktoken
	logger   *zap.Logger
}

// NewCounter creates a Counter with an empty encoder cache.
func NewCounter(logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		encoders: make(map[string]*tiktoken.Tiktoken),
		logger:   logger,
	}
}

// Count returns the number of tokens text consumes for model. When no exact
// tokenizer can be resolved for the model the count falls back to
// round(wordCount * 1.3) and the method is Approximate. Count never fails.
func (c *Counter) Count(text, model string) (int, Method) {
	if encoder := c.encoderFor(model); encoder != nil {
		return len(encoder.Encode(text, nil, nil)), Exact
	}
	words := len(strings.Fields(text))
	return int(math.Round(float64(words) * approximateTokensPerWord)), Approximate
}

// encoderFor resolves the tiktoken encoder for a model, caching both hits
// and misses so an unknown model is probed at most once.
func (c *Counter) encoderFor(model string) *tiktoken.Tiktoken {
	c.mu.RLock()
	encoder, known := c.encoders[model]
	c.mu.RUnlock()
	if known {
		return encoder
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if encoder, known = c.encoders[model]; known {
		return encoder
	}

	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		c.logger.Warn("No exact tokenizer for model, using approximate counting",
			zap.String("model", model),
			zap.Error(err))
		encoder = nil
	}
	c.encoders[model] = encoder
	return encoder
}
