package tokens

import "sort"

// DefaultModel is used when the caller does not name a model.
const DefaultModel = "gpt-4"

// defaultContextLimit applies to models missing from the limit table.
const defaultContextLimit = 8192

// contextLimits maps model names to their context window size in tokens.
var contextLimits = map[string]int{
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16384,
	"gpt-4":             8192,
	"gpt-4-32k":         32768,
	"gpt-4-turbo":       128000,
	"gpt-4o":            128000,
	"gpt-4o-mini":       128000,
}

// modelCost holds USD prices per 1K tokens.
type modelCost struct {
	Input  float64
	Output float64
}

// modelCosts maps model names to their per-1K-token prices.
var modelCosts = map[string]modelCost{
	"gpt-3.5-turbo":     {Input: 0.0010, Output: 0.0020},
	"gpt-3.5-turbo-16k": {Input: 0.0030, Output: 0.0040},
	"gpt-4":             {Input: 0.03, Output: 0.06},
	"gpt-4-32k":         {Input: 0.06, Output: 0.12},
}

// ContextLimit returns the context window size for model, falling back to a
// conservative default for unknown models.
func ContextLimit(model string) int {
	if limit, ok := contextLimits[model]; ok {
		return limit
	}
	return defaultContextLimit
}

// EstimateCost returns the estimated USD cost of tokenCount tokens for the
// model. Unknown models are priced as gpt-3.5-turbo.
func EstimateCost(tokenCount int, model string, output bool) float64 {
	cost, ok := modelCosts[model]
	if !ok {
		cost = modelCosts["gpt-3.5-turbo"]
	}
	rate := cost.Input
	if output {
		rate = cost.Output
	}
	return float64(tokenCount) / 1000 * rate
}

// KnownModels lists the models with a context limit entry, sorted by name.
func KnownModels() []string {
	models := make([]string, 0, len(contextLimits))
	for model := range contextLimits {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
