package usecase

import (
	"strings"

	"oracle/internal/adapter/analyzer"
	"oracle/internal/domain"
	"oracle/internal/port"
)

// TruncationMarker is appended to a group cut at the budget.
const TruncationMarker = "..."

// ContextAssembler groups retrieved passages by source file under a
// per-file character budget.
type ContextAssembler struct {
	groupBudget int
	tokenizer   port.Tokenizer
}

func NewContextAssembler(groupBudget int, tokenizer port.Tokenizer) *ContextAssembler {
	if groupBudget <= 0 {
		groupBudget = 2500
	}
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer()
	}
	return &ContextAssembler{groupBudget: groupBudget, tokenizer: tokenizer}
}

// Assemble partitions results by filename in first-seen order. Texts within a
// group keep retrieval order and are joined by a blank line.
func (a *ContextAssembler) Assemble(question string, results []domain.RetrievalResult) domain.PromptContext {
	pc := domain.PromptContext{Question: question}

	texts := make(map[string][]string)
	var order []string
	for _, r := range results {
		name := r.Metadata.Filename
		if _, ok := texts[name]; !ok {
			order = append(order, name)
		}
		texts[name] = append(texts[name], r.Text)
	}

	for _, name := range order {
		text, truncated := truncate(strings.Join(texts[name], "\n\n"), a.groupBudget)
		pc.Groups = append(pc.Groups, domain.SourceGroup{
			Filename:   name,
			Text:       text,
			ChunkCount: len(texts[name]),
			Truncated:  truncated,
		})
	}
	return pc
}

// Render formats the context as "=== filename ===" blocks separated by blank lines.
func (a *ContextAssembler) Render(pc domain.PromptContext) string {
	blocks := make([]string, len(pc.Groups))
	for i, g := range pc.Groups {
		blocks[i] = "=== " + g.Filename + " ===\n" + g.Text
	}
	return strings.Join(blocks, "\n\n")
}

// EstimatedTokens approximates the model tokens used by the rendered context.
func (a *ContextAssembler) EstimatedTokens(pc domain.PromptContext) int {
	return a.tokenizer.CountTokens(a.Render(pc))
}

// Sources lists the filenames of results in first-seen order, without duplicates.
func Sources(results []domain.RetrievalResult) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, r := range results {
		if _, ok := seen[r.Metadata.Filename]; ok {
			continue
		}
		seen[r.Metadata.Filename] = struct{}{}
		sources = append(sources, r.Metadata.Filename)
	}
	return sources
}

// truncate cuts text to limit characters and appends the marker when cut.
func truncate(text string, limit int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]) + TruncationMarker, true
}
