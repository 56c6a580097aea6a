package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"oracle/internal/domain"
	"oracle/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerTemplate = template.Must(template.ParseFS(promptTemplates, "templates/answer_prompt.txt"))

// User-facing messages for conditions that are not errors.
const (
	NotIndexedMessage       = "[ERROR] No documents indexed. Run the index command first."
	NoMatchMessage          = "[ERROR] No relevant documents found for your question."
	GenerationFailedMessage = "Sorry, an error occurred while generating the answer."
)

// Status describes how a question was resolved.
type Status string

const (
	StatusAnswered         Status = "answered"
	StatusNotIndexed       Status = "not_indexed"
	StatusNoMatch          Status = "no_match"
	StatusGenerationFailed Status = "generation_failed"
)

// Answer is the structured result of a question.
type Answer struct {
	Text    string
	Status  Status
	Sources []string
	Results []domain.RetrievalResult
	Prompt  string
}

// PromptData is the data passed to the answer prompt template.
type PromptData struct {
	Context  string
	Question string
}

// AnswerUseCase runs retrieval, context assembly and generation for a question.
type AnswerUseCase struct {
	index     port.Index
	retriever port.Retriever
	assembler *ContextAssembler
	generator port.Generator
	opts      port.CompletionOptions
	logger    *slog.Logger
}

// NewAnswerUseCase creates a new answer use case.
func NewAnswerUseCase(
	index port.Index,
	retriever port.Retriever,
	assembler *ContextAssembler,
	generator port.Generator,
	opts port.CompletionOptions,
	logger *slog.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AnswerUseCase{
		index:     index,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Ask answers question from the top k passages. Empty states and generation
// failures are reported through Status; only retrieval failures are errors.
func (u *AnswerUseCase) Ask(ctx context.Context, question string, k int) (*Answer, error) {
	count, err := u.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index entries: %w", err)
	}
	if count == 0 {
		return &Answer{Text: NotIndexedMessage, Status: StatusNotIndexed}, nil
	}

	results, err := u.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	if len(results) == 0 {
		return &Answer{Text: NoMatchMessage, Status: StatusNoMatch}, nil
	}

	pc := u.assembler.Assemble(question, results)
	prompt, err := BuildPrompt(u.assembler.Render(pc), question)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Sources: Sources(results),
		Results: results,
		Prompt:  prompt,
	}

	u.logger.Debug("generating answer",
		"results", len(results),
		"sources", len(answer.Sources),
		"context_tokens", u.assembler.EstimatedTokens(pc),
		"model", u.generator.ModelName())

	text, err := u.generator.Complete(ctx, prompt, u.opts)
	if err != nil {
		u.logger.Error("generation failed", "error", err)
		answer.Text = GenerationFailedMessage
		answer.Status = StatusGenerationFailed
		return answer, nil
	}

	answer.Text = text
	answer.Status = StatusAnswered
	return answer, nil
}

// Answer is the string form of Ask. When includeSources is set, a successful
// answer is followed by the list of consulted files.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, k int, includeSources bool) string {
	answer, err := u.Ask(ctx, question, k)
	if err != nil {
		u.logger.Error("query failed", "error", err)
		return GenerationFailedMessage
	}
	return answer.Format(includeSources)
}

// Format renders the answer text, optionally followed by its sources.
func (a *Answer) Format(includeSources bool) string {
	if !includeSources || a.Status != StatusAnswered || len(a.Sources) == 0 {
		return a.Text
	}
	return a.Text + FormatSources(a.Sources)
}

// FormatSources renders the sources block appended to answers.
func FormatSources(sources []string) string {
	var b strings.Builder
	b.WriteString("\n\n[SOURCES]\n")
	for _, s := range sources {
		b.WriteString("  - ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

// BuildPrompt fills the answer prompt template.
func BuildPrompt(contextText, question string) (string, error) {
	var buf bytes.Buffer
	if err := answerTemplate.Execute(&buf, PromptData{Context: contextText, Question: question}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
