package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/promptune/internal/llm"
	"github.com/bimmerbailey/promptune/internal/prompt"
)

// ErrEmptyInstruction indicates the generation collaborator returned an
// empty or whitespace-only instruction text.
var ErrEmptyInstruction = errors.New("optimizer: generator returned empty instruction")

// LLMGenerator implements Generator on top of an llm.Provider.
type LLMGenerator struct {
	provider        llm.Provider
	taskDescription string
	chatOpts        llm.ChatOptions
	logger          *slog.Logger
}

// NewLLMGenerator creates a generator bound to the given provider.
// taskDescription seeds the base prompt for iteration 0.
func NewLLMGenerator(provider llm.Provider, taskDescription string, chatOpts llm.ChatOptions, logger *slog.Logger) *LLMGenerator {
	return &LLMGenerator{
		provider:        provider,
		taskDescription: taskDescription,
		chatOpts:        chatOpts,
		logger:          logger,
	}
}

// Generate produces the candidate for one iteration. The returned
// candidate is validated: it must be non-empty and keep all required
// prompt sections. Validation failures and provider faults are returned
// as-is; the loop controller classifies them as GenerationError.
func (g *LLMGenerator) Generate(ctx context.Context, iteration int, prev *Candidate, prevScore float64) (Candidate, error) {
	gc := prompt.GeneratorContext{
		TaskDescription: g.taskDescription,
		Iteration:       iteration,
	}
	if prev != nil {
		gc.Previous = prev.Text
		gc.PreviousScore = prevScore
		gc.HasPrevious = true
	}

	g.logger.Debug("generating candidate", "iteration", iteration, "has_previous", gc.HasPrevious)

	resp, err := g.provider.Chat(ctx, prompt.BuildGenerator(gc), &g.chatOpts)
	if err != nil {
		return Candidate{}, err
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Candidate{}, ErrEmptyInstruction
	}

	if err := prompt.ValidateCandidate(text); err != nil {
		return Candidate{}, fmt.Errorf("unusable instruction: %w", err)
	}

	g.logger.Debug("candidate generated",
		"iteration", iteration,
		"chars", len(text),
		"tokens", resp.TokensTotal,
	)

	return Candidate{Text: text, Iteration: iteration}, nil
}
