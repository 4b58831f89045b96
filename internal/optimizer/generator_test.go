package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bimmerbailey/promptune/internal/llm"
	"github.com/bimmerbailey/promptune/internal/prompt"
)

// fakeProvider returns a canned response and records the last request.
type fakeProvider struct {
	response     string
	err          error
	lastMessages []llm.Message
	lastOpts     *llm.ChatOptions
}

func (p *fakeProvider) Chat(_ context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	p.lastMessages = messages
	p.lastOpts = opts
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.response, Model: "fake"}, nil
}

func (p *fakeProvider) Heartbeat(context.Context) error { return nil }

func (p *fakeProvider) ModelAvailable(context.Context, string) (bool, error) { return true, nil }

func validCandidateText() string {
	return prompt.Base("classify diagnostic cases")
}

func TestLLMGenerator_Generate(t *testing.T) {
	provider := &fakeProvider{response: validCandidateText()}
	opts := llm.ChatOptions{Model: "test-model", Temperature: 0.7}
	gen := NewLLMGenerator(provider, "classify diagnostic cases", opts, testLogger())

	candidate, err := gen.Generate(context.Background(), 2, nil, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if candidate.Iteration != 2 {
		t.Errorf("Candidate.Iteration = %d, want 2", candidate.Iteration)
	}
	if candidate.Text != strings.TrimSpace(validCandidateText()) {
		t.Errorf("Candidate.Text = %q, want trimmed base text", candidate.Text)
	}
	if provider.lastOpts == nil || provider.lastOpts.Model != "test-model" {
		t.Errorf("chat options = %+v, want model %q", provider.lastOpts, "test-model")
	}
	if len(provider.lastMessages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(provider.lastMessages))
	}
	if provider.lastMessages[0].Role != "system" {
		t.Errorf("messages[0].Role = %q, want %q", provider.lastMessages[0].Role, "system")
	}
}

func TestLLMGenerator_FeedbackInUserTurn(t *testing.T) {
	provider := &fakeProvider{response: validCandidateText()}
	gen := NewLLMGenerator(provider, "classify diagnostic cases", llm.ChatOptions{}, testLogger())

	prev := &Candidate{Text: validCandidateText(), Iteration: 0}
	if _, err := gen.Generate(context.Background(), 1, prev, 0.62); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	user := provider.lastMessages[1].Content
	if !strings.Contains(user, "0.62") {
		t.Errorf("user turn does not carry the previous score:\n%s", user)
	}
	if !strings.Contains(user, prev.Text) {
		t.Error("user turn does not carry the previous candidate text")
	}
}

func TestLLMGenerator_Errors(t *testing.T) {
	providerErr := errors.New("connection refused")

	tests := []struct {
		name     string
		provider *fakeProvider
		wantErr  error
	}{
		{
			name:     "provider failure",
			provider: &fakeProvider{err: providerErr},
			wantErr:  providerErr,
		},
		{
			name:     "empty response",
			provider: &fakeProvider{response: "   \n  "},
			wantErr:  ErrEmptyInstruction,
		},
		{
			name:     "dropped section",
			provider: &fakeProvider{response: "[Task]\ndo the thing\n[Rules]\nnone"},
			wantErr:  prompt.ErrMissingSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewLLMGenerator(tt.provider, "task", llm.ChatOptions{}, testLogger())
			_, err := gen.Generate(context.Background(), 0, nil, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLLMPredictor_Predict(t *testing.T) {
	provider := &fakeProvider{response: `{"diagnosis": "Flu"}`}
	pred := NewLLMPredictor(provider, llm.ChatOptions{Model: "test-model"}, testLogger())

	records := testRecords("case1", "case2")
	got, err := pred.Predict(context.Background(), Candidate{Text: validCandidateText()}, records)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(predictions) = %d, want 2", len(got))
	}
	for _, rec := range records {
		if got[rec.ID] != "Flu" {
			t.Errorf("prediction[%q] = %q, want %q", rec.ID, got[rec.ID], "Flu")
		}
	}
}

func TestLLMPredictor_RecordFailure(t *testing.T) {
	providerErr := errors.New("timeout")
	provider := &fakeProvider{err: providerErr}
	pred := NewLLMPredictor(provider, llm.ChatOptions{}, testLogger())

	_, err := pred.Predict(context.Background(), Candidate{Text: "prompt"}, testRecords("case1"))

	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("error = %v, want *PredictionError", err)
	}
	if predErr.RecordID != "case1" {
		t.Errorf("RecordID = %q, want %q", predErr.RecordID, "case1")
	}
	if !errors.Is(err, providerErr) {
		t.Errorf("error = %v, want wrapped %v", err, providerErr)
	}
}

func TestLLMPredictor_UnparseableResponse(t *testing.T) {
	provider := &fakeProvider{response: "I think it is probably the flu."}
	pred := NewLLMPredictor(provider, llm.ChatOptions{}, testLogger())

	_, err := pred.Predict(context.Background(), Candidate{Text: "prompt"}, testRecords("case1"))
	if !errors.Is(err, ErrNoDiagnosis) {
		t.Errorf("error = %v, want ErrNoDiagnosis", err)
	}
}

func TestLLMPredictor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeProvider{response: `{"diagnosis": "Flu"}`}
	pred := NewLLMPredictor(provider, llm.ChatOptions{}, testLogger())

	_, err := pred.Predict(ctx, Candidate{Text: "prompt"}, testRecords("case1"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
