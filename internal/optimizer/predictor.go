package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/promptune/internal/dataset"
	"github.com/bimmerbailey/promptune/internal/llm"
	"github.com/bimmerbailey/promptune/internal/prompt"
)

// ErrNoDiagnosis indicates the inference collaborator's response
// carried no usable diagnosis label.
var ErrNoDiagnosis = errors.New("optimizer: response contains no diagnosis")

// LLMPredictor implements Predictor on top of an llm.Provider.
type LLMPredictor struct {
	provider llm.Provider
	chatOpts llm.ChatOptions
	logger   *slog.Logger
}

// NewLLMPredictor creates a predictor bound to the given provider.
func NewLLMPredictor(provider llm.Provider, chatOpts llm.ChatOptions, logger *slog.Logger) *LLMPredictor {
	return &LLMPredictor{
		provider: provider,
		chatOpts: chatOpts,
		logger:   logger,
	}
}

// Predict classifies every record with the candidate's instruction.
// Records are independent, so order does not affect the result; calls
// are issued sequentially and stop at the first failure, returning a
// PredictionError scoped to the failing record. The caller treats any
// such failure as making the whole iteration unscorable.
func (p *LLMPredictor) Predict(ctx context.Context, candidate Candidate, records []dataset.Record) (Prediction, error) {
	pred := make(Prediction, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, &PredictionError{RecordID: rec.ID, Err: err}
		}

		resp, err := p.provider.Chat(ctx, prompt.BuildPredictor(candidate.Text, rec.Input), &p.chatOpts)
		if err != nil {
			return nil, &PredictionError{RecordID: rec.ID, Err: err}
		}

		label, err := extractDiagnosis(resp.Content)
		if err != nil {
			return nil, &PredictionError{RecordID: rec.ID, Err: err}
		}

		p.logger.Debug("record classified", "record", rec.ID, "label", label)
		pred[rec.ID] = label
	}

	return pred, nil
}

// diagnosisResponse is the JSON shape the predictor instructs the model
// to return.
type diagnosisResponse struct {
	Diagnosis string `json:"diagnosis"`
}

// extractDiagnosis pulls the diagnosis label out of a model response.
// Models wrap JSON in markdown fences or surround it with prose often
// enough that a plain unmarshal is not sufficient: fences are stripped
// first, and if the remainder still fails to parse the outermost JSON
// object is carved out and tried on its own.
func extractDiagnosis(content string) (string, error) {
	cleaned := stripFences(strings.TrimSpace(content))

	var dr diagnosisResponse
	if err := json.Unmarshal([]byte(cleaned), &dr); err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return "", ErrNoDiagnosis
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &dr); err != nil {
			return "", ErrNoDiagnosis
		}
	}

	label := strings.TrimSpace(dr.Diagnosis)
	if label == "" {
		return "", ErrNoDiagnosis
	}

	return label, nil
}

// stripFences removes a surrounding markdown code fence, including an
// optional language tag on the opening fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	body := s[3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}
