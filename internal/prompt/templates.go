package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bimmerbailey/promptune/internal/llm"
)

// GeneratorContext holds everything the generator needs to produce the
// next candidate instruction.
type GeneratorContext struct {
	// TaskDescription is the static description of the classification
	// task, set once per run.
	TaskDescription string

	// Previous is the text of the best candidate seen so far.
	// Ignored when HasPrevious is false.
	Previous string

	// PreviousScore is the agreement score of Previous, in [0.0, 1.0].
	// Ignored when HasPrevious is false.
	PreviousScore float64

	// HasPrevious is false only for iteration 0.
	HasPrevious bool

	// Iteration is the zero-based index of the iteration being prepared.
	Iteration int
}

// ErrMissingSection is returned by ValidateCandidate when a generated
// candidate lost one of the required section markers.
var ErrMissingSection = errors.New("prompt: candidate is missing a required section")

// Base returns the initial candidate text for iteration 0, seeded with
// the run's task description.
func Base(taskDescription string) string {
	return fmt.Sprintf(basePromptTemplate, taskDescription)
}

// BuildGenerator constructs the message slice for one generator call.
//
// For iteration 0 the user turn asks for a first refinement of the base
// template. For later iterations it carries the best candidate so far
// and its agreement score, so the generator always improves on the
// strongest known prompt rather than the most recent one.
func BuildGenerator(gc GeneratorContext) []llm.Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "This is optimization round %d.\n\n", gc.Iteration+1)

	if !gc.HasPrevious {
		sb.WriteString("Current prompt:\n")
		sb.WriteString(Base(gc.TaskDescription))
		sb.WriteString("\n\nRewrite the [Rules] section to make the rules more explicit and executable. Keep every other section exactly as it is.")
	} else {
		fmt.Fprintf(&sb, "The best prompt so far scored %.2f agreement against ground truth.\n\n", gc.PreviousScore)
		sb.WriteString("Best prompt so far:\n")
		sb.WriteString(gc.Previous)
		sb.WriteString("\n\nRewrite the [Rules] section to raise the agreement score. Keep every other section exactly as it is. The new rules must be materially different from the current ones.")
	}

	return []llm.Message{
		{Role: "system", Content: generatorSystem},
		{Role: "user", Content: sb.String()},
	}
}

// BuildPredictor constructs the message slice for classifying one case
// with the given candidate text. The case payload is sent verbatim as
// the user turn; the candidate becomes the system turn, with the JSON
// format contract appended when the candidate does not state it itself.
func BuildPredictor(candidate string, input json.RawMessage) []llm.Message {
	system := candidate
	if !strings.Contains(candidate, "diagnosis") {
		system = candidate + "\n" + predictorFormatInstruction
	}

	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: string(input)},
	}
}

// ValidateCandidate checks that a generated candidate still carries all
// required section markers, in order. The generator contract allows it
// to rewrite only the [Rules] body; a response that dropped or
// reordered markers is unusable.
func ValidateCandidate(text string) error {
	pos := 0
	for _, marker := range sectionMarkers {
		idx := strings.Index(text[pos:], marker)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrMissingSection, marker)
		}
		pos += idx + len(marker)
	}
	return nil
}
