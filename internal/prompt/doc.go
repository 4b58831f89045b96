// Package prompt provides the prompt templates and message builders for
// promptune's two LLM roles.
//
// # Overview
//
// The generator role rewrites the candidate instruction between
// iterations; the predictor role applies a candidate instruction to one
// diagnostic case and returns a label. Both roles receive a fully-formed
// []llm.Message slice built here, so the optimizer core never assembles
// raw prompt text itself.
//
// # Candidate structure
//
// Every candidate prompt carries four labeled sections:
//
//	[Task]
//	[Rules]
//	[Output Requirements]
//	[Output Format]
//
// The generator is instructed to rewrite only the [Rules] section and
// leave the rest untouched; [ValidateCandidate] enforces that all four
// sections survived the rewrite. This keeps the predictor's output
// contract stable across iterations while still letting the generator
// refine the diagnostic criteria freely.
//
// # Basic usage
//
//	msgs := prompt.BuildGenerator(prompt.GeneratorContext{
//	    TaskDescription: cfg.Optimizer.TaskDescription,
//	    Previous:        best.Candidate.Text,
//	    PreviousScore:   best.Score,
//	    HasPrevious:     true,
//	    Iteration:       i,
//	})
//	resp, err := provider.Chat(ctx, msgs, chatOpts)
package prompt
