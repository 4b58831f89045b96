// Package optimizer implements the prompt refinement loop.
//
// # Overview
//
// An Optimizer drives a strict per-iteration pipeline: generate a
// candidate instruction, predict a label for every record with it,
// score agreement against ground truth, then decide whether to stop.
// The loop state machine is
//
//	Init → Iterating → {Converged, Exhausted, Failed}
//
// where Converged means an iteration reached full agreement (score
// 1.0), Exhausted means the iteration budget ran out, and Failed means
// a configuration problem, a collaborator fault, or cancellation ended
// the run early. Every terminal state returns the accumulated
// OptimizationState, so partial progress is never discarded.
//
// # Feedback policy
//
// The generator is always fed the best candidate seen so far, not the
// most recent one. A regression in iteration N therefore cannot drag
// iteration N+1 further away from a known-good prompt.
//
// # Collaborators
//
// The Generator and Predictor interfaces are the only seams to the
// outside world. LLMGenerator and LLMPredictor bind them to an
// llm.Provider; tests substitute in-memory fakes. The core never
// retries a collaborator call: retry policy, like timeouts, belongs to
// the provider.
package optimizer
