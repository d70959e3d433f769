// Package postcheck provides the registry of validators that gate or refine
// raw pattern matches using numeric and calendar facts about the tender.
//
// Validators are pure functions: they never mutate shared state and are safe
// to invoke concurrently for different documents. A validator that needs a
// fact absent from the analysis context returns [ErrMissingContext]; the
// finding is then withheld rather than guessed.
package postcheck
