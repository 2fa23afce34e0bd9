package bayra

import "errors"

// Error kinds surfaced by the engine. Callers discriminate with errors.Is;
// wrapped messages carry the offending variable, model or value.
var (
	// ErrInvalidModel reports a substitution model whose dimensions
	// disagree or whose rate matrix is degenerate.
	ErrInvalidModel = errors.New("invalid model")

	// ErrInvalidDomain reports a value outside its declared enumerable domain.
	ErrInvalidDomain = errors.New("not in domain")

	// ErrIncompleteNetwork reports a missing distribution for a relevant
	// node, an undeclared parent, or a cycle.
	ErrIncompleteNetwork = errors.New("incomplete network")

	// ErrEvidenceImpossible reports total factor weight zero under the
	// current evidence.
	ErrEvidenceImpossible = errors.New("evidence has probability zero")

	// ErrUnfactorisable reports a density-carrying node without enumerable
	// parents met as non-evidenced during a query.
	ErrUnfactorisable = errors.New("unfactorisable node")

	// ErrCancelled reports cooperative cancellation of a long-running
	// reconstruction or query.
	ErrCancelled = errors.New("cancelled")
)
