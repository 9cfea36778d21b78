package operator

import "context"

// Operator is the contract shared by every stage of the execution pipeline:
// one typed entry point that produces either a typed output or an error.
// Stages hold their collaborators; inputs and outputs are per-invocation
// value objects.
type Operator[I any, O any] interface {
	Run(ctx context.Context, input I) (O, error)
}
