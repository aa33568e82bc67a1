// Package adapter declares the capability the pipeline consumes to obtain
// per-company data. Concrete adapters live in subpackages; the runner only
// ever sees this interface.
package adapter

import (
	"context"

	"github.com/emreakdag/stockdesk/internal/dataset"
	"github.com/emreakdag/stockdesk/internal/symbols"
)

type Adapter interface {
	// Resolve maps a raw ticker reference to its canonical identity. Failures
	// carry the RESOLUTION error code.
	Resolve(ctx context.Context, ref string) (symbols.Info, error)
	// FetchDataset returns the normalized table bundle for a resolved symbol,
	// keyed by dataset type. Dates are inclusive; either may be empty.
	// Failures carry the FETCH error code.
	FetchDataset(ctx context.Context, symbol string, startDate, endDate string) (map[string]*dataset.Table, error)
}
