// Package forecast provides the numeric primitives behind financial
// projections: ordinary least squares regression over a monthly series,
// moving averages, bounded forward projection and a heuristic confidence
// score. The package is pure computation over float64 slices and performs
// no I/O; callers own the mapping between ledger data and series values.
package forecast
