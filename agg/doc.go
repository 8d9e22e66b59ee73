// Package agg defines the aggregate grids produced by rasterization and the
// reductions that fill them.
//
// A reduction describes how the rows falling into one canvas cell collapse
// into a single number: their count, the sum of a value column, a running
// mean, and so on. The canvas drives the process; this package owns the
// per-cell math and the merge step that combines per-chunk partial results.
//
// # Overview
//
// Rasterization runs in three phases:
//
//  1. **Accumulate**: each source chunk is folded into a State, one cell
//     update per row.
//  2. **Merge**: per-chunk states are combined in chunk order, so order
//     sensitive reductions such as First and Last stay correct under
//     parallel aggregation.
//  3. **Finalize**: the merged state is converted into an immutable Grid of
//     float64 cells.
//
// # Reductions
//
// Scalar reductions produce one value per cell:
//
//	agg.Count()        // rows per cell
//	agg.Any()          // 1 if any row hit the cell
//	agg.Sum("value")   // sum of a column
//	agg.Min("value")   // minimum of a column
//	agg.Max("value")   // maximum of a column
//	agg.Mean("value")  // arithmetic mean of a column
//	agg.Var("value")   // population variance of a column
//	agg.Std("value")   // population standard deviation
//	agg.First("value") // first value in row order
//	agg.Last("value")  // last value in row order
//
// Categorical reductions partition each cell by a category column and apply
// a scalar reduction per category:
//
//	agg.CountCat("species")          // per-category row counts
//	agg.By("species", agg.Sum("w"))  // per-category sums
//
// Cells no row ever touched finalize to NaN, except Count and Any which
// finalize to zero. Downstream shading treats NaN and zero counts as empty.
package agg
