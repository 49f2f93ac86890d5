package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Allocate runs the full C10 pipeline over mf in the order spec.md §4.5
// lays out: live-range construction, suggested-colour marking,
// interference-graph construction, coalescing, per-class colouring, and
// code patching.
func Allocate(desc *target.Description, mf *mir.Function) *LiveRanges {
	lrs := Build(mf)
	suggestColours(desc, mf, lrs)
	graphs := BuildInterference(desc, mf, lrs)
	Coalesce(desc, mf, lrs, graphs)
	Colour(desc, mf, graphs)
	Patch(desc, mf, lrs)
	return lrs
}
