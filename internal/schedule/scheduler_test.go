package schedule

import (
	"math/rand/v2"
	"testing"

	"github.com/kestrelcc/kestrel/internal/fixture"
	"github.com/kestrelcc/kestrel/internal/instsel"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// buildSchedule lowers one randomly generated straight-line function and
// runs the scheduler over its single block, returning the graph Run
// scheduled (its edges and StartTimes remain valid) alongside the order
// Run produced.
func buildSchedule(desc *target.Description, rng *rand.Rand, nArgs, nInstrs int) (*Graph, []*mir.Instr) {
	gen := fixture.NewRandomGenerator(rng)
	f := gen.RandomStraightLine(nArgs, nInstrs)
	mf := mir.NewFunction(f)
	instsel.SelectFunction(desc, f, mf)
	mb := mf.Blocks[0]
	g := Build(desc, mb)
	order := Run(desc, g)
	return g, order
}

// posOf maps an Instr's identity to its index in order.
func posOf(order []*mir.Instr) map[*mir.Instr]int {
	pos := make(map[*mir.Instr]int, len(order))
	for i, mi := range order {
		pos[mi] = i
	}
	return pos
}

// TestScheduleIsTopologicalOrder checks invariant 2 of spec.md §8: the
// schedule order respects every real scheduling-graph edge.
func TestScheduleIsTopologicalOrder(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(1, 1))

	for i := 0; i < 200; i++ {
		g, order := buildSchedule(desc, rng, 1+rng.IntN(4), 1+rng.IntN(12))
		pos := posOf(order)
		for _, n := range g.Nodes {
			if n.IsSentinel() {
				continue
			}
			for _, e := range n.Out {
				if e.Sink.IsSentinel() {
					continue
				}
				if pos[e.Sink.MI] < pos[n.MI] {
					t.Fatalf("run %d: edge %d->%d violates program order: sink scheduled before source", i, n.ID, e.Sink.ID)
				}
			}
		}
	}
}

// TestScheduleRespectsMinDelay checks invariant 3: every edge's min-delay
// is honoured by the chosen cycle assignment.
func TestScheduleRespectsMinDelay(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(2, 2))

	for i := 0; i < 200; i++ {
		g, _ := buildSchedule(desc, rng, 1+rng.IntN(4), 1+rng.IntN(12))
		for _, n := range g.Nodes {
			for _, e := range n.Out {
				if e.Src.IsSentinel() || e.Sink.IsSentinel() {
					continue
				}
				if e.Sink.StartTime < e.Src.StartTime+e.MinDelay {
					t.Fatalf("run %d: edge min-delay %d violated: src@%d sink@%d",
						i, e.MinDelay, e.Src.StartTime, e.Sink.StartTime)
				}
			}
		}
	}
}

// TestScheduleRespectsIssueWidth checks invariant 4: no cycle issues more
// MIs than the target's issue width.
func TestScheduleRespectsIssueWidth(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(3, 3))

	for i := 0; i < 200; i++ {
		g, _ := buildSchedule(desc, rng, 1+rng.IntN(4), 1+rng.IntN(12))
		perCycle := map[int]int{}
		for _, n := range g.Nodes {
			perCycle[n.StartTime]++
		}
		for cycle, count := range perCycle {
			if count > desc.IssueWidth {
				t.Fatalf("run %d: cycle %d issued %d MIs, exceeds issue width %d", i, cycle, count, desc.IssueWidth)
			}
		}
	}
}

// TestEmptyBlockSchedulesToSingleCycle checks the boundary behaviour of
// spec.md §8: a block with just a terminator schedules to one cycle.
func TestEmptyBlockSchedulesToSingleCycle(t *testing.T) {
	desc := target.NewDescription()
	gen := fixture.NewRandomGenerator(rand.New(rand.NewPCG(4, 4)))
	f := gen.RandomStraightLine(0, 0)
	mf := mir.NewFunction(f)
	instsel.SelectFunction(desc, f, mf)
	mb := mf.Blocks[0]
	g := Build(desc, mb)
	Run(desc, g)

	cycles := map[int]bool{}
	for _, n := range g.Nodes {
		cycles[n.StartTime] = true
	}
	if len(cycles) > 1 {
		t.Fatalf("expected a single-cycle schedule, got %d distinct cycles", len(cycles))
	}
}
