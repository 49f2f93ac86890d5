// Package schedule builds the per-basic-block scheduling dependency graph
// and runs the priority-driven list scheduler over it (spec.md §1
// components C8 and C9).
package schedule

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// DepType classifies a scheduling-graph edge (spec.md §3 "Scheduling-graph
// edge").
type DepType int

const (
	DepControl DepType = iota
	DepMemory
	DepDefUse
	DepMachineRegister
	DepResource
)

// OrderFlag is one bit of an edge's order-flag set.
type OrderFlag uint8

const (
	OrderTrue OrderFlag = 1 << iota
	OrderAnti
	OrderOutput
	OrderNonData
)

// Node is one scheduling-graph node: an MI (or a root/leaf sentinel), its
// position in the original block, and its latency (spec.md §3
// "Scheduling-graph node").
type Node struct {
	ID      int
	MI      *mir.Instr // nil for the two sentinels
	Pos     int
	Latency int

	In, Out []*Edge

	// Filled in by the scheduler.
	Delay     int // longest path to the leaf sentinel
	StartTime int
	Scheduled bool
}

func (n *Node) IsSentinel() bool { return n.MI == nil }

// Edge is one scheduling-graph dependency (spec.md §3 "Scheduling-graph
// edge").
type Edge struct {
	Src, Sink *Node
	Dep       DepType
	Order     OrderFlag
	MinDelay  int
	Payload   interface{}
}

// Graph is one basic block's scheduling dependency DAG, plus the two
// sentinel nodes every real node ultimately connects to.
type Graph struct {
	Block *mir.Block
	Nodes []*Node // in original program order, sentinels excluded
	Root  *Node
	Leaf  *Node

	byInstr map[*mir.Instr]*Node
}

func newGraph(b *mir.Block) *Graph {
	g := &Graph{
		Block:   b,
		Root:    &Node{ID: -1},
		Leaf:    &Node{ID: -2},
		byInstr: make(map[*mir.Instr]*Node),
	}
	return g
}

func (g *Graph) nodeFor(mi *mir.Instr) *Node { return g.byInstr[mi] }

func addEdge(src, sink *Node, dep DepType, order OrderFlag, minDelay int, payload interface{}) {
	e := &Edge{Src: src, Sink: sink, Dep: dep, Order: order, MinDelay: minDelay, Payload: payload}
	src.Out = append(src.Out, e)
	sink.In = append(sink.In, e)
}

// Build constructs the scheduling graph for b following the seven
// edge-construction steps of spec.md §4.3, in order.
func Build(desc *target.Description, b *mir.Block) *Graph {
	g := newGraph(b)
	for i, mi := range b.Instrs {
		info := desc.Info(mi.Op)
		n := &Node{ID: i, MI: mi, Pos: i, Latency: info.LatencyMax}
		g.Nodes = append(g.Nodes, n)
		g.byInstr[mi] = n
	}

	addControlDependenceEdges(desc, g)
	addMemoryEdges(g)
	addCallCCEdges(g)
	addSSADefUseEdges(g)
	addNonSSADefUseEdges(g)
	addMachineRegisterEdges(g)
	addRootLeafEdges(g)

	computeDelays(g)
	return g
}
