package dsgraph

import "github.com/kestrelcc/kestrel/internal/ir"

// BuildLocal constructs the local (intra-procedural) data-structure graph
// for a function (spec.md §4.6 "local pass"): one node per alloca and per
// used pointer-typed argument, a node per referenced global (created on
// first reference), edges installed for every pointer-valued store/load/GEP,
// and the scalar map recording which node each SSA pointer value currently
// denotes. Calls are recorded as call sites but not inlined here — that is
// the job of the bottom-up closure (closure.go).
func BuildLocal(f *ir.Function) *Graph {
	g := NewGraph(f)

	for _, a := range f.Args {
		if a.Type.IsPointer() && a.NumUses() > 0 {
			g.ScalarMap[a] = DSNodeHandle{Node: g.newNode(), Offset: 0}
		}
	}

	for _, b := range f.Blocks {
		for inst := b.First(); inst != nil; inst = inst.Next() {
			visitLocal(g, inst)
		}
	}
	return g
}

func visitLocal(g *Graph, inst *ir.Instruction) {
	switch inst.Op {
	case ir.OpAlloca:
		n := g.newNode()
		n.Flags |= FlagAlloca
		n.addType(0, inst.ResultType)
		g.ScalarMap[inst.Result()] = DSNodeHandle{Node: n, Offset: 0}

	case ir.OpCall:
		visitCallSite(g, inst)

	case ir.OpLoad:
		ptr := inst.Operand(0)
		h := g.handleFor(ptr)
		if h.IsNull() {
			return
		}
		r := h.Resolve()
		if r.Node != nil {
			r.Node.Flags |= FlagRead
			r.Node.addType(r.Offset, inst.ResultType)
		}
		if inst.ResultType.IsPointer() {
			loaded := getEdge(g, h, 0)
			g.ScalarMap[inst.Result()] = loaded
		}

	case ir.OpStore:
		val, ptr := inst.Operand(0), inst.Operand(1)
		h := g.handleFor(ptr)
		if h.IsNull() {
			return
		}
		r := h.Resolve()
		if r.Node != nil {
			r.Node.Flags |= FlagModified
			r.Node.addType(r.Offset, val.Type)
		}
		if val.Type.IsPointer() {
			valHandle := g.handleFor(val)
			if !valHandle.IsNull() {
				Merge(getEdge(g, h, 0), valHandle)
			}
		}

	case ir.OpGetElementPtr:
		base := inst.Operand(0)
		h := g.handleFor(base)
		if h.IsNull() {
			return
		}
		r := h.Resolve()
		g.ScalarMap[inst.Result()] = DSNodeHandle{Node: r.Node, Offset: r.Offset + gepConstantOffset(inst)}

	case ir.OpPhi:
		var merged DSNodeHandle
		first := true
		for i := 0; i < inst.NumOperands(); i++ {
			h := g.handleFor(inst.Operand(i))
			if h.IsNull() {
				continue
			}
			if first {
				merged = h
				first = false
				continue
			}
			Merge(merged, h)
		}
		if !first {
			g.ScalarMap[inst.Result()] = merged
		}

	case ir.OpCast:
		if inst.CastKind == ir.CastBitcast || inst.CastKind == ir.CastPtrToInt || inst.CastKind == ir.CastIntToPtr {
			if h := g.handleFor(inst.Operand(0)); !h.IsNull() {
				g.ScalarMap[inst.Result()] = h
			}
		}

	case ir.OpRet:
		if inst.NumOperands() == 1 {
			h := g.handleFor(inst.Operand(0))
			if !h.IsNull() {
				if g.ReturnNode.IsNull() {
					g.ReturnNode = h
				} else {
					Merge(g.ReturnNode, h)
				}
			}
		}
	}
}

// gepConstantOffset folds a GEP's index list into a single byte offset when
// every index is a compile-time constant. A variable index makes it return
// zero, discarding any constant offset already summed; the node itself is
// not folded.
func gepConstantOffset(inst *ir.Instruction) int {
	elemType := inst.Operand(0).Type
	if elemType.IsPointer() {
		elemType = elemType.Elem
	}
	off := 0
	for _, idx := range inst.GEPIndices {
		if idx.ValueKind() != ir.ConstValue {
			return 0
		}
		if elemType == nil {
			break
		}
		switch elemType.Kind {
		case ir.Struct:
			field := int(idx.ConstInt)
			for i := 0; i < field && i < len(elemType.Fields); i++ {
				off += elemType.Fields[i].SizeBytes()
			}
			if field < len(elemType.Fields) {
				elemType = elemType.Fields[field]
			}
		case ir.Array:
			off += int(idx.ConstInt) * elemType.Elem.SizeBytes()
			elemType = elemType.Elem
		default:
			off += int(idx.ConstInt) * elemType.SizeBytes()
		}
	}
	return off
}

func visitCallSite(g *Graph, inst *ir.Instruction) {
	cs := &CallSite{Call: inst}
	callee := inst.Operand(0)
	cs.Callee = callee
	if callee.ValueKind() == ir.FunctionValue {
		cs.CalleeName = callee.Name
	}

	if inst.ResultType.IsPointer() {
		n := g.newNode()
		cs.RetVal = DSNodeHandle{Node: n, Offset: 0}
		g.ScalarMap[inst.Result()] = cs.RetVal
	}

	for i := 1; i < inst.NumOperands(); i++ {
		arg := inst.Operand(i)
		if !arg.Type.IsPointer() {
			continue
		}
		h := g.handleFor(arg)
		if h.IsNull() {
			n := g.newNode()
			n.Flags |= FlagUnknown
			h = DSNodeHandle{Node: n, Offset: 0}
		}
		cs.Args = append(cs.Args, h)
	}

	g.CallSites = append(g.CallSites, cs)
}
