// Package instsel covers each basic block's instruction forest with target
// machine instruction patterns and emits an MI sequence per root (spec.md
// §1 component C6, §4.2 "Pattern selector").
//
// The reference design is a table-driven bottom-up tree-pattern matcher
// with chain and production rules (spec.md §4.2 "Matching protocol"). This
// implementation instead walks each tree recursively and dispatches on the
// node's op-label directly: the representative production policies spec.md
// §4.2 enumerates (constant materialisation, FP/int conversion via scratch
// slot, constant multiply/divide lowering, set-compare-to-branch, narrowing
// casts, memory addressing, call lowering) are each implemented as one
// lowering function, which a real chain/production-rule table would have
// selected at runtime. The externally observable contract — one MI sequence
// per root, folded sub-trees generating nothing of their own — is
// preserved; each lowering function's comment states the MI sequence it
// emits. See DESIGN.md.
package instsel

import (
	"github.com/kestrelcc/kestrel/internal/forest"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Selector holds the state threaded through one function's lowering: the
// read-only target description, the machine-IR function being built, and
// the IR instruction currently in flight (for InstrCode/temp bookkeeping).
type Selector struct {
	Desc *target.Description
	MF   *mir.Function

	block   *mir.Block
	current *ir.Instruction
}

// SelectFunction lowers every basic block of src into mf by forest
// construction followed by per-root tree covering.
func SelectFunction(desc *target.Description, src *ir.Function, mf *mir.Function) {
	s := &Selector{Desc: desc, MF: mf}
	for _, b := range src.Blocks {
		s.block = mf.BlockFor(b)
		f := forest.BuildBlock(b)
		for _, root := range f.Roots {
			s.current = rootInstr(root)
			s.lowerRoot(root)
		}
	}
	EliminatePhis(desc, src, mf)
}

func rootInstr(n *forest.Node) *ir.Instruction {
	if n.Inst != nil {
		return n.Inst
	}
	return nil
}

// emit appends mi to the current block and records it under the current IR
// instruction's machine-code record (spec.md §3 "Machine code for an IR
// instruction").
func (s *Selector) emit(mi *mir.Instr) {
	mi.Source = s.current
	s.block.Append(mi)
	if s.current != nil {
		code := s.MF.CodeFor(s.current)
		code.MIs = append(code.MIs, mi)
	}
}

func (s *Selector) newTemp(t *ir.Type) *ir.Value {
	if s.current != nil {
		return s.MF.CodeFor(s.current).NewTemp(t)
	}
	return ir.NewMachineTemp(t)
}

func regClassOf(t *ir.Type) target.RegClass {
	if t != nil && t.IsFloatingPoint() {
		return target.FloatClass
	}
	return target.IntClass
}

// lowerRoot dispatches a tree root to its production policy and returns the
// operand holding its result (unused by callers at the root level, but
// shared with lowerTree for folded interior nodes).
func (s *Selector) lowerRoot(n *forest.Node) *mir.Operand {
	return s.lowerTree(n)
}

// lowerTree lowers n (leaf or interior) and returns the operand that names
// its value: an immediate/label operand for leaves, or the destination
// register the node's chosen production wrote its result into.
func (s *Selector) lowerTree(n *forest.Node) *mir.Operand {
	if n == nil {
		return nil
	}
	switch n.Label {
	case forest.LabelConstLeaf:
		return s.constOperand(n.ConstLeaf)
	case forest.LabelVRegLeaf:
		return s.vregOperand(n.VRegLeaf)
	case forest.LabelBlockLabelLeaf:
		return mir.PCRelLabel(n.LabelLeaf.Label)
	case forest.LabelList:
		// List nodes are only ever visited through their parent's explicit
		// child walk (lowerOperandList); reaching here means a bug in the
		// tree build, not a selector failure mode spec.md §4.1/4.2 define.
		return nil
	}
	return s.lowerInstr(n)
}

// vregOperand names a value already resident in a virtual register: an
// argument, a global, a machine temp, or another root's result.
func (s *Selector) vregOperand(v *ir.Value) *mir.Operand {
	return mir.VReg(v, regClassOf(v.Type), false, true)
}

// resultOperand is the def-side operand for an instruction's own result.
func (s *Selector) resultOperand(v *ir.Value) *mir.Operand {
	return mir.VReg(v, regClassOf(v.Type), true, false)
}

// lowerOperandList flattens a (possibly absent) right-leaning list-node
// chain back into a flat operand slice, lowering each leaf/subtree as it
// goes — used by call/phi/indexed-memory lowering (spec.md §4.1 "Operand
// tree construction").
func (s *Selector) lowerOperandList(n *forest.Node) []*mir.Operand {
	var out []*mir.Operand
	for n != nil {
		if n.Label == forest.LabelList {
			out = append(out, s.lowerTree(n.Left))
			n = n.Right
			continue
		}
		out = append(out, s.lowerTree(n))
		break
	}
	return out
}

func (s *Selector) lowerInstr(n *forest.Node) *mir.Operand {
	switch n.Label {
	case forest.LabelRetValue, forest.Label(ir.OpRet), forest.Label(ir.OpRetVoid):
		return s.lowerRet(n)
	case forest.Label(ir.OpBr):
		return s.lowerBr(n)
	case forest.LabelCondBranch:
		return s.lowerCondBr(n)
	case forest.Label(ir.OpPhi):
		return s.lowerPhi(n)
	case forest.Label(ir.OpCall):
		return s.lowerCall(n)
	case forest.Label(ir.OpAlloca), forest.LabelAllocaN:
		return s.lowerAlloca(n)
	case forest.Label(ir.OpLoad), forest.LabelIndexedLoad:
		return s.lowerLoad(n)
	case forest.Label(ir.OpStore):
		return s.lowerStore(n)
	case forest.Label(ir.OpGetElementPtr), forest.LabelIndexedGEP:
		return s.lowerGEP(n)
	case forest.LabelSetCC:
		return s.lowerSetCC(n)
	case forest.Label(ir.OpCast),
		forest.LabelCastToBool, forest.LabelCastToU8, forest.LabelCastToS8,
		forest.LabelCastToU16, forest.LabelCastToS16, forest.LabelCastToU32,
		forest.LabelCastToS32, forest.LabelCastToU64, forest.LabelCastToS64,
		forest.LabelCastToFloat, forest.LabelCastToDouble, forest.LabelCastToPointer:
		return s.lowerCast(n)
	case forest.Label(ir.OpAdd), forest.Label(ir.OpSub), forest.Label(ir.OpMul),
		forest.Label(ir.OpSDiv), forest.Label(ir.OpUDiv), forest.Label(ir.OpSRem), forest.Label(ir.OpURem),
		forest.LabelBitwiseAnd, forest.LabelLogicalAnd, forest.LabelBitwiseOr, forest.LabelLogicalOr,
		forest.LabelBitwiseXor, forest.LabelLogicalXor, forest.Label(ir.OpShl), forest.Label(ir.OpLShr), forest.Label(ir.OpAShr),
		forest.Label(ir.OpFAdd), forest.Label(ir.OpFSub), forest.Label(ir.OpFMul), forest.Label(ir.OpFDiv):
		return s.lowerBinOp(n)
	case forest.LabelBitwiseNot, forest.LabelLogicalNot:
		return s.lowerNot(n)
	case forest.Label(ir.OpFNeg):
		return s.lowerFNeg(n)
	default:
		// Unrecognised opcode: spec.md §4.1 "never fails" — emit a plain
		// NOP placeholder (no tag of the node) so downstream passes still
		// see one MI per root.
		mi := &mir.Instr{Op: target.Nop, IsNop: true}
		s.emit(mi)
		return nil
	}
}
