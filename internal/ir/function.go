package ir

// Function is an ordered sequence of basic blocks with a distinguished
// entry, an ordered sequence of argument values, and a function type
// (spec.md §3 "Function").
type Function struct {
	Name    string
	Type    *Type
	Args    []*Value
	Blocks  []*BasicBlock
	Entry   *BasicBlock
	Extern  bool // true for declarations with no body (DS-graph closure, spec.md §4.6)
}

// NewFunction creates an empty function with the given argument types and
// return type; blocks are added with AddBlock.
func NewFunction(name string, argTypes []*Type, retType *Type) *Function {
	f := &Function{Name: name, Type: &Type{Kind: FuncType, Elem: retType, Fields: argTypes}}
	f.Args = make([]*Value, len(argTypes))
	for i, t := range argTypes {
		f.Args[i] = newArgValue(f, i, t)
	}
	return f
}

// AddBlock appends a new, empty basic block to the function. The first
// block added becomes the entry block.
func (f *Function) AddBlock(name string) *BasicBlock {
	b := newBasicBlock(f, name)
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
	return b
}

// ReturnType returns the function's declared return type.
func (f *Function) ReturnType() *Type { return f.Type.Elem }

// Module is the top-level compilation unit: an ordered list of functions
// (spec.md §6 "Input").
type Module struct {
	Functions []*Function
	Globals   []*Value
}

func NewModule() *Module { return &Module{} }

func (m *Module) AddFunction(f *Function) { m.Functions = append(m.Functions, f) }

func (m *Module) AddGlobal(g *Value) { m.Globals = append(m.Globals, g) }

func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
