package codegen

import (
	"fmt"

	"github.com/kestrelcc/kestrel/internal/ir"
)

// PassError is the single error type every intra-core pass returns: all
// failures inside the core are fatal (spec.md §7), carrying the failing
// pass name and, when available, the offending IR value, wrapped
// fmt.Errorf-style the way pkg/gpu/cuda.go wraps subprocess failures in
// the teacher.
type PassError struct {
	Pass  string
	Value *ir.Value
	Err   error
}

func (e *PassError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %v (value %v)", e.Pass, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }

func passErrorf(pass string, v *ir.Value, format string, args ...interface{}) error {
	return &PassError{Pass: pass, Value: v, Err: fmt.Errorf(format, args...)}
}
