package codegen

import (
	"encoding/gob"
	"os"
)

// CompileReport is the persisted shape of one compile run: every
// function's report plus the run's total spill count, the same pattern as
// pkg/result/checkpoint.go's Checkpoint — a gob-encoded struct saved and
// reloaded across CLI invocations so `selftest --baseline` can diff a run
// against a saved baseline.
type CompileReport struct {
	Functions   []*FunctionReport
	TotalSpills int
}

func init() {
	gob.Register(FunctionReport{})
}

// NewCompileReport summarises reports into a persistable CompileReport.
func NewCompileReport(reports []*FunctionReport) *CompileReport {
	return &CompileReport{Functions: reports, TotalSpills: TotalSpills(reports)}
}

// SaveCheckpoint writes a CompileReport to path.
func SaveCheckpoint(path string, r *CompileReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(r)
}

// LoadCheckpoint reads a CompileReport previously written by SaveCheckpoint.
func LoadCheckpoint(path string) (*CompileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r CompileReport
	if err := gob.NewDecoder(f).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
