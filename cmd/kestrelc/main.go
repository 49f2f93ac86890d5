package main

import (
	"fmt"
	"os"

	"github.com/kestrelcc/kestrel/internal/codegen"
	"github.com/kestrelcc/kestrel/internal/fixture"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/logx"
	"github.com/kestrelcc/kestrel/internal/target"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kestrelc",
		Short: "kestrelc — drive the code-generation core over a fixture module",
	}

	var debugFlag string
	var checkpointPath string

	compileCmd := &cobra.Command{
		Use:   "compile [fixture]",
		Short: "run the full per-function pipeline over a fixture module and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "add"
			if len(args) > 0 {
				name = args[0]
			}
			m, err := loadFixture(name)
			if err != nil {
				return err
			}

			log := logx.New(os.Stderr, logx.ParseLevel(debugFlag))
			desc := target.NewDescription()

			fmt.Printf("kestrelc compile: fixture=%s debug=%s\n", name, logx.ParseLevel(debugFlag))
			reports, err := codegen.CompileModule(desc, m, log)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			for _, r := range codegen.RankReports(reports) {
				fmt.Printf("  %-12s blocks=%-3d mis=%-4d spilled=%-3d cycles=%d\n",
					r.Name, r.NumBlocks, r.NumMIs, r.NumSpilled, r.ScheduleCycles)
			}
			fmt.Printf("total spills: %d\n", codegen.TotalSpills(reports))

			if checkpointPath != "" {
				if err := codegen.SaveCheckpoint(checkpointPath, codegen.NewCompileReport(reports)); err != nil {
					return fmt.Errorf("save checkpoint: %w", err)
				}
			}
			return nil
		},
	}
	compileCmd.Flags().StringVar(&debugFlag, "debug", "none", "debug output: none, mc, schedule, graphs")
	compileCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "write a CompileReport checkpoint to this path")

	var verbose bool
	var baselinePath string
	selftestCmd := &cobra.Command{
		Use:   "selftest",
		Short: "run the scenario self-tests and report pass/fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logx.New(os.Stderr, logx.ParseLevel(debugFlag))
			desc := target.NewDescription()

			ok := runScenarios(desc, log, verbose)

			if baselinePath != "" {
				reports, err := collectAllReports(desc, log)
				if err != nil {
					return err
				}
				if err := compareToBaseline(baselinePath, reports, verbose); err != nil {
					fmt.Fprintf(os.Stderr, "baseline diff: %v\n", err)
					ok = false
				}
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
	selftestCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-scenario detail")
	selftestCmd.Flags().StringVar(&baselinePath, "baseline", "", "diff this run's CompileReport against a saved checkpoint")
	selftestCmd.Flags().StringVar(&debugFlag, "debug", "none", "debug output: none, mc, schedule, graphs")

	rootCmd.AddCommand(compileCmd, selftestCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadFixture(name string) (*ir.Module, error) {
	switch name {
	case "add":
		return singleFunctionModule(fixture.SimpleAdd()), nil
	case "max":
		return singleFunctionModule(fixture.BranchMax()), nil
	case "loopsum":
		return singleFunctionModule(fixture.LoopSum()), nil
	case "memchase":
		return singleFunctionModule(fixture.MemoryChase(ir.TInt64)), nil
	case "callchain":
		return fixture.CallChain(), nil
	case "selfrecursive":
		return fixture.SelfRecursive(), nil
	default:
		return nil, fmt.Errorf("unknown fixture %q (want add, max, loopsum, memchase, callchain, selfrecursive)", name)
	}
}

func singleFunctionModule(f *ir.Function) *ir.Module {
	m := &ir.Module{}
	m.AddFunction(f)
	return m
}

func collectAllReports(desc *target.Description, log *logx.Logger) ([]*codegen.FunctionReport, error) {
	var all []*codegen.FunctionReport
	for _, name := range []string{"add", "max", "loopsum", "memchase", "callchain", "selfrecursive"} {
		m, err := loadFixture(name)
		if err != nil {
			return nil, err
		}
		reports, err := codegen.CompileModule(desc, m, log)
		if err != nil {
			return nil, err
		}
		all = append(all, reports...)
	}
	return all, nil
}

func compareToBaseline(path string, reports []*codegen.FunctionReport, verbose bool) error {
	baseline, err := codegen.LoadCheckpoint(path)
	if err != nil {
		return err
	}
	current := codegen.NewCompileReport(reports)
	if current.TotalSpills != baseline.TotalSpills {
		return fmt.Errorf("total spills changed: baseline=%d current=%d", baseline.TotalSpills, current.TotalSpills)
	}
	if verbose {
		fmt.Printf("baseline spills=%d current spills=%d: match\n", baseline.TotalSpills, current.TotalSpills)
	}
	return nil
}
