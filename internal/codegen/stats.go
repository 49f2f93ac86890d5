package codegen

import "sort"

// RankReports orders reports worst-first by spill count, then by schedule
// length, the same shape as the teacher's pkg/result/table.go ranking
// rules by bytes-saved-then-cycles-saved via sort.Slice.
func RankReports(reports []*FunctionReport) []*FunctionReport {
	out := make([]*FunctionReport, len(reports))
	copy(out, reports)
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumSpilled != out[j].NumSpilled {
			return out[i].NumSpilled > out[j].NumSpilled
		}
		return out[i].ScheduleCycles > out[j].ScheduleCycles
	})
	return out
}

// TotalSpills sums NumSpilled across every report.
func TotalSpills(reports []*FunctionReport) int {
	total := 0
	for _, r := range reports {
		total += r.NumSpilled
	}
	return total
}
