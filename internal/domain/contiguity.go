package domain

import "sort"

// SplitContiguous partitions a set of index positions into maximal runs of
// mutually adjacent positions: consecutive elements within a run differ by
// exactly step, and any two runs are separated by a gap larger than step.
// Input order does not matter and duplicates are discarded. Runs come back
// sorted, as do the positions within each run.
//
// Example: SplitContiguous([]int{1, 2, 5, 6, 7, 9, 11}, 1) returns
// [[1 2] [5 6 7] [9] [11]].
func SplitContiguous(positions []int, step int) [][]int {
	if len(positions) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(positions))
	unique := make([]int, 0, len(positions))
	for _, p := range positions {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Ints(unique)

	var runs [][]int
	run := []int{unique[0]}
	for _, p := range unique[1:] {
		if p-step == run[len(run)-1] {
			run = append(run, p)
			continue
		}
		runs = append(runs, run)
		run = []int{p}
	}
	return append(runs, run)
}

// longestRun returns the length of the longest run in a partition.
func longestRun(runs [][]int) int {
	longest := 0
	for _, run := range runs {
		if len(run) > longest {
			longest = len(run)
		}
	}
	return longest
}
