package scan

import "sort"

// DefaultPreviousScore is assumed for a prior record that carries no score
const DefaultPreviousScore = 100

// Comparison describes how a scan differs from the previous scan of the same target
type Comparison struct {
	NewIssues        []string
	ResolvedIssues   []string
	PersistentIssues []string
	RiskScoreChange  int
}

// Compare computes the message-set differences between two scans.
// Sets are returned sorted so comparisons are deterministic.
func Compare(current []string, currentScore int, previous []string, previousScore int, previousScored bool) Comparison {
	if !previousScored {
		previousScore = DefaultPreviousScore
	}

	cur := toSet(current)
	prev := toSet(previous)

	cmp := Comparison{
		NewIssues:        []string{},
		ResolvedIssues:   []string{},
		PersistentIssues: []string{},
		RiskScoreChange:  currentScore - previousScore,
	}
	for m := range cur {
		if _, ok := prev[m]; ok {
			cmp.PersistentIssues = append(cmp.PersistentIssues, m)
		} else {
			cmp.NewIssues = append(cmp.NewIssues, m)
		}
	}
	for m := range prev {
		if _, ok := cur[m]; !ok {
			cmp.ResolvedIssues = append(cmp.ResolvedIssues, m)
		}
	}

	sort.Strings(cmp.NewIssues)
	sort.Strings(cmp.ResolvedIssues)
	sort.Strings(cmp.PersistentIssues)
	return cmp
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
