package scan

import "fmt"

// Consolidated is a finding list in which no two entries share a message.
// It can only be produced by Consolidate, so downstream stages that accept a
// Consolidated value cannot receive a list that skipped or repeated the pass.
type Consolidated struct {
	findings []Finding
	counts   []int
	total    int
}

// Consolidate merges findings with identical messages, keeping the first
// occurrence and its fields. Representatives seen more than once get an
// " (x<count>)" suffix. Counting finishes before any message is rewritten so
// the suffix never changes a grouping key.
func Consolidate(findings []Finding) Consolidated {
	index := make(map[string]int, len(findings))
	reps := make([]Finding, 0, len(findings))
	counts := make([]int, 0, len(findings))

	for _, f := range findings {
		if i, ok := index[f.message]; ok {
			counts[i]++
			continue
		}
		index[f.message] = len(reps)
		reps = append(reps, f)
		counts = append(counts, 1)
	}

	for i, n := range counts {
		if n > 1 {
			reps[i] = reps[i].withMessage(fmt.Sprintf("%s (x%d)", reps[i].message, n))
		}
	}

	return Consolidated{findings: reps, counts: counts, total: len(findings)}
}

// RestoreConsolidated rebuilds a Consolidated list from persisted findings
// whose messages were annotated when first stored. counts may be nil, in
// which case every finding counts once.
func RestoreConsolidated(findings []Finding, counts []int) Consolidated {
	out := make([]Finding, len(findings))
	copy(out, findings)

	restored := make([]int, len(findings))
	total := 0
	for i := range restored {
		restored[i] = 1
		if i < len(counts) && counts[i] > 0 {
			restored[i] = counts[i]
		}
		total += restored[i]
	}
	return Consolidated{findings: out, counts: restored, total: total}
}

// Findings returns a copy of the consolidated findings in first-seen order
func (c Consolidated) Findings() []Finding {
	out := make([]Finding, len(c.findings))
	copy(out, c.findings)
	return out
}

// Counts returns the occurrence count of each representative, aligned with Findings
func (c Consolidated) Counts() []int {
	out := make([]int, len(c.counts))
	copy(out, c.counts)
	return out
}

// Len is the number of distinct findings
func (c Consolidated) Len() int {
	return len(c.findings)
}

// Total is the number of findings before merging
func (c Consolidated) Total() int {
	return c.total
}

// Messages returns the final, annotated message of every finding
func (c Consolidated) Messages() []string {
	out := make([]string, len(c.findings))
	for i, f := range c.findings {
		out[i] = f.message
	}
	return out
}
