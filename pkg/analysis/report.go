/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Grouping of analysis results by field count and fingerprint, and the
line-oriented text report built from the groups.
*/

package analysis

import (
	"fmt"
	"io"
	"sort"
)

// HashBucket holds files sharing one fingerprint
type HashBucket struct {
	Hash    uint64   `json:"hash"`
	Results []Result `json:"results"`
}

// FieldCountGroup holds the buckets for one field count
type FieldCountGroup struct {
	FieldCount int          `json:"field_count"`
	Buckets    []HashBucket `json:"buckets"`
}

// Files returns the number of results across all buckets
func (g FieldCountGroup) Files() int {
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Results)
	}
	return n
}

// Group orders results by field count, then hash, then file name and path.
// The input slice is not modified.
func Group(results []Result) []FieldCountGroup {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FieldCount != b.FieldCount {
			return a.FieldCount < b.FieldCount
		}
		if a.Hash != b.Hash {
			return a.Hash < b.Hash
		}
		if a.FileName != b.FileName {
			return a.FileName < b.FileName
		}
		return a.Path < b.Path
	})

	var groups []FieldCountGroup
	for _, r := range sorted {
		if len(groups) == 0 || groups[len(groups)-1].FieldCount != r.FieldCount {
			groups = append(groups, FieldCountGroup{FieldCount: r.FieldCount})
		}
		g := &groups[len(groups)-1]
		if len(g.Buckets) == 0 || g.Buckets[len(g.Buckets)-1].Hash != r.Hash {
			g.Buckets = append(g.Buckets, HashBucket{Hash: r.Hash})
		}
		b := &g.Buckets[len(g.Buckets)-1]
		b.Results = append(b.Results, r)
	}
	return groups
}

// WriteReport writes the grouped results. With detail, each file is followed by
// its per-field summaries.
func WriteReport(w io.Writer, groups []FieldCountGroup, detail bool) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "Field count: %d\n", g.FieldCount); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		for _, b := range g.Buckets {
			fmt.Fprintf(w, "\tHash: %016X (%d files)\n", b.Hash, len(b.Results))
			for _, r := range b.Results {
				fmt.Fprintf(w, "\t\t%s\t%s\n", r.FileName, r.Path)
				if !detail {
					continue
				}
				for _, line := range r.Fields {
					fmt.Fprintf(w, "\t\t\t%s\n", line)
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
