// Package search provides a simple token-scoring lookup over the legal
// library: sections and requirements, title hits weighing more than body
// hits. It is presentation plumbing, not part of the decision core.
package search

import (
	"sort"
	"strings"

	"github.com/obralex/obralex/internal/dataset"
)

// Kind filters results by entry type.
const (
	KindAll         = "all"
	KindSection     = "section"
	KindRequirement = "requirement"
)

const maxResults = 50

// Result is one search hit.
type Result struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	SectionID string `json:"base,omitempty"`
}

type entry struct {
	Result
	title string // lowercased
	text  string // lowercased body
}

// Index is a flat token index over the legal structure. Built once at
// startup; read-only afterwards.
type Index struct {
	entries []entry
}

// NewIndex walks the legal document and indexes sections and their
// requirements.
func NewIndex(legal *dataset.LegalDocument) *Index {
	var entries []entry
	dataset.Walk(legal.Structure, func(sec *dataset.Section) {
		title := strings.TrimSpace(dataset.SectionLabel(sec) + " — " + sec.Name)
		entries = append(entries, entry{
			Result: Result{Kind: KindSection, ID: sec.ID, Title: title},
			title:  strings.ToLower(title),
			text:   strings.ToLower(sec.Summary),
		})
		for _, r := range sec.Requirements {
			name := r.Name
			if name == "" {
				name = r.ID
			}
			entries = append(entries, entry{
				Result: Result{Kind: KindRequirement, ID: r.ID, Title: name, SectionID: sec.ID},
				title:  strings.ToLower(name),
				text:   strings.ToLower(r.Name + " " + r.Description + " " + r.Entity),
			})
		}
	})
	return &Index{entries: entries}
}

// Search scores entries by token: 3 points per title hit, 1 per body
// hit. Results sort by score descending, capped at 50.
func (idx *Index) Search(query, kind string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	tokens := strings.Fields(q)

	type scored struct {
		res   Result
		score int
	}
	var hits []scored
	for _, e := range idx.entries {
		if kind != "" && kind != KindAll && e.Kind != kind {
			continue
		}
		score := 0
		for _, tk := range tokens {
			if strings.Contains(e.title, tk) {
				score += 3
			}
			if strings.Contains(e.text, tk) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{res: e.Result, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = h.res
	}
	return results
}
