package dataset

import (
	"fmt"
	"strings"
)

// IndexedRequirement is a requirement joined with the section it hangs
// from. LegalBaseRef falls back to the owning section id.
type IndexedRequirement struct {
	Requirement
	SectionID string
}

// RequirementIndex provides id lookup over all requirements in the legal
// structure. Built once after load; read-only afterwards.
type RequirementIndex struct {
	byID     map[string]IndexedRequirement
	sections map[string]*Section
}

// NewRequirementIndex walks the legal structure and indexes every
// requirement and section by id.
func NewRequirementIndex(legal *LegalDocument) *RequirementIndex {
	idx := &RequirementIndex{
		byID:     make(map[string]IndexedRequirement),
		sections: make(map[string]*Section),
	}
	Walk(legal.Structure, func(sec *Section) {
		idx.sections[sec.ID] = sec
		for _, r := range sec.Requirements {
			if r.LegalBaseRef == "" {
				r.LegalBaseRef = sec.ID
			}
			idx.byID[r.ID] = IndexedRequirement{Requirement: r, SectionID: sec.ID}
		}
	})
	return idx
}

// Requirement looks up a requirement by id.
func (idx *RequirementIndex) Requirement(id string) (IndexedRequirement, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Section looks up a section by id.
func (idx *RequirementIndex) Section(id string) (*Section, bool) {
	s, ok := idx.sections[id]
	return s, ok
}

// Len returns the number of indexed requirements.
func (idx *RequirementIndex) Len() int {
	return len(idx.byID)
}

// SectionLabel renders the human label of a section, e.g. "Artículo 10".
func SectionLabel(sec *Section) string {
	kind := sec.Kind
	if kind == "" {
		kind = "sección"
	}
	runes := []rune(kind)
	label := strings.ToUpper(string(runes[0])) + string(runes[1:])
	if sec.Number != "" {
		label = fmt.Sprintf("%s %s", label, sec.Number)
	}
	return label
}
