// Package registry holds the static reference data this service aggregates
// by: the agency list with its CFR references, and the CFR title names.
// Both are embedded JSON documents loaded once into an immutable in-memory
// index; nothing mutates them after initialization.
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"regpulse/pkg/platform/sentinel"
)

//go:embed agencies.json
var agenciesJSON []byte

//go:embed titles.json
var titlesJSON []byte

// CFRRef points an agency at one (title, chapter) slice of the CFR.
// Chapter may be empty for subtitle-level references; those cannot be mapped
// to stored metric records and are excluded from aggregation.
type CFRRef struct {
	Title   int    `json:"title"`
	Chapter string `json:"chapter"`
}

// Agency is one regulatory agency and its ordered CFR references.
type Agency struct {
	Name          string   `json:"name"`
	CFRReferences []CFRRef `json:"cfr_references"`
}

// ChapterRefs returns the agency's references that carry a chapter, in order.
func (a Agency) ChapterRefs() []CFRRef {
	refs := make([]CFRRef, 0, len(a.CFRReferences))
	for _, ref := range a.CFRReferences {
		if ref.Chapter != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Title is one of the fifty CFR titles.
type Title struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Registry is the loaded, read-only reference index.
type Registry struct {
	agencies []Agency
	byName   map[string]Agency
	titles   map[int]Title
}

// Load parses the embedded reference data. Agencies are sorted by name at
// load time so listings are deterministic.
func Load() (*Registry, error) {
	var agencies []Agency
	if err := json.Unmarshal(agenciesJSON, &agencies); err != nil {
		return nil, fmt.Errorf("parse agencies.json: %w", err)
	}
	sort.Slice(agencies, func(i, j int) bool {
		return agencies[i].Name < agencies[j].Name
	})

	var titles []Title
	if err := json.Unmarshal(titlesJSON, &titles); err != nil {
		return nil, fmt.Errorf("parse titles.json: %w", err)
	}

	r := &Registry{
		agencies: agencies,
		byName:   make(map[string]Agency, len(agencies)),
		titles:   make(map[int]Title, len(titles)),
	}
	for _, a := range agencies {
		r.byName[a.Name] = a
	}
	for _, t := range titles {
		r.titles[t.ID] = t
	}
	return r, nil
}

// Agencies returns all agencies ordered by name.
func (r *Registry) Agencies() []Agency {
	return append([]Agency{}, r.agencies...)
}

// AgencyByName looks an agency up by its exact display name.
func (r *Registry) AgencyByName(name string) (Agency, error) {
	a, ok := r.byName[name]
	if !ok {
		return Agency{}, fmt.Errorf("agency %q: %w", name, sentinel.ErrNotFound)
	}
	return a, nil
}

// TitleByID looks a CFR title up by number (1-50).
func (r *Registry) TitleByID(id int) (Title, error) {
	t, ok := r.titles[id]
	if !ok {
		return Title{}, fmt.Errorf("cfr title %d: %w", id, sentinel.ErrNotFound)
	}
	return t, nil
}

// Titles returns all CFR titles ordered by number.
func (r *Registry) Titles() []Title {
	out := make([]Title, 0, len(r.titles))
	for _, t := range r.titles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
