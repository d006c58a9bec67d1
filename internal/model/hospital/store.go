package hospital

import (
	"sort"
	"strings"
)

// SuggestionThreshold is the lowest severity score that attaches hospital suggestions to a reply.
const SuggestionThreshold = 40

// Store exposes the hospital directory to handlers and the triage service.
type Store interface {
	List() []Hospital
	Search(specialty string) []Hospital
	Suggest(score int) []Hospital
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Hospital
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied hospitals.
func NewMemoryStore(items []Hospital) *MemoryStore {
	return &MemoryStore{items: cloneAll(items)}
}

// List returns the whole directory.
func (s *MemoryStore) List() []Hospital {
	return cloneAll(s.items)
}

// Search filters the directory by a case-insensitive specialty fragment.
// An empty fragment matches everything.
func (s *MemoryStore) Search(specialty string) []Hospital {
	needle := strings.ToLower(strings.TrimSpace(specialty))
	if needle == "" {
		return s.List()
	}

	matches := make([]Hospital, 0, len(s.items))
	for _, item := range s.items {
		for _, sp := range item.Specialties {
			if strings.Contains(strings.ToLower(sp), needle) {
				matches = append(matches, clone(item))
				break
			}
		}
	}
	return matches
}

// Suggest returns the directory with open hospitals first when the score
// warrants a visit, nil otherwise.
func (s *MemoryStore) Suggest(score int) []Hospital {
	if score < SuggestionThreshold || len(s.items) == 0 {
		return nil
	}

	out := cloneAll(s.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsOpen && !out[j].IsOpen
	})
	return out
}

func clone(h Hospital) Hospital {
	h.Specialties = append([]string(nil), h.Specialties...)
	return h
}

func cloneAll(items []Hospital) []Hospital {
	out := make([]Hospital, 0, len(items))
	for _, item := range items {
		out = append(out, clone(item))
	}
	return out
}
