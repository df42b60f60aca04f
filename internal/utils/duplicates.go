package utils

// SeenFilter drops repeated keys while preserving first-seen order
type SeenFilter struct {
	seen map[string]struct{}
}

// NewSeenFilter creates a new filter that already excludes the given keys
func NewSeenFilter(exclude ...string) *SeenFilter {
	seen := make(map[string]struct{}, len(exclude))
	for _, k := range exclude {
		seen[k] = struct{}{}
	}
	return &SeenFilter{seen: seen}
}

// ShouldInclude returns true the first time a key is offered
func (f *SeenFilter) ShouldInclude(key string) bool {
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// Len is the number of keys seen so far
func (f *SeenFilter) Len() int {
	return len(f.seen)
}
