package settings

// Patch is a set of field changes for one settings section.
type Patch map[string]any

// ApplyPatch returns a new record with patch shallow-merged into the named
// section. Sibling sections are untouched, the merge happens at the
// sub-object level only, and the input record is not modified.
func ApplyPatch(current Record, section string, patch Patch) Record {
	next := current.Clone()
	if next == nil {
		next = Record{}
	}

	merged := make(map[string]any, len(next[section])+len(patch))
	for k, v := range next[section] {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	next[section] = merged
	return next
}
