package tracker

// FlatTagNames computes the flattened tag-name set of a match from its
// ordered tag references: every distinct non-empty TagName, in first
// appearance order. This is the single chokepoint for the derived field;
// every write path that touches a match's tags must persist exactly this
// set in the same transaction as the match row.
func FlatTagNames(refs []TagRef) []string {
	seen := make(map[string]bool, len(refs))
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.TagName == "" || seen[ref.TagName] {
			continue
		}
		seen[ref.TagName] = true
		names = append(names, ref.TagName)
	}
	return names
}
