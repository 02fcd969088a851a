// Package roleset contains pure helpers over role ID sets. Role sets
// are plain string slices as delivered by the platform; helpers never
// mutate their inputs.
package roleset

// Added returns the role IDs present in after but not in before,
// preserving the order of after. Removed roles are never reported;
// only additions trigger new grants.
func Added(before, after []string) []string {
	if len(after) == 0 {
		return nil
	}
	prior := make(map[string]struct{}, len(before))
	for _, id := range before {
		prior[id] = struct{}{}
	}
	var added []string
	for _, id := range after {
		if _, ok := prior[id]; !ok {
			added = append(added, id)
		}
	}
	return added
}

// Contains reports whether the set holds the given role ID.
func Contains(set []string, id string) bool {
	for _, have := range set {
		if have == id {
			return true
		}
	}
	return false
}

// Exclude returns the members of set that are not in drop, preserving
// order.
func Exclude(set []string, drop ...string) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, id := range set {
		if !Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}
