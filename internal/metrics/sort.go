package metrics

import "sort"

// sortedKeys returns the map's keys in ascending order so that indexed wire
// parameters are assigned deterministically.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
