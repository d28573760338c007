package tabs

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces a URL to host + path + query for duplicate
// detection. The host is lowercased, a trailing slash on the path is
// stripped, and the fragment is discarded — two URLs differing only by
// fragment are duplicates, two differing by query string are not.
// Unparsable input is returned as-is so such tabs still group under
// their raw string instead of being dropped.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	key := strings.ToLower(u.Host) + strings.TrimSuffix(u.Path, "/")
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// FindDuplicates partitions tabs into duplicate groups, returning only
// groups of two or more. Group order follows the first occurrence of
// each key; tabs within a group keep inventory order.
func FindDuplicates(all []Tab) [][]Tab {
	byKey := make(map[string]int)
	var groups [][]Tab

	for _, tab := range all {
		key := NormalizeURL(tab.URL)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(groups)
			groups = append(groups, []Tab{tab})
			continue
		}
		groups[idx] = append(groups[idx], tab)
	}

	var dupes [][]Tab
	for _, g := range groups {
		if len(g) >= 2 {
			dupes = append(dupes, g)
		}
	}
	return dupes
}

// DuplicateIDSet flattens duplicate groups into the set of tab IDs that
// belong to any group.
func DuplicateIDSet(groups [][]Tab) map[string]bool {
	ids := make(map[string]bool)
	for _, g := range groups {
		for _, tab := range g {
			ids[tab.ID] = true
		}
	}
	return ids
}

// DuplicateCount is the number of tabs that could be closed without
// losing a page: group size minus one, summed over all groups.
func DuplicateCount(groups [][]Tab) int {
	n := 0
	for _, g := range groups {
		n += len(g) - 1
	}
	return n
}
