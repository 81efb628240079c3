package resolve

import "strings"

// normalizeToken lowercases a token and collapses every run of
// non-alphanumeric characters into a single hyphen, with no leading or
// trailing hyphen left behind.
func normalizeToken(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// compactToken is the normalized token with the hyphens removed as well.
func compactToken(s string) string {
	return strings.ReplaceAll(normalizeToken(s), "-", "")
}

// Candidates builds the ordered, deduplicated candidate repository list for
// an owner handle and a plugin's id and display name. The order encodes how
// plugin authors actually name their repos, most common pattern first.
func Candidates(owner, pluginID, name string) []string {
	id := normalizeToken(pluginID)
	nm := normalizeToken(name)

	patterns := []string{
		"obsidian-" + id,
		id,
		compactToken(pluginID),
		"obsidian-" + nm,
		nm,
		compactToken(name),
		"obsidian-plugin-" + id,
	}

	seen := make(map[string]bool)
	candidates := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" || strings.HasSuffix(p, "-") {
			continue
		}
		full := owner + "/" + p
		if seen[full] {
			continue
		}
		seen[full] = true
		candidates = append(candidates, full)
	}
	return candidates
}
