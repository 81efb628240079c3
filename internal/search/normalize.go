package search

import "strings"

// Query is the normalized form of a free-text user query. A single raw
// string expands into the variants the individual sources need: the
// lowercase original, a naive singular form, an optional author handle, and
// a wildcard flag for the archive matcher.
type Query struct {
	Raw      string
	Lower    string
	Singular string
	// Author is set when the raw query started with '@'; the sources then
	// switch to author-search mode.
	Author string
	// Wildcard means "match everything" for in-memory matchers.
	Wildcard bool
}

// Normalize turns a raw user query into a Query. It cannot fail: an empty
// string is a valid query and matches everything.
func Normalize(raw string) Query {
	trimmed := strings.TrimSpace(raw)
	q := Query{Raw: trimmed}

	if strings.HasPrefix(trimmed, "@") {
		q.Author = strings.TrimSpace(strings.TrimPrefix(trimmed, "@"))
	}

	q.Lower = strings.ToLower(trimmed)
	if q.Lower == "plugin" || q.Lower == "plugins" || q.Lower == "" {
		q.Wildcard = true
	}

	// Naive singularization: strip a trailing "s" on longer words so that
	// e.g. "templates" still matches "template".
	q.Singular = q.Lower
	if len(q.Lower) > 3 && strings.HasSuffix(q.Lower, "s") {
		q.Singular = q.Lower[:len(q.Lower)-1]
	}

	return q
}

// IsAuthor reports whether this is an author-search query.
func (q Query) IsAuthor() bool { return q.Author != "" }

// Matches reports whether any of the given fields contains the query,
// case-insensitively, in either its original or singular form.
func (q Query) Matches(fields ...string) bool {
	if q.Wildcard {
		return true
	}
	for _, field := range fields {
		lower := strings.ToLower(field)
		if strings.Contains(lower, q.Lower) || strings.Contains(lower, q.Singular) {
			return true
		}
	}
	return false
}

// MentionsVault reports whether the query itself talks about vaults, which
// disables the vault-repo exclusion filter.
func (q Query) MentionsVault() bool {
	return strings.Contains(q.Lower, "vault")
}

// MentionsTheme reports whether the query asks for themes.
func (q Query) MentionsTheme() bool {
	return strings.Contains(q.Lower, "theme")
}

// MentionsCSS reports whether the query asks for CSS snippets.
func (q Query) MentionsCSS() bool {
	return strings.Contains(q.Lower, "css") || strings.Contains(q.Lower, "snippet")
}
