package search

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected Query
	}{
		{
			name:     "lowercases and singularizes",
			raw:      "Templates",
			expected: Query{Raw: "Templates", Lower: "templates", Singular: "template"},
		},
		{
			name:     "short words keep their s",
			raw:      "css",
			expected: Query{Raw: "css", Lower: "css", Singular: "css"},
		},
		{
			name:     "bare plugin is a wildcard",
			raw:      "plugin",
			expected: Query{Raw: "plugin", Lower: "plugin", Singular: "plugin", Wildcard: true},
		},
		{
			name:     "bare plugins is a wildcard",
			raw:      "plugins",
			expected: Query{Raw: "plugins", Lower: "plugins", Singular: "plugins", Wildcard: true},
		},
		{
			name:     "empty query is a wildcard",
			raw:      "  ",
			expected: Query{Raw: "", Lower: "", Singular: "", Wildcard: true},
		},
		{
			name:     "at-prefix switches to author mode",
			raw:      "@pjeby",
			expected: Query{Raw: "@pjeby", Lower: "@pjeby", Singular: "@pjeby", Author: "pjeby"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.raw); got != tc.expected {
				t.Errorf("Normalize(%q) = %+v, want %+v", tc.raw, got, tc.expected)
			}
		})
	}
}

func TestQueryMatches(t *testing.T) {
	q := Normalize("Templates")
	if !q.Matches("Advanced template helper") {
		t.Error("singular form should match")
	}
	if !q.Matches("irrelevant", "My Templates") {
		t.Error("any field should be enough")
	}
	if q.Matches("calendar view") {
		t.Error("unrelated field should not match")
	}
	if !Normalize("plugins").Matches("anything at all") {
		t.Error("wildcard query should match everything")
	}
}

func TestQueryMentions(t *testing.T) {
	if !Normalize("vault sync").MentionsVault() {
		t.Error("expected vault mention")
	}
	if !Normalize("dark Theme").MentionsTheme() {
		t.Error("expected theme mention")
	}
	if !Normalize("css snippets").MentionsCSS() {
		t.Error("expected css mention")
	}
	if Normalize("calendar").MentionsVault() {
		t.Error("unexpected vault mention")
	}
}
