package models

// PluginManifest mirrors the manifest.json file that ships alongside every
// community plugin. Upstream publishes it in camelCase, so the JSON tags
// follow that convention rather than ours.
type PluginManifest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	MinAppVersion string `json:"minAppVersion,omitempty"`
	Description   string `json:"description,omitempty"`
	Author        string `json:"author,omitempty"`
	AuthorURL     string `json:"authorUrl,omitempty"`
	IsDesktopOnly bool   `json:"isDesktopOnly,omitempty"`
}

// CommunityPlugin is one entry of the official community plugin directory
// (community-plugins.json). The directory doubles as the authoritative
// plugin-id -> repository mapping.
type CommunityPlugin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Repo        string `json:"repo"`
}
