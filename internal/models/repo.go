package models

// SourceInfo contains static information about a search source.
type SourceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RepoResult represents a single repository-shaped search result, regardless
// of which source produced it. DesktopOnly stays nil until a side-fetch of
// the repository's manifest resolves it.
type RepoResult struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	OwnerLogin  string `json:"owner_login"`
	DesktopOnly *bool  `json:"desktop_only,omitempty"`
}

// Owner returns the "owner" half of FullName. Falls back to OwnerLogin when
// FullName has no slash.
func (r *RepoResult) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return r.OwnerLogin
}

// ForumHit is a discussion-forum search result. Forum hits are not
// repository-shaped and skip the repository classifier entirely.
type ForumHit struct {
	TopicID int    `json:"topic_id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url"`
}

// ReleaseAsset is a named downloadable file attached to a tagged release.
type ReleaseAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Release is a tagged release in the code-hosting API.
type Release struct {
	TagName string         `json:"tag_name"`
	Assets  []ReleaseAsset `json:"assets"`
}

// Asset returns the release asset with the exact given file name, or nil.
func (r *Release) Asset(name string) *ReleaseAsset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}
