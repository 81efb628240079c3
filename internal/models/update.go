package models

// ResolutionSource says where an update candidate's repository came from.
type ResolutionSource string

const (
	SourceOfficial ResolutionSource = "official" // community directory entry
	SourceTracked  ResolutionSource = "tracked"  // persisted repo mapping
	SourceDetected ResolutionSource = "detected" // resolved on this check
	SourceUnknown  ResolutionSource = "unknown"  // resolution failed
)

// VersionStatus classifies an installed plugin against its latest release.
type VersionStatus string

const (
	StatusUpdateAvailable VersionStatus = "update-available"
	StatusUpToDate        VersionStatus = "up-to-date"
	StatusLocalNewer      VersionStatus = "local-newer"
	StatusUnknown         VersionStatus = "unknown"
)

// UpdateCandidate is the per-plugin outcome of a check-for-updates pass.
// It is computed fresh on every check and never persisted, except that a
// successful detection writes its repository back into the mapping table.
type UpdateCandidate struct {
	PluginID         string           `json:"plugin_id"`
	InstalledVersion string           `json:"installed_version"`
	LatestVersion    string           `json:"latest_version,omitempty"`
	Repo             string           `json:"repo,omitempty"`
	Source           ResolutionSource `json:"source"`
	Status           VersionStatus    `json:"status"`
	NeedsUpdate      bool             `json:"needs_update"`
	Compatible       *bool            `json:"compatible,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// UpdateReport is the collect-and-report outcome of a bulk update. The batch
// always completes; failures are listed per repository, never raised.
type UpdateReport struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed"`
}
