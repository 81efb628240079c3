package search

import (
	"fmt"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// Source is the contract every repository-shaped search backend implements.
// The forum client is deliberately not a Source: its results are discussion
// topics, not repositories, and they bypass the repository classifier.
type Source interface {
	Info() models.SourceInfo
	Search(q Query) ([]models.RepoResult, error)
}

var registry = make(map[string]Source)

// Register adds a new source to the registry. It's called at startup.
func Register(s Source) {
	info := s.Info()
	if _, exists := registry[info.ID]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("search source with ID '%s' is already registered", info.ID))
	}
	registry[info.ID] = s
}

// Get returns a source by its ID.
func Get(id string) (Source, bool) {
	s, ok := registry[id]
	return s, ok
}

// GetAll returns information for all registered sources.
func GetAll() []models.SourceInfo {
	var infos []models.SourceInfo
	for _, s := range registry {
		infos = append(infos, s.Info())
	}
	return infos
}

// UnregisterAll clears the registry. Only used by tests.
func UnregisterAll() {
	registry = make(map[string]Source)
}
