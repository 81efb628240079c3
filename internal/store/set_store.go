package store

import (
	"fmt"
	"strings"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// CreateSet creates a new, empty plugin set. Names are not required to be
// unique; the id is the handle.
func (s *Store) CreateSet(name string) (*models.PluginSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("set name cannot be empty")
	}

	result, err := s.db.Exec(`INSERT INTO plugin_sets (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetSet(id)
}

// GetSet returns a set and its repositories in insertion order.
func (s *Store) GetSet(id int64) (*models.PluginSet, error) {
	var set models.PluginSet
	err := s.db.QueryRow(`
		SELECT id, name, created_at FROM plugin_sets WHERE id = ?
	`, id).Scan(&set.ID, &set.Name, &set.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT repo FROM plugin_set_repos WHERE set_id = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var repo string
		if err := rows.Scan(&repo); err != nil {
			return nil, err
		}
		set.Repos = append(set.Repos, repo)
	}
	return &set, rows.Err()
}

// ListSets returns all plugin sets with their repositories.
func (s *Store) ListSets() ([]*models.PluginSet, error) {
	rows, err := s.db.Query(`SELECT id FROM plugin_sets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets := make([]*models.PluginSet, 0, len(ids))
	for _, id := range ids {
		set, err := s.GetSet(id)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// DeleteSet removes a set and its repo references. The referenced
// repositories themselves are untouched.
func (s *Store) DeleteSet(id int64) error {
	_, err := s.db.Exec(`DELETE FROM plugin_sets WHERE id = ?`, id)
	return err
}

// AddRepoToSet appends a repository to a set. Duplicates are suppressed
// silently and keep their original position.
func (s *Store) AddRepoToSet(setID int64, repo string) error {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return fmt.Errorf("repo cannot be empty")
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO plugin_set_repos (set_id, repo, position)
		VALUES (?, ?, COALESCE((SELECT MAX(position) + 1 FROM plugin_set_repos WHERE set_id = ?), 0))
	`, setID, repo, setID)
	return err
}

// RemoveRepoFromSet drops a repository from a set.
func (s *Store) RemoveRepoFromSet(setID int64, repo string) error {
	_, err := s.db.Exec(`DELETE FROM plugin_set_repos WHERE set_id = ? AND repo = ?`, setID, repo)
	return err
}
