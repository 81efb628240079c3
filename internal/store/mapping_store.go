package store

import (
	"database/sql"
	"errors"
)

// GetRepoMapping returns the tracked repository for a plugin id.
// Returns sql.ErrNoRows when no mapping exists.
func (s *Store) GetRepoMapping(pluginID string) (string, error) {
	var repo string
	err := s.db.QueryRow(`SELECT repo FROM repo_mappings WHERE plugin_id = ?`, pluginID).Scan(&repo)
	if err != nil {
		return "", err
	}
	return repo, nil
}

// SaveRepoMapping records a plugin-id -> repository mapping. It reports
// whether a row was actually written: saving an unchanged mapping is a
// no-op, so repeated detections of the same repository touch the database
// exactly once.
func (s *Store) SaveRepoMapping(pluginID, repo string) (bool, error) {
	existing, err := s.GetRepoMapping(pluginID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if err == nil {
		if existing == repo {
			return false, nil
		}
		_, err = s.db.Exec(`UPDATE repo_mappings SET repo = ? WHERE plugin_id = ?`, repo, pluginID)
		return err == nil, err
	}

	_, err = s.db.Exec(`INSERT INTO repo_mappings (plugin_id, repo) VALUES (?, ?)`, pluginID, repo)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAllRepoMappings returns every tracked mapping keyed by plugin id.
func (s *Store) GetAllRepoMappings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT plugin_id, repo FROM repo_mappings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := make(map[string]string)
	for rows.Next() {
		var pluginID, repo string
		if err := rows.Scan(&pluginID, &repo); err != nil {
			return nil, err
		}
		mappings[pluginID] = repo
	}
	return mappings, rows.Err()
}
