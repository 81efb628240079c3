package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// CountUsers returns the number of registered users. Used at startup to
// decide whether the default admin account needs provisioning.
func (s *Store) CountUsers() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateUser inserts a new user with a pre-hashed password.
func (s *Store) CreateUser(username, passwordHash, role string) (*models.User, error) {
	result, err := s.db.Exec(`
		INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)
	`, username, passwordHash, role)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getUser(id)
}

func (s *Store) getUser(id int64) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(`
		SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername looks a user up for login.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(`
		SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSession creates a session token for a user with the given lifetime.
func (s *Store) CreateSession(userID int64, duration time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	_, err := s.db.Exec(`
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)
	`, token, userID, time.Now().Add(duration))
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetUserFromSession resolves a session token to its user. Expired sessions
// are deleted on sight and reported as invalid.
func (s *Store) GetUserFromSession(token string) (*models.User, error) {
	var userID int64
	var expiresAt time.Time
	err := s.db.QueryRow(`
		SELECT user_id, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&userID, &expiresAt)
	if err != nil {
		return nil, err
	}

	if time.Now().After(expiresAt) {
		s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
		return nil, fmt.Errorf("session expired")
	}

	return s.getUser(userID)
}

// DeleteSession removes a session, logging the user out.
func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
