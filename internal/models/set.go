package models

import "time"

// PluginSet is a user-named, ordered grouping of repository full names.
// It owns nothing: deleting a set never touches the referenced plugins.
type PluginSet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Repos     []string  `json:"repos"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that can log into the API.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
