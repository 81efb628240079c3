// Covers the data access layer against a real in-memory SQLite database.

package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kvasir-dev/plugvault/internal/db"
)

// setupStore opens an in-memory database with all migrations applied. The
// shared testutil helper is not usable here: it sits above this package.
func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := database.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return New(database)
}

func TestRepoMappings(t *testing.T) {
	s := setupStore(t)

	if _, err := s.GetRepoMapping("calendar"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for a missing mapping, got %v", err)
	}

	written, err := s.SaveRepoMapping("calendar", "liamcain/obsidian-calendar-plugin")
	if err != nil {
		t.Fatalf("SaveRepoMapping failed: %v", err)
	}
	if !written {
		t.Error("first save should report a write")
	}

	repo, err := s.GetRepoMapping("calendar")
	if err != nil {
		t.Fatalf("GetRepoMapping failed: %v", err)
	}
	if repo != "liamcain/obsidian-calendar-plugin" {
		t.Errorf("repo = %q", repo)
	}

	// Re-saving the same mapping is a no-op.
	written, err = s.SaveRepoMapping("calendar", "liamcain/obsidian-calendar-plugin")
	if err != nil {
		t.Fatalf("SaveRepoMapping failed: %v", err)
	}
	if written {
		t.Error("unchanged mapping should not be rewritten")
	}

	// A changed mapping overwrites.
	written, err = s.SaveRepoMapping("calendar", "liamcain/calendar")
	if err != nil {
		t.Fatalf("SaveRepoMapping failed: %v", err)
	}
	if !written {
		t.Error("changed mapping should be written")
	}
	repo, _ = s.GetRepoMapping("calendar")
	if repo != "liamcain/calendar" {
		t.Errorf("repo = %q after update", repo)
	}

	all, err := s.GetAllRepoMappings()
	if err != nil {
		t.Fatalf("GetAllRepoMappings failed: %v", err)
	}
	if len(all) != 1 || all["calendar"] != "liamcain/calendar" {
		t.Errorf("all = %v", all)
	}
}

func TestPluginSets(t *testing.T) {
	s := setupStore(t)

	set, err := s.CreateSet("Writing")
	if err != nil {
		t.Fatalf("CreateSet failed: %v", err)
	}
	if set.Name != "Writing" || len(set.Repos) != 0 {
		t.Errorf("unexpected set %+v", set)
	}

	if _, err := s.CreateSet("  "); err == nil {
		t.Error("blank set names must be rejected")
	}

	for _, repo := range []string{"a/one", "b/two", "c/three"} {
		if err := s.AddRepoToSet(set.ID, repo); err != nil {
			t.Fatalf("AddRepoToSet failed: %v", err)
		}
	}
	// Duplicates are ignored and keep their original position.
	if err := s.AddRepoToSet(set.ID, "a/one"); err != nil {
		t.Fatalf("duplicate AddRepoToSet failed: %v", err)
	}

	set, err = s.GetSet(set.ID)
	if err != nil {
		t.Fatalf("GetSet failed: %v", err)
	}
	expected := []string{"a/one", "b/two", "c/three"}
	if len(set.Repos) != len(expected) {
		t.Fatalf("repos = %v, want %v", set.Repos, expected)
	}
	for i := range expected {
		if set.Repos[i] != expected[i] {
			t.Errorf("repos[%d] = %q, want %q", i, set.Repos[i], expected[i])
		}
	}

	if err := s.RemoveRepoFromSet(set.ID, "b/two"); err != nil {
		t.Fatalf("RemoveRepoFromSet failed: %v", err)
	}
	set, _ = s.GetSet(set.ID)
	if len(set.Repos) != 2 {
		t.Errorf("repos = %v after removal", set.Repos)
	}

	sets, err := s.ListSets()
	if err != nil {
		t.Fatalf("ListSets failed: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("got %d sets, want 1", len(sets))
	}

	if err := s.DeleteSet(set.ID); err != nil {
		t.Fatalf("DeleteSet failed: %v", err)
	}
	if _, err := s.GetSet(set.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestUsersAndSessions(t *testing.T) {
	s := setupStore(t)

	count, err := s.CountUsers()
	if err != nil || count != 0 {
		t.Fatalf("CountUsers = (%d, %v), want (0, nil)", count, err)
	}

	user, err := s.CreateUser("admin", "fake-hash", "admin")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Username != "admin" || user.Role != "admin" {
		t.Errorf("unexpected user %+v", user)
	}

	if _, err := s.CreateUser("admin", "other", "admin"); err == nil {
		t.Error("duplicate usernames must be rejected")
	}

	token, err := s.CreateSession(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetUserFromSession(token)
	if err != nil {
		t.Fatalf("GetUserFromSession failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("session resolved to user %d, want %d", got.ID, user.ID)
	}

	// Expired sessions are rejected and removed.
	expired, err := s.CreateSession(user.ID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := s.GetUserFromSession(expired); err == nil {
		t.Error("expired session should be invalid")
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := s.GetUserFromSession(token); err == nil {
		t.Error("deleted session should be invalid")
	}
}
