// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"mamane/internal/model"
	"mamane/internal/repository/mysql"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite file database under t.TempDir().
// A single connection serializes statements the way one MySQL row lock would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := mysql.Open(sqlite.Open(path + "?_busy_timeout=5000"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewRedis starts a miniredis server and a client pointed at it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

// SeedUser inserts a user with a fixed id.
func SeedUser(t *testing.T, db *gorm.DB, id, username string, mutate ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{
		ID:                 id,
		Username:           username,
		Password:           "x",
		Email:              username + "@example.com",
		EmailNotifications: true,
	}
	for _, m := range mutate {
		m(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	// gorm skips zero-valued bools that carry a default on insert
	if !u.EmailNotifications {
		db.Model(u).Update("email_notifications", false)
	}
	return u
}

func SeedPost(t *testing.T, db *gorm.DB, id, ownerID, title string) *model.Post {
	t.Helper()
	p := &model.Post{ID: id, OwnerID: ownerID, Title: title, Content: title + " content"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed post %s: %v", id, err)
	}
	return p
}

func SeedComment(t *testing.T, db *gorm.DB, postID, authorID, content string) *model.Comment {
	t.Helper()
	c := &model.Comment{PostID: postID, AuthorID: authorID, Content: content}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}
