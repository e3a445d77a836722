package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testSeed(t *testing.T) Seed {
	t.Helper()
	seed, err := loadSeed(bcrypt.MinCost, testEpoch)
	if err != nil {
		t.Fatalf("loading seed: %v", err)
	}
	return seed
}

func setupTestRepo(t *testing.T) (*Repository, *sqliteStore) {
	t.Helper()
	kv := setupTestKV(t)
	return NewRepository(context.Background(), kv, testSeed(t)), kv
}

// storedCollection decodes the collection persisted under key.
func storedCollection[T any](t *testing.T, kv KeyValueStore, key string) []T {
	t.Helper()
	raw, found, err := kv.GetItem(context.Background(), key)
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	if !found {
		t.Fatalf("%s was never saved", key)
	}
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("decoding %s: %v", key, err)
	}
	return records
}

func TestLoadSeed(t *testing.T) {
	seed := testSeed(t)

	if len(seed.Users) != 1 {
		t.Fatalf("expected 1 seeded user, got %d", len(seed.Users))
	}
	if !checkPassword(seed.Users[0].Password, "password123") {
		t.Error("expected seeded password to be hashed 'password123'")
	}

	if len(seed.Posts) != 1 {
		t.Fatalf("expected 1 seeded post, got %d", len(seed.Posts))
	}
	if seed.Posts[0].CommentsCount != 2 {
		t.Errorf("expected seeded comment count 2, got %d", seed.Posts[0].CommentsCount)
	}

	if len(seed.Comments) != 2 {
		t.Fatalf("expected 2 seeded comments, got %d", len(seed.Comments))
	}
	if want := testEpoch.Add(-time.Hour); !seed.Comments[1].CreatedAt.Equal(want) {
		t.Errorf("expected second comment at %v, got %v", want, seed.Comments[1].CreatedAt)
	}
}

func TestParseSeed_UnknownAuthor(t *testing.T) {
	data := []byte(`
posts:
  - id: 1
    title: Orphan
    content: No author here
    author_id: 9
`)
	if _, err := parseSeed(data, bcrypt.MinCost, testEpoch); err == nil {
		t.Error("expected error for post with unknown author")
	}
}

func TestNewRepository_UsesSeedWhenEmpty(t *testing.T) {
	repo, _ := setupTestRepo(t)

	if len(repo.listPosts()) != 1 {
		t.Errorf("expected 1 seeded post, got %d", len(repo.listPosts()))
	}
	if repo.nextUserID != 2 || repo.nextPostID != 2 || repo.nextCommentID != 3 {
		t.Errorf("unexpected next ids: user=%d post=%d comment=%d",
			repo.nextUserID, repo.nextPostID, repo.nextCommentID)
	}
}

func TestNewRepository_LoadsStoredCollections(t *testing.T) {
	repo, kv := setupTestRepo(t)
	ctx := context.Background()

	author := Author{ID: 1, Name: "Demo User"}
	if _, err := repo.addPost(ctx, "Second post", "Second post content", author, testEpoch); err != nil {
		t.Fatalf("addPost() error: %v", err)
	}

	reloaded := NewRepository(ctx, kv, Seed{})
	if got := len(reloaded.listPosts()); got != 2 {
		t.Fatalf("expected 2 posts after reload, got %d", got)
	}
	if reloaded.nextPostID != 3 {
		t.Errorf("expected next post id 3, got %d", reloaded.nextPostID)
	}

	// Users and comments were never saved, so they come from the (empty) seed.
	if _, ok := reloaded.userByID(1); ok {
		t.Error("expected unsaved users to fall back to defaults")
	}
}

func TestAddUser_DuplicateEmail(t *testing.T) {
	repo, kv := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.addUser(ctx, "Ann", "ann@example.com", "hash"); err != nil {
		t.Fatalf("addUser() error: %v", err)
	}

	_, err := repo.addUser(ctx, "Other Ann", "ANN@example.com", "hash")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	users := storedCollection[User](t, kv, usersKey)
	if len(users) != 2 {
		t.Errorf("expected 2 stored users, got %d", len(users))
	}
	if len(repo.users) != 2 {
		t.Errorf("expected 2 users in memory, got %d", len(repo.users))
	}
}

func TestAddUser_AssignsIncreasingIDs(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	a, _ := repo.addUser(ctx, "Ann", "ann@example.com", "hash")
	b, _ := repo.addUser(ctx, "Bob", "bob@example.com", "hash")

	if a.ID != 2 || b.ID != 3 {
		t.Errorf("expected ids 2 and 3, got %d and %d", a.ID, b.ID)
	}
}

func TestRepositoryUpdatePost_NotOwner(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.updatePost(context.Background(), 1, 99, "New title", "New content", testEpoch)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestRepositoryUpdatePost_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.updatePost(context.Background(), 42, 1, "New title", "New content", testEpoch)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestDeletePost_CascadesComments(t *testing.T) {
	repo, kv := setupTestRepo(t)
	ctx := context.Background()
	author := Author{ID: 1, Name: "Demo User"}

	other, err := repo.addPost(ctx, "Other post", "Other post content", author, testEpoch)
	if err != nil {
		t.Fatalf("addPost() error: %v", err)
	}
	if _, err := repo.addComment(ctx, other.ID, "Kept comment", author, testEpoch); err != nil {
		t.Fatalf("addComment() error: %v", err)
	}

	if err := repo.deletePost(ctx, 1, 1); err != nil {
		t.Fatalf("deletePost() error: %v", err)
	}

	if _, ok := repo.postByID(1); ok {
		t.Error("expected post 1 to be deleted")
	}
	if got := repo.commentsFor(1); len(got) != 0 {
		t.Errorf("expected comments of post 1 removed, got %d", len(got))
	}
	if got := repo.commentsFor(other.ID); len(got) != 1 {
		t.Errorf("expected other post to keep 1 comment, got %d", len(got))
	}

	stored := storedCollection[Comment](t, kv, commentsKey)
	if len(stored) != 1 || stored[0].PostID != other.ID {
		t.Errorf("expected only the other post's comment stored, got %+v", stored)
	}
	posts := storedCollection[Post](t, kv, postsKey)
	if len(posts) != 1 || posts[0].ID != other.ID {
		t.Errorf("expected only the other post stored, got %+v", posts)
	}
}

func TestAddComment_UpdatesCountInSameCommit(t *testing.T) {
	repo, kv := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.addComment(ctx, 1, "Nice one", Author{ID: 1, Name: "Demo User"}, testEpoch); err != nil {
		t.Fatalf("addComment() error: %v", err)
	}

	post, _ := repo.postByID(1)
	if post.CommentsCount != 3 {
		t.Errorf("expected comment count 3, got %d", post.CommentsCount)
	}

	posts := storedCollection[Post](t, kv, postsKey)
	comments := storedCollection[Comment](t, kv, commentsKey)
	if posts[0].CommentsCount != len(comments) {
		t.Errorf("stored count %d does not match %d stored comments", posts[0].CommentsCount, len(comments))
	}
}

func TestAddComment_UnknownPost(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.addComment(context.Background(), 42, "Hello?", Author{ID: 1, Name: "Demo User"}, testEpoch)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
	if repo.nextCommentID != 3 {
		t.Errorf("expected comment id not consumed, next is %d", repo.nextCommentID)
	}
}
