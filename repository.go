package main

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Repository owns the users, posts and comments collections and mirrors
// every mutation to durable storage.
type Repository struct {
	kv KeyValueStore

	mu            sync.Mutex
	users         []User
	posts         []Post
	comments      []Comment
	nextUserID    int
	nextPostID    int
	nextCommentID int
}

// NewRepository loads every collection from kv, falling back to seed for
// any collection that is missing or unusable.
func NewRepository(ctx context.Context, kv KeyValueStore, seed Seed) *Repository {
	r := &Repository{
		kv:       kv,
		users:    loadCollection(ctx, kv, usersKey, seed.Users),
		posts:    loadCollection(ctx, kv, postsKey, seed.Posts),
		comments: loadCollection(ctx, kv, commentsKey, seed.Comments),
	}
	r.nextUserID = nextID(r.users)
	r.nextPostID = nextID(r.posts)
	r.nextCommentID = nextID(r.comments)
	return r
}

func (r *Repository) userByEmail(email string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}

func (r *Repository) userByID(id int) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// addUser stores a new user. The email must not already be registered.
func (r *Repository) addUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return User{}, ErrEmailTaken
		}
	}

	user := User{ID: r.nextUserID, Name: name, Email: email, Password: passwordHash}
	if err := user.validate(); err != nil {
		return User{}, err
	}

	r.nextUserID++
	r.users = append(r.users, user)
	saveCollection(ctx, r.kv, usersKey, r.users)
	return user, nil
}

func (r *Repository) listPosts() []Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.posts)
}

func (r *Repository) postByID(id int) (Post, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.postIndex(id); i >= 0 {
		return r.posts[i], true
	}
	return Post{}, false
}

// postIndex returns the position of post id, or -1. Callers hold r.mu.
func (r *Repository) postIndex(id int) int {
	return slices.IndexFunc(r.posts, func(p Post) bool { return p.ID == id })
}

func (r *Repository) addPost(ctx context.Context, title, content string, author Author, now time.Time) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post := Post{
		ID:        r.nextPostID,
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: now,
	}
	if err := post.validate(); err != nil {
		return Post{}, err
	}

	r.nextPostID++
	r.posts = append(r.posts, post)
	saveCollection(ctx, r.kv, postsKey, r.posts)
	return post, nil
}

// updatePost replaces the title and content of post id on behalf of actorID.
func (r *Repository) updatePost(ctx context.Context, id, actorID int, title, content string, now time.Time) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.postIndex(id)
	if i < 0 {
		return Post{}, ErrPostNotFound
	}
	if r.posts[i].Author.ID != actorID {
		return Post{}, ErrNotOwner
	}

	updated := r.posts[i]
	updated.Title = title
	updated.Content = content
	updated.UpdatedAt = &now
	if err := updated.validate(); err != nil {
		return Post{}, err
	}

	r.posts[i] = updated
	saveCollection(ctx, r.kv, postsKey, r.posts)
	return updated, nil
}

// deletePost removes post id and every comment that belongs to it in one
// commit.
func (r *Repository) deletePost(ctx context.Context, id, actorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.postIndex(id)
	if i < 0 {
		return ErrPostNotFound
	}
	if r.posts[i].Author.ID != actorID {
		return ErrNotOwner
	}

	r.posts = slices.Delete(r.posts, i, i+1)
	r.comments = slices.DeleteFunc(r.comments, func(c Comment) bool { return c.PostID == id })

	saveCollections(ctx, r.kv, map[string]any{
		postsKey:    nonNil(r.posts),
		commentsKey: nonNil(r.comments),
	})
	return nil
}

func (r *Repository) commentsFor(postID int) []Comment {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// addComment stores a comment on postID and bumps the post's comment count
// in the same commit.
func (r *Repository) addComment(ctx context.Context, postID int, content string, author Author, now time.Time) (Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.postIndex(postID)
	if i < 0 {
		return Comment{}, ErrPostNotFound
	}

	comment := Comment{
		ID:        r.nextCommentID,
		PostID:    postID,
		Content:   content,
		Author:    author,
		CreatedAt: now,
	}
	if err := comment.validate(); err != nil {
		return Comment{}, err
	}

	r.nextCommentID++
	r.comments = append(r.comments, comment)
	r.posts[i].CommentsCount++

	saveCollections(ctx, r.kv, map[string]any{
		postsKey:    r.posts,
		commentsKey: r.comments,
	})
	return comment, nil
}
